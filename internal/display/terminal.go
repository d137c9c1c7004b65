package display

import (
	"io"
	"os"

	"golang.org/x/term"
)

// DefaultWidth is used when the width of a surface cannot be determined.
const DefaultWidth = 80

// Surface is where frames are written.
type Surface interface {
	io.Writer
	// Width returns the current number of columns. It is consulted on
	// every tick so that resizes take effect on the next frame.
	Width() int
}

// Terminal is a Surface backed by a terminal file descriptor.
type Terminal struct {
	f        *os.File
	fallback int
}

// NewTerminal returns a Surface writing to f. fallback is the width reported
// when f is not a terminal or its size cannot be read.
func NewTerminal(f *os.File, fallback int) *Terminal {
	if fallback <= 0 {
		fallback = DefaultWidth
	}
	return &Terminal{f: f, fallback: fallback}
}

func (t *Terminal) Write(p []byte) (int, error) {
	return t.f.Write(p)
}

func (t *Terminal) Width() int {
	w, _, err := term.GetSize(int(t.f.Fd()))
	if err != nil || w <= 0 {
		return t.fallback
	}
	return w
}

// fixedSurface is a Surface of constant width over any writer.
type fixedSurface struct {
	io.Writer
	width int
}

// FixedWidth returns a Surface over w that always reports width columns.
func FixedWidth(w io.Writer, width int) Surface {
	return fixedSurface{Writer: w, width: width}
}

func (s fixedSurface) Width() int {
	return s.width
}
