package display

import (
	"context"
	"os"

	"prettybuild/internal/progress"
	"prettybuild/internal/render"
)

// Display is a Sink that owns an output for its lifetime.
type Display interface {
	progress.Sink
	// Start begins drawing. It must be called before Wait.
	Start(ctx context.Context)
	// Wait blocks until the last frame has been written after Close.
	Wait()
}

var (
	_ Display = (*Engine)(nil)
	_ Display = (*Plain)(nil)
)

// Open returns a live Engine on f when f is an interactive terminal and
// forcePlain is unset, and a Plain printer otherwise. fallbackWidth is used
// when the terminal size cannot be read.
func Open(f *os.File, forcePlain bool, fallbackWidth int, opts Options) Display {
	interactive := Interactive(f, forcePlain)
	renderer := render.New(NewRenderer(f, interactive), opts.Period)
	if !interactive {
		opts.withDefaults().Logger.Debug("live display disabled, using plain output")
		return NewPlain(f, renderer, opts)
	}
	return NewEngine(NewStore(), NewTerminal(f, fallbackWidth), renderer, opts)
}
