package cmdutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"prettybuild/config"
	"prettybuild/internal/archive"
	"prettybuild/internal/display"
	"prettybuild/internal/logging"

	"github.com/spf13/cobra"
)

// Flags are the persistent flags of the root command.
type Flags struct {
	Debug      bool
	Plain      bool
	ConfigPath string
}

func (f *Flags) Bind(cmd *cobra.Command) {
	cmd.PersistentFlags().BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVar(&f.Plain, "plain", false, "Print one line per status change instead of a live display")
	cmd.PersistentFlags().StringVar(&f.ConfigPath, "config", "", "Config file (default "+config.Path()+")")
}

// LogLevel returns the level selected by the flags.
func (f *Flags) LogLevel() string {
	if f.Debug {
		return logging.LevelDebug
	}
	return logging.LevelWarn
}

// ExitError carries the exit status of a build command.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("build exited with status %d", e.Code)
}

// Session is a display opened on stderr together with the resources that
// live as long as it does.
type Session struct {
	Config  config.Config
	Display display.Display
	// Archive receives the raw build output. It is nil unless requested.
	Archive *archive.Archive

	flags *Flags
	held  *logBuffer
	once  sync.Once
}

// Open loads the configuration and starts a display on stderr. With
// withArchive set, a build output archive is created and logs go there;
// otherwise logs are held back while a live display owns the terminal.
func Open(ctx context.Context, flags *Flags, withArchive bool) (*Session, error) {
	cfg, err := config.Load(flags.ConfigPath)
	if err != nil {
		return nil, err
	}
	plain := flags.Plain || cfg.Plain
	interactive := display.Interactive(os.Stderr, plain)

	s := &Session{Config: cfg, flags: flags}
	var logTarget io.Writer = os.Stderr
	if withArchive {
		if s.Archive, err = archive.Create(cfg.ArchiveDir); err != nil {
			return nil, err
		}
		logTarget = s.Archive
	} else if interactive {
		s.held = &logBuffer{}
		logTarget = s.held
	}
	if err := logging.Configure(flags.LogLevel(), logTarget); err != nil {
		return nil, err
	}

	opts := display.Options{
		Interval:   cfg.Tick,
		Period:     cfg.AnimationPeriod,
		MoreMarker: cfg.MoreMarker,
	}
	if s.Archive != nil {
		opts.ArchivePath = s.Archive.Path()
	}
	s.Display = display.Open(os.Stderr, plain, cfg.FallbackWidth, opts)
	s.Display.Start(ctx)
	return s, nil
}

// Finish closes the event stream, waits for the last frame and releases
// everything Open acquired. Held-back logs are printed afterwards.
func (s *Session) Finish() error {
	var err error
	s.once.Do(func() {
		s.Display.Close()
		s.Display.Wait()

		if cfgErr := logging.Configure(s.flags.LogLevel(), os.Stderr); cfgErr != nil {
			err = cfgErr
		}
		if s.held != nil {
			_, _ = s.held.WriteTo(os.Stderr)
		}
		if s.Archive != nil {
			err = errors.Join(err, s.Archive.Close())
		}
	})
	return err
}

// logBuffer keeps log output in memory until the display is done.
type logBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *logBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *logBuffer) WriteTo(w io.Writer) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.WriteTo(w)
}
