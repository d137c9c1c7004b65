package democmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"prettybuild/cmd/prettybuild/cmdutil"
	"prettybuild/internal/progress"
	"prettybuild/internal/spans"
	"prettybuild/internal/wire"

	"github.com/spf13/cobra"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Cmd returns the "prettybuild demo" command.
func Cmd(flags *cmdutil.Flags) *cobra.Command {
	var (
		opts   Options
		events bool
		marked bool
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Simulate a multi-project build",
		Long: "Simulate a multi-project build reported through OpenTelemetry spans.\n" +
			"With --events the build is written as a JSON-lines event stream instead\n" +
			"of being displayed, which is handy to try out watch and replay.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if events {
				w := wire.NewWriter(cmd.OutOrStdout(), marked)
				err := run(ctx, w, opts)
				return errors.Join(err, w.Err())
			}

			session, err := cmdutil.Open(ctx, flags, false)
			if err != nil {
				return err
			}
			err = run(ctx, session.Display, opts)
			return errors.Join(err, session.Finish())
		},
	}

	cmd.Flags().IntVar(&opts.Projects, "projects", 8, "Number of projects")
	cmd.Flags().IntVar(&opts.Threads, "threads", 4, "Projects built concurrently")
	cmd.Flags().StringVar(&opts.Fail, "fail", "", "Project whose tests fail")
	cmd.Flags().DurationVar(&opts.StepDelay, "step-delay", 300*time.Millisecond, "Mean duration of one build step")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "Seed for step durations (0 picks one at random)")
	cmd.Flags().BoolVar(&events, "events", false, "Write build events to stdout instead of displaying them")
	cmd.Flags().BoolVar(&marked, "marked", false, "Prefix event lines with the marker used by run")
	return cmd
}

// run simulates a build whose spans feed sink. The sink is closed when the
// session span ends.
func run(ctx context.Context, sink progress.Sink, opts Options) error {
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans.NewProcessor(sink)))
	defer func() { _ = provider.Shutdown(context.Background()) }()
	return Simulate(ctx, provider.Tracer("prettybuild/demo"), opts)
}
