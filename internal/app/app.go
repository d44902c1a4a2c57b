// internal/app/app.go
package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/natir/pcon/internal/cli"
	"github.com/natir/pcon/internal/cmdutil"
	"github.com/natir/pcon/internal/version"
	"github.com/natir/pcon/internal/writers"
	"github.com/spf13/cobra"
)

// env carries what every command needs once flags are parsed.
type env struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	global cli.Global
	log    cmdutil.Logger
	ran    bool
}

func newRootCmd(ctx context.Context, e *env) *cobra.Command {
	root := &cobra.Command{
		Use:   "pcon",
		Short: "pcon counts k-mers of FASTA/FASTQ files in a dense table",
		Long:  `pcon counts canonical k-mers in a dense table of fixed-width counters,
stores the table in a compact binary file, and derives solid k-mer sets and
abundance thresholds from it.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		lvl, err := cmdutil.LevelFor(e.global.Verbosity, os.Getenv("PCON_LOG"))
		if err != nil {
			return errors.Mark(errors.Wrap(err, "PCON_LOG"), cli.ErrConfig)
		}
		e.log = cmdutil.NewLogger(e.stderr, lvl, e.global.Quiet)
		return nil
	}
	e.global.RegisterPersistent(root.PersistentFlags())
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return errors.Mark(err, cli.ErrConfig)
	})

	cobra.EnableCommandSorting = false
	root.AddCommand(
		newCountCmd(ctx, e),
		newDumpCmd(ctx, e),
		newInfoCmd(e),
	)
	return root
}

// RunContext runs pcon with argv (without the program name) and returns the
// process exit code: 0 on success, 2 on usage or configuration errors, 3 on
// I/O and format errors, 130 when ctx was cancelled.
func RunContext(ctx context.Context, argv []string, stdout, stderr io.Writer) int {
	outw := bufio.NewWriter(stdout)
	e := &env{stdin: os.Stdin, stdout: outw, stderr: stderr, log: cmdutil.Nop}

	root := newRootCmd(ctx, e)
	root.SetArgs(argv)
	root.SetOut(outw)
	root.SetErr(stderr)

	err := root.Execute()
	if ferr := outw.Flush(); err == nil && ferr != nil {
		err = errors.Wrap(ferr, "writing stdout")
	}
	code := exitCode(err, e.ran)
	switch {
	case code == 130:
		_, _ = fmt.Fprintln(stderr, "pcon: interrupted")
	case err != nil && code != 0:
		_, _ = fmt.Fprintf(stderr, "pcon: %v\n", err)
		for _, h := range errors.GetAllHints(err) {
			_, _ = fmt.Fprintf(stderr, "HINT: %s\n", h)
		}
		if code == 2 {
			_, _ = fmt.Fprintln(stderr, "Run 'pcon --help' for usage.")
		}
	}
	return code
}

// Run is RunContext without cancellation.
func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}

func exitCode(err error, ran bool) int {
	switch {
	case err == nil, writers.IsBrokenPipe(err):
		return 0
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return 130
	case errors.Is(err, cli.ErrConfig), !ran:
		return 2
	default:
		return 3
	}
}

// start marks the command as running and validates its options, with the
// persistent flags copied in.
func (e *env) start(g *cli.Global, validate func() error) error {
	e.ran = true
	*g = e.global
	return validate()
}
