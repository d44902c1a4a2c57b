// internal/appshell/shell.go

// Package appshell is the process entry shared by the binaries: it installs
// signal handling and turns a run function's result into an exit code.
package appshell

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

// RunFunc is the signature of app.RunContext.
type RunFunc func(ctx context.Context, argv []string, stdout, stderr io.Writer) int

// Main runs run with os.Args and exits. The first SIGINT or SIGTERM cancels
// the run context; a second one exits at once with code 130.
func Main(name string, run RunFunc) {
	os.Exit(Exec(name, run, os.Args[1:], os.Stdout, os.Stderr))
}

// Exec is Main without os.Exit.
func Exec(name string, run RunFunc, argv []string, stdout, stderr io.Writer) int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)
	go func() {
		select {
		case <-sigs:
		case <-ctx.Done():
			return
		}
		_, _ = fmt.Fprintf(stderr, "%s: stopping, interrupt again to abort\n", name)
		cancel()
		if _, ok := <-sigs; ok {
			os.Exit(130)
		}
	}()

	if len(argv) == 0 {
		argv = []string{"-h"}
	}
	code := run(ctx, argv, stdout, stderr)
	if ctx.Err() != nil && code == 0 {
		code = 130
	}
	return code
}
