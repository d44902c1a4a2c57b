// internal/cli/flagset.go
package cli

import (
	"io"

	"github.com/spf13/pflag"
)

// NewFlagSet returns a silent FlagSet with ContinueOnError, for parsing
// option structs outside of a cobra command.
func NewFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	return fs
}
