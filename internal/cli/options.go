// internal/cli/options.go
package cli

import (
	"runtime"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/natir/pcon/internal/compress"
	"github.com/natir/pcon/internal/pipeline"
	"github.com/natir/pcon/internal/spectrum"
	"github.com/spf13/pflag"
)

// ErrConfig marks every error returned by Validate.
var ErrConfig = errors.New("invalid configuration")

func configErrorf(format string, a ...any) error {
	return errors.Mark(errors.Newf(format, a...), ErrConfig)
}

// Global holds the flags shared by every command.
type Global struct {
	Threads   int
	Verbosity int
	Quiet     bool
}

// RegisterPersistent binds the global flags.
func (g *Global) RegisterPersistent(fs *pflag.FlagSet) {
	fs.IntVarP(&g.Threads, "threads", "t", 1, "number of counting workers (0 = all CPUs)")
	fs.CountVarP(&g.Verbosity, "verbose", "v", "verbosity: -v info, -vv debug (default: $PCON_LOG or warn)")
	fs.BoolVarP(&g.Quiet, "quiet", "q", false, "only print errors")
}

func (g *Global) ensureDefaults() {
	if g.Threads == 0 {
		g.Threads = runtime.NumCPU()
	}
}

func (g *Global) validate() error {
	if g.Threads < 0 {
		return configErrorf("--threads must be >= 0")
	}
	if g.Quiet && g.Verbosity > 0 {
		return configErrorf("--quiet conflicts with --verbose")
	}
	return nil
}

// Outputs selects what to write from a count table. Empty paths are
// skipped; "-" is stdout.
type Outputs struct {
	Pcon     string
	CSV      string
	Solid    string
	Spectrum string

	Abundance   uint64
	Method      string
	MethodParam float64
	Compression string

	Plot       bool
	PlotWidth  int
	PlotHeight int

	method    spectrum.Method
	hasMethod bool
	algorithm compress.Algorithm
}

func (o *Outputs) register(fs *pflag.FlagSet) {
	fs.StringVarP(&o.Pcon, "pcon", "p", "", "write the binary count table to this path")
	fs.StringVarP(&o.CSV, "csv", "c", "", "write kmer,count lines to this path")
	fs.StringVarP(&o.Solid, "solid", "s", "", "write the solid k-mer bitset to this path")
	fs.StringVarP(&o.Spectrum, "spectrum", "S", "", "write count,frequency lines of the spectrum to this path")
	fs.Uint64VarP(&o.Abundance, "abundance", "a", 1, "minimum count kept in csv and solid outputs")
	fs.StringVarP(&o.Method, "method", "m", "",
		"estimate the abundance from the spectrum: "+strings.Join(spectrum.Methods(), " | "))
	fs.Float64Var(&o.MethodParam, "method-param", 5, "percentage used by the percent-* and rarefaction methods")
	fs.StringVar(&o.Compression, "compression", compress.Gzip.String(),
		"compression of binary outputs: "+joinAlgorithms())
	fs.BoolVar(&o.Plot, "plot", false, "print an ASCII plot of the spectrum to stderr")
	fs.IntVar(&o.PlotWidth, "plot-width", 80, "counts shown by --plot")
	fs.IntVar(&o.PlotHeight, "plot-height", 20, "rows used by --plot")
}

func joinAlgorithms() string {
	var names []string
	for _, a := range compress.Algorithms() {
		names = append(names, a.String())
	}
	return strings.Join(names, " | ")
}

func (o *Outputs) ensureDefaults() {
	if o.Compression == "" {
		o.Compression = compress.Gzip.String()
	}
	if o.PlotWidth <= 0 {
		o.PlotWidth = 80
	}
	if o.PlotHeight <= 0 {
		o.PlotHeight = 20
	}
}

func (o *Outputs) validate() error {
	if o.Pcon == "" && o.CSV == "" && o.Solid == "" && o.Spectrum == "" && !o.Plot {
		return configErrorf("no output requested: use --pcon, --csv, --solid, --spectrum or --plot")
	}
	stdout := 0
	for _, p := range []string{o.Pcon, o.CSV, o.Solid, o.Spectrum} {
		if p == "-" {
			stdout++
		}
	}
	if stdout > 1 {
		return configErrorf("only one output can be written to stdout")
	}
	a, err := compress.ParseAlgorithm(o.Compression)
	if err != nil {
		return errors.Mark(err, ErrConfig)
	}
	o.algorithm = a
	o.hasMethod = false
	if o.Method != "" {
		m, err := spectrum.ParseMethod(o.Method, o.MethodParam)
		if err != nil {
			return errors.Mark(err, ErrConfig)
		}
		o.method, o.hasMethod = m, true
	}
	return nil
}

// ThresholdMethod returns the parsed --method, if one was given. Only valid
// after Validate.
func (o *Outputs) ThresholdMethod() (spectrum.Method, bool) { return o.method, o.hasMethod }

// Algorithm returns the parsed --compression. Only valid after Validate.
func (o *Outputs) Algorithm() compress.Algorithm { return o.algorithm }

// CountOptions configures "pcon count".
type CountOptions struct {
	Global
	Outputs

	K            uint8
	Inputs       []string
	RecordBuffer int
	Stats        bool
	Metrics      string
}

// Register binds the count flags.
func (o *CountOptions) Register(fs *pflag.FlagSet) {
	fs.Uint8VarP(&o.K, "kmer", "k", 0, "k-mer size; even values are lowered by one, values above 31 clamped [*]")
	fs.StringSliceVarP(&o.Inputs, "inputs", "i", nil, "FASTA/FASTQ inputs, possibly compressed (repeatable or '-') [*]")
	fs.IntVarP(&o.RecordBuffer, "record-buffer", "b", pipeline.DefaultBatchSize, "records handed to a worker at once")
	fs.BoolVar(&o.Stats, "stats", false, "print a summary of the counted input to stderr")
	fs.StringVar(&o.Metrics, "metrics", "", "write run counters in Prometheus text format to this path")
	o.Outputs.register(fs)
}

// EnsureDefaults fills zero values with their defaults.
func (o *CountOptions) EnsureDefaults() {
	o.Global.ensureDefaults()
	o.Outputs.ensureDefaults()
	if o.RecordBuffer <= 0 {
		o.RecordBuffer = pipeline.DefaultBatchSize
	}
}

// Validate checks the options; every error is marked with ErrConfig.
func (o *CountOptions) Validate() error {
	if err := o.Global.validate(); err != nil {
		return err
	}
	if o.K == 0 {
		return configErrorf("--kmer is required and must be at least 1")
	}
	if len(o.Inputs) == 0 {
		return configErrorf("at least one --inputs file is required")
	}
	stdin := 0
	for _, in := range o.Inputs {
		if in == "-" {
			stdin++
		}
	}
	if stdin > 1 {
		return configErrorf("stdin can only be read once")
	}
	if err := o.Outputs.validate(); err != nil {
		return err
	}
	if o.Metrics == "-" {
		for _, p := range []string{o.Pcon, o.CSV, o.Solid, o.Spectrum} {
			if p == "-" {
				return configErrorf("only one output can be written to stdout")
			}
		}
	}
	return nil
}

// DumpOptions configures "pcon dump".
type DumpOptions struct {
	Global
	Outputs

	Input string
}

// Register binds the dump flags.
func (o *DumpOptions) Register(fs *pflag.FlagSet) {
	fs.StringVarP(&o.Input, "input", "i", "", "binary count table to read ('-' for stdin) [*]")
	o.Outputs.register(fs)
}

// EnsureDefaults fills zero values with their defaults.
func (o *DumpOptions) EnsureDefaults() {
	o.Global.ensureDefaults()
	o.Outputs.ensureDefaults()
}

// Validate checks the options; every error is marked with ErrConfig.
func (o *DumpOptions) Validate() error {
	if err := o.Global.validate(); err != nil {
		return err
	}
	if o.Input == "" {
		return configErrorf("--input is required")
	}
	return o.Outputs.validate()
}

// InfoOptions configures "pcon info".
type InfoOptions struct {
	Global

	Input       string
	MethodParam float64
}

// Register binds the info flags.
func (o *InfoOptions) Register(fs *pflag.FlagSet) {
	fs.StringVarP(&o.Input, "input", "i", "", "binary count table to describe ('-' for stdin) [*]")
	fs.Float64Var(&o.MethodParam, "method-param", 5, "percentage used by the percent-* and rarefaction estimates")
}

// EnsureDefaults fills zero values with their defaults.
func (o *InfoOptions) EnsureDefaults() { o.Global.ensureDefaults() }

// Validate checks the options; every error is marked with ErrConfig.
func (o *InfoOptions) Validate() error {
	if err := o.Global.validate(); err != nil {
		return err
	}
	if o.Input == "" {
		return configErrorf("--input is required")
	}
	if o.MethodParam < 0 || o.MethodParam > 100 {
		return configErrorf("--method-param must be a percentage in [0, 100]")
	}
	return nil
}
