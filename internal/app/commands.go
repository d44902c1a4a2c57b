// internal/app/commands.go
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/natir/pcon/internal/cli"
	"github.com/natir/pcon/internal/cliutil"
	"github.com/natir/pcon/internal/cmdutil"
	"github.com/natir/pcon/internal/compress"
	"github.com/natir/pcon/internal/count"
	"github.com/natir/pcon/internal/fasta"
	"github.com/natir/pcon/internal/kmer"
	"github.com/natir/pcon/internal/serialize"
	"github.com/natir/pcon/internal/spectrum"
	"github.com/natir/pcon/internal/stats"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"golang.org/x/exp/constraints"
)

func newCountCmd(ctx context.Context, e *env) *cobra.Command {
	var o cli.CountOptions
	cmd := &cobra.Command{
		Use:     "count -k K -i INPUT... [INPUT...] [outputs]",
		Short:   "count the k-mers of FASTA/FASTQ inputs",
		Example: `  pcon count -k 15 -i reads.fq.gz -p reads.pcon
  pcon count -k 21 -t 0 reads_*.fa -s reads.solid -m first-minimum --plot`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := cliutil.ExpandInputs(append(o.Inputs, args...))
			if err != nil {
				return errors.Mark(err, cli.ErrConfig)
			}
			o.Inputs = inputs
			if err := e.start(&o.Global, func() error {
				o.EnsureDefaults()
				return o.Validate()
			}); err != nil {
				return err
			}
			return runCount(ctx, e, &o)
		},
	}
	o.Register(cmd.Flags())
	return cmd
}

func runCount(ctx context.Context, e *env, o *cli.CountOptions) error {
	if k := kmer.NormalizeK(o.K); k != o.K {
		e.log.Infof("k=%d is not an odd value in [1, %d], using k=%d", o.K, kmer.MaxK, k)
	}
	rec := stats.New()
	t := count.NewTable[Count](o.K,
		count.WithWorkers(o.Threads),
		count.WithBatchSize(o.RecordBuffer),
		count.WithObserver(rec),
		count.WithLogger(e.log),
	)
	e.log.Debugf("table: k=%d, %d cells of %d byte(s), %d worker(s)", t.K(), t.Len(), t.Width(), o.Threads)

	n, err := cmdutil.ForEachInput(ctx, o.Inputs, e.log, func(f *fasta.File) error {
		return errors.Wrapf(t.CountFasta(ctx, f), "counting %s", f.Path)
	})
	if err != nil {
		return err
	}
	s := rec.Snapshot()
	e.log.Infof("counted %d k-mers from %d records in %d input(s)", s.Kmers, s.Records, n)
	if o.Stats {
		rec.Summary(e.stderr)
	}
	if o.Metrics != "" {
		if err := writeText(e, o.Metrics, rec.WriteMetrics); err != nil {
			return err
		}
	}
	return writeOutputs(e, t, &o.Outputs)
}

func newDumpCmd(ctx context.Context, e *env) *cobra.Command {
	var o cli.DumpOptions
	cmd := &cobra.Command{
		Use:     "dump -i TABLE [outputs]",
		Short:   "convert a binary count table to other outputs",
		Example: `  pcon dump -i reads.pcon -c - -a 3
  pcon dump -i reads.pcon -S spectrum.csv -s reads.solid -m rarefaction --method-param 2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.start(&o.Global, func() error {
				o.EnsureDefaults()
				return o.Validate()
			}); err != nil {
				return err
			}
			tf, err := openTable(e, o.Input)
			if err != nil {
				return err
			}
			defer func() { _ = tf.Close() }()
			t, err := readBody[Count](tf)
			if err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			return writeOutputs(e, t, &o.Outputs)
		},
	}
	o.Register(cmd.Flags())
	return cmd
}

func newInfoCmd(e *env) *cobra.Command {
	var o cli.InfoOptions
	cmd := &cobra.Command{
		Use:     "info -i TABLE",
		Short:   "describe a binary count table",
		Example: "  pcon info -i reads.pcon --method-param 1",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.start(&o.Global, func() error {
				o.EnsureDefaults()
				return o.Validate()
			}); err != nil {
				return err
			}
			tf, err := openTable(e, o.Input)
			if err != nil {
				return err
			}
			defer func() { _ = tf.Close() }()
			// info reads every width, whatever this binary counts with.
			switch tf.header.Width {
			case 1:
				return describe[uint8](e, tf, o.MethodParam)
			case 2:
				return describe[uint16](e, tf, o.MethodParam)
			case 4:
				return describe[uint32](e, tf, o.MethodParam)
			default:
				return describe[uint64](e, tf, o.MethodParam)
			}
		},
	}
	o.Register(cmd.Flags())
	return cmd
}

// tableFile is an opened count table positioned after its header.
type tableFile struct {
	path   string
	header serialize.Header
	alg    compress.Algorithm
	r      io.ReadCloser
	fh     *os.File
}

func openTable(e *env, path string) (*tableFile, error) {
	tf := &tableFile{path: path}
	src := e.stdin
	if path != "-" {
		fh, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrapf(err, "opening %s", path)
		}
		tf.fh, src = fh, fh
	}
	r, alg, err := compress.NewReader(src)
	if err != nil {
		_ = tf.Close()
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	tf.r, tf.alg = r, alg
	if tf.header, err = serialize.ReadHeader(r); err != nil {
		_ = tf.Close()
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	e.log.Debugf("%s: k=%d, width=%d, compression: %s", path, tf.header.K, tf.header.Width, alg)
	return tf, nil
}

func (tf *tableFile) Close() error {
	var err error
	if tf.r != nil {
		err = tf.r.Close()
	}
	if tf.fh != nil {
		if cerr := tf.fh.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func readBody[T constraints.Unsigned](tf *tableFile) (*count.Table[T], error) {
	t, err := serialize.ReadBody[T](tf.r, tf.header)
	if errors.Is(err, serialize.ErrWidthMismatch) {
		err = errors.WithHintf(err, "this pcon counts with %d-byte cells; %s", unsafeWidth[T](), buildHint(tf.header.Width))
	}
	return t, errors.Wrapf(err, "reading %s", tf.path)
}

func unsafeWidth[T constraints.Unsigned]() int { return int(unsafe.Sizeof(T(0))) }

func buildHint(width uint8) string {
	if width == 1 {
		return "build without count_* tags to read 1-byte tables"
	}
	return fmt.Sprintf("build with -tags count_u%d to read %d-byte tables", int(width)*8, width)
}

func describe[T constraints.Unsigned](e *env, tf *tableFile, p float64) error {
	t, err := readBody[T](tf)
	if err != nil {
		return err
	}
	hist := spectrum.New(t)

	tbl := tablewriter.NewWriter(e.stdout)
	tbl.SetHeader([]string{"Property", "Value"})
	tbl.SetAutoFormatHeaders(false)
	tbl.Append([]string{"k", fmt.Sprint(t.K())})
	tbl.Append([]string{"width", fmt.Sprintf("%d byte(s)", t.Width())})
	tbl.Append([]string{"compression", tf.alg.String()})
	tbl.Append([]string{"cells", fmt.Sprint(t.Len())})
	tbl.Append([]string{"non-zero cells", fmt.Sprint(t.NonZero())})
	tbl.Append([]string{"fingerprint", fmt.Sprintf("%016x", serialize.Fingerprint(t))})
	tbl.Append([]string{"total count", fmt.Sprint(hist.Total())})
	tbl.Append([]string{"spectrum bins", fmt.Sprint(len(hist.Bins()))})
	tbl.Append([]string{"max count", fmt.Sprint(hist.Max())})
	for _, name := range spectrum.Methods() {
		m, err := spectrum.ParseMethod(name, p)
		if err != nil {
			return errors.Mark(err, cli.ErrConfig)
		}
		v := "none"
		if th, ok := hist.Threshold(m); ok {
			v = fmt.Sprint(th)
		}
		tbl.Append([]string{"threshold " + m.String(), v})
	}
	tbl.Render()
	return nil
}
