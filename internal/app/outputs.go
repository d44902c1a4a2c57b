// internal/app/outputs.go
package app

import (
	"io"

	"github.com/cockroachdb/errors"
	"github.com/natir/pcon/internal/cli"
	"github.com/natir/pcon/internal/compress"
	"github.com/natir/pcon/internal/count"
	"github.com/natir/pcon/internal/serialize"
	"github.com/natir/pcon/internal/spectrum"
	"github.com/natir/pcon/internal/writers"
	"golang.org/x/exp/constraints"
)

// writeOutputs writes every output requested in o from t. The abundance
// threshold for csv and solid outputs is --abundance, or the estimate of
// --method when one is given and succeeds.
func writeOutputs[T constraints.Unsigned](e *env, t *count.Table[T], o *cli.Outputs) error {
	m, hasMethod := o.ThresholdMethod()
	var hist *spectrum.Spectrum
	if hasMethod || o.Spectrum != "" || o.Plot {
		hist = spectrum.New(t)
	}

	threshold := o.Abundance
	var estimated bool
	if hasMethod {
		if v, ok := hist.Threshold(m); ok {
			e.log.Infof("%s threshold: %d", m, v)
			threshold, estimated = v, true
		} else {
			e.log.Warnf("%s found no threshold, using abundance %d", m, threshold)
		}
	}
	if limit := uint64(^T(0)); threshold > limit {
		e.log.Warnf("abundance %d exceeds the counter maximum, using %d", threshold, limit)
		threshold = limit
	}
	thr := T(threshold)

	if o.Pcon != "" {
		if err := writeBinary(e, o.Pcon, o.Algorithm(), func(w io.Writer) error {
			return serialize.WriteTable(w, t)
		}); err != nil {
			return err
		}
	}
	if o.CSV != "" {
		if err := writeText(e, o.CSV, func(w io.Writer) error {
			return serialize.WriteCSV(w, t, thr)
		}); err != nil {
			return err
		}
	}
	if o.Solid != "" {
		if err := writeBinary(e, o.Solid, o.Algorithm(), func(w io.Writer) error {
			return serialize.WriteSolid(w, t, thr)
		}); err != nil {
			return err
		}
	}
	if o.Spectrum != "" {
		if err := writeText(e, o.Spectrum, hist.WriteCSV); err != nil {
			return err
		}
	}
	if o.Plot {
		opts := spectrum.PlotOptions{Width: o.PlotWidth, Height: o.PlotHeight}
		if estimated {
			opts.Threshold = threshold
		}
		if err := hist.Plot(e.stderr, opts); err != nil {
			return errors.Wrap(err, "plotting spectrum")
		}
	}
	return nil
}

// writeBinary writes a table or solid set through the --compression codec.
func writeBinary(e *env, path string, a compress.Algorithm, fn func(io.Writer) error) error {
	out, err := writers.CreateCompressed(path, e.stdout, a)
	if err != nil {
		return err
	}
	return finish(e, out, fn)
}

// writeText writes a plain-text output.
func writeText(e *env, path string, fn func(io.Writer) error) error {
	out, err := writers.Create(path, e.stdout)
	if err != nil {
		return err
	}
	return finish(e, out, fn)
}

func finish(e *env, out *writers.Output, fn func(io.Writer) error) error {
	if err := fn(out); err != nil {
		_ = out.Close()
		return errors.Wrapf(err, "writing %s", out.Path)
	}
	if err := out.Close(); err != nil {
		return err
	}
	e.log.Debugf("wrote %s", out.Path)
	return nil
}
