// internal/stats/stats.go

// Package stats records what a counting run consumed: records, bases and
// k-mers as Prometheus counters, and the distribution of record lengths.
package stats

import (
	"fmt"
	"io"
	"sync"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/cockroachdb/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// maxRecordLen bounds the tracked record lengths; longer records are
// recorded at the bound.
const maxRecordLen = 1 << 34

// Recorder implements count.Observer. It is safe for concurrent use.
type Recorder struct {
	reg     *prometheus.Registry
	records prometheus.Counter
	bases   prometheus.Counter
	kmers   prometheus.Counter

	mu      sync.Mutex
	lengths *hdrhistogram.Histogram
}

// New returns a Recorder with its own registry.
func New() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		records: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pcon_records_total",
			Help: "Sequence records counted.",
		}),
		bases: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pcon_bases_total",
			Help: "Bases read from counted records.",
		}),
		kmers: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pcon_kmers_total",
			Help: "K-mers added to the count table.",
		}),
		lengths: hdrhistogram.New(0, maxRecordLen, 2),
	}
	r.reg.MustRegister(r.records, r.bases, r.kmers)
	return r
}

// Registry exposes the counters.
func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

// WriteMetrics writes the registry in the Prometheus text exposition format.
func (r *Recorder) WriteMetrics(w io.Writer) error {
	mfs, err := r.Registry().Gather()
	if err != nil {
		return errors.Wrap(err, "gathering metrics")
	}
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

// ObserveRecord accounts for one counted record.
func (r *Recorder) ObserveRecord(bases, kmers int) {
	r.records.Inc()
	r.bases.Add(float64(bases))
	r.kmers.Add(float64(kmers))

	v := int64(bases)
	if v > maxRecordLen {
		v = maxRecordLen
	}
	r.mu.Lock()
	_ = r.lengths.RecordValue(v)
	r.mu.Unlock()
}

// Snapshot is a point-in-time copy of the recorded values.
type Snapshot struct {
	Records, Bases, Kmers uint64

	MinLen, P50Len, P90Len, MaxLen int64
	MeanLen                        float64
}

// Snapshot reads the current values.
func (r *Recorder) Snapshot() Snapshot {
	s := Snapshot{
		Records: counterValue(r.records),
		Bases:   counterValue(r.bases),
		Kmers:   counterValue(r.kmers),
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lengths.TotalCount() > 0 {
		s.MinLen = r.lengths.Min()
		s.P50Len = r.lengths.ValueAtQuantile(50)
		s.P90Len = r.lengths.ValueAtQuantile(90)
		s.MaxLen = r.lengths.Max()
		s.MeanLen = r.lengths.Mean()
	}
	return s
}

func counterValue(c prometheus.Counter) uint64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	return uint64(m.GetCounter().GetValue())
}

// Summary renders the snapshot as a table.
func (r *Recorder) Summary(w io.Writer) {
	s := r.Snapshot()
	tbl := tablewriter.NewWriter(w)
	tbl.SetHeader([]string{"Metric", "Value"})
	tbl.Append([]string{"records", fmt.Sprintf("%d", s.Records)})
	tbl.Append([]string{"bases", fmt.Sprintf("%d", s.Bases)})
	tbl.Append([]string{"k-mers", fmt.Sprintf("%d", s.Kmers)})
	tbl.Append([]string{"length min", fmt.Sprintf("%d", s.MinLen)})
	tbl.Append([]string{"length p50", fmt.Sprintf("%d", s.P50Len)})
	tbl.Append([]string{"length p90", fmt.Sprintf("%d", s.P90Len)})
	tbl.Append([]string{"length max", fmt.Sprintf("%d", s.MaxLen)})
	tbl.Append([]string{"length mean", fmt.Sprintf("%.1f", s.MeanLen)})
	tbl.Render()
}
