// internal/spectrum/threshold.go
package spectrum

import (
	"fmt"
	"math"
	"strings"

	"github.com/cockroachdb/errors"
)

// Kind selects a threshold estimation rule.
type Kind int

const (
	KindFirstMinimum Kind = iota
	KindPercentAtLeast
	KindPercentAtMost
	KindRarefaction
)

var kindNames = [...]string{
	KindFirstMinimum:   "first-minimum",
	KindPercentAtLeast: "percent-at-least",
	KindPercentAtMost:  "percent-at-most",
	KindRarefaction:    "rarefaction",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// Method is a threshold rule and its parameter. P is a percentage in
// [0, 100] and is ignored by FirstMinimum.
type Method struct {
	Kind Kind
	P    float64
}

// FirstMinimum picks the first local minimum of the histogram.
func FirstMinimum() Method { return Method{Kind: KindFirstMinimum} }

// PercentAtLeast picks the smallest threshold that removes at least p% of
// the k-mer mass.
func PercentAtLeast(p float64) Method { return Method{Kind: KindPercentAtLeast, P: p} }

// PercentAtMost picks the largest threshold that removes at most p% of the
// k-mer mass.
func PercentAtMost(p float64) Method { return Method{Kind: KindPercentAtMost, P: p} }

// Rarefaction picks the smallest threshold t whose bin holds at most p% of
// the addresses with a count of t or more.
func Rarefaction(p float64) Method { return Method{Kind: KindRarefaction, P: p} }

func (m Method) String() string {
	if m.Kind == KindFirstMinimum {
		return m.Kind.String()
	}
	return fmt.Sprintf("%s(%g)", m.Kind, m.P)
}

// Methods lists the accepted method names.
func Methods() []string { return append([]string(nil), kindNames[:]...) }

// ParseMethod maps a method name to a Method. Underscores and dashes are
// interchangeable, and the short names percent-least and percent-most are
// accepted.
func ParseMethod(name string, p float64) (Method, error) {
	n := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), "_", "-"))
	switch n {
	case "percent-least":
		n = kindNames[KindPercentAtLeast]
	case "percent-most":
		n = kindNames[KindPercentAtMost]
	}
	for i, kn := range kindNames {
		if n != kn {
			continue
		}
		m := Method{Kind: Kind(i), P: p}
		if m.Kind != KindFirstMinimum && !validPercent(p) {
			return Method{}, errors.Newf("%s: parameter %g is not a percentage in [0, 100]", kn, p)
		}
		return m, nil
	}
	return Method{}, errors.Newf("unknown threshold method %q (want one of %s)",
		name, strings.Join(kindNames[:], ", "))
}

func validPercent(p float64) bool { return !math.IsNaN(p) && p >= 0 && p <= 100 }

// Threshold estimates a threshold with m. It returns false when the spectrum
// is empty, the parameter is out of range or no count satisfies the rule.
//
// With R(t) the mass of counts below t and D(t) the number of addresses
// with a count of t or more:
//
//   - FirstMinimum: first c in [2, Max] with f(c) < f(c-1) and f(c) <= f(c+1)
//   - PercentAtLeast: smallest t >= 1 with R(t) >= p% of Total
//   - PercentAtMost: largest t in [1, Max+1] with R(t) <= p% of Total
//   - Rarefaction: smallest t in [1, Max] with f(t) <= p% of D(t)
//
// Counts missing from the histogram have frequency 0.
func (s *Spectrum) Threshold(m Method) (uint64, bool) {
	if s.Empty() {
		return 0, false
	}
	if m.Kind != KindFirstMinimum && !validPercent(m.P) {
		return 0, false
	}
	switch m.Kind {
	case KindFirstMinimum:
		return s.firstMinimum()
	case KindPercentAtLeast:
		return s.percentAtLeast(m.P)
	case KindPercentAtMost:
		return s.percentAtMost(m.P)
	case KindRarefaction:
		return s.rarefaction(m.P)
	default:
		return 0, false
	}
}

// firstMinimum only tests c = bin+1: f(c) < f(c-1) needs f(c-1) > 0.
func (s *Spectrum) firstMinimum() (uint64, bool) {
	hi := s.Max()
	for i, b := range s.bins {
		c := b.Count + 1
		if c < 2 {
			continue
		}
		if c > hi {
			break
		}
		var fc uint64
		j := i + 1
		if j < len(s.bins) && s.bins[j].Count == c {
			fc = s.bins[j].Freq
			j++
		}
		var next uint64
		if j < len(s.bins) && s.bins[j].Count == c+1 {
			next = s.bins[j].Freq
		}
		if fc < b.Freq && fc <= next {
			return c, true
		}
	}
	return 0, false
}

func (s *Spectrum) percentAtLeast(p float64) (uint64, bool) {
	target := p / 100 * float64(s.total)
	if target <= 0 {
		return 1, true
	}
	var removed uint64
	for _, b := range s.bins {
		removed += b.Count * b.Freq
		if float64(removed) >= target {
			return b.Count + 1, true
		}
	}
	return s.Max() + 1, true
}

func (s *Spectrum) percentAtMost(p float64) (uint64, bool) {
	target := p / 100 * float64(s.total)
	var removed uint64
	for _, b := range s.bins {
		if float64(removed+b.Count*b.Freq) > target {
			return b.Count, true
		}
		removed += b.Count * b.Freq
	}
	return s.Max() + 1, true
}

func (s *Spectrum) rarefaction(p float64) (uint64, bool) {
	remaining := s.distinct
	t := uint64(1)
	for _, b := range s.bins {
		if b.Count > t {
			// gap: f(t) = 0
			return t, true
		}
		if float64(b.Freq) <= p/100*float64(remaining) {
			return t, true
		}
		remaining -= b.Freq
		t++
	}
	return 0, false
}
