package diff

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/agentic-research/arbor/tree"
)

var records = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "arbor_diff_records_total",
	Help: "DiffGrams emitted by kind",
}, []string{"kind"})

// Summary counts the records of a diff by kind.
type Summary struct {
	Removed int `json:"removed" yaml:"removed"`
	Changed int `json:"changed" yaml:"changed"`
	Added   int `json:"added" yaml:"added"`
}

// Summarize counts grams by kind.
func Summarize(grams []tree.DiffGram) Summary {
	var s Summary
	for _, d := range grams {
		switch d.Kind {
		case tree.KindRemoved:
			s.Removed++
		case tree.KindChanged:
			s.Changed++
		case tree.KindAdded:
			s.Added++
		}
	}
	return s
}

// Empty reports whether the diff had no records.
func (s Summary) Empty() bool { return s.Removed+s.Changed+s.Added == 0 }
