package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

var keywordLookupDesc = prometheus.NewDesc(
	namespace+"_keyword_lookups_total",
	"Total keyword lookup count by outcome",
	[]string{"outcome"},
	nil,
)

// LookupStore persists keyword lookup counts.
type LookupStore interface {
	IncrementKeywordLookup(ctx context.Context, keyword, outcome string) error
	CountKeywordLookupsByOutcome(ctx context.Context) (map[string]int64, error)
}

// KeywordCollector is a custom Prometheus collector that reads lookup totals
// from the database on each scrape. Keywords are user text, so they stay in
// the database and are never exported as labels.
type KeywordCollector struct {
	store  LookupStore
	logger *zap.Logger
}

// NewKeywordCollector creates a collector over store.
func NewKeywordCollector(store LookupStore, logger *zap.Logger) *KeywordCollector {
	return &KeywordCollector{store: store, logger: logger}
}

// Describe sends the metric descriptor to the channel.
func (c *KeywordCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- keywordLookupDesc
}

// Collect queries the database for lookup totals and emits one counter per outcome.
func (c *KeywordCollector) Collect(ch chan<- prometheus.Metric) {
	counts, err := c.store.CountKeywordLookupsByOutcome(context.Background())
	if err != nil {
		c.logger.Error("Failed to collect keyword lookup metrics", zap.Error(err))
		return
	}
	for outcome, count := range counts {
		ch <- prometheus.MustNewConstMetric(
			keywordLookupDesc,
			prometheus.CounterValue,
			float64(count),
			outcome,
		)
	}
}

// Recorder provides async keyword lookup recording. A nil *Recorder is valid
// and records nothing.
type Recorder struct {
	store  LookupStore
	logger *zap.Logger
}

// NewRecorder creates a recorder over store.
func NewRecorder(store LookupStore, logger *zap.Logger) *Recorder {
	return &Recorder{store: store, logger: logger}
}

// RecordKeywordLookup asynchronously records a keyword lookup outcome.
func (r *Recorder) RecordKeywordLookup(keyword, outcome string) {
	if r == nil || r.store == nil || keyword == "" {
		return
	}
	go func() {
		if err := r.store.IncrementKeywordLookup(context.Background(), keyword, outcome); err != nil {
			r.logger.Error("Failed to record keyword lookup",
				zap.String("keyword", keyword),
				zap.String("outcome", outcome),
				zap.Error(err),
			)
		}
	}()
}
