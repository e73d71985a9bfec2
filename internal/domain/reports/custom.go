package reports

import (
	"context"
	"sync"
	"time"

	"salesreports/internal/core/apperror"
)

// CustomReport is one extra report section contributed to the overview.
type CustomReport struct {
	Key  string `json:"key"`
	Data any    `json:"data"`
}

// CustomReports is an ordered, string-keyed set of extra report sections.
type CustomReports struct {
	keys []string
	data map[string]any
}

// NewCustomReports returns an empty registry.
func NewCustomReports() *CustomReports {
	return &CustomReports{data: make(map[string]any)}
}

// Add registers data under key; it fails when key is already taken.
func (c *CustomReports) Add(key string, data any) error {
	if _, ok := c.data[key]; ok {
		return apperror.NewDuplicateReport(key)
	}
	c.data[key] = data
	c.keys = append(c.keys, key)
	return nil
}

// Remove drops key; it fails when key was never added.
func (c *CustomReports) Remove(key string) error {
	if _, ok := c.data[key]; !ok {
		return apperror.NewUnknownReport(key)
	}
	delete(c.data, key)
	for i, k := range c.keys {
		if k == key {
			c.keys = append(c.keys[:i], c.keys[i+1:]...)
			break
		}
	}
	return nil
}

func (c *CustomReports) Get(key string) (any, bool) {
	d, ok := c.data[key]
	return d, ok
}

func (c *CustomReports) Keys() []string {
	return append([]string(nil), c.keys...)
}

func (c *CustomReports) Len() int {
	return len(c.keys)
}

// Entries returns the reports in insertion order.
func (c *CustomReports) Entries() []CustomReport {
	out := make([]CustomReport, 0, len(c.keys))
	for _, k := range c.keys {
		out = append(out, CustomReport{Key: k, Data: c.data[k]})
	}
	return out
}

// CustomReportContext is what a contributor knows about the report being built.
type CustomReportContext struct {
	Channel  Channel
	FromDate time.Time
	ToDate   time.Time
}

// CustomReportContributor appends (or removes) sections of the overview report.
type CustomReportContributor interface {
	ContributeReports(ctx context.Context, rc CustomReportContext, reports *CustomReports) error
}

// ContributorFunc adapts a function to CustomReportContributor.
type ContributorFunc func(ctx context.Context, rc CustomReportContext, reports *CustomReports) error

func (f ContributorFunc) ContributeReports(ctx context.Context, rc CustomReportContext, reports *CustomReports) error {
	return f(ctx, rc, reports)
}

// Contributors holds the contributors registered at wiring time.
// Registration and use may happen from different goroutines.
type Contributors struct {
	mu    sync.RWMutex
	items []CustomReportContributor
}

// Register appends c; contributors run in registration order.
func (r *Contributors) Register(c CustomReportContributor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, c)
}

// Collect runs every contributor against a fresh registry.
func (r *Contributors) Collect(ctx context.Context, rc CustomReportContext) (*CustomReports, error) {
	r.mu.RLock()
	items := append([]CustomReportContributor(nil), r.items...)
	r.mu.RUnlock()

	reports := NewCustomReports()
	for _, c := range items {
		if err := c.ContributeReports(ctx, rc, reports); err != nil {
			return nil, err
		}
	}
	return reports, nil
}
