package converter

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/atikulmunna/dnslog/internal/aggregator"
	"github.com/atikulmunna/dnslog/internal/model"
	"github.com/atikulmunna/dnslog/internal/parser"
)

// View selects which of the last results are shown.
type View string

const (
	ViewAll         View = "all"
	ViewHideAdded   View = "hide-added"
	ViewHideDeleted View = "hide-deleted"
)

// ParseView maps a user-supplied name to a View.
func ParseView(s string) (View, error) {
	switch View(strings.ToLower(strings.TrimSpace(s))) {
	case "", ViewAll:
		return ViewAll, nil
	case ViewHideAdded:
		return ViewHideAdded, nil
	case ViewHideDeleted:
		return ViewHideDeleted, nil
	}
	return "", fmt.Errorf("unknown view %q (want all, hide-added or hide-deleted)", s)
}

// Result is the outcome of one processing pass.
type Result struct {
	Records   []model.Record `json:"records"`
	Processed int            `json:"processed"`
	Total     int            `json:"total"`
}

// Stats returns the processed-lines summary line.
func (r Result) Stats() string {
	if r.Processed == 0 && r.Total == 0 {
		return "Обработано записей: 0"
	}
	return fmt.Sprintf("Обработано записей: %d из %d", r.Processed, r.Total)
}

// Filtered is a view over the last results.
type Filtered struct {
	Records []model.Record `json:"records"`
	Shown   int            `json:"shown"`
	Of      int            `json:"of"`
}

// Stats returns the shown-lines summary line.
func (f Filtered) Stats() string {
	return fmt.Sprintf("Показано записей: %d из %d", f.Shown, f.Of)
}

// Presenter receives what the converter wants displayed. The formatter and
// activity packages never see it.
type Presenter interface {
	ShowRecords(records []model.Record) error
	ShowStats(text string)
}

// Converter runs the formatter over a text blob and keeps the last batch
// of results for filtering, export and the activity histogram.
type Converter struct {
	mu        sync.RWMutex
	formatter *parser.Formatter
	activity  *aggregator.Activity
	results   []model.Record
}

// New wires a Converter to its formatter and activity histogram.
func New(f *parser.Formatter, a *aggregator.Activity) *Converter {
	return &Converter{formatter: f, activity: a}
}

// Activity returns the histogram fed by Process.
func (c *Converter) Activity() *aggregator.Activity {
	return c.activity
}

// Process formats every non-blank line of input. Lines that cannot be
// formatted are skipped. The previous results are replaced.
func (c *Converter) Process(input string) Result {
	input = strings.TrimSpace(input)
	if input == "" {
		c.replace(nil)
		return Result{}
	}

	lines := strings.Split(input, "\n")
	var records []model.Record
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if rec, ok := c.formatter.Format(line); ok {
			records = append(records, rec)
		}
	}

	c.replace(records)
	return Result{Records: records, Processed: len(records), Total: len(lines)}
}

// replace swaps in a new batch. The histogram is updated under the same
// lock so results and activity always describe one batch.
func (c *Converter) replace(records []model.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = records
	c.activity.Parse(Texts(records))
}

// Results returns the records of the last pass.
func (c *Converter) Results() []model.Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]model.Record(nil), c.results...)
}

// Filter applies v to the last results. It returns false when there is
// nothing to filter.
func (c *Converter) Filter(v View) (Filtered, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.results) == 0 {
		return Filtered{}, false
	}

	var hidden string
	switch v {
	case ViewHideAdded:
		hidden = model.OpenTag(model.ClassAdded)
	case ViewHideDeleted:
		hidden = model.OpenTag(model.ClassRemoved)
	}

	out := make([]model.Record, 0, len(c.results))
	for _, rec := range c.results {
		if hidden != "" && strings.Contains(rec.Text, hidden) {
			continue
		}
		out = append(out, rec)
	}
	return Filtered{Records: out, Shown: len(out), Of: len(c.results)}, true
}

// Present pushes the filtered view to p. Nothing is shown when there are
// no results.
func (c *Converter) Present(p Presenter, v View) error {
	f, ok := c.Filter(v)
	if !ok {
		return nil
	}
	if err := p.ShowRecords(f.Records); err != nil {
		return err
	}
	p.ShowStats(f.Stats())
	return nil
}

// Clear drops the last results and resets the histogram.
func (c *Converter) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = nil
	c.activity.Clear()
}

// SuggestedFilename returns logs_{domain}_{date}.txt where domain is the
// registered part of the first record's name, or "none". The date is UTC.
func (c *Converter) SuggestedFilename(now time.Time) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	domain := ""
	if len(c.results) > 0 {
		domain = DerivedDomain(c.results[0].Event.Name)
	}
	if domain == "" {
		domain = "none"
	}
	return fmt.Sprintf("logs_%s_%s.txt", domain, now.UTC().Format("2006-01-02"))
}

// DerivedDomain returns the last two labels of name. Path separators and
// empty labels are dropped so the result is safe in a file name.
func DerivedDomain(name string) string {
	name = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' {
			return -1
		}
		return r
	}, strings.TrimSpace(name))

	var labels []string
	for _, l := range strings.Split(name, ".") {
		if l != "" {
			labels = append(labels, l)
		}
	}
	if len(labels) > 2 {
		labels = labels[len(labels)-2:]
	}
	return strings.Join(labels, ".")
}

// Texts returns the rendered sentences of records in order.
func Texts(records []model.Record) []string {
	out := make([]string, len(records))
	for i, rec := range records {
		out[i] = rec.Text
	}
	return out
}
