package converter

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atikulmunna/dnslog/internal/aggregator"
	"github.com/atikulmunna/dnslog/internal/model"
	"github.com/atikulmunna/dnslog/internal/parser"
)

func addLine(stamp, name, content string) string {
	return fmt.Sprintf("%s\tserver1\tADD\tuser\t198.51.100.9\t-\t-\t{\"type\":\"A\",\"name\":%q,\"content\":%q}", stamp, name, content)
}

func delLine(stamp, name, content string) string {
	return fmt.Sprintf("%s\tserver1\tDEL\tuser\t198.51.100.9\t-\t-\t{\"query\":\"DELETE FROM records WHERE id=?\",\"bind\":[1,%q,\"A\",3600,%q]}", stamp, name, content)
}

func newConverter() *Converter {
	return New(parser.NewFormatter(), aggregator.New())
}

type recordingPresenter struct {
	records []model.Record
	stats   []string
}

func (p *recordingPresenter) ShowRecords(records []model.Record) error {
	p.records = records
	return nil
}

func (p *recordingPresenter) ShowStats(text string) {
	p.stats = append(p.stats, text)
}

func TestProcess(t *testing.T) {
	c := newConverter()

	input := strings.Join([]string{
		addLine("2024-01-15 10:22:31", "www.example.com", "1.2.3.4"),
		"",
		"garbage",
		delLine("2024-01-15 11:00:00", "old.example.com", "5.6.7.8"),
	}, "\n")

	res := c.Process(input)
	assert.Equal(t, 2, res.Processed)
	assert.Equal(t, 4, res.Total)
	assert.Equal(t, "Обработано записей: 2 из 4", res.Stats())
	require.Len(t, res.Records, 2)
	assert.Equal(t, "www.example.com", res.Records[0].Event.Name)
	assert.Equal(t, model.ActionDelete, res.Records[1].Event.Action)

	stats := c.Activity().Snapshot()
	assert.Equal(t, 1, stats.Hours[10])
	assert.Equal(t, 1, stats.Hours[11])
	assert.Equal(t, 2, stats.Days["2024-01-15"])
}

func TestProcessNeverExceedsLines(t *testing.T) {
	c := newConverter()

	lines := []string{
		addLine("2024-01-15 10:22:31", "a.example.com", "1.1.1.1"),
		"  ",
		"x\ty\tz",
		addLine("2024-01-15 10:23:31", "b.example.com", "2.2.2.2"),
	}
	res := c.Process(strings.Join(lines, "\n"))

	nonBlank := 0
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			nonBlank++
		}
	}
	assert.LessOrEqual(t, res.Processed, nonBlank)
}

func TestProcessEmpty(t *testing.T) {
	c := newConverter()
	c.Process(addLine("2024-01-15 10:22:31", "a.example.com", "1.1.1.1"))

	res := c.Process("   \n  ")
	assert.Equal(t, 0, res.Processed)
	assert.Equal(t, 0, res.Total)
	assert.Equal(t, "Обработано записей: 0", res.Stats())
	assert.Empty(t, c.Results())
	assert.Equal(t, 0, c.Activity().Snapshot().TotalChanges)
}

func TestProcessReplacesResults(t *testing.T) {
	c := newConverter()
	c.Process(addLine("2024-01-15 10:22:31", "a.example.com", "1.1.1.1"))
	c.Process(addLine("2024-01-16 09:00:00", "b.example.com", "2.2.2.2"))

	results := c.Results()
	require.Len(t, results, 1)
	assert.Equal(t, "b.example.com", results[0].Event.Name)
	assert.Equal(t, 1, c.Activity().Snapshot().TotalChanges)
}

func TestFilter(t *testing.T) {
	c := newConverter()

	_, ok := c.Filter(ViewHideAdded)
	assert.False(t, ok, "filtering an empty result set should be a no-op")

	c.Process(strings.Join([]string{
		addLine("2024-01-15 10:22:31", "a.example.com", "1.1.1.1"),
		delLine("2024-01-15 10:23:31", "b.example.com", "2.2.2.2"),
		addLine("2024-01-15 10:24:31", "c.example.com", "3.3.3.3"),
	}, "\n"))

	f, ok := c.Filter(ViewHideAdded)
	require.True(t, ok)
	assert.Equal(t, 1, f.Shown)
	assert.Equal(t, 3, f.Of)
	assert.Equal(t, "Показано записей: 1 из 3", f.Stats())
	assert.Equal(t, model.ActionDelete, f.Records[0].Event.Action)

	f, _ = c.Filter(ViewHideDeleted)
	assert.Equal(t, 2, f.Shown)
	for _, rec := range f.Records {
		assert.NotContains(t, rec.Text, "<removed>")
	}

	f, _ = c.Filter(ViewAll)
	assert.Equal(t, "Показано записей: 3 из 3", f.Stats())
}

func TestFilterIgnoresMarkersInContent(t *testing.T) {
	c := newConverter()

	c.Process(strings.Join([]string{
		addLine("2024-01-15 10:22:31", "a.example.com", "<removed>x"),
		delLine("2024-01-15 10:23:31", "b.example.com", "<added>y"),
	}, "\n"))

	f, ok := c.Filter(ViewHideDeleted)
	require.True(t, ok)
	require.Equal(t, 1, f.Shown)
	assert.Equal(t, model.ActionAdd, f.Records[0].Event.Action)

	f, _ = c.Filter(ViewHideAdded)
	require.Equal(t, 1, f.Shown)
	assert.Equal(t, model.ActionDelete, f.Records[0].Event.Action)
}

func TestConcurrentProcessKeepsBatchesTogether(t *testing.T) {
	c := newConverter()

	small := addLine("2024-01-15 10:22:31", "a.example.com", "1.1.1.1")
	large := strings.Join([]string{small, small, small}, "\n")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				c.Process(small)
			} else {
				c.Process(large)
			}
		}(i)
	}
	wg.Wait()

	c.mu.RLock()
	defer c.mu.RUnlock()
	assert.Equal(t, len(c.results), c.activity.Snapshot().TotalChanges)
}

func TestPresent(t *testing.T) {
	c := newConverter()
	p := &recordingPresenter{}

	require.NoError(t, c.Present(p, ViewAll))
	assert.Empty(t, p.stats)

	c.Process(strings.Join([]string{
		addLine("2024-01-15 10:22:31", "a.example.com", "1.1.1.1"),
		delLine("2024-01-15 10:23:31", "b.example.com", "2.2.2.2"),
	}, "\n"))

	require.NoError(t, c.Present(p, ViewHideDeleted))
	assert.Len(t, p.records, 1)
	assert.Equal(t, []string{"Показано записей: 1 из 2"}, p.stats)
}

func TestClear(t *testing.T) {
	c := newConverter()
	c.Process(addLine("2024-01-15 10:22:31", "a.example.com", "1.1.1.1"))
	c.Clear()

	assert.Empty(t, c.Results())
	assert.Equal(t, "-", c.Activity().Snapshot().PeakActivity)
}

func TestSuggestedFilename(t *testing.T) {
	c := newConverter()
	now := time.Date(2024, 3, 9, 15, 0, 0, 0, time.UTC)

	assert.Equal(t, "logs_none_2024-03-09.txt", c.SuggestedFilename(now))

	c.Process(addLine("2024-01-15 10:22:31", "deep.www.example.com", "1.1.1.1"))
	assert.Equal(t, "logs_example.com_2024-03-09.txt", c.SuggestedFilename(now))

	// 01:00 on the 10th at UTC+3 is still the 9th in UTC.
	local := time.Date(2024, 3, 10, 1, 0, 0, 0, time.FixedZone("MSK", 3*60*60))
	assert.Equal(t, "logs_example.com_2024-03-09.txt", c.SuggestedFilename(local))
}

func TestSuggestedFilenameHasNoPath(t *testing.T) {
	c := newConverter()
	c.Process(addLine("2024-01-15 10:22:31", "x/../../etc/passwd.example.com", "1.1.1.1"))

	name := c.SuggestedFilename(time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC))
	assert.NotContains(t, name, "/")
	assert.NotContains(t, name, "..")
}

func TestDerivedDomain(t *testing.T) {
	cases := map[string]string{
		"test.example.com":  "example.com",
		"example.com.":      "example.com",
		"localhost":         "localhost",
		"a.b.c.example.org": "example.org",
		"":                  "",
		"sub/dir.example":   "subdir.example",
		`evil\\name.com`:    "evilname.com",
		"a..example.com":    "example.com",
	}
	for in, want := range cases {
		assert.Equal(t, want, DerivedDomain(in), "DerivedDomain(%q)", in)
	}
}

func TestParseView(t *testing.T) {
	v, err := ParseView("Hide-Added")
	require.NoError(t, err)
	assert.Equal(t, ViewHideAdded, v)

	v, err = ParseView("")
	require.NoError(t, err)
	assert.Equal(t, ViewAll, v)

	_, err = ParseView("sideways")
	assert.Error(t, err)
}
