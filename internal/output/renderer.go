package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/atikulmunna/dnslog/internal/model"
	"github.com/atikulmunna/dnslog/internal/theme"
)

// Renderer writes formatted records to an output stream.
type Renderer interface {
	Render(rec model.Record) error
}

// New returns the renderer for format: text, plain or json.
func New(format string, w io.Writer, p Palette) (Renderer, error) {
	switch strings.ToLower(format) {
	case "", "text":
		return NewTextRenderer(w, p), nil
	case "plain":
		return NewPlainRenderer(w), nil
	case "json":
		return NewJSONRenderer(w), nil
	}
	return nil, fmt.Errorf("unknown output format %q (want text, plain or json)", format)
}

// ---------------------------------------------------------------------------
// Palette
// ---------------------------------------------------------------------------

// Palette holds the styles for one theme.
type Palette struct {
	Added   lipgloss.Style
	Removed lipgloss.Style
	Muted   lipgloss.Style
	Bar     lipgloss.Style
}

// PaletteFor returns the styles matching t.
func PaletteFor(t theme.Theme) Palette {
	if t == theme.Dark {
		return Palette{
			Added:   lipgloss.NewStyle().Foreground(lipgloss.Color("#48bb78")).Bold(true),
			Removed: lipgloss.NewStyle().Foreground(lipgloss.Color("#fc8181")).Bold(true),
			Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("#a0aec0")),
			Bar:     lipgloss.NewStyle().Foreground(lipgloss.Color("#4c6ef5")),
		}
	}
	return Palette{
		Added:   lipgloss.NewStyle().Foreground(lipgloss.Color("#28a745")).Bold(true),
		Removed: lipgloss.NewStyle().Foreground(lipgloss.Color("#dc3545")).Bold(true),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("#707a8a")),
		Bar:     lipgloss.NewStyle().Foreground(lipgloss.Color("#3755fa")),
	}
}

// ---------------------------------------------------------------------------
// Text Renderer (colorized terminal output)
// ---------------------------------------------------------------------------

// TextRenderer prints sentences with the action verb coloured by class.
type TextRenderer struct {
	w        io.Writer
	replacer *strings.Replacer
}

func NewTextRenderer(w io.Writer, p Palette) *TextRenderer {
	return &TextRenderer{
		w: w,
		replacer: strings.NewReplacer(
			model.ActionAdd.Marker(), p.Added.Render(model.ActionAdd.Verb()),
			model.ActionDelete.Marker(), p.Removed.Render(model.ActionDelete.Verb()),
		),
	}
}

func (r *TextRenderer) Render(rec model.Record) error {
	_, err := fmt.Fprintln(r.w, model.UnescapeText(r.replacer.Replace(rec.Text)))
	return err
}

// ---------------------------------------------------------------------------
// Plain Renderer (tagged sentences, one per line)
// ---------------------------------------------------------------------------

// PlainRenderer prints sentences verbatim, markers included.
type PlainRenderer struct {
	w io.Writer
}

func NewPlainRenderer(w io.Writer) *PlainRenderer {
	return &PlainRenderer{w: w}
}

func (r *PlainRenderer) Render(rec model.Record) error {
	_, err := fmt.Fprintln(r.w, rec.Text)
	return err
}

// ---------------------------------------------------------------------------
// JSON Renderer (structured output for piping)
// ---------------------------------------------------------------------------

// JSONRenderer prints each record as a single JSON object per line.
type JSONRenderer struct {
	enc *json.Encoder
}

func NewJSONRenderer(w io.Writer) *JSONRenderer {
	return &JSONRenderer{enc: json.NewEncoder(w)}
}

func (r *JSONRenderer) Render(rec model.Record) error {
	return r.enc.Encode(rec)
}

// ---------------------------------------------------------------------------
// Export
// ---------------------------------------------------------------------------

var markerStripper = strings.NewReplacer(
	model.ActionAdd.Marker(), model.ActionAdd.Verb(),
	model.ActionDelete.Marker(), model.ActionDelete.Verb(),
)

// StripMarkers removes the classification tags from a sentence and restores
// the escaped field text.
func StripMarkers(text string) string {
	return model.UnescapeText(markerStripper.Replace(text))
}

// Export joins records into newline-separated prose without markers, the
// form used for saved files and the clipboard.
func Export(records []model.Record) string {
	lines := make([]string, len(records))
	for i, rec := range records {
		lines[i] = StripMarkers(rec.Text)
	}
	return strings.Join(lines, "\n")
}
