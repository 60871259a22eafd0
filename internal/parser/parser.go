package parser

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/antonholmquist/jason"

	"github.com/atikulmunna/dnslog/internal/model"
)

// minFields is the smallest number of tab-separated fields in a usable line.
const minFields = 8

// deleteQuery identifies a payload that removed a row from the records table.
const deleteQuery = "DELETE FROM records"

// AllowedTypes lists the record types the formatter will describe.
var AllowedTypes = []string{"A", "AAAA", "TXT", "CNAME", "MX", "NS", "CAA"}

// IsAllowedType checks if the given type is in AllowedTypes.
func IsAllowedType(recordType string) bool {
	return slices.Contains(AllowedTypes, recordType)
}

// Failure classes reported by Parse. Format collapses all of them into a
// missing result.
var (
	ErrStructural         = errors.New("malformed line")
	ErrPayloadDecode      = errors.New("undecodable payload")
	ErrValidation         = errors.New("invalid record")
	ErrUnrecognizedAction = errors.New("unrecognized action")
)

// Formatter turns raw DNS change log lines into readable sentences.
type Formatter struct{}

func NewFormatter() *Formatter { return &Formatter{} }

// Format returns the rendered record for line, or false if the line cannot
// be described. It never panics on malformed input.
func (f *Formatter) Format(line string) (model.Record, bool) {
	ev, err := f.Parse(line)
	if err != nil {
		return model.Record{}, false
	}
	return model.Record{Event: ev, Text: Render(ev)}, true
}

// Parse extracts a ChangeEvent from line. The returned error wraps one of
// ErrStructural, ErrPayloadDecode, ErrValidation or ErrUnrecognizedAction.
func (f *Formatter) Parse(line string) (model.ChangeEvent, error) {
	parts := strings.Split(line, "\t")
	if len(parts) < minFields {
		return model.ChangeEvent{}, fmt.Errorf("%w: %d fields, need %d", ErrStructural, len(parts), minFields)
	}

	stamp := strings.Split(parts[0], " ")
	if len(stamp) < 2 {
		return model.ChangeEvent{}, fmt.Errorf("%w: no time in %q", ErrStructural, parts[0])
	}

	data, err := decodePayload(parts[len(parts)-1])
	if err != nil {
		return model.ChangeEvent{}, err
	}

	ev := model.ChangeEvent{
		Date:   stamp[0],
		Time:   shortTime(stamp[1]),
		IP:     parts[4],
		Action: model.Action(parts[2]),
	}

	if !ev.Action.Valid() {
		return model.ChangeEvent{}, fmt.Errorf("%w: %q", ErrUnrecognizedAction, parts[2])
	}

	if ev.Action == model.ActionAdd {
		err = extractAdd(data, &ev)
	} else {
		err = extractDelete(data, &ev)
	}
	if err != nil {
		return model.ChangeEvent{}, err
	}
	return ev, nil
}

// Render builds the sentence for an event. The action verb is wrapped in
// its classification marker; field values are escaped so they cannot
// contain one.
func Render(ev model.ChangeEvent) string {
	esc := model.EscapeText
	return fmt.Sprintf("%s в %s с IP-адреса %s была %s %s-запись для %s со значением %s",
		esc(ev.Date), esc(ev.Time), esc(ev.IP), ev.Action.Marker(), esc(ev.RecordType), esc(ev.Name), esc(ev.Content))
}

// CleanContent normalizes record content for display. TXT values lose one
// pair of wrapping double quotes; CAA values lose every double quote.
func CleanContent(content, recordType string) string {
	cleaned := strings.TrimSpace(content)

	if recordType == "TXT" && len(cleaned) >= 2 && strings.HasPrefix(cleaned, `"`) && strings.HasSuffix(cleaned, `"`) {
		cleaned = cleaned[1 : len(cleaned)-1]
	}

	if recordType == "CAA" {
		cleaned = strings.ReplaceAll(cleaned, `"`, "")
	}

	return cleaned
}

// ---------------------------------------------------------------------------
// Action extraction
// ---------------------------------------------------------------------------

// extractAdd reads type, name and content straight from the payload.
func extractAdd(data *jason.Object, ev *model.ChangeEvent) error {
	recordType, err := data.GetString("type")
	if err != nil || !IsAllowedType(recordType) {
		return fmt.Errorf("%w: type %q not allowed", ErrValidation, recordType)
	}

	name, _, ok := fieldText(data, "name")
	if !ok {
		return fmt.Errorf("%w: empty name", ErrValidation)
	}
	content, isString, ok := fieldText(data, "content")
	if !ok {
		return fmt.Errorf("%w: empty content", ErrValidation)
	}

	return fill(ev, recordType, name, content, isString)
}

// extractDelete reads the record from the bind parameters of a
// "DELETE FROM records" statement: bind[1] name, bind[2] type, bind[4] content.
func extractDelete(data *jason.Object, ev *model.ChangeEvent) error {
	bind, err := data.GetValueArray("bind")
	if err != nil {
		return fmt.Errorf("%w: bind is not a list", ErrValidation)
	}

	query, _ := data.GetString("query")
	if !strings.Contains(query, deleteQuery) || len(bind) < 5 {
		return fmt.Errorf("%w: not a record deletion", ErrValidation)
	}

	recordType, err := bind[2].String()
	if err != nil || !IsAllowedType(recordType) {
		return fmt.Errorf("%w: type %q not allowed", ErrValidation, recordType)
	}

	name, _, ok := scalarText(bind[1])
	if !ok {
		return fmt.Errorf("%w: empty name", ErrValidation)
	}
	content, isString, ok := scalarText(bind[4])
	if !ok {
		return fmt.Errorf("%w: empty content", ErrValidation)
	}

	return fill(ev, recordType, name, content, isString)
}

// fill cleans string content and stores the record fields on ev.
func fill(ev *model.ChangeEvent, recordType, name, content string, isString bool) error {
	if isString {
		content = CleanContent(content, recordType)
	}
	if content == "" {
		return fmt.Errorf("%w: content empty after cleaning", ErrValidation)
	}

	ev.RecordType = recordType
	ev.Name = name
	ev.Content = content
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// shortTime keeps the HH:MM prefix of a clock value.
func shortTime(clock string) string {
	r := []rune(clock)
	if len(r) > 5 {
		r = r[:5]
	}
	return string(r)
}

// fieldText returns the display text of a payload field.
func fieldText(data *jason.Object, key string) (string, bool, bool) {
	v, err := data.GetValue(key)
	if err != nil {
		return "", false, false
	}
	return scalarText(v)
}

// scalarText converts a JSON scalar to display text. Empty strings, zero,
// false, null and containers are treated as missing. The middle result
// reports whether the value was a JSON string.
func scalarText(v *jason.Value) (string, bool, bool) {
	if s, err := v.String(); err == nil {
		return s, true, s != ""
	}
	if n, err := v.Number(); err == nil {
		f, err := n.Float64()
		if err != nil || f == 0 {
			return "", false, false
		}
		return strconv.FormatFloat(f, 'f', -1, 64), false, true
	}
	if b, err := v.Boolean(); err == nil && b {
		return "true", false, true
	}
	return "", false, false
}
