package model

import "strings"

// Action is the change keyword found in the third field of a log line.
type Action string

const (
	ActionAdd    Action = "ADD"
	ActionDelete Action = "DEL"
)

// Classification names carried by the action marker.
const (
	ClassAdded   = "added"
	ClassRemoved = "removed"
)

// Valid reports whether the action is one the formatter understands.
func (a Action) Valid() bool {
	return a == ActionAdd || a == ActionDelete
}

// Verb returns the localized past-tense verb used in sentences.
func (a Action) Verb() string {
	if a == ActionAdd {
		return "добавлена"
	}
	return "удалена"
}

// Class returns the marker classification for the action.
func (a Action) Class() string {
	if a == ActionAdd {
		return ClassAdded
	}
	return ClassRemoved
}

// Marker wraps the verb in a tag named after the classification,
// e.g. <added>добавлена</added>.
func (a Action) Marker() string {
	c := a.Class()
	return OpenTag(c) + a.Verb() + "</" + c + ">"
}

// OpenTag returns the opening marker tag for a classification. Filters
// look for it with a plain substring check.
func OpenTag(class string) string {
	return "<" + class + ">"
}

// ChangeEvent is a single DNS record change extracted from a log line.
type ChangeEvent struct {
	Date       string `json:"date"`
	Time       string `json:"time"` // HH:MM
	IP         string `json:"ip"`
	Action     Action `json:"action"`
	RecordType string `json:"record_type"`
	Name       string `json:"name"`
	Content    string `json:"content"` // cleaned
}

// Record is a formatted sentence together with the event it was built from.
type Record struct {
	Event ChangeEvent `json:"event"`
	Text  string      `json:"text"`
}

var (
	textEscaper   = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	textUnescaper = strings.NewReplacer("&amp;", "&", "&lt;", "<", "&gt;", ">")
)

// EscapeText hides angle brackets in field values so the only tags in a
// sentence are action markers.
func EscapeText(s string) string {
	return textEscaper.Replace(s)
}

// UnescapeText reverses EscapeText.
func UnescapeText(s string) string {
	return textUnescaper.Replace(s)
}
