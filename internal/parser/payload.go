package parser

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/antonholmquist/jason"
)

// bareKey matches a word directly followed by a colon. The repair pass
// quotes every match, including ones inside string values.
var bareKey = regexp.MustCompile(`(\w+):`)

// decodePayload parses the trailing JSON field of a log line. When the text
// is not valid JSON, one repair pass quotes bare object keys and the parse
// is retried.
func decodePayload(raw string) (*jason.Object, error) {
	obj, err := decodeObject([]byte(raw))
	if err == nil {
		return obj, nil
	}

	obj, err = decodeObject([]byte(repairKeys(raw)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPayloadDecode, err)
	}
	return obj, nil
}

// decodeObject requires b to be exactly one JSON object.
func decodeObject(b []byte) (*jason.Object, error) {
	if !json.Valid(b) {
		return nil, fmt.Errorf("invalid JSON")
	}
	return jason.NewObjectFromBytes(b)
}

func repairKeys(s string) string {
	return bareKey.ReplaceAllString(s, `"$1":`)
}
