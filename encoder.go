package stash

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/cybergodev/stash/internal"
)

// Encoder serializes a composed event into the byte form an adapter
// writes out. Encoders must be safe for concurrent use; all built-in
// encoders are stateless.
type Encoder interface {
	Encode(event Event) ([]byte, error)
}

// EncoderFunc adapts a plain function to the Encoder interface.
type EncoderFunc func(event Event) ([]byte, error)

func (f EncoderFunc) Encode(event Event) ([]byte, error) { return f(event) }

// JSONEncoder renders events as single-line JSON objects with keys
// sorted lexicographically, or pretty-printed when Pretty is set.
type JSONEncoder struct {
	// Pretty enables indented multi-line output for human consumption.
	Pretty bool

	// Indent is the indentation unit used with Pretty. Empty means two
	// spaces.
	Indent string
}

func (e *JSONEncoder) Encode(event Event) ([]byte, error) {
	if e.Pretty {
		indent := e.Indent
		if indent == "" {
			indent = "  "
		}
		return json.MarshalIndent(event, "", indent)
	}
	return json.Marshal(event)
}

// KeyValueEncoder renders events in logfmt style: space-separated
// key=value pairs, values quoted when they contain spaces, quotes or
// control characters. The reserved fields lead in a fixed order
// (@timestamp, @version, message, tags); remaining keys follow sorted.
// Nested maps and slices are embedded as compact JSON.
type KeyValueEncoder struct{}

// reservedOrder fixes the position of buffer-owned fields in logfmt
// output so lines stay visually alignable across events.
var reservedOrder = []string{FieldTimestamp, FieldVersion, FieldMessage, FieldTags}

func (e *KeyValueEncoder) Encode(event Event) ([]byte, error) {
	keys := make([]string, 0, len(event))
	for k := range event {
		if !IsForbiddenField(k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	for _, k := range reservedOrder {
		if v, ok := event[k]; ok {
			if err := writePair(&buf, k, v); err != nil {
				return nil, err
			}
		}
	}
	for _, k := range keys {
		if err := writePair(&buf, k, event[k]); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func writePair(buf *bytes.Buffer, key string, value any) error {
	if buf.Len() > 0 {
		buf.WriteByte(' ')
	}
	buf.WriteString(key)
	buf.WriteByte('=')

	switch v := value.(type) {
	case nil:
		buf.WriteString("null")
	case string:
		writeScalar(buf, v)
	case bool:
		buf.WriteString(strconv.FormatBool(v))
	case int64:
		buf.WriteString(strconv.FormatInt(v, 10))
	case float64:
		buf.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	default:
		// Nested maps, slices and tag lists embed as compact JSON.
		encoded, err := json.Marshal(v)
		if err != nil {
			return err
		}
		buf.Write(encoded)
	}
	return nil
}

func writeScalar(buf *bytes.Buffer, s string) {
	if internal.NeedsQuoting(s) {
		buf.WriteString(strconv.Quote(s))
		return
	}
	buf.WriteString(s)
}

// MessageEncoder emits only the raw message text, discarding all other
// fields. Useful for plain application logs where the structured data
// goes to a parallel flow.
type MessageEncoder struct{}

func (e *MessageEncoder) Encode(event Event) ([]byte, error) {
	return []byte(event.Message()), nil
}

// RawEncoder renders the event with fmt for debugging flows. The output
// format is not stable; do not parse it.
type RawEncoder struct{}

func (e *RawEncoder) Encode(event Event) ([]byte, error) {
	return fmt.Appendf(nil, "%v", map[string]any(event)), nil
}
