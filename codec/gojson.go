package codec

import gojson "github.com/goccy/go-json"

// GoJSON is a JSON codec backed by github.com/goccy/go-json.
type GoJSON struct{}

// Marshal encodes the value to JSON.
func (GoJSON) Marshal(v any) ([]byte, error) { return gojson.Marshal(v) }

// Unmarshal decodes the JSON data into v.
func (GoJSON) Unmarshal(data []byte, v any) error { return gojson.Unmarshal(data, v) }

// Name returns the unique name of the codec ("go-json").
func (GoJSON) Name() string { return "go-json" }

// Append encodes v and appends it to dst, so line-oriented writers can
// reuse one buffer across records.
func (GoJSON) Append(dst []byte, v any) ([]byte, error) {
	b, err := gojson.MarshalNoEscape(v)
	if err != nil {
		return dst, err
	}
	return append(dst, b...), nil
}
