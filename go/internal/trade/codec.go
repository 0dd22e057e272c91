package trade

import (
	"github.com/goccy/go-json"
)

// JSONCodec is a connect codec for plain Go request and response structs.
// It takes over the "json" name so both the Connect protocol and curl-style
// application/json callers work without generated protobuf types.
type JSONCodec struct{}

// Name implements connect.Codec.
func (JSONCodec) Name() string { return "json" }

// Marshal implements connect.Codec.
func (JSONCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

// Unmarshal implements connect.Codec.
func (JSONCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, msg)
}
