package objectcache

import "github.com/bytedance/sonic"

// Codec is the object format used for common_data and task input/output
// payloads (§4.2).
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// sonicCodec wraps sonic, a drop-in faster encoding/json, so the wire shape
// is plain JSON readable from any language's client.
type sonicCodec struct{}

// Marshal encodes v to the wire format.
func (sonicCodec) Marshal(v any) ([]byte, error) {
	return sonic.Marshal(v)
}

// Unmarshal decodes the wire format into v.
func (sonicCodec) Unmarshal(data []byte, v any) error {
	return sonic.Unmarshal(data, v)
}

// DefaultCodec is the Codec instance used when callers don't need a custom
// one.
var DefaultCodec Codec = sonicCodec{}
