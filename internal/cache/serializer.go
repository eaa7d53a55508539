package cache

import (
	"encoding/json"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/skyward-labs/aerodata/internal/types"
)

// JSONSerializer implements Serializer using JSON encoding. It is the
// default: upstream aviation feeds are JSON already, so round-tripping stays
// inspectable in the durable tiers.
type JSONSerializer struct{}

// NewJSONSerializer creates a new JSON serializer.
func NewJSONSerializer() *JSONSerializer {
	return &JSONSerializer{}
}

// Marshal serializes a value to JSON bytes.
func (s *JSONSerializer) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal deserializes JSON bytes into the destination.
func (s *JSONSerializer) Unmarshal(data []byte, dest any) error {
	return json.Unmarshal(data, dest)
}

// MsgpackSerializer implements Serializer using msgpack, a denser encoding
// for bulk payloads such as aircraft trails.
type MsgpackSerializer struct{}

// NewMsgpackSerializer creates a new msgpack serializer.
func NewMsgpackSerializer() *MsgpackSerializer {
	return &MsgpackSerializer{}
}

// Marshal serializes a value to msgpack bytes.
func (s *MsgpackSerializer) Marshal(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

// Unmarshal deserializes msgpack bytes into the destination.
func (s *MsgpackSerializer) Unmarshal(data []byte, dest any) error {
	return msgpack.Unmarshal(data, dest)
}

var (
	_ types.Serializer = (*JSONSerializer)(nil)
	_ types.Serializer = (*MsgpackSerializer)(nil)
)
