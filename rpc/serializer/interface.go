package serializer

import "fmt"

// ISerializer is the interface for all envelope serializers. A serializer
// converts the proto envelope structs (proto.FromClient, proto.FromServer)
// to and from their wire representation. Both ends of a connection must use
// the same serializer.
type ISerializer interface {
	// Marshal serializes an envelope into a byte array
	Marshal(v any) ([]byte, error)
	// Unmarshal deserializes a byte array into the envelope pointed to by v
	Unmarshal(data []byte, v any) error
}

// ForName returns the serializer registered under the given name
// (json, gob or binary)
func ForName(name string) (ISerializer, error) {
	switch name {
	case "json":
		return NewJSONSerializer(), nil
	case "gob":
		return NewGOBSerializer(), nil
	case "binary":
		return NewBinarySerializer(), nil
	default:
		return nil, fmt.Errorf("unknown serializer: %s (must be one of json, gob, binary)", name)
	}
}
