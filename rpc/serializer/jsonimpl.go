package serializer

import "encoding/json"

// NewJSONSerializer creates a new serializer using the JSON format.
// Slower and larger than the binary format but human-readable on the wire,
// which makes it the default for debugging.
func NewJSONSerializer() ISerializer {
	return &jsonSerializerImpl{}
}

// jsonSerializerImpl implements ISerializer using encoding/json
type jsonSerializerImpl struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.ISerializer)
// --------------------------------------------------------------------------

func (s *jsonSerializerImpl) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (s *jsonSerializerImpl) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
