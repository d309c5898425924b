package idbpb

import "fmt"

// Codec plugs the hand-encoded messages into grpc under the "proto" content
// subtype, so the companion sees ordinary application/grpc+proto traffic.
type Codec struct{}

func (Codec) Name() string { return "proto" }

func (Codec) Marshal(v any) ([]byte, error) {
	m, ok := v.(Message)
	if !ok {
		return nil, fmt.Errorf("idbpb: cannot marshal %T", v)
	}
	return m.Marshal()
}

func (Codec) Unmarshal(data []byte, v any) error {
	m, ok := v.(Message)
	if !ok {
		return fmt.Errorf("idbpb: cannot unmarshal into %T", v)
	}
	return m.Unmarshal(data)
}
