// Package api defines the messages and the gRPC service of the easy-fs file
// service. Messages use the protobuf wire format and travel through the
// "efs" codec registered by this package.
package api

import (
	"fmt"

	"google.golang.org/grpc/encoding"
)

// CodecName is the gRPC content subtype the service is carried on.
const CodecName = "efs"

func init() {
	encoding.RegisterCodec(codec{})
}

type codec struct{}

func (codec) Marshal(v any) ([]byte, error) {
	m, ok := v.(Message)
	if !ok {
		return nil, fmt.Errorf("api: cannot marshal %T", v)
	}
	return Marshal(m), nil
}

func (codec) Unmarshal(data []byte, v any) error {
	m, ok := v.(Message)
	if !ok {
		return fmt.Errorf("api: cannot unmarshal into %T", v)
	}
	return Unmarshal(data, m)
}

func (codec) Name() string {
	return CodecName
}
