package rpcpb

import (
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

// codecName is registered as a grpc content-subtype so SegmentService
// and ManagementService exchange JSON frames instead of the protobuf
// wire format (see the package doc for why).
const codecName = "rpcpb-json"

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type jsonCodec struct{}

func (jsonCodec) Name() string { return codecName }

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("rpcpb: marshal %T: %w", v, err)
	}
	return data, nil
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("rpcpb: unmarshal %T: %w", v, err)
	}
	return nil
}

// CallOption selects the rpcpb JSON codec on a per-call basis. Dialers
// that want every call on a connection to use it should instead pass
// grpc.WithDefaultCallOptions(rpcpb.CallOption()) to grpc.NewClient.
func CallOption() grpc.CallOption {
	return grpc.CallContentSubtype(codecName)
}
