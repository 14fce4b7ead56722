// Package rpc carries the gRPC wire plumbing shared by the frontend client
// stub (client package) and the instance harness server (instance package).
// It hand-writes the grpc.ServiceDesc machinery a protoc step would normally
// generate, using a JSON-shaped codec instead of protobuf so the wire format
// stays both grpc-native and trivially inspectable (see SPEC_FULL.md "GRPC
// WITHOUT CODEGEN").
package rpc

import (
	"github.com/bytedance/sonic"
	"google.golang.org/grpc/encoding"
)

// CodecName is registered with grpc's global codec registry. Clients select
// it per call via grpc.CallContentSubtype; servers built with a plain
// grpc.NewServer() look it up in the registry by that content-subtype.
const CodecName = "sonic-json"

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return sonic.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return sonic.Unmarshal(data, v)
}

func (jsonCodec) Name() string { return CodecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
