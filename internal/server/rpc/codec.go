// Package rpc holds the plumbing shared by the hand-described gRPC services:
// a JSON codec and generic unary handler and client helpers.
//
// Messages are plain Go structs; clients select the codec per call with
// grpc.CallContentSubtype(rpc.Codec).
package rpc

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// Codec is the content-subtype ("application/grpc+json").
const Codec = "json"

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                       { return Codec }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
