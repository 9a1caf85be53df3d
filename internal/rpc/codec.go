package rpc

import "encoding/json"

// Codec encodes RPC messages as plain JSON. Messages are the contracts and
// models structs, so there is no protobuf schema to go through.
type Codec struct{}

func (Codec) Name() string { return "json" }

func (Codec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (Codec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
