package app

import (
	"github.com/gogo/protobuf/proto"
)

// Wire envelopes wrapping the data field of wasm call responses, matching
// the x/wasm msg response formats.

type InstantiateResponseData struct {
	Address string `protobuf:"bytes,1,opt,name=address,proto3" json:"address,omitempty"`
	Data    []byte `protobuf:"bytes,2,opt,name=data,proto3" json:"data,omitempty"`
}

func (m *InstantiateResponseData) Reset()         { *m = InstantiateResponseData{} }
func (m *InstantiateResponseData) String() string { return "InstantiateResponseData" }
func (*InstantiateResponseData) ProtoMessage()    {}

type ExecuteResponseData struct {
	Data []byte `protobuf:"bytes,1,opt,name=data,proto3" json:"data,omitempty"`
}

func (m *ExecuteResponseData) Reset()         { *m = ExecuteResponseData{} }
func (m *ExecuteResponseData) String() string { return "ExecuteResponseData" }
func (*ExecuteResponseData) ProtoMessage()    {}

// instantiateResponse wraps the response data of an instantiation together
// with the new contract address.
func instantiateResponse(data []byte, contractAddr string) ([]byte, error) {
	return proto.Marshal(&InstantiateResponseData{Address: contractAddr, Data: data})
}

// executeResponse wraps non-empty execution response data. Empty data stays
// empty.
func executeResponse(data []byte) ([]byte, error) {
	if data == nil {
		return nil, nil
	}
	return proto.Marshal(&ExecuteResponseData{Data: data})
}
