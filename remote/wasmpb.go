package remote

import (
	"github.com/cosmos/cosmos-sdk/types/query"
)

// Wire types for the wasm query service. Field numbers follow the upstream
// proto definitions; gogo marshals them by struct tag.

// Query service method paths.
const (
	pathRawContractState = "/cosmwasm.wasm.v1.Query/RawContractState"
	pathAllContractState = "/cosmwasm.wasm.v1.Query/AllContractState"
	pathContractInfo     = "/cosmwasm.wasm.v1.Query/ContractInfo"
	pathCode             = "/cosmwasm.wasm.v1.Query/Code"
)

// Model is one raw key/value pair of contract state.
type Model struct {
	Key   []byte `protobuf:"bytes,1,opt,name=key,proto3" json:"key,omitempty"`
	Value []byte `protobuf:"bytes,2,opt,name=value,proto3" json:"value,omitempty"`
}

func (m *Model) Reset()         { *m = Model{} }
func (m *Model) String() string { return "Model" }
func (*Model) ProtoMessage()    {}

type QueryRawContractStateRequest struct {
	Address   string `protobuf:"bytes,1,opt,name=address,proto3" json:"address,omitempty"`
	QueryData []byte `protobuf:"bytes,2,opt,name=query_data,json=queryData,proto3" json:"query_data,omitempty"`
}

func (m *QueryRawContractStateRequest) Reset()         { *m = QueryRawContractStateRequest{} }
func (m *QueryRawContractStateRequest) String() string { return "QueryRawContractStateRequest" }
func (*QueryRawContractStateRequest) ProtoMessage()    {}

type QueryRawContractStateResponse struct {
	Data []byte `protobuf:"bytes,1,opt,name=data,proto3" json:"data,omitempty"`
}

func (m *QueryRawContractStateResponse) Reset()         { *m = QueryRawContractStateResponse{} }
func (m *QueryRawContractStateResponse) String() string { return "QueryRawContractStateResponse" }
func (*QueryRawContractStateResponse) ProtoMessage()    {}

type QueryAllContractStateRequest struct {
	Address    string             `protobuf:"bytes,1,opt,name=address,proto3" json:"address,omitempty"`
	Pagination *query.PageRequest `protobuf:"bytes,2,opt,name=pagination,proto3" json:"pagination,omitempty"`
}

func (m *QueryAllContractStateRequest) Reset()         { *m = QueryAllContractStateRequest{} }
func (m *QueryAllContractStateRequest) String() string { return "QueryAllContractStateRequest" }
func (*QueryAllContractStateRequest) ProtoMessage()    {}

type QueryAllContractStateResponse struct {
	Models     []Model             `protobuf:"bytes,1,rep,name=models,proto3" json:"models"`
	Pagination *query.PageResponse `protobuf:"bytes,2,opt,name=pagination,proto3" json:"pagination,omitempty"`
}

func (m *QueryAllContractStateResponse) Reset()         { *m = QueryAllContractStateResponse{} }
func (m *QueryAllContractStateResponse) String() string { return "QueryAllContractStateResponse" }
func (*QueryAllContractStateResponse) ProtoMessage()    {}

// ContractInfo is the stored metadata of a remote contract instance.
type ContractInfo struct {
	CodeID  uint64 `protobuf:"varint,1,opt,name=code_id,json=codeId,proto3" json:"code_id,omitempty"`
	Creator string `protobuf:"bytes,2,opt,name=creator,proto3" json:"creator,omitempty"`
	Admin   string `protobuf:"bytes,3,opt,name=admin,proto3" json:"admin,omitempty"`
	Label   string `protobuf:"bytes,4,opt,name=label,proto3" json:"label,omitempty"`
}

func (m *ContractInfo) Reset()         { *m = ContractInfo{} }
func (m *ContractInfo) String() string { return "ContractInfo" }
func (*ContractInfo) ProtoMessage()    {}

type QueryContractInfoRequest struct {
	Address string `protobuf:"bytes,1,opt,name=address,proto3" json:"address,omitempty"`
}

func (m *QueryContractInfoRequest) Reset()         { *m = QueryContractInfoRequest{} }
func (m *QueryContractInfoRequest) String() string { return "QueryContractInfoRequest" }
func (*QueryContractInfoRequest) ProtoMessage()    {}

type QueryContractInfoResponse struct {
	Address      string       `protobuf:"bytes,1,opt,name=address,proto3" json:"address,omitempty"`
	ContractInfo ContractInfo `protobuf:"bytes,2,opt,name=contract_info,json=contractInfo,proto3,embedded=contract_info" json:"contract_info"`
}

func (m *QueryContractInfoResponse) Reset()         { *m = QueryContractInfoResponse{} }
func (m *QueryContractInfoResponse) String() string { return "QueryContractInfoResponse" }
func (*QueryContractInfoResponse) ProtoMessage()    {}

type QueryCodeRequest struct {
	CodeID uint64 `protobuf:"varint,1,opt,name=code_id,json=codeId,proto3" json:"code_id,omitempty"`
}

func (m *QueryCodeRequest) Reset()         { *m = QueryCodeRequest{} }
func (m *QueryCodeRequest) String() string { return "QueryCodeRequest" }
func (*QueryCodeRequest) ProtoMessage()    {}

// CodeInfoResponse carries the code metadata; DataHash is the sha256
// checksum of the stored code.
type CodeInfoResponse struct {
	CodeID   uint64 `protobuf:"varint,1,opt,name=code_id,json=codeId,proto3" json:"code_id,omitempty"`
	Creator  string `protobuf:"bytes,2,opt,name=creator,proto3" json:"creator,omitempty"`
	DataHash []byte `protobuf:"bytes,3,opt,name=data_hash,json=dataHash,proto3" json:"data_hash,omitempty"`
}

func (m *CodeInfoResponse) Reset()         { *m = CodeInfoResponse{} }
func (m *CodeInfoResponse) String() string { return "CodeInfoResponse" }
func (*CodeInfoResponse) ProtoMessage()    {}

type QueryCodeResponse struct {
	CodeInfo *CodeInfoResponse `protobuf:"bytes,1,opt,name=code_info,json=codeInfo,proto3,embedded=code_info" json:"code_info,omitempty"`
	Data     []byte            `protobuf:"bytes,2,opt,name=data,proto3" json:"data,omitempty"`
}

func (m *QueryCodeResponse) Reset()         { *m = QueryCodeResponse{} }
func (m *QueryCodeResponse) String() string { return "QueryCodeResponse" }
func (*QueryCodeResponse) ProtoMessage()    {}
