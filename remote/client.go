package remote

import (
	"context"
	"errors"
	"fmt"
	"time"

	retry "github.com/avast/retry-go/v4"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/query"
	banktypes "github.com/cosmos/cosmos-sdk/x/bank/types"
	"github.com/gogo/protobuf/proto"
	rpcclient "github.com/tendermint/tendermint/rpc/client"
	rpchttp "github.com/tendermint/tendermint/rpc/client/http"
	jsonrpcclient "github.com/tendermint/tendermint/rpc/jsonrpc/client"
	"go.uber.org/zap"

	"github.com/cosmos/multitest/store"
	"github.com/cosmos/multitest/types"
)

var (
	rtyAttNum = uint(5)
	rtyAtt    = retry.Attempts(rtyAttNum)
	rtyDel    = retry.Delay(time.Millisecond * 400)
	rtyErr    = retry.LastErrorOnly(true)
)

// Client reads one remote chain's wasm state over RPC. It satisfies
// store.RemoteReader so a dual store can lay local writes over it.
type Client struct {
	log    *zap.Logger
	cfg    ChainConfig
	client rpcclient.Client
}

var _ store.RemoteReader = (*Client)(nil)

// NewClient dials the configured RPC endpoint.
func NewClient(log *zap.Logger, cfg ChainConfig) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	rpc, err := newRPCClient(cfg.RPCAddr, cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.RPCAddr, err)
	}
	return &Client{log: log, cfg: cfg, client: rpc}, nil
}

func newRPCClient(addr string, timeout time.Duration) (*rpchttp.HTTP, error) {
	httpClient, err := jsonrpcclient.DefaultHTTPClient(addr)
	if err != nil {
		return nil, err
	}
	httpClient.Timeout = timeout
	return rpchttp.NewWithClient(addr, "/websocket", httpClient)
}

// ChainID returns the configured chain id.
func (c *Client) ChainID() string { return c.cfg.ChainID }

// RawContractState reads one key of a contract's raw state. A missing key
// returns nil with no error.
func (c *Client) RawContractState(contract string, key []byte) ([]byte, error) {
	req := &QueryRawContractStateRequest{Address: contract, QueryData: key}
	resp := &QueryRawContractStateResponse{}
	if err := c.query(pathRawContractState, req, resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// AllContractState reads one page of a contract's raw state.
func (c *Client) AllContractState(contract string, pagination *query.PageRequest) ([]store.Record, *query.PageResponse, error) {
	req := &QueryAllContractStateRequest{Address: contract, Pagination: pagination}
	resp := &QueryAllContractStateResponse{}
	if err := c.query(pathAllContractState, req, resp); err != nil {
		return nil, nil, err
	}
	records := make([]store.Record, 0, len(resp.Models))
	for _, m := range resp.Models {
		records = append(records, store.Record{Key: m.Key, Value: m.Value})
	}
	return records, resp.Pagination, nil
}

// ContractInfo reads the stored metadata of a remote contract.
func (c *Client) ContractInfo(contract string) (*ContractInfo, error) {
	req := &QueryContractInfoRequest{Address: contract}
	resp := &QueryContractInfoResponse{}
	if err := c.query(pathContractInfo, req, resp); err != nil {
		return nil, err
	}
	return &resp.ContractInfo, nil
}

// Code reads a stored code's metadata and checksum.
func (c *Client) Code(codeID uint64) (*CodeInfoResponse, error) {
	req := &QueryCodeRequest{CodeID: codeID}
	resp := &QueryCodeResponse{}
	if err := c.query(pathCode, req, resp); err != nil {
		return nil, err
	}
	if resp.CodeInfo == nil {
		return nil, fmt.Errorf("code %d: %w", codeID, types.ErrNotFound)
	}
	return resp.CodeInfo, nil
}

// Balances reads an address's balances, optionally scoped to one denom.
func (c *Client) Balances(address, denom string) (sdk.Coins, error) {
	if denom != "" {
		req := &banktypes.QueryBalanceRequest{Address: address, Denom: denom}
		resp := &banktypes.QueryBalanceResponse{}
		if err := c.query("/cosmos.bank.v1beta1.Query/Balance", req, resp); err != nil {
			return nil, err
		}
		if resp.Balance == nil {
			return sdk.Coins{}, nil
		}
		return sdk.Coins{*resp.Balance}, nil
	}
	req := &banktypes.QueryAllBalancesRequest{Address: address}
	resp := &banktypes.QueryAllBalancesResponse{}
	if err := c.query("/cosmos.bank.v1beta1.Query/AllBalances", req, resp); err != nil {
		return nil, err
	}
	return resp.Balances, nil
}

// query runs one ABCI-routed grpc query with retries on transport failure.
func (c *Client) query(path string, req, resp proto.Message) error {
	data, err := proto.Marshal(req)
	if err != nil {
		return err
	}
	var value []byte
	if err := retry.Do(func() error {
		value, err = c.abciQuery(path, data)
		return err
	}, rtyAtt, rtyDel, rtyErr, retry.OnRetry(func(n uint, err error) {
		c.log.Debug("Remote query failed",
			zap.String("chain_id", c.cfg.ChainID),
			zap.String("path", path),
			zap.Uint("attempt", n+1),
			zap.Uint("max_attempts", rtyAttNum),
			zap.Error(err),
		)
	})); err != nil {
		return err
	}
	return proto.Unmarshal(value, resp)
}

func (c *Client) abciQuery(path string, data []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.Timeout)
	defer cancel()

	opts := rpcclient.ABCIQueryOptions{Height: 0, Prove: false}
	result, err := c.client.ABCIQueryWithOptions(ctx, path, data, opts)
	if err != nil {
		return nil, err
	}
	if !result.Response.IsOK() {
		return nil, errors.New(result.Response.Log)
	}
	return result.Response.Value, nil
}
