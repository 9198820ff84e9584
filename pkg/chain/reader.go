// Package chain is a read-only client against an EVM node.
package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/chain-brief/pkg/observability"
	"github.com/chain-brief/pkg/provider"
)

const Source = "chain-rpc"

const erc20JSON = `[
 {"constant":true,"inputs":[],"name":"name","outputs":[{"name":"","type":"string"}],"type":"function"},
 {"constant":true,"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"type":"function"},
 {"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"type":"function"},
 {"constant":true,"inputs":[],"name":"totalSupply","outputs":[{"name":"","type":"uint256"}],"type":"function"},
 {"constant":true,"inputs":[],"name":"owner","outputs":[{"name":"","type":"address"}],"type":"function"}
]`

var erc20 = func() abi.ABI {
	a, err := abi.JSON(strings.NewReader(erc20JSON))
	if err != nil {
		panic(err)
	}
	return a
}()

var errEmptyReturn = errors.New("empty return data")

// backend is the subset of ethclient.Client the reader uses.
type backend interface {
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	NonceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (uint64, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

type Reader struct {
	eth     backend
	timeout time.Duration
	metrics *observability.Metrics
}

// Dial connects to rpcURL. HTTP endpoints are not contacted until the first call.
func Dial(ctx context.Context, rpcURL string, timeout time.Duration, m *observability.Metrics) (*Reader, error) {
	c, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", rpcURL, err)
	}
	return &Reader{eth: c, timeout: timeout, metrics: m}, nil
}

func call[T any](ctx context.Context, r *Reader, fn func(context.Context) (T, error)) (T, error) {
	start := time.Now()
	v, err := provider.Call(ctx, r.timeout, fn)
	status := "live"
	if err != nil {
		status = "none"
	}
	r.metrics.ObserveProvider(Source, status, time.Since(start))
	return v, err
}

// Code returns the bytecode at addr; empty for externally owned accounts.
func (r *Reader) Code(ctx context.Context, addr string) ([]byte, error) {
	return call(ctx, r, func(ctx context.Context) ([]byte, error) {
		code, err := r.eth.CodeAt(ctx, common.HexToAddress(addr), nil)
		if err != nil {
			return nil, fmt.Errorf("eth_getCode: %w", err)
		}
		return code, nil
	})
}

// Balance returns the native balance in wei.
func (r *Reader) Balance(ctx context.Context, addr string) (*big.Int, error) {
	return call(ctx, r, func(ctx context.Context) (*big.Int, error) {
		bal, err := r.eth.BalanceAt(ctx, common.HexToAddress(addr), nil)
		if err != nil {
			return nil, fmt.Errorf("eth_getBalance: %w", err)
		}
		return bal, nil
	})
}

// Nonce returns the transaction count of addr.
func (r *Reader) Nonce(ctx context.Context, addr string) (uint64, error) {
	return call(ctx, r, func(ctx context.Context) (uint64, error) {
		n, err := r.eth.NonceAt(ctx, common.HexToAddress(addr), nil)
		if err != nil {
			return 0, fmt.Errorf("eth_getTransactionCount: %w", err)
		}
		return n, nil
	})
}

func (r *Reader) Name(ctx context.Context, token string) (string, error) {
	return r.tokenString(ctx, token, "name")
}

func (r *Reader) Symbol(ctx context.Context, token string) (string, error) {
	return r.tokenString(ctx, token, "symbol")
}

func (r *Reader) Decimals(ctx context.Context, token string) (uint8, error) {
	out, err := r.callMethod(ctx, token, "decimals")
	if err != nil {
		return 0, err
	}
	vals, err := erc20.Unpack("decimals", out)
	if err != nil {
		return 0, fmt.Errorf("decimals: %w", err)
	}
	return vals[0].(uint8), nil
}

func (r *Reader) TotalSupply(ctx context.Context, token string) (*big.Int, error) {
	out, err := r.callMethod(ctx, token, "totalSupply")
	if err != nil {
		return nil, err
	}
	vals, err := erc20.Unpack("totalSupply", out)
	if err != nil {
		return nil, fmt.Errorf("totalSupply: %w", err)
	}
	return vals[0].(*big.Int), nil
}

// Owner reads owner(); the zero address means ownership was renounced.
func (r *Reader) Owner(ctx context.Context, token string) (common.Address, error) {
	out, err := r.callMethod(ctx, token, "owner")
	if err != nil {
		return common.Address{}, err
	}
	vals, err := erc20.Unpack("owner", out)
	if err != nil {
		return common.Address{}, fmt.Errorf("owner: %w", err)
	}
	return vals[0].(common.Address), nil
}

func (r *Reader) callMethod(ctx context.Context, token, method string) ([]byte, error) {
	data, err := erc20.Pack(method)
	if err != nil {
		return nil, err
	}
	to := common.HexToAddress(token)
	return call(ctx, r, func(ctx context.Context) ([]byte, error) {
		out, err := r.eth.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
		if err != nil {
			return nil, fmt.Errorf("eth_call %s: %w", method, err)
		}
		if len(out) == 0 {
			return nil, fmt.Errorf("eth_call %s: %w", method, errEmptyReturn)
		}
		return out, nil
	})
}

// tokenString reads a string getter. Some older tokens return bytes32
// instead of string; those are decoded as NUL-padded ASCII.
func (r *Reader) tokenString(ctx context.Context, token, method string) (string, error) {
	out, err := r.callMethod(ctx, token, method)
	if err != nil {
		return "", err
	}
	if vals, err := erc20.Unpack(method, out); err == nil {
		if s := strings.TrimSpace(vals[0].(string)); s != "" {
			return s, nil
		}
	}
	if len(out) == 32 {
		if s := decodeBytes32(out); s != "" {
			return s, nil
		}
	}
	return "", fmt.Errorf("%s: undecodable return data", method)
}

func decodeBytes32(raw []byte) string {
	end := len(raw)
	for end > 0 && raw[end-1] == 0 {
		end--
	}
	if end == 0 {
		return ""
	}
	s := string(raw[:end])
	for _, c := range s {
		if c < 32 || c > 126 {
			return ""
		}
	}
	return s
}
