// Package scanner resolves a query to a target and runs the contract,
// market and intel enrichment modules against it.
package scanner

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/chain-brief/pkg/brief"
	"github.com/chain-brief/pkg/provider"
)

// AccountReader reads account state from the chain node.
type AccountReader interface {
	Code(ctx context.Context, addr string) ([]byte, error)
	Balance(ctx context.Context, addr string) (*big.Int, error)
	Nonce(ctx context.Context, addr string) (uint64, error)
}

// TokenReader reads the standard token getters.
type TokenReader interface {
	Name(ctx context.Context, token string) (string, error)
	Symbol(ctx context.Context, token string) (string, error)
	Decimals(ctx context.Context, token string) (uint8, error)
	TotalSupply(ctx context.Context, token string) (*big.Int, error)
	Owner(ctx context.Context, token string) (common.Address, error)
}

type PairSource interface {
	Pairs(ctx context.Context, token string) provider.Result[[]brief.Pair]
}

type MetadataSource interface {
	TokenInfo(ctx context.Context, token string) provider.Result[brief.TokenMeta]
}

// Linker renders public explorer pages.
type Linker interface {
	AddressURL(addr string) string
}
