package scanner

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/chain-brief/pkg/brief"
	"github.com/chain-brief/pkg/provider"
)

var errDown = errors.New("connection refused")

type fakeNode struct {
	code     []byte
	codeErr  error
	balance  *big.Int
	nonce    uint64
	nonceErr error
}

func (f *fakeNode) Code(ctx context.Context, addr string) ([]byte, error) { return f.code, f.codeErr }
func (f *fakeNode) Balance(ctx context.Context, addr string) (*big.Int, error) {
	if f.balance == nil {
		return nil, errDown
	}
	return f.balance, nil
}
func (f *fakeNode) Nonce(ctx context.Context, addr string) (uint64, error) { return f.nonce, f.nonceErr }

type fakeTokens struct {
	name, symbol string
	decimals     *uint8
	supply       *big.Int
	owner        *common.Address
}

func (f *fakeTokens) Name(ctx context.Context, token string) (string, error) {
	if f.name == "" {
		return "", errDown
	}
	return f.name, nil
}
func (f *fakeTokens) Symbol(ctx context.Context, token string) (string, error) {
	if f.symbol == "" {
		return "", errDown
	}
	return f.symbol, nil
}
func (f *fakeTokens) Decimals(ctx context.Context, token string) (uint8, error) {
	if f.decimals == nil {
		return 0, errDown
	}
	return *f.decimals, nil
}
func (f *fakeTokens) TotalSupply(ctx context.Context, token string) (*big.Int, error) {
	if f.supply == nil {
		return nil, errDown
	}
	return f.supply, nil
}
func (f *fakeTokens) Owner(ctx context.Context, token string) (common.Address, error) {
	if f.owner == nil {
		return common.Address{}, errDown
	}
	return *f.owner, nil
}

type fakePairs struct {
	res   provider.Result[[]brief.Pair]
	calls int
}

func (f *fakePairs) Pairs(ctx context.Context, token string) provider.Result[[]brief.Pair] {
	f.calls++
	return f.res
}

type fakeMeta struct {
	res provider.Result[brief.TokenMeta]
}

func (f *fakeMeta) TokenInfo(ctx context.Context, token string) provider.Result[brief.TokenMeta] {
	return f.res
}

type fakeLinker struct{}

func (fakeLinker) AddressURL(addr string) string { return "https://etherscan.io/address/" + addr }

func live[T any](v T) provider.Result[T] {
	return provider.Result[T]{Value: v, Status: brief.StatusLive}
}

func none[T any]() provider.Result[T] {
	return provider.Result[T]{Status: brief.StatusNone, Err: brief.ErrSourceUnavailable}
}

type fakeLabels struct {
	profile provider.Result[brief.LabelProfile]
	linked  provider.Result[brief.AltWallets]
	tags    provider.Result[brief.TagList]
	entity  provider.Result[brief.Entity]
}

func (f *fakeLabels) Configured() bool              { return true }
func (f *fakeLabels) ProfileURL(addr string) string { return "https://labels.example/" + addr }
func (f *fakeLabels) Profile(ctx context.Context, addr string) provider.Result[brief.LabelProfile] {
	return f.profile
}
func (f *fakeLabels) Linked(ctx context.Context, addr string, timeout time.Duration) provider.Result[brief.AltWallets] {
	return f.linked
}
func (f *fakeLabels) Tags(ctx context.Context, addr string, timeout time.Duration) provider.Result[brief.TagList] {
	return f.tags
}
func (f *fakeLabels) Entity(ctx context.Context, addr string, timeout time.Duration) provider.Result[brief.Entity] {
	return f.entity
}

type fakePortfolio struct {
	res provider.Result[brief.Portfolio]
}

func (f *fakePortfolio) PublicURL(addr string) string { return "" }
func (f *fakePortfolio) Summary(ctx context.Context, addr string) provider.Result[brief.Portfolio] {
	return f.res
}

type fakeTrades struct {
	res provider.Result[brief.TradeSample]
}

func (f *fakeTrades) PublicURL(token string) string { return "https://birdeye.so/token/" + token }
func (f *fakeTrades) Sample(ctx context.Context, token string) provider.Result[brief.TradeSample] {
	return f.res
}

type fakeActivity struct {
	res provider.Result[brief.Activity]
}

func (f *fakeActivity) AddressURL(addr string) string { return "https://etherscan.io/address/" + addr }
func (f *fakeActivity) Activity(ctx context.Context, addr string, timeout time.Duration) provider.Result[brief.Activity] {
	return f.res
}
