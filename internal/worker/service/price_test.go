package service

import (
	"context"
	"errors"
	"sort"
	"testing"

	"balance-sync/pkg/oracle"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPriceResolverIsolatesFailures(t *testing.T) {
	o := &fakeOracle{
		prices: map[string]decimal.Decimal{"WETH": decimal.NewFromInt(3000), "SOL": decimal.NewFromInt(150)},
		errs:   map[string]error{"BROKEN": errors.New("timeout")},
	}
	r := NewPriceResolver(o, "USDC", decimal.NewFromInt(1), 2, zap.NewNop())

	book := r.Resolve(context.Background(), []string{"weth", "WETH", "SOL", "BROKEN", "ILLIQUID", "USDC", "usdc"})

	sort.Strings(o.asked)
	assert.Equal(t, []string{"BROKEN", "ILLIQUID", "SOL", "WETH"}, o.asked)

	assert.True(t, book.Get("weth").Resolved)
	assert.True(t, book.Get("WETH").Price.Equal(decimal.NewFromInt(3000)))
	assert.True(t, book.Get("SOL").Price.Equal(decimal.NewFromInt(150)))

	usdc := book.Get("USDC")
	assert.True(t, usdc.Resolved)
	assert.True(t, usdc.Price.Equal(decimal.NewFromInt(1)))

	broken := book.Get("BROKEN")
	assert.False(t, broken.Resolved)
	assert.NotErrorIs(t, broken.Err, oracle.ErrPriceUnavailable)

	illiquid := book.Get("ILLIQUID")
	assert.False(t, illiquid.Resolved)
	assert.ErrorIs(t, illiquid.Err, oracle.ErrPriceUnavailable)

	assert.False(t, book.Get("NEVERSEEN").Resolved)
	assert.Equal(t, []string{"BROKEN", "ILLIQUID"}, book.Unresolved())
}

func TestPriceResolverDividesByReferenceAmount(t *testing.T) {
	o := &fakeOracle{prices: map[string]decimal.Decimal{"WETH": decimal.NewFromInt(3000)}}
	r := NewPriceResolver(o, "USDC", decimal.NewFromInt(10), 1, zap.NewNop())

	book := r.Resolve(context.Background(), []string{"WETH"})
	q := book.Get("WETH")
	require.True(t, q.Resolved)
	assert.True(t, q.Price.Equal(decimal.NewFromInt(3000)), q.Price.String())
}

func TestPriceResolverEmpty(t *testing.T) {
	o := &fakeOracle{}
	r := NewPriceResolver(o, "USDC", decimal.NewFromInt(1), 4, zap.NewNop())

	book := r.Resolve(context.Background(), nil)
	assert.Empty(t, book.Unresolved())
	assert.Zero(t, o.calls.Load())
}
