package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"balance-sync/internal/worker/model"
	"balance-sync/internal/worker/monitor"
	"balance-sync/pkg/oracle"

	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

var errNotQuoted = errors.New("symbol not quoted in this run")

// Quote 单个符号的解析结果，Resolved=false 时 Price 无意义
type Quote struct {
	Price    decimal.Decimal
	Resolved bool
	Err      error
}

// PriceBook 一次同步内的价格表，参考稳定币恒为 1
type PriceBook struct {
	reference string
	quotes    map[string]Quote
}

func NewPriceBook(reference string, quotes map[string]Quote) PriceBook {
	if quotes == nil {
		quotes = map[string]Quote{}
	}
	return PriceBook{reference: model.NormalizeSymbol(reference), quotes: quotes}
}

func (b PriceBook) Get(symbol string) Quote {
	sym := model.NormalizeSymbol(symbol)
	if sym == b.reference {
		return Quote{Price: decimal.NewFromInt(1), Resolved: true}
	}
	if q, ok := b.quotes[sym]; ok {
		return q
	}
	return Quote{Err: errNotQuoted}
}

// Unresolved 未能解析的符号，按字母序
func (b PriceBook) Unresolved() []string {
	var out []string
	for sym, q := range b.quotes {
		if !q.Resolved {
			out = append(out, sym)
		}
	}
	sort.Strings(out)
	return out
}

type PriceResolver struct {
	oracle          PriceOracle
	reference       string
	referenceAmount decimal.Decimal
	concurrency     int
	tl              *zap.Logger
}

func NewPriceResolver(o PriceOracle, reference string, referenceAmount decimal.Decimal, concurrency int, logger *zap.Logger) *PriceResolver {
	if concurrency <= 0 {
		concurrency = 1
	}
	if !referenceAmount.IsPositive() {
		referenceAmount = decimal.NewFromInt(1)
	}
	return &PriceResolver{
		oracle:          o,
		reference:       model.NormalizeSymbol(reference),
		referenceAmount: referenceAmount,
		concurrency:     concurrency,
		tl:              logger,
	}
}

type symbolQuote struct {
	symbol string
	quote  Quote
}

// Resolve 并发解析所有去重后的符号，单个符号失败不影响其他符号
func (r *PriceResolver) Resolve(ctx context.Context, symbols []string) PriceBook {
	distinct := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		sym := model.NormalizeSymbol(s)
		if sym == "" || sym == r.reference {
			continue
		}
		distinct[sym] = struct{}{}
	}

	p := pool.NewWithResults[symbolQuote]().WithMaxGoroutines(r.concurrency)
	for sym := range distinct {
		p.Go(func() symbolQuote {
			return symbolQuote{symbol: sym, quote: r.resolveOne(ctx, sym)}
		})
	}

	quotes := make(map[string]Quote, len(distinct))
	for _, sq := range p.Wait() {
		quotes[sq.symbol] = sq.quote
	}
	return NewPriceBook(r.reference, quotes)
}

func (r *PriceResolver) resolveOne(ctx context.Context, symbol string) (q Quote) {
	defer func() {
		if rec := recover(); rec != nil {
			q = Quote{Err: fmt.Errorf("quote %s panicked: %v", symbol, rec)}
			monitor.SyncPriceResolutions.WithLabelValues("error").Inc()
		}
	}()

	out, err := r.oracle.Quote(ctx, symbol, r.reference, r.referenceAmount)
	if err != nil {
		outcome := "error"
		if errors.Is(err, oracle.ErrPriceUnavailable) {
			outcome = "unavailable"
		}
		monitor.SyncPriceResolutions.WithLabelValues(outcome).Inc()
		r.tl.Warn("price unresolved", zap.String("symbol", symbol), zap.String("outcome", outcome), zap.Error(err))
		return Quote{Err: err}
	}
	if !out.IsPositive() {
		monitor.SyncPriceResolutions.WithLabelValues("unavailable").Inc()
		return Quote{Err: fmt.Errorf("%w: non-positive quote for %s", oracle.ErrPriceUnavailable, symbol)}
	}

	monitor.SyncPriceResolutions.WithLabelValues("resolved").Inc()
	return Quote{Price: out.Div(r.referenceAmount), Resolved: true}
}
