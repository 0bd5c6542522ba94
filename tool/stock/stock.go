// Package stock provides the get_stock_data tool used by the report agents. It
// produces a deterministic-shape series of synthetic daily OHLCV candles.
package stock

import (
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/hupe1980/genui/core"
	"github.com/hupe1980/genui/tool"
)

// ToolName is the name models use to request stock data.
const ToolName = "get_stock_data"

// Candle is one trading day.
type Candle struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int     `json:"volume"`
}

// Rand is the randomness source used to generate prices.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }
func (globalRand) IntN(n int) int   { return rand.IntN(n) }

// Options configures the generator.
type Options struct {
	Days      int
	BasePrice float64
	StartDate time.Time
	Rand      Rand
}

// Args are the arguments accepted by the tool.
type Args struct {
	StockName string `json:"stock_name" description:"Ticker symbol or company name, e.g. AAPL"`
}

// Generate returns Days synthetic candles. Each day opens at the previous
// close and moves by at most 3%.
func Generate(optFns ...func(o *Options)) []Candle {
	opts := Options{
		Days:      100,
		BasePrice: 150.0,
		StartDate: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		Rand:      globalRand{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	candles := make([]Candle, 0, max(opts.Days, 0))
	open := opts.BasePrice

	for i := 0; i < opts.Days; i++ {
		if i > 0 {
			open = candles[i-1].Close
		}

		closePrice := open * (1 + uniform(opts.Rand, -0.03, 0.03))
		high := math.Max(open, closePrice) * uniform(opts.Rand, 1.0, 1.02)
		low := math.Min(open, closePrice) * uniform(opts.Rand, 0.98, 1.0)

		candles = append(candles, Candle{
			Date:   opts.StartDate.AddDate(0, 0, i).Format(time.DateOnly),
			Open:   round2(open),
			High:   round2(high),
			Low:    round2(low),
			Close:  round2(closePrice),
			Volume: 1_000_000 + opts.Rand.IntN(9_000_001),
		})
	}

	return candles
}

// New returns the get_stock_data tool.
func New(optFns ...func(o *Options)) tool.Tool {
	return tool.NewFunctionToolFromStruct(
		ToolName,
		"GET Stock Data from given stock name",
		Args{},
		func(toolCtx *core.ToolContext, args map[string]any) (any, error) {
			name, _ := args["stock_name"].(string)
			name = strings.TrimSpace(name)
			if name == "" {
				return nil, tool.NewToolError(ToolName, "stock_name must not be empty", tool.CodeValidation)
			}

			toolCtx.Logger().Info("stock.generate", "stock_name", name)

			return map[string][]Candle{name: Generate(optFns...)}, nil
		},
	)
}

func uniform(r Rand, lo, hi float64) float64 {
	return lo + (hi-lo)*r.Float64()
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

