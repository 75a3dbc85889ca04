package marketdata

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"github.com/marketmind/marketmind/pkg/llm"
)

// Tool names exposed to the model.
const (
	ToolSingleDayPrice   = "get_single_day_price"
	ToolAllTimeHigh      = "get_all_time_high"
	ToolPeriodHighLow    = "get_period_high_low"
	ToolRangePerformance = "get_range_performance"
)

// Candle-count ceilings per tool. Every tool retrieves a bounded window so
// one model call cannot fan out into an unbounded history scan.
const (
	singleDayLookback = 7
	allTimeHighWeeks  = 1040 // 20 years of weekly candles
	maxPeriodDays     = 365
)

// Toolset implements the bounded market-data sub-tools. Each tool returns a
// plain-text result consumed by the model as evidence, never by code.
type Toolset struct {
	candles CandleClient
}

// NewToolset returns the market-data tools over the given candle client.
func NewToolset(candles CandleClient) *Toolset {
	return &Toolset{candles: candles}
}

// Definitions returns the tool declarations for the model call.
func (t *Toolset) Definitions() []llm.ToolDefinition {
	return []llm.ToolDefinition{
		{
			Name:             ToolSingleDayPrice,
			Description:      "Closing price of an instrument on a specific day (falls back to the most recent trading day before it).",
			ParametersSchema: `{"type":"object","properties":{"instrumentId":{"type":"integer"},"date":{"type":"string","description":"YYYY-MM-DD"}},"required":["instrumentId","date"]}`,
		},
		{
			Name:             ToolAllTimeHigh,
			Description:      "All-time high price of an instrument and when it was reached.",
			ParametersSchema: `{"type":"object","properties":{"instrumentId":{"type":"integer"}},"required":["instrumentId"]}`,
		},
		{
			Name:             ToolPeriodHighLow,
			Description:      "Highest and lowest price of an instrument over the last N days (N at most 365).",
			ParametersSchema: `{"type":"object","properties":{"instrumentId":{"type":"integer"},"days":{"type":"integer"}},"required":["instrumentId","days"]}`,
		},
		{
			Name:             ToolRangePerformance,
			Description:      "Percentage performance of an instrument over the last N days (N at most 365).",
			ParametersSchema: `{"type":"object","properties":{"instrumentId":{"type":"integer"},"days":{"type":"integer"}},"required":["instrumentId","days"]}`,
		},
	}
}

// Invoke dispatches a model tool call to the matching tool and renders the
// result as evidence text. Tool failures come back as text too, so the model
// can recover within the same conversation.
func (t *Toolset) Invoke(ctx context.Context, call llm.ToolCall) string {
	result, err := t.invoke(ctx, call)
	if err != nil {
		return fmt.Sprintf("tool %s failed: %v", call.Name, err)
	}
	return result
}

func (t *Toolset) invoke(ctx context.Context, call llm.ToolCall) (string, error) {
	args := gjson.Parse(call.Arguments)
	instrumentID := args.Get("instrumentId").Int()
	if instrumentID == 0 {
		return "", fmt.Errorf("missing instrumentId argument")
	}

	switch call.Name {
	case ToolSingleDayPrice:
		date, err := time.Parse("2006-01-02", args.Get("date").String())
		if err != nil {
			return "", fmt.Errorf("invalid date argument: %w", err)
		}
		return t.singleDayPrice(ctx, instrumentID, date)
	case ToolAllTimeHigh:
		return t.allTimeHigh(ctx, instrumentID)
	case ToolPeriodHighLow:
		return t.periodHighLow(ctx, instrumentID, clampDays(args.Get("days").Int()))
	case ToolRangePerformance:
		return t.rangePerformance(ctx, instrumentID, clampDays(args.Get("days").Int()))
	}
	return "", fmt.Errorf("unknown tool %q", call.Name)
}

func clampDays(days int64) int {
	if days < 1 {
		return 1
	}
	if days > maxPeriodDays {
		return maxPeriodDays
	}
	return int(days)
}

func (t *Toolset) singleDayPrice(ctx context.Context, instrumentID int64, date time.Time) (string, error) {
	lookback := int(time.Since(date).Hours()/24) + singleDayLookback
	if lookback < singleDayLookback {
		lookback = singleDayLookback
	}
	candles, err := t.candles.Candles(ctx, instrumentID, GranularityDay, lookback)
	if err != nil {
		return "", err
	}
	// Newest candle at or before the requested day.
	var best *Candle
	for i := range candles {
		c := candles[i]
		if c.FromDate.After(date.Add(24 * time.Hour)) {
			continue
		}
		if best == nil || c.FromDate.After(best.FromDate) {
			best = &c
		}
	}
	if best == nil {
		return fmt.Sprintf("no price data for instrument %d on or before %s", instrumentID, date.Format("2006-01-02")), nil
	}
	return fmt.Sprintf("instrument %d closed at %s on %s",
		instrumentID, best.Close.String(), best.FromDate.Format("2006-01-02")), nil
}

func (t *Toolset) allTimeHigh(ctx context.Context, instrumentID int64) (string, error) {
	candles, err := t.candles.Candles(ctx, instrumentID, GranularityWeek, allTimeHighWeeks)
	if err != nil {
		return "", err
	}
	if len(candles) == 0 {
		return fmt.Sprintf("no price history for instrument %d", instrumentID), nil
	}
	high := candles[0]
	for _, c := range candles[1:] {
		if c.High.GreaterThan(high.High) {
			high = c
		}
	}
	return fmt.Sprintf("instrument %d all-time high is %s, reached the week of %s",
		instrumentID, high.High.String(), high.FromDate.Format("2006-01-02")), nil
}

func (t *Toolset) periodHighLow(ctx context.Context, instrumentID int64, days int) (string, error) {
	candles, err := t.candles.Candles(ctx, instrumentID, GranularityDay, days)
	if err != nil {
		return "", err
	}
	if len(candles) == 0 {
		return fmt.Sprintf("no price data for instrument %d in the last %d days", instrumentID, days), nil
	}
	high, low := candles[0].High, candles[0].Low
	for _, c := range candles[1:] {
		if c.High.GreaterThan(high) {
			high = c.High
		}
		if c.Low.LessThan(low) {
			low = c.Low
		}
	}
	return fmt.Sprintf("instrument %d over the last %d days: high %s, low %s",
		instrumentID, days, high.String(), low.String()), nil
}

func (t *Toolset) rangePerformance(ctx context.Context, instrumentID int64, days int) (string, error) {
	candles, err := t.candles.Candles(ctx, instrumentID, GranularityDay, days)
	if err != nil {
		return "", err
	}
	if len(candles) < 2 {
		return fmt.Sprintf("not enough price data for instrument %d over %d days", instrumentID, days), nil
	}
	first, last := candles[0], candles[len(candles)-1]
	if first.Close.IsZero() {
		return fmt.Sprintf("no valid baseline price for instrument %d %d days ago", instrumentID, days), nil
	}
	perf := last.Close.Sub(first.Close).Div(first.Close).Mul(decimal.NewFromInt(100)).Round(2)
	direction := "up"
	if perf.IsNegative() {
		direction = "down"
	}
	return fmt.Sprintf("instrument %d is %s %s%% over the last %d days (from %s to %s)",
		instrumentID, direction, perf.Abs().String(), days, first.Close.String(), last.Close.String()), nil
}

// RenderCandles formats candles as evidence text, newest last.
func RenderCandles(candles []Candle) string {
	var b strings.Builder
	for _, c := range candles {
		fmt.Fprintf(&b, "%s open=%s high=%s low=%s close=%s volume=%s\n",
			c.FromDate.Format("2006-01-02"), c.Open, c.High, c.Low, c.Close, c.Volume)
	}
	return b.String()
}
