package provider

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/hupe1980/genui/core"
	"github.com/hupe1980/genui/model"
)

var tickerPattern = regexp.MustCompile(`\b[A-Z]{1,5}\b`)

// Mock returns a factory for an offline analyst model. When tools are offered
// and no tool result is present yet, it requests the first tool with the
// ticker found in the latest user message; otherwise it writes a short
// markdown report over the latest tool result.
func Mock() Factory {
	return func(modelName string) (model.Model, error) {
		if modelName == "" {
			modelName = "mock-analyst"
		}
		return model.NewMockModel(modelName, "mock", respondAsAnalyst), nil
	}
}

func respondAsAnalyst(req model.Request) (core.Message, error) {
	result, hasResult := latestToolResult(req.Messages)

	if len(req.Tools) > 0 && !hasResult {
		args, err := json.Marshal(map[string]string{"stock_name": tickerFrom(req.Messages)})
		if err != nil {
			return core.Message{}, err
		}
		return core.Message{Role: core.RoleAssistant, Parts: []core.Part{
			core.FunctionCallPart{FunctionCall: core.FunctionCall{
				ID:        "call_" + core.NewID(),
				Name:      req.Tools[0].Function.Name,
				Arguments: string(args),
			}},
		}}, nil
	}

	if !hasResult {
		return core.NewTextMessage(core.RoleAssistant, "Which stock ticker should I analyze?"), nil
	}

	return core.NewTextMessage(core.RoleAssistant, summarize(result)), nil
}

func latestToolResult(msgs []core.Message) (core.FunctionResponse, bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if rs := msgs[i].FunctionResponses(); len(rs) > 0 {
			return rs[len(rs)-1], true
		}
	}
	return core.FunctionResponse{}, false
}

func tickerFrom(msgs []core.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role != core.RoleUser {
			continue
		}
		if m := tickerPattern.FindString(msgs[i].Text()); m != "" {
			return m
		}
	}
	return "AAPL"
}

type candle struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
}

func summarize(fr core.FunctionResponse) string {
	if fr.Error != "" {
		return fmt.Sprintf("The data request failed: %s", fr.Error)
	}

	raw, err := json.Marshal(fr.Response)
	if err != nil {
		return "No data available."
	}
	var series map[string][]candle
	if err := json.Unmarshal(raw, &series); err != nil || len(series) == 0 {
		return "No data available."
	}

	var b strings.Builder
	for ticker, candles := range series {
		if len(candles) == 0 {
			fmt.Fprintf(&b, "## %s\n\nNo trading days returned.\n", ticker)
			continue
		}
		first, last := candles[0], candles[len(candles)-1]
		high, low := first.High, first.Low
		for _, c := range candles {
			high = max(high, c.High)
			low = min(low, c.Low)
		}
		change := (last.Close - first.Close) / first.Close * 100
		fmt.Fprintf(&b, "## %s report\n\n", ticker)
		fmt.Fprintf(&b, "From %s to %s the close moved from %.2f to %.2f, <highlight>%+.2f%%</highlight>.\n\n", first.Date, last.Date, first.Close, last.Close, change)
		fmt.Fprintf(&b, "The range was %.2f to %.2f.\n\n", low, high)
		fmt.Fprintf(&b, "<CandlestickChart title=%q />\n", ticker)
	}
	return b.String()
}
