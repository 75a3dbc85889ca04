package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeAnswerGrowsMonotonically(t *testing.T) {
	title := "Apple vs Microsoft"
	deltas := []FinalAnswer{
		{Answer: "Apple"},
		{Answer: "Apple is trading", ResponseShape: ResponseShapeText},
		{Answer: "Apple is trading higher today.", TickersToDisplay: []string{"AAPL"}},
		{Answer: "Apple is trading higher today.", TickersToDisplay: []string{"AAPL", "MSFT"}, Title: &title},
	}

	var acc FinalAnswer
	for _, d := range deltas {
		next := MergeAnswer(acc, d)
		// Monotonicity: nothing shrinks across a merge step.
		assert.GreaterOrEqual(t, len(next.Answer), len(acc.Answer))
		assert.GreaterOrEqual(t, len(next.TickersToDisplay), len(acc.TickersToDisplay))
		acc = next
	}

	assert.Equal(t, "Apple is trading higher today.", acc.Answer)
	assert.Equal(t, ResponseShapeText, acc.ResponseShape)
	assert.Equal(t, []string{"AAPL", "MSFT"}, acc.TickersToDisplay)
	assert.Equal(t, &title, acc.Title)
}

func TestMergeAnswerIgnoresStaleDelta(t *testing.T) {
	prev := FinalAnswer{
		Answer:           "complete answer text",
		ResponseShape:    ResponseShapeChart,
		ChartPoints:      []ChartPoint{{Label: "AAPL", Value: 1}, {Label: "MSFT", Value: 2}},
		TickersToDisplay: []string{"AAPL", "MSFT"},
	}
	stale := FinalAnswer{Answer: "complete", ChartPoints: []ChartPoint{{Label: "AAPL", Value: 1}}}

	out := MergeAnswer(prev, stale)
	assert.Equal(t, prev, out)
}

func TestMergeAnswerEqualsFinalObject(t *testing.T) {
	final := FinalAnswer{
		Answer:            "Both megacaps rallied.",
		ResponseShape:     ResponseShapeList,
		FollowUpQuestions: []string{"What drove the rally?"},
		TickersToDisplay:  []string{"AAPL", "MSFT"},
	}

	// Applying the partials of a stream in order must reconstruct the final
	// object exactly.
	partials := []FinalAnswer{
		{Answer: "Both"},
		{Answer: "Both megacaps", ResponseShape: ResponseShapeList},
		{Answer: "Both megacaps rallied.", TickersToDisplay: []string{"AAPL"}},
		final,
	}
	var acc FinalAnswer
	for _, p := range partials {
		acc = MergeAnswer(acc, p)
	}
	assert.Equal(t, final, acc)
}

func TestResponseShapeIsValid(t *testing.T) {
	assert.True(t, ResponseShapeText.IsValid())
	assert.True(t, ResponseShapeChart.IsValid())
	assert.False(t, ResponseShape("table").IsValid())
}

func TestAssetTypeFromCode(t *testing.T) {
	tests := []struct {
		code int
		want AssetType
	}{
		{AssetCodeCurrency, AssetTypeCurrency},
		{AssetCodeCommodity, AssetTypeCommodity},
		{AssetCodeIndex, AssetTypeIndex},
		{AssetCodeStock, AssetTypeStock},
		{AssetCodeEtf, AssetTypeEtf},
		{AssetCodeCrypto, AssetTypeCrypto},
		{99, AssetType("")},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AssetTypeFromCode(tt.code))
	}
}

func TestClassificationGates(t *testing.T) {
	t.Run("empty classification resolves nothing", func(t *testing.T) {
		var c Classification
		assert.False(t, c.HasResolvableCandidates())
		assert.False(t, c.WantsWebSearch())
		assert.False(t, c.WantsMarketDataTools())
	})

	t.Run("trade intent alone is resolvable", func(t *testing.T) {
		c := Classification{HasTradeIntent: true}
		assert.True(t, c.HasResolvableCandidates())
	})

	t.Run("news triggers web search", func(t *testing.T) {
		c := Classification{IsAboutNews: true}
		assert.True(t, c.WantsWebSearch())
	})

	t.Run("crypto suppressed by portfolio focus", func(t *testing.T) {
		c := Classification{IsAboutCrypto: true, IsAboutUserPortfolio: true}
		assert.False(t, c.WantsWebSearch())
	})

	t.Run("macro alone triggers web search", func(t *testing.T) {
		c := Classification{IsAboutMacroEconomy: true}
		assert.True(t, c.WantsWebSearch())
	})
}

func TestClassificationJSONContract(t *testing.T) {
	raw := `{
		"reasoning": "user asks which semiconductor companies pay dividends",
		"userFacingReasoning": "Looking up dividend-paying semiconductor companies",
		"isAboutIndustryRelevance": true,
		"isAboutDividendDates": true,
		"isAboutSmartPortfolios": true,
		"candidateNames": ["NVDA"],
		"priorTurnTickers": []
	}`

	var c Classification
	require.NoError(t, json.Unmarshal([]byte(raw), &c))

	assert.Equal(t, "Looking up dividend-paying semiconductor companies", c.UserFacingReasoning)
	assert.True(t, c.IsAboutIndustryRelevance)
	assert.True(t, c.IsAboutSmartPortfolios)
	assert.True(t, c.IsAboutDividendDates)
	assert.False(t, c.IsAboutStockFundamentals)
	assert.Equal(t, []string{"NVDA"}, c.CandidateNames)
}
