package lexicon

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"milo-interpreter/internal/models"
)

func TestCorrectAsset(t *testing.T) {
	tests := []struct {
		token    string
		expected models.Asset
	}{
		{"sui", models.AssetSUI},
		{"Usdc", models.AssetUSDC},
		{"SUI.", models.AssetSUI},
		{"su", models.AssetSUI},
		{"suii", models.AssetSUI},
		{"suh", models.AssetSUI},
		{"sweet", models.AssetSUI},
		{"usd", models.AssetUSDC},
		{"usd coin", models.AssetUSDC},
		{"You Ess Dee See", models.AssetUSDC},
		{"usd-t", models.AssetUSDT},
		{"tether", models.AssetUSDT},
		{"cetos", models.AssetCETUS},
		{"wef", models.AssetWETH},
		{"wet", models.AssetWETH},
		{"usdcc", models.AssetUSDC},
		{"cetis", models.AssetCETUS},
		{"wethh", models.AssetWETH},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, ok := CorrectAsset(tt.token)
			assert.True(t, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestCorrectAsset_Rejects(t *testing.T) {
	for _, token := range []string{
		"banana",
		"rubbish",
		"BTC",
		"eth",
		"sol",
		"doge",
		"usde",
		"apt",
		"xy",
		"",
		"usdx", // equally close to USDC and USDT
	} {
		t.Run(token, func(t *testing.T) {
			_, ok := CorrectAsset(token)
			assert.False(t, ok)
		})
	}
}

func TestAnnotateAssets(t *testing.T) {
	tests := []struct {
		name      string
		utterance string
		expected  []Correction
	}{
		{
			name:      "contextual alias after amount",
			utterance: "send 5 sweet to Bob",
			expected:  []Correction{{From: "sweet", To: models.AssetSUI}},
		},
		{
			name:      "contextual alias elsewhere",
			utterance: "that's sweet, send 5 SUI",
			expected:  nil,
		},
		{
			name:      "fuzzy after amount",
			utterance: "send 10 usdcc to alice",
			expected:  []Correction{{From: "usdcc", To: models.AssetUSDC}},
		},
		{
			name:      "phrase alias",
			utterance: "swap 2 you ess dee see for su",
			expected:  []Correction{{From: "you ess dee see", To: models.AssetUSDC}},
		},
		{
			name:      "plain alias anywhere",
			utterance: "transfer tether to bob",
			expected:  []Correction{{From: "tether", To: models.AssetUSDT}},
		},
		{
			name:      "made up token",
			utterance: "send 5 banana to bob",
			expected:  nil,
		},
		{
			name:      "unsupported ticker",
			utterance: "send 3 eth to bob",
			expected:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, AnnotateAssets(tt.utterance))
		})
	}
}

func TestNormalize(t *testing.T) {
	n := Normalize("Mo fe ranse ise su si John")
	assert.Equal(t, "Mo fe ranse 5 su si John", n.Text)
	assert.Equal(t, []Correction{{From: "su", To: models.AssetSUI}}, n.Corrections)
	assert.Equal(t, Yoruba, n.Language)
}
