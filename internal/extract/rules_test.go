package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCascadeFirstMatchWins(t *testing.T) {
	text := "Fecha: 2024-03-01 y tambien 2022-12-31"

	v, conf, ok := dateRules.apply(text)
	require.True(t, ok)
	assert.Equal(t, "2024-03-01", v)
	assert.InDelta(t, 0.90, conf, 1e-6)
}

func TestDateCascadeTiers(t *testing.T) {
	tests := []struct {
		text     string
		want     string
		wantConf float32
	}{
		{"Fecha: 2024-03-01", "2024-03-01", 0.90},
		{"emitido 2024/03/01", "2024/03/01", 0.85},
		{"emitido 1/3/24", "1/3/24", 0.60},
		{"Fecha: 12/03/2024", "12/03/2024", 0.60}, // labeled tier is ISO-only
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			v, conf, ok := dateRules.apply(tt.text)
			require.True(t, ok)
			assert.Equal(t, tt.want, v)
			assert.InDelta(t, tt.wantConf, conf, 1e-6)
		})
	}
}

func TestCascadeNoMatch(t *testing.T) {
	_, conf, ok := plateRules.apply("sin datos utiles")
	assert.False(t, ok)
	assert.Zero(t, conf)
}

func TestCascadeContinuesPastRejectedPick(t *testing.T) {
	// Tier 2 matches "Vale:" but the token is pure punctuation; tier 3
	// then matches "No." with a usable token.
	v, conf, ok := voucherRules.apply("Vale: ---- No. 4471")
	require.True(t, ok)
	assert.Equal(t, "4471", v)
	assert.InDelta(t, 0.85, conf, 1e-6)
}
