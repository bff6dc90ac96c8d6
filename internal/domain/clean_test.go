package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanSalary(t *testing.T) {
	tests := []struct {
		name     string
		in       Value
		expected Value
	}{
		{"thousands shorthand", String("80"), Float(80000)},
		{"comma separated", String("95,000"), Float(95000)},
		{"dollar and comma", String("$1,200"), Float(1200)},
		{"exactly threshold", String("1000"), Float(1000)},
		{"just under threshold", String("999.5"), Float(999500)},
		{"decimal thousands", String("62.5"), Float(62500)},
		{"surrounding spaces", String("  120000 "), Float(120000)},
		{"dollar then space", String("$ 75"), Float(75000)},
		{"numeric input", Float(45), Float(45000)},
		{"numeric above threshold", Float(52000), Float(52000)},
		{"not a number", String("lots"), Null()},
		{"range", String("50-60k"), Null()},
		{"null", Null(), Null()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanSalary(tt.in))
		})
	}
}

func TestCleanSalary_NullTokens(t *testing.T) {
	for _, in := range []string{"", "na", "n/a", "none", "NA", " N/A ", "None"} {
		t.Run(in, func(t *testing.T) {
			assert.True(t, CleanSalary(String(in)).IsNull())
		})
	}
}

func TestCleanSalary_RescaleProperty(t *testing.T) {
	for _, x := range []float64{0, 1, 12.5, 80, 999, 1000, 1000.5, 45000, 250000} {
		got, ok := CleanSalary(Float(x)).Num()
		require.True(t, ok)
		if x < SalaryRescaleThreshold {
			assert.Equal(t, 1000*x, got)
		} else {
			assert.Equal(t, x, got)
		}
	}
}

func TestCleanBonus(t *testing.T) {
	assert.Equal(t, String("0"), CleanBonus(Null()))
	assert.Equal(t, String("0"), CleanBonus(String("")))
	assert.Equal(t, String("5000"), CleanBonus(String("5000")))
	assert.Equal(t, String("5,000"), CleanBonus(String("5,000")), "bonus is not parsed")
	assert.Equal(t, String("10"), CleanBonus(String("10")), "bonus is not rescaled")
}

func TestBonusAmount(t *testing.T) {
	v, ok := BonusAmount(String("2500"))
	require.True(t, ok)
	assert.Equal(t, 2500.0, v)

	v, ok = BonusAmount(Float(0))
	require.True(t, ok)
	assert.Equal(t, 0.0, v)

	_, ok = BonusAmount(String("5,000"))
	assert.False(t, ok)

	_, ok = BonusAmount(Null())
	assert.False(t, ok)
}

func TestNormalizeCurrency(t *testing.T) {
	assert.Equal(t, String("USD"), NormalizeCurrency(String(" usd ")))
	assert.Equal(t, String("AUD/NZD"), NormalizeCurrency(String("aud/nzd")))
	assert.Equal(t, String("OTHER"), NormalizeCurrency(String("Other")))
	assert.Equal(t, String("NAN"), NormalizeCurrency(Null()))
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name     string
		in       Value
		expected Value
	}{
		{"sheets export", String("4/27/2021 11:02:10"), Time(time.Date(2021, 4, 27, 11, 2, 10, 0, time.UTC))},
		{"no seconds", String("4/27/2021 11:02"), Time(time.Date(2021, 4, 27, 11, 2, 0, 0, time.UTC))},
		{"date only", String("4/27/2021"), Time(time.Date(2021, 4, 27, 0, 0, 0, 0, time.UTC))},
		{"iso", String("2021-04-27 11:02:10"), Time(time.Date(2021, 4, 27, 11, 2, 10, 0, time.UTC))},
		{"garbage", String("yesterday"), Null()},
		{"null", Null(), Null()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseTimestamp(tt.in))
		})
	}
}

func TestTitleCase(t *testing.T) {
	tests := map[string]string{
		"san francisco":  "San Francisco",
		"st. louis":      "St. Louis",
		"washington, dc": "Washington, Dc",
		"o'fallon":       "O'Fallon",
		"NEW YORK":       "New York",
		"winston-salem":  "Winston-Salem",
		"":               "",
	}
	for in, expected := range tests {
		assert.Equal(t, expected, titleCase(in), in)
	}
}

func TestIsAllUpper(t *testing.T) {
	assert.True(t, isAllUpper("ATL"))
	assert.True(t, isAllUpper("D.C."))
	assert.False(t, isAllUpper("Atl"))
	assert.False(t, isAllUpper("123"))
	assert.False(t, isAllUpper(""))
}
