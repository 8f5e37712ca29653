package backtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rxtech-lab/argo-quant/pkg/errors"
)

func TestParseConfigAppliesDefaults(t *testing.T) {
	config, err := ParseConfig([]byte(`
strategy: moving_average_crossover
symbol: BTCUSDT
`))
	require.NoError(t, err)

	assert.Equal(t, "moving_average_crossover", config.Strategy)
	assert.Equal(t, "BTCUSDT", config.Symbol)
	assert.Equal(t, 10000.0, config.InitialCapital)
	assert.Equal(t, 0.001, config.CommissionRate)
	assert.Equal(t, 0.0005, config.SlippageRate)
	assert.Equal(t, 1.0, config.MaxPositionSize)
	assert.Equal(t, 0.02, config.RiskFreeRate)
}

func TestParseConfigOverrides(t *testing.T) {
	config, err := ParseConfig([]byte(`
strategy: rsi_reversal
symbol: ETHUSDT
initial_capital: 50000
commission_rate: 0.002
max_position_size: 0.5
parameters:
  rsi_period: 7
`))
	require.NoError(t, err)

	assert.Equal(t, 50000.0, config.InitialCapital)
	assert.Equal(t, 0.002, config.CommissionRate)
	assert.Equal(t, 0.5, config.MaxPositionSize)
	assert.Equal(t, 7, config.Parameters["rsi_period"])
}

func TestParseConfigRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "missing strategy", yaml: "symbol: BTCUSDT"},
		{name: "missing symbol", yaml: "strategy: rsi_reversal"},
		{
			name: "negative capital",
			yaml: "strategy: rsi_reversal\nsymbol: BTCUSDT\ninitial_capital: -100",
		},
		{
			name: "position size above one",
			yaml: "strategy: rsi_reversal\nsymbol: BTCUSDT\nmax_position_size: 1.5",
		},
		{name: "malformed yaml", yaml: "strategy: [unclosed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.yaml))
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.ErrCodeBacktestConfigError))
		})
	}
}
