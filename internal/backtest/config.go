// Package backtest replays strategy signals against historical bars,
// producing realized trades, an equity curve and performance metrics.
package backtest

import (
	"os"

	yaml "gopkg.in/yaml.v2"

	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
)

// ParseConfig decodes a YAML run configuration. Absent keys keep the
// conventional defaults; the merged configuration is validated before it
// is returned.
func ParseConfig(data []byte) (types.BacktestConfig, error) {
	config := types.DefaultBacktestConfig()

	if err := yaml.Unmarshal(data, &config); err != nil {
		return types.BacktestConfig{}, errors.Wrap(errors.ErrCodeBacktestConfigError,
			"failed to parse backtest config", err)
	}

	if err := config.Validate(); err != nil {
		return types.BacktestConfig{}, errors.Wrap(errors.ErrCodeBacktestConfigError,
			"invalid backtest config", err)
	}

	return config, nil
}

// LoadConfig reads and parses a YAML run configuration file.
func LoadConfig(path string) (types.BacktestConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.BacktestConfig{}, errors.Wrapf(errors.ErrCodeBacktestConfigError, err,
			"failed to read backtest config %s", path)
	}

	return ParseConfig(data)
}
