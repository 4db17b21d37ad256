package report

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Constants maps report name -> metric -> efficiency constant (for example
// experience per efficient hour). The published formulas never embed these
// values; they are only used for local previews and for seeding the
// Efficiency sheet.
type Constants map[string]map[string]float64

func LoadConstants(path string) (Constants, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read efficiency constants: %w", err)
	}
	return ParseConstants(data)
}

func ParseConstants(data []byte) (Constants, error) {
	var c Constants
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse efficiency constants: %w", err)
	}
	for report, metrics := range c {
		for metric, v := range metrics {
			if v <= 0 {
				return nil, fmt.Errorf("efficiency constant %s/%s must be positive, got %v", report, metric, v)
			}
		}
	}
	return c, nil
}

func (c Constants) For(report string) map[string]float64 {
	if c == nil {
		return nil
	}
	return c[report]
}
