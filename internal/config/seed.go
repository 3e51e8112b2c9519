package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/derivable/internal/errors"
)

// Seed maps atom names to their initial values.
type Seed map[string]any

// LoadSeed reads a seed file. YAML is a superset of JSON, so both formats
// are accepted.
//
//	price: 12.5
//	qty: 3
//	tags: [fresh, local]
func LoadSeed(path string) (Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("R104").Wrap(err)
	}
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, errors.New("R104").Wrap(err)
	}
	if seed == nil {
		seed = Seed{}
	}
	return seed, nil
}
