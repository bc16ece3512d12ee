package resolver

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// LoadOverrides reads a YAML file of extra name→slug overrides:
//
//	"acme holdings": acme
//	"wayne enterprises": wayne-enterprises-gotham
//
// Keys are matched case-insensitively against input names.
func LoadOverrides(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "resolver: read overrides %s", path)
	}

	overrides := make(map[string]string)
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, eris.Wrapf(err, "resolver: parse overrides %s", path)
	}
	return overrides, nil
}
