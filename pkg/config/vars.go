package config

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadVars reads a YAML mapping of template variables.
func LoadVars(path string) (map[string]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	vars := map[string]any{}
	if err := yaml.NewDecoder(f).Decode(&vars); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding vars file %s: %w", path, err)
	}
	return vars, nil
}

// ParseSet parses a KEY=VALUE assignment. VALUE is read as a YAML scalar
// or flow collection, so "n=3" yields an int and "tags=[a, b]" a list.
func ParseSet(kv string) (string, any, error) {
	key, raw, ok := strings.Cut(kv, "=")
	if !ok || key == "" {
		return "", nil, fmt.Errorf("invalid assignment %q: want KEY=VALUE", kv)
	}
	var val any
	if err := yaml.Unmarshal([]byte(raw), &val); err != nil {
		return "", nil, fmt.Errorf("parsing value of %s: %w", key, err)
	}
	return key, val, nil
}

// MergeVars returns a new map holding every layer, later layers winning.
func MergeVars(layers ...map[string]any) map[string]any {
	out := map[string]any{}
	for _, l := range layers {
		maps.Copy(out, l)
	}
	return out
}
