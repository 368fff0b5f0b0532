package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Load reads the YAML file at path (skipped when path is empty), applies SHELLBRIDGE_*
// environment overrides on top and decodes the result over Default().
// ${VAR} references inside the file are expanded from the environment.
func Load(path string) (Config, error) {
	raw := map[string]any{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &raw); err != nil {
			return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if raw == nil {
			raw = map[string]any{}
		}
	}

	applyEnv(raw, os.LookupEnv)

	cfg := Default()
	if err := decode(raw, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(raw map[string]any, cfg *Config) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return fmt.Errorf("failed to build config decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// applyEnv sets raw[section][key] from SHELLBRIDGE_SECTION_KEY for every leaf of Config.
func applyEnv(raw map[string]any, lookup func(string) (string, bool)) {
	for _, path := range leafPaths(reflect.TypeOf(Config{}), nil) {
		name := EnvPrefix + "_" + strings.ToUpper(strings.Join(path, "_"))
		if value, ok := lookup(name); ok {
			setPath(raw, path, value)
		}
	}
}

// EnvNames lists every supported environment variable.
func EnvNames() []string {
	var names []string
	for _, path := range leafPaths(reflect.TypeOf(Config{}), nil) {
		names = append(names, EnvPrefix+"_"+strings.ToUpper(strings.Join(path, "_")))
	}
	return names
}

func leafPaths(t reflect.Type, prefix []string) [][]string {
	var paths [][]string
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" || tag == "-" {
			continue
		}
		path := append(append([]string(nil), prefix...), tag)
		if field.Type.Kind() == reflect.Struct {
			paths = append(paths, leafPaths(field.Type, path)...)
			continue
		}
		paths = append(paths, path)
	}
	return paths
}

func setPath(m map[string]any, path []string, value string) {
	for _, key := range path[:len(path)-1] {
		next, ok := m[key].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[key] = next
		}
		m = next
	}
	m[path[len(path)-1]] = value
}
