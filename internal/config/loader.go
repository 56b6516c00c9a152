package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON string

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = jsonschema.CompileString("torchserved.schema.json", schemaJSON)
	})
	return schema, schemaErr
}

type decodeFunc func([]byte, any) error

func decoderFor(path string) (decodeFunc, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return yaml.Unmarshal, nil
	case ".json":
		return json.Unmarshal, nil
	case ".toml":
		return toml.Unmarshal, nil
	default:
		return nil, fmt.Errorf("unsupported config extension: %s", ext)
	}
}

// Load reads a configuration file based on its extension and validates it
// against the embedded schema. Supports: .yaml/.yml, .json, .toml
// Defaults and environment overrides are not applied.
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	decode, err := decoderFor(path)
	if err != nil {
		return cfg, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	var raw any
	if err := decode(b, &raw); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := validateRaw(raw); err != nil {
		return cfg, fmt.Errorf("validate %s: %w", path, err)
	}
	if err := decode(b, &cfg); err != nil {
		return cfg, fmt.Errorf("decode %s: %w", path, err)
	}
	return cfg, nil
}

// validateRaw normalizes a decoded document to JSON values before
// validation, since yaml and toml produce their own scalar types.
func validateRaw(raw any) error {
	if raw == nil {
		return nil
	}
	s, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return err
	}
	return s.Validate(doc)
}
