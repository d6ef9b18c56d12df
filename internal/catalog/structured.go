package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"enigma/internal/enigma"
)

// Format is a description encoding.
type Format string

const (
	FormatClassic Format = "conf"
	FormatYAML    Format = "yaml"
	FormatTOML    Format = "toml"
	FormatJSON    Format = "json"
)

// ParseFormat converts a format name. "yml" and "text" are accepted as
// aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "conf", "classic", "text":
		return FormatClassic, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown description format %q", s)
	}
}

const schemaURL = "machine.schema.json"

//go:embed schema/machine.schema.json
var schemaJSON []byte

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	return compiler.Compile(schemaURL)
})

// decodeStructured normalizes YAML and TOML to JSON so one schema and one
// decoder serve every format.
func decodeStructured(data []byte, format Format) (*Description, error) {
	var doc any
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: parse yaml: %v", enigma.ErrConfig, err)
		}
	case FormatTOML:
		var m map[string]any
		if err := toml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("%w: parse toml: %v", enigma.ErrConfig, err)
		}
		doc = m
	case FormatJSON:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: parse json: %v", enigma.ErrConfig, err)
		}
	default:
		return nil, fmt.Errorf("unsupported structured format %q", format)
	}

	normalized, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s document: %v", enigma.ErrConfig, format, err)
	}
	var instance any
	if err := json.Unmarshal(normalized, &instance); err != nil {
		return nil, fmt.Errorf("%w: %s document: %v", enigma.ErrConfig, format, err)
	}

	schema, err := compileSchema()
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	if err := schema.Validate(instance); err != nil {
		return nil, fmt.Errorf("%w: %s", enigma.ErrConfig, schemaMessage(err))
	}

	d := &Description{}
	if err := json.Unmarshal(normalized, d); err != nil {
		return nil, fmt.Errorf("%w: %s document: %v", enigma.ErrConfig, format, err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// schemaMessage flattens a schema failure to its deepest cause, which is
// the one that names the offending field.
func schemaMessage(err error) string {
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return err.Error()
	}
	for len(verr.Causes) > 0 {
		verr = verr.Causes[0]
	}
	loc := verr.InstanceLocation
	if loc == "" {
		loc = "/"
	}
	return fmt.Sprintf("description %s: %s", loc, verr.Message)
}

// Encode writes d to w in format.
func (d *Description) Encode(w io.Writer, format Format) error {
	switch format {
	case FormatClassic:
		return writeClassic(w, d)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(d); err != nil {
			return err
		}
		return enc.Close()
	case FormatTOML:
		return toml.NewEncoder(w).Encode(d)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	default:
		return fmt.Errorf("unsupported description format %q", format)
	}
}
