package config

import (
	"bytes"
	"fmt"
	"io"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/conneroisu/sitemin/internal/engine"
	"github.com/conneroisu/sitemin/internal/pattern"
)

// Patterns is a list of glob patterns. In YAML it may be written as a single
// string or as a sequence of strings; an explicit null disables the category.
type Patterns []string

// UnmarshalYAML accepts a string or a sequence of strings.
func (p *Patterns) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.ShortTag() != "!!str" {
			return fmt.Errorf("line %d: pattern must be a string, got %s", value.Line, value.ShortTag())
		}
		*p = Patterns{value.Value}
	case yaml.SequenceNode:
		patterns := make(Patterns, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.ShortTag() != "!!str" {
				return fmt.Errorf("line %d: pattern must be a string", item.Line)
			}
			patterns = append(patterns, item.Value)
		}
		*p = patterns
	default:
		return fmt.Errorf("line %d: patterns must be a string or a list of strings", value.Line)
	}

	return nil
}

// Enabled reports whether the category is configured at all.
func (p Patterns) Enabled() bool {
	return p != nil
}

// MinifyOptions configures the minify plugin.
type MinifyOptions struct {
	CSS  engine.CSSOptions  `yaml:"css"`
	HTML engine.HTMLOptions `yaml:"html"`
	JS   engine.JSOptions   `yaml:"js"`

	PatternsCSS  Patterns `yaml:"patterns_css"`
	PatternsHTML Patterns `yaml:"patterns_html"`
	PatternsJS   Patterns `yaml:"patterns_js"`

	PatternOptions pattern.Options `yaml:"pattern_options"`
}

// DefaultMinifyOptions returns the options used for anything left unset.
func DefaultMinifyOptions() MinifyOptions {
	return MinifyOptions{
		HTML:         engine.DefaultHTMLOptions(),
		PatternsCSS:  Patterns{"*.css"},
		PatternsHTML: Patterns{"*.html"},
		PatternsJS:   Patterns{"*.js"},
	}
}

// ParseMinifyOptions decodes YAML over the defaults. Unknown keys and values
// of the wrong shape are rejected.
func ParseMinifyOptions(data []byte) (MinifyOptions, error) {
	options := DefaultMinifyOptions()
	if len(bytes.TrimSpace(data)) == 0 {
		return options, nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return MinifyOptions{}, err
	}
	if err := requireBoolTags(&doc, reflect.TypeOf(options)); err != nil {
		return MinifyOptions{}, err
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&options); err != nil && err != io.EOF {
		return MinifyOptions{}, err
	}

	return options, nil
}

// DecodeMinifyOptions decodes a generic configuration map, such as the one a
// plugin receives from the host, over the defaults.
func DecodeMinifyOptions(raw map[string]interface{}) (MinifyOptions, error) {
	if len(raw) == 0 {
		return DefaultMinifyOptions(), nil
	}

	data, err := yaml.Marshal(raw)
	if err != nil {
		return MinifyOptions{}, fmt.Errorf("encoding options: %w", err)
	}

	return ParseMinifyOptions(data)
}

// requireBoolTags walks doc alongside the type it will be decoded into and
// rejects any value bound for a bool field that YAML does not resolve to
// !!bool. yaml.v3 otherwise accepts strings such as "yes" or "on" there.
func requireBoolTags(node *yaml.Node, t reflect.Type) error {
	if node.Kind == yaml.DocumentNode {
		for _, child := range node.Content {
			if err := requireBoolTags(child, t); err != nil {
				return err
			}
		}
		return nil
	}

	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.Bool:
		if node.Kind != yaml.ScalarNode || node.ShortTag() != "!!bool" {
			return fmt.Errorf("line %d: expected true or false, got %q", node.Line, node.Value)
		}
	case reflect.Struct:
		// Other shape errors are left to the decoder.
		if node.Kind != yaml.MappingNode {
			return nil
		}
		for i := 0; i+1 < len(node.Content); i += 2 {
			field, ok := fieldByYAMLKey(t, node.Content[i].Value)
			if !ok {
				continue
			}
			if err := requireBoolTags(node.Content[i+1], field.Type); err != nil {
				return fmt.Errorf("%s: %w", node.Content[i].Value, err)
			}
		}
	}

	return nil
}

func fieldByYAMLKey(t reflect.Type, key string) (reflect.StructField, bool) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		name, _, _ := strings.Cut(field.Tag.Get("yaml"), ",")
		if name == "" {
			name = strings.ToLower(field.Name)
		}
		if name == key {
			return field, true
		}
	}

	return reflect.StructField{}, false
}
