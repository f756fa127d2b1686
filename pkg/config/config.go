// Package config decodes the pipeline config document: the YAML file
// naming each tool, its module type, its upstream dependencies, and its
// declared final outputs, plus the environment-sourced provider defaults.
package config

import (
	"fmt"
	"os"

	"github.com/cloudconductor/orchestrator/pkg/types"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ToolSpec is one entry under the document's top-level "tools" map. Params
// is decoded as opaque free-form YAML and handed to the module constructor
// untouched, per spec.md's treatment of module-specific configuration as
// outside the core's concern.
type ToolSpec struct {
	Module      string         `yaml:"module" validate:"required"`
	InputFrom   []string       `yaml:"input_from" validate:"required,min=1"`
	FinalOutput []string       `yaml:"final_output"`
	Params      map[string]any `yaml:"params"`
}

// Document is the decoded pipeline config: one ToolSpec per tool_id, plus
// the names of tools and resources the run environment makes available
// (used by the requirements validation pass).
type Document struct {
	Tools     map[string]ToolSpec `yaml:"tools" validate:"required,min=1,dive"`
	Resources []string            `yaml:"resources"`
	Catalog   []string            `yaml:"tool_catalog"`
}

var validate = validator.New()

// Load reads and decodes the config document at path, validating every
// ToolSpec's required fields.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w: %w", path, types.ErrConfigInvalid, err)
	}
	return Decode(data)
}

// Decode parses and validates a config document from raw YAML bytes. Every
// returned error wraps types.ErrConfigInvalid, so callers can distinguish a
// malformed document from a ValidationError (types.ErrValidationFailed) raised
// later by a well-formed document's graph.
func Decode(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("config: parse: %w: %w", types.ErrConfigInvalid, err)
	}

	if len(doc.Tools) == 0 {
		return nil, fmt.Errorf("config: document declares no tools: %w", types.ErrConfigInvalid)
	}

	for toolID, spec := range doc.Tools {
		if err := validate.Struct(spec); err != nil {
			return nil, fmt.Errorf("config: tool %q: %w: %w", toolID, types.ErrConfigInvalid, err)
		}
	}

	return &doc, nil
}
