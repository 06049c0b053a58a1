package workflow

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/garyjia/calaim-taskhub/pkg/utils"
)

// definitionsFile is the on-disk layout of a workflow definitions file
type definitionsFile struct {
	Workflows []Definition `yaml:"workflows"`
}

// rulesFile is the on-disk layout of an automation rules file
type rulesFile struct {
	Rules []AutomationRule `yaml:"rules"`
}

// LoadDefinitions reads workflow definitions from a YAML file.
// An empty path returns the built-in definitions.
func LoadDefinitions(path string) ([]Definition, error) {
	if path == "" {
		return DefaultDefinitions(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow definitions: %w", err)
	}
	return ParseDefinitions(data)
}

// ParseDefinitions decodes and validates workflow definitions
func ParseDefinitions(data []byte) ([]Definition, error) {
	var file definitionsFile
	if err := decodeStrict(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}
	if len(file.Workflows) == 0 {
		return nil, fmt.Errorf("%w: no workflows defined", ErrInvalidDefinition)
	}

	plans := make(map[string]bool, len(file.Workflows))
	for i := range file.Workflows {
		def := &file.Workflows[i]
		if err := utils.ValidateStruct(def); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
		}
		if err := def.Validate(); err != nil {
			return nil, err
		}
		if plans[string(def.HealthPlan)] {
			return nil, fmt.Errorf("%w: duplicate workflow for %s", ErrInvalidDefinition, def.HealthPlan)
		}
		plans[string(def.HealthPlan)] = true
	}
	return file.Workflows, nil
}

// LoadRules reads automation rules from a YAML file.
// An empty path returns the built-in rules.
func LoadRules(path string) ([]AutomationRule, error) {
	if path == "" {
		return DefaultRules(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read automation rules: %w", err)
	}
	return ParseRules(data)
}

// ParseRules decodes and validates automation rules
func ParseRules(data []byte) ([]AutomationRule, error) {
	var file rulesFile
	if err := decodeStrict(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}

	ids := make(map[string]bool, len(file.Rules))
	for i := range file.Rules {
		rule := &file.Rules[i]
		if err := utils.ValidateStruct(rule); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRule, err)
		}
		if rule.Actions.IsEmpty() {
			return nil, fmt.Errorf("%w: rule %s has no actions", ErrInvalidRule, rule.ID)
		}
		if ids[rule.ID] {
			return nil, fmt.Errorf("%w: duplicate rule id %s", ErrInvalidRule, rule.ID)
		}
		ids[rule.ID] = true
	}
	return file.Rules, nil
}

func decodeStrict(data []byte, out interface{}) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
