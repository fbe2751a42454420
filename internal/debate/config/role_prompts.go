// Package config holds the Debate Orchestrator's ROLE_PROMPTS table, a
// go:embed'd YAML document following
// haowjy-meridian/internal/capabilities/registry.go's
// go:embed config/*.yaml + yaml.Unmarshal pattern (reused here for role
// system prompts instead of capability descriptors).
package config

import (
	"embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed data/role_prompts.yaml
var rolePromptsFile embed.FS

type rolePromptsDocument struct {
	Roles map[string]struct {
		SystemPrompt string `yaml:"system_prompt"`
	} `yaml:"roles"`
}

// RolePrompts maps a debate.Role's string value to its system prompt.
type RolePrompts struct {
	prompts map[string]string
}

// LoadRolePrompts reads the embedded default table.
func LoadRolePrompts() (*RolePrompts, error) {
	raw, err := rolePromptsFile.ReadFile("data/role_prompts.yaml")
	if err != nil {
		return nil, fmt.Errorf("config: read embedded role_prompts.yaml: %w", err)
	}
	return parseRolePrompts(raw)
}

// LoadRolePromptsFile reads an operator-supplied override table from
// disk (ROLE_PROMPTS_PATH), falling back to the embedded default when
// path is empty.
func LoadRolePromptsFile(path string) (*RolePrompts, error) {
	if path == "" {
		return LoadRolePrompts()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read role prompts file %q: %w", path, err)
	}
	return parseRolePrompts(raw)
}

func parseRolePrompts(raw []byte) (*RolePrompts, error) {
	var doc rolePromptsDocument
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("config: parse role_prompts.yaml: %w", err)
	}
	prompts := make(map[string]string, len(doc.Roles))
	for role, entry := range doc.Roles {
		prompts[role] = entry.SystemPrompt
	}
	return &RolePrompts{prompts: prompts}, nil
}

// SystemPrompt returns the configured system prompt for role, or "" if unset.
func (p *RolePrompts) SystemPrompt(role string) string {
	return p.prompts[role]
}
