package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Profile is the operator's master profile used for matching and answers.
type Profile struct {
	Name     string   `yaml:"name,omitempty"`
	Email    string   `yaml:"email,omitempty"`
	Phone    string   `yaml:"phone,omitempty"`
	Location string   `yaml:"location,omitempty"`
	RoleType string   `yaml:"role_type,omitempty"`
	Skills   []string `yaml:"skills"`

	// SkillsByCategory is the richer layout some profiles use; Flatten
	// folds it into the flat list.
	SkillsByCategory map[string][]string `yaml:"skills_by_category,omitempty"`
}

// LoadProfile reads the operator profile YAML.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile file %s: %w", path, err)
	}

	var profile Profile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile YAML: %w", err)
	}

	return &profile, nil
}

// AllSkills returns the flat skill list plus every categorized skill,
// deduplicated, preserving declaration order.
func (p *Profile) AllSkills() []string {
	skills := append([]string(nil), p.Skills...)
	for _, category := range sortedKeys(p.SkillsByCategory) {
		skills = append(skills, p.SkillsByCategory[category]...)
	}
	return appendUnique(nil, skills)
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
