package seed

import (
	_ "embed"
	"fmt"

	"chatapp/internal/validation"

	"gopkg.in/yaml.v3"
)

//go:embed presets.yml
var presetsYAML []byte

// Preset describes the shape of a seeded dataset.
type Preset struct {
	Name                  string  `yaml:"name" validate:"required"`
	Description           string  `yaml:"description"`
	Users                 int     `yaml:"users" validate:"min=2"`
	FriendsPerUser        int     `yaml:"friends_per_user" validate:"min=0"`
	PendingRequests       int     `yaml:"pending_requests" validate:"min=0"`
	Groups                int     `yaml:"groups" validate:"min=0"`
	MembersPerGroup       int     `yaml:"members_per_group" validate:"min=1"`
	PrivateRatio          float64 `yaml:"private_ratio" validate:"min=0,max=1"`
	MessagesPerFriendship int     `yaml:"messages_per_friendship" validate:"min=0"`
	MessagesPerGroup      int     `yaml:"messages_per_group" validate:"min=0"`
}

type presetFile struct {
	Presets []Preset `yaml:"presets"`
}

// ParsePresets decodes and validates a presets document.
func ParsePresets(data []byte) ([]Preset, error) {
	var file presetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse presets: %w", err)
	}

	seen := make(map[string]bool, len(file.Presets))
	for _, p := range file.Presets {
		if err := validation.Struct(p); err != nil {
			return nil, fmt.Errorf("preset %q: %w", p.Name, err)
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("duplicate preset %q", p.Name)
		}
		seen[p.Name] = true
	}
	return file.Presets, nil
}

// Presets returns the built-in presets.
func Presets() ([]Preset, error) {
	return ParsePresets(presetsYAML)
}

// FindPreset returns the built-in preset called name.
func FindPreset(name string) (Preset, error) {
	presets, err := Presets()
	if err != nil {
		return Preset{}, err
	}
	for _, p := range presets {
		if p.Name == name {
			return p, nil
		}
	}
	return Preset{}, fmt.Errorf("unknown preset %q", name)
}
