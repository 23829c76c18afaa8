package config

import (
	"fmt"
	"strings"
)

// Kind identifies a credential family. Each kind maps to a fixed pair of
// environment variable names and its own profile document on disk.
type Kind string

const (
	KindClaude Kind = "claude"
	KindCodex  Kind = "codex"
)

// kindSpec describes the fixed per-kind wiring: which environment variables a
// profile's secret/endpoint are written into, which JSON keys the profile
// document uses for them, and the document file name.
type kindSpec struct {
	EnvSecret   string
	EnvEndpoint string
	JSONSecret  string
	JSONBase    string
	File        string
}

var kindSpecs = map[Kind]kindSpec{
	KindClaude: {
		EnvSecret:   "ANTHROPIC_AUTH_TOKEN",
		EnvEndpoint: "ANTHROPIC_BASE_URL",
		JSONSecret:  "token",
		JSONBase:    "url",
		File:        "claude_configs.json",
	},
	KindCodex: {
		EnvSecret:   "OPENAI_API_KEY",
		EnvEndpoint: "OPENAI_BASE_URL",
		JSONSecret:  "api_key",
		JSONBase:    "base_url",
		File:        "codex_configs.json",
	},
}

// ParseKind converts a string to a Kind, case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "claude":
		return KindClaude, nil
	case "codex":
		return KindCodex, nil
	default:
		return "", fmt.Errorf("unknown kind %q (want claude or codex)", s)
	}
}

// Valid reports whether the kind is one of the supported families.
func (k Kind) Valid() bool {
	_, ok := kindSpecs[k]
	return ok
}

// Toggle returns the other kind.
func (k Kind) Toggle() Kind {
	if k == KindClaude {
		return KindCodex
	}
	return KindClaude
}

// EnvVars returns the environment variable names a profile of this kind is
// applied to: the secret variable and the endpoint variable.
func (k Kind) EnvVars() (secret, endpoint string) {
	spec := kindSpecs[k]
	return spec.EnvSecret, spec.EnvEndpoint
}

// FileName returns the profile document file name for this kind.
func (k Kind) FileName() string {
	return kindSpecs[k].File
}

// Profile is a named credential+endpoint pair for one kind of client.
// Profiles are immutable value objects: edits replace, never mutate in place.
type Profile struct {
	Name     string `mapstructure:"name" yaml:"name"`
	Kind     Kind   `mapstructure:"-" yaml:"-"`
	Secret   string `mapstructure:"secret" yaml:"secret"`
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
	Group    string `mapstructure:"group" yaml:"group,omitempty"`
	IsCustom bool   `mapstructure:"-" yaml:"-"`
}

// EnvVars returns the environment variable map that applying this profile
// produces.
func (p Profile) EnvVars() map[string]string {
	secret, endpoint := p.Kind.EnvVars()
	return map[string]string{
		secret:   p.Secret,
		endpoint: p.Endpoint,
	}
}

// Settings is the process-wide settings document. It is loaded once at
// startup and persisted immediately after each mutation.
type Settings struct {
	HealthURL      string             `mapstructure:"health_url" yaml:"health_url"`
	CustomProfiles map[Kind][]Profile `mapstructure:"custom_profiles" yaml:"custom_profiles,omitempty"`
}

// DefaultHealthURL is the monitoring endpoint polled when settings carry no
// override. HEALTH_STATUS_URL in the environment takes precedence at load.
const DefaultHealthURL = "https://check.linux.do/api/v1/status"

// AddCustomProfile returns a copy of the settings with the profile appended
// to the custom list for its kind.
func (s *Settings) AddCustomProfile(p Profile) {
	p.IsCustom = true
	if s.CustomProfiles == nil {
		s.CustomProfiles = make(map[Kind][]Profile)
	}
	s.CustomProfiles[p.Kind] = append(s.CustomProfiles[p.Kind], p)
}

// MergeProfiles appends the custom profiles for the kind to the stored list,
// flagging them as custom. Stored profiles keep their original order.
func MergeProfiles(kind Kind, stored []Profile, settings *Settings) []Profile {
	merged := make([]Profile, 0, len(stored))
	merged = append(merged, stored...)
	if settings == nil {
		return merged
	}
	for _, p := range settings.CustomProfiles[kind] {
		p.Kind = kind
		p.IsCustom = true
		merged = append(merged, p)
	}
	return merged
}
