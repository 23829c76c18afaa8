package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/LynnGuo666/ai-switch-cli/internal/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// SettingsFileName is the settings document file name.
	SettingsFileName = "settings.yaml"
	// DefaultConfigDir is the default config directory under $HOME.
	DefaultConfigDir = ".config/ai-switch"
)

// Store owns the on-disk profile documents and the settings file.
// All writes are atomic (temp file + rename) so an interrupt never leaves a
// partially written document behind.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir. An empty dir resolves to
// $AISW_CONFIG_DIR, falling back to ~/.config/ai-switch.
func NewStore(dir string) *Store {
	if dir == "" {
		dir = DefaultDir()
	}
	return &Store{dir: dir}
}

// DefaultDir returns the default config directory.
func DefaultDir() string {
	if dir := os.Getenv("AISW_CONFIG_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultConfigDir
	}
	return filepath.Join(home, DefaultConfigDir)
}

// Dir returns the directory the store reads and writes.
func (s *Store) Dir() string {
	return s.dir
}

// rawProfile is the on-disk profile record. The secret/endpoint keys differ
// per kind (token/url for claude, api_key/base_url for codex), so both pairs
// are declared and the kind spec decides which pair is live.
type rawProfile struct {
	Name    string `mapstructure:"name" json:"name"`
	Token   string `mapstructure:"token" json:"token,omitempty"`
	URL     string `mapstructure:"url" json:"url,omitempty"`
	APIKey  string `mapstructure:"api_key" json:"api_key,omitempty"`
	BaseURL string `mapstructure:"base_url" json:"base_url,omitempty"`
	Group   string `mapstructure:"group" json:"group,omitempty"`
}

// profileDocument is the top-level shape of a profile file.
type profileDocument struct {
	Configs []rawProfile `mapstructure:"configs" json:"configs"`
}

// LoadProfiles reads the profile list for a kind. A missing file yields an
// empty list without error; a malformed file is a CONFIG error.
func (s *Store) LoadProfiles(kind Kind) ([]Profile, error) {
	if !kind.Valid() {
		return nil, errors.New(errors.ErrConfig,
			"Unknown profile kind: "+string(kind),
			"Use 'claude' or 'codex'")
	}

	path := filepath.Join(s.dir, kind.FileName())
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return []Profile{}, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to read profile file",
			"Check that "+path+" is valid JSON")
	}

	var doc profileDocument
	if err := v.Unmarshal(&doc); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid profile file format",
			"Expected {\"configs\": [...]} in "+path)
	}

	spec := kindSpecs[kind]
	profiles := make([]Profile, 0, len(doc.Configs))
	for _, raw := range doc.Configs {
		profiles = append(profiles, Profile{
			Name:     raw.Name,
			Kind:     kind,
			Secret:   raw.secretFor(spec),
			Endpoint: raw.endpointFor(spec),
			Group:    raw.Group,
		})
	}
	return profiles, nil
}

func (r rawProfile) secretFor(spec kindSpec) string {
	if spec.JSONSecret == "token" {
		return r.Token
	}
	return r.APIKey
}

func (r rawProfile) endpointFor(spec kindSpec) string {
	if spec.JSONBase == "url" {
		return r.URL
	}
	return r.BaseURL
}

// SaveProfiles writes the profile list for a kind, replacing the document.
// Custom profiles (held in settings) are skipped; they never belong to the
// stored document.
func (s *Store) SaveProfiles(kind Kind, profiles []Profile) error {
	if !kind.Valid() {
		return errors.New(errors.ErrConfig,
			"Unknown profile kind: "+string(kind),
			"Use 'claude' or 'codex'")
	}

	spec := kindSpecs[kind]
	doc := profileDocument{Configs: make([]rawProfile, 0, len(profiles))}
	for _, p := range profiles {
		if p.IsCustom {
			continue
		}
		raw := rawProfile{Name: p.Name, Group: p.Group}
		if spec.JSONSecret == "token" {
			raw.Token = p.Secret
			raw.URL = p.Endpoint
		} else {
			raw.APIKey = p.Secret
			raw.BaseURL = p.Endpoint
		}
		doc.Configs = append(doc.Configs, raw)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to encode profile file", "")
	}
	data = append(data, '\n')

	path := filepath.Join(s.dir, kind.FileName())
	if err := writeFileAtomic(path, data, 0o600); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to write profile file",
			"Check permissions on "+s.dir)
	}
	return nil
}

// LoadSettings reads the settings document, returning defaults when the file
// does not exist. HEALTH_STATUS_URL in the environment overrides the stored
// health URL.
func (s *Store) LoadSettings() (*Settings, error) {
	settings := &Settings{
		HealthURL:      DefaultHealthURL,
		CustomProfiles: make(map[Kind][]Profile),
	}

	path := filepath.Join(s.dir, SettingsFileName)
	if _, err := os.Stat(path); err == nil {
		v := viper.New()
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to read settings file",
				"Check that "+path+" is valid YAML")
		}
		if err := v.Unmarshal(settings); err != nil {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Invalid settings format",
				"Check the structure of "+path)
		}
		if settings.HealthURL == "" {
			settings.HealthURL = DefaultHealthURL
		}
	}

	if url := os.Getenv("HEALTH_STATUS_URL"); url != "" {
		settings.HealthURL = url
	}

	// Custom profiles deserialized from settings carry their kind implicitly
	// from the map key; restore it.
	for kind, list := range settings.CustomProfiles {
		for i := range list {
			list[i].Kind = kind
			list[i].IsCustom = true
		}
	}

	return settings, nil
}

// SaveSettings persists the settings document.
func (s *Store) SaveSettings(settings *Settings) error {
	var buf strings.Builder
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(settings); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to encode settings", "")
	}
	if err := encoder.Close(); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to encode settings", "")
	}

	path := filepath.Join(s.dir, SettingsFileName)
	if err := writeFileAtomic(path, []byte(buf.String()), 0o600); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to write settings file",
			"Check permissions on "+s.dir)
	}
	return nil
}

// writeFileAtomic writes data to path via a temp file in the same directory
// followed by a rename, so readers never observe a partial document.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	return os.Rename(tmpName, path)
}
