package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/3n8/openclaw-plugins/internal/actions"
	"github.com/3n8/openclaw-plugins/internal/target"
)

const DefaultAccountID = "default"

type File struct {
	Channels Channels `yaml:"channels"`
}

type Channels struct {
	Matrix Matrix `yaml:"matrix"`
}

// Matrix is the channels.matrix section. Top-level credentials describe the
// default account; entries under Accounts override them field by field.
type Matrix struct {
	Enabled         *bool              `yaml:"enabled"`
	Homeserver      string             `yaml:"homeserver"`
	UserID          string             `yaml:"userId"`
	AccessToken     string             `yaml:"accessToken"`
	DeviceID        string             `yaml:"deviceId"`
	DefaultAccount  string             `yaml:"defaultAccount"`
	Accounts        map[string]Account `yaml:"accounts"`
	Actions         actions.GateConfig `yaml:"actions"`
	Placeholders    Placeholders       `yaml:"placeholders"`
	MediaLocalRoots []string           `yaml:"mediaLocalRoots"`
}

type Account struct {
	Enabled     *bool  `yaml:"enabled"`
	Name        string `yaml:"name"`
	Homeserver  string `yaml:"homeserver"`
	UserID      string `yaml:"userId"`
	AccessToken string `yaml:"accessToken"`
	DeviceID    string `yaml:"deviceId"`
}

// Placeholders tunes which message references count as synthetic. Nil
// fields keep the built-in defaults.
type Placeholders struct {
	Prefixes        []string `yaml:"prefixes"`
	Sigil           *string  `yaml:"sigil"`
	DomainFragments []string `yaml:"domainFragments"`
}

func (p Placeholders) Predicate() target.PrefixPredicate {
	predicate := target.DefaultPredicate()
	if p.Prefixes != nil {
		predicate.Prefixes = p.Prefixes
	}
	if p.Sigil != nil {
		predicate.Sigil = *p.Sigil
	}
	if p.DomainFragments != nil {
		predicate.DomainFragments = p.DomainFragments
	}
	return predicate
}

// ResolvedAccount is one account with inherited fields filled in.
type ResolvedAccount struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	Enabled     bool   `json:"enabled"`
	Configured  bool   `json:"configured"`
	Homeserver  string `json:"homeserver,omitempty"`
	UserID      string `json:"userId,omitempty"`
	AccessToken string `json:"-"`
	DeviceID    string `json:"deviceId,omitempty"`
}

// NormalizeAccountID folds an account key for comparison.
func NormalizeAccountID(value string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return DefaultAccountID
	}
	return normalized
}

// AccountKey returns the configured key matching id, ignoring case.
func (m Matrix) AccountKey(id string) (string, bool) {
	want := NormalizeAccountID(id)
	for key := range m.Accounts {
		if NormalizeAccountID(key) == want {
			return key, true
		}
	}
	return "", false
}

func (m Matrix) ResolveAccount(accountID string) ResolvedAccount {
	id := strings.TrimSpace(accountID)
	if id == "" {
		id = strings.TrimSpace(m.DefaultAccount)
	}
	resolved := ResolvedAccount{
		ID:          NormalizeAccountID(id),
		Enabled:     m.Enabled == nil || *m.Enabled,
		Homeserver:  m.Homeserver,
		UserID:      m.UserID,
		AccessToken: m.AccessToken,
		DeviceID:    m.DeviceID,
	}
	if key, ok := m.AccountKey(resolved.ID); ok {
		account := m.Accounts[key]
		resolved.ID = key
		resolved.Name = account.Name
		if account.Enabled != nil && !*account.Enabled {
			resolved.Enabled = false
		}
		resolved.Homeserver = firstNonEmpty(account.Homeserver, resolved.Homeserver)
		resolved.UserID = firstNonEmpty(account.UserID, resolved.UserID)
		resolved.AccessToken = firstNonEmpty(account.AccessToken, resolved.AccessToken)
		resolved.DeviceID = firstNonEmpty(account.DeviceID, resolved.DeviceID)
	}
	resolved.Homeserver = strings.TrimRight(strings.TrimSpace(resolved.Homeserver), "/")
	resolved.UserID = strings.TrimSpace(resolved.UserID)
	resolved.AccessToken = strings.TrimSpace(resolved.AccessToken)
	resolved.Configured = resolved.Homeserver != "" && resolved.AccessToken != ""
	return resolved
}

// LoadMatrix reads the channel file at path. A missing file yields an empty
// section so env credentials alone are enough to run.
func LoadMatrix(path string, env Config) (Matrix, error) {
	var file File
	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Matrix{}, fmt.Errorf("read channel config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(raw, &file); err != nil {
			return Matrix{}, fmt.Errorf("parse channel config %s: %w", path, err)
		}
	}
	return applyEnv(file.Channels.Matrix, env), nil
}

func applyEnv(m Matrix, env Config) Matrix {
	m.Homeserver = firstNonEmpty(m.Homeserver, env.MatrixHomeserver)
	m.UserID = firstNonEmpty(m.UserID, env.MatrixUserID)
	m.AccessToken = firstNonEmpty(m.AccessToken, env.MatrixAccessToken)
	m.DeviceID = firstNonEmpty(m.DeviceID, env.MatrixDeviceID)
	return m
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
