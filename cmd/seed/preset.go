package main

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/google/uuid"
	"github.com/pluvyt/backend/internal/domain/identity"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultPreset []byte

// Preset describes the demo tenant the seeder creates
type Preset struct {
	TenantID string        `yaml:"tenant_id"`
	Seed     uint64        `yaml:"seed"`
	Admin    AdminPreset   `yaml:"admin"`
	Groups   []GroupPreset `yaml:"groups"`
	Tables   TablePreset   `yaml:"tables"`
	Clients  ClientPreset  `yaml:"clients"`
}

// AdminPreset is the first staff account; it joins every seeded group
type AdminPreset struct {
	Login    string `yaml:"login"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

// GroupPreset is one access group with its feature codes
type GroupPreset struct {
	Code        string   `yaml:"code"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Features    []string `yaml:"features"`
}

// TablePreset sizes the dining room. Tables are numbered from 1.
type TablePreset struct {
	Count       int `yaml:"count"`
	MinCapacity int `yaml:"min_capacity"`
	MaxCapacity int `yaml:"max_capacity"`
}

// ClientPreset controls fake loyalty clients and their opening credit
type ClientPreset struct {
	Count     int   `yaml:"count"`
	MinPoints int64 `yaml:"min_points"`
	MaxPoints int64 `yaml:"max_points"`
}

// LoadPreset reads a preset file, or the embedded default when path is empty
func LoadPreset(path string) (*Preset, error) {
	data := defaultPreset
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read preset: %w", err)
		}
	}
	return ParsePreset(data)
}

// ParsePreset decodes and validates a YAML preset
func ParsePreset(data []byte) (*Preset, error) {
	var p Preset
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse preset: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks the fields the seeder relies on
func (p *Preset) Validate() error {
	if _, err := uuid.Parse(p.TenantID); err != nil {
		return fmt.Errorf("tenant_id: %w", err)
	}
	if p.Admin.Login == "" || p.Admin.Email == "" || p.Admin.Password == "" {
		return errors.New("admin: login, email and password are required")
	}
	seen := make(map[string]bool, len(p.Groups))
	for i, g := range p.Groups {
		if g.Code == "" || g.Name == "" {
			return fmt.Errorf("groups[%d]: code and name are required", i)
		}
		if seen[g.Code] {
			return fmt.Errorf("groups[%d]: duplicate code %s", i, g.Code)
		}
		seen[g.Code] = true
		for _, f := range g.Features {
			if !slices.Contains(identity.KnownFeatures, f) {
				return fmt.Errorf("groups[%d]: unknown feature %q", i, f)
			}
		}
	}
	if p.Tables.Count < 0 || p.Clients.Count < 0 {
		return errors.New("counts cannot be negative")
	}
	if p.Tables.Count > 0 && (p.Tables.MinCapacity <= 0 || p.Tables.MaxCapacity < p.Tables.MinCapacity) {
		return errors.New("tables: capacity range is invalid")
	}
	if p.Clients.MinPoints < 0 || p.Clients.MaxPoints < p.Clients.MinPoints {
		return errors.New("clients: points range is invalid")
	}
	return nil
}

// Tenant returns the parsed tenant ID; Validate guarantees it parses
func (p *Preset) Tenant() uuid.UUID {
	return uuid.MustParse(p.TenantID)
}
