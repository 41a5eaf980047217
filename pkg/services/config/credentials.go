package config

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/de-tools/compliance-signals/pkg/models/domain"
)

// Registry exposes the named profiles of an INI credentials file:
//
//	[default]
//	type    = gemini
//	api_key = ...
type Registry interface {
	GetProfiles(ctx context.Context) ([]domain.CredentialProfile, error)
	GetAPIKey(ctx context.Context, profile string) (string, error)
}

type cfgRegistry struct {
	cfg *ini.File
}

func NewRegistry(path string) (Registry, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, err
	}
	return &cfgRegistry{cfg: cfg}, nil
}

func (cr *cfgRegistry) GetProfiles(_ context.Context) ([]domain.CredentialProfile, error) {
	var profiles []domain.CredentialProfile
	for _, section := range cr.cfg.Sections() {
		if len(section.Keys()) == 0 {
			continue
		}
		profileType := domain.ProfileType(section.Key("type").MustString(string(domain.ProfileTypeGemini)))
		profiles = append(profiles, domain.CredentialProfile{Name: section.Name(), Type: profileType})
	}
	return profiles, nil
}

func (cr *cfgRegistry) GetAPIKey(_ context.Context, profile string) (string, error) {
	section, err := cr.cfg.GetSection(profile)
	if err != nil {
		return "", fmt.Errorf("profile %s not found", profile)
	}

	key := strings.TrimSpace(section.Key("api_key").String())
	if key == "" {
		return "", fmt.Errorf("profile %s has no api_key", profile)
	}
	return key, nil
}

// ResolveAPIKey returns the configured enrichment key, falling back to the
// credentials file profile. An empty key with a nil error means enrichment
// runs with the static fallback record.
func (c *Config) ResolveAPIKey(ctx context.Context) (string, error) {
	if key := strings.TrimSpace(c.Enrich.APIKey); key != "" {
		return key, nil
	}
	if c.Enrich.CredentialsFile == "" {
		return "", nil
	}

	registry, err := NewRegistry(c.Enrich.CredentialsFile)
	if err != nil {
		return "", fmt.Errorf("failed to load credentials file: %w", err)
	}
	return registry.GetAPIKey(ctx, c.Enrich.Profile)
}
