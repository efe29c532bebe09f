package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Option keys recognised in a host-supplied options map.
const (
	KeyAPIKey        = "apiKey"
	KeyDomain        = "domain"
	KeyCompanyDomain = "companyDomain"
	KeyAPIVersion    = "apiVersion"
	KeySkillDir      = "skillDir"
)

var (
	ErrMissingAPIKey = errors.New("pipedrive api key is not configured")
	ErrMissingDomain = errors.New("pipedrive domain is not configured")
	ErrInvalidDomain = errors.New("pipedrive domain must be a bare company subdomain")
)

var subdomainRE = regexp.MustCompile(`^[a-z0-9-]+$`)

// Plugin is the resolved connector configuration. It is built once at
// startup and never mutated afterwards.
type Plugin struct {
	APIKey string
	Domain string
	// ForceLegacy routes every tool to the v1 API.
	ForceLegacy bool
	// SkillDir overrides the default skill-file location.
	SkillDir string
}

// Validate reports whether the configuration can register tools.
func (p Plugin) Validate() error {
	if p.APIKey == "" {
		return ErrMissingAPIKey
	}
	if p.Domain == "" {
		return ErrMissingDomain
	}
	if !subdomainRE.MatchString(NormalizeDomain(p.Domain)) {
		return fmt.Errorf("%w: %q", ErrInvalidDomain, p.Domain)
	}
	return nil
}

// NormalizeDomain reduces "https://acme.pipedrive.com/" and
// "acme.pipedrive.com" to "acme".
func NormalizeDomain(domain string) string {
	d := strings.ToLower(strings.TrimSpace(domain))
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	d = strings.TrimRight(d, "/")
	d = strings.TrimSuffix(d, ".pipedrive.com")
	return d
}

// File is the YAML configuration file structure. All fields are optional;
// environment variables take precedence.
type File struct {
	APIKey        string `yaml:"apiKey,omitempty"`
	Domain        string `yaml:"domain,omitempty"`
	CompanyDomain string `yaml:"companyDomain,omitempty"`
	APIVersion    string `yaml:"apiVersion,omitempty"`
	SkillDir      string `yaml:"skillDir,omitempty"`
}

// LoadFile reads a YAML config file. Returns nil if the file doesn't exist.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return &f, nil
}

// Options converts the file into a host options map.
func (f *File) Options() map[string]any {
	opts := map[string]any{}
	if f == nil {
		return opts
	}
	set := func(k, v string) {
		if v != "" {
			opts[k] = v
		}
	}
	set(KeyAPIKey, f.APIKey)
	set(KeyDomain, f.Domain)
	set(KeyCompanyDomain, f.CompanyDomain)
	set(KeyAPIVersion, f.APIVersion)
	set(KeySkillDir, f.SkillDir)
	return opts
}

// EnvOptions layers PIPEDRIVE_* environment variables over base and returns
// the merged map. base is not modified.
func EnvOptions(base map[string]any) map[string]any {
	opts := make(map[string]any, len(base)+4)
	for k, v := range base {
		opts[k] = v
	}
	if v := os.Getenv("PIPEDRIVE_API_KEY"); v != "" {
		opts[KeyAPIKey] = v
	}
	if v := EnvFirst("PIPEDRIVE_DOMAIN", "PIPEDRIVE_COMPANY_DOMAIN"); v != "" {
		opts[KeyDomain] = v
	}
	if v := os.Getenv("PIPEDRIVE_API_VERSION"); v != "" {
		opts[KeyAPIVersion] = v
	}
	if v := os.Getenv("PIPEDRIVE_SKILL_DIR"); v != "" {
		opts[KeySkillDir] = v
	}
	return opts
}

// FromOptions builds a Plugin from a host options map. The domain may be
// supplied under either "domain" or "companyDomain"; "domain" wins.
func FromOptions(opts map[string]any) Plugin {
	p := Plugin{
		APIKey:   optString(opts, KeyAPIKey),
		Domain:   optString(opts, KeyDomain),
		SkillDir: optString(opts, KeySkillDir),
	}
	if p.Domain == "" {
		p.Domain = optString(opts, KeyCompanyDomain)
	}
	switch strings.ToLower(optString(opts, KeyAPIVersion)) {
	case "v1", "1", "legacy":
		p.ForceLegacy = true
	}
	return p
}

func optString(opts map[string]any, key string) string {
	v, ok := opts[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return strings.TrimSpace(fmt.Sprint(v))
	}
	return strings.TrimSpace(s)
}
