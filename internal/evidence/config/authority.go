// Package config loads the Evidence Gatherer's (C10) domain-authority
// table from an embedded YAML file, following the teacher's
// capabilities.Registry pattern (go:embed + gopkg.in/yaml.v3, loaded
// once at construction and served from an in-memory map).
package config

import (
	"embed"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed data/authority.yaml
var authorityFile embed.FS

// DomainAuthority is one row of the configurable authority table (spec §4.10).
type DomainAuthority struct {
	Domain     string  `yaml:"domain"`
	Authority  float64 `yaml:"authority"`
	SourceType string  `yaml:"source_type"`
}

type authorityDocument struct {
	DefaultAuthority float64            `yaml:"default_authority"`
	SourceTypes      map[string]float64 `yaml:"source_types"`
	Domains          []DomainAuthority  `yaml:"domains"`
}

// AuthorityTable resolves a fetched URL's domain to an authority score
// and source-type classification.
type AuthorityTable struct {
	defaultAuthority float64
	sourceTypes      map[string]float64
	byDomain         map[string]DomainAuthority
}

// LoadAuthorityTable reads the embedded domain-authority YAML.
func LoadAuthorityTable() (*AuthorityTable, error) {
	raw, err := authorityFile.ReadFile("data/authority.yaml")
	if err != nil {
		return nil, err
	}
	var doc authorityDocument
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}

	byDomain := make(map[string]DomainAuthority, len(doc.Domains))
	for _, d := range doc.Domains {
		byDomain[strings.ToLower(d.Domain)] = d
	}

	return &AuthorityTable{
		defaultAuthority: doc.DefaultAuthority,
		sourceTypes:      doc.SourceTypes,
		byDomain:         byDomain,
	}, nil
}

// Score returns the authority score and source-type classifier for
// domain, falling back to the default score when domain is unlisted.
func (t *AuthorityTable) Score(domain string) (authority float64, sourceType string) {
	domain = strings.ToLower(strings.TrimPrefix(domain, "www."))
	if d, ok := t.byDomain[domain]; ok {
		return d.Authority, d.SourceType
	}
	return t.defaultAuthority, "unknown"
}
