package siteconf

import (
	"fmt"
	"os"

	"github.com/priestd09/sourcegraph/internal/schema"
	"github.com/priestd09/sourcegraph/pkg/jsonc"
)

// Provider exposes the legacy global site configuration.
// It is consumed on exactly two paths: the one-time legacy-to-table
// migration, and the typed-listing fallback while per-row external
// services storage is disabled.
type Provider interface {
	// ExternalServicesEnabled reports whether external service records
	// are served from the external_services table.
	ExternalServicesEnabled() bool

	// Site returns the parsed legacy configuration document.
	Site() *schema.SiteConfiguration
}

// Static is a Provider over a site configuration document loaded once from a
// JSONC file. The document is never re-read, matching the legacy behavior
// where changing the file required a process restart.
type Static struct {
	site *schema.SiteConfiguration
}

var _ Provider = (*Static)(nil)

// Load reads and parses the legacy site configuration file.
// The file is JSON-with-comments since it is edited by hand.
func Load(path string) (*Static, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read site config file %s: %w", path, err)
	}

	site := &schema.SiteConfiguration{}
	if err := jsonc.Unmarshal(raw, site); err != nil {
		return nil, fmt.Errorf("cannot parse site config file %s: %w", path, err)
	}

	return &Static{site: site}, nil
}

// New wraps an already-parsed document, mainly for tests and for
// deployments that disable the legacy file entirely.
func New(site *schema.SiteConfiguration) *Static {
	if site == nil {
		site = &schema.SiteConfiguration{}
	}

	return &Static{site: site}
}

func (s *Static) ExternalServicesEnabled() bool {
	return s.site.ExternalServices
}

func (s *Static) Site() *schema.SiteConfiguration {
	return s.site
}
