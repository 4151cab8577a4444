package siteconf_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/priestd09/sourcegraph/internal/schema"
	"github.com/priestd09/sourcegraph/internal/svc/siteconf"
)

func TestLoad(t *testing.T) {
	site, err := siteconf.Load(filepath.Join("testdata", "site.jsonc"))
	require.NoError(t, err)

	assert.True(t, site.ExternalServicesEnabled())
	require.Len(t, site.Site().Github, 2)
	assert.Equal(t, "https://github.com", site.Site().Github[0].URL)
	assert.Equal(t, "ghp-test-token", site.Site().Github[0].Token)
	require.Len(t, site.Site().Gitlab, 1)
	require.Len(t, site.Site().Phabricator, 1)
	assert.Empty(t, site.Site().Gitolite)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := siteconf.Load(filepath.Join("testdata", "nope.jsonc"))
	assert.Error(t, err)
}

func TestNewNil(t *testing.T) {
	site := siteconf.New(nil)
	assert.False(t, site.ExternalServicesEnabled())
	assert.NotNil(t, site.Site())
}

func TestNew(t *testing.T) {
	site := siteconf.New(&schema.SiteConfiguration{
		ExternalServices: true,
		Github:           []*schema.GitHubConnection{{URL: "https://github.com"}},
	})

	assert.True(t, site.ExternalServicesEnabled())
	assert.Len(t, site.Site().Github, 1)
}
