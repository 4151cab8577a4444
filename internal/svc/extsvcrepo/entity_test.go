package extsvcrepo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeKind(t *testing.T) {
	assert.Equal(t, KindGitHub, NormalizeKind("github"))
	assert.Equal(t, KindGitLab, NormalizeKind(" GitLab "))
	assert.Equal(t, KindBitbucketServer, NormalizeKind("bitbucketserver"))
	assert.Equal(t, "", NormalizeKind("   "))
}

func TestNotFoundError(t *testing.T) {
	err := NotFoundError{ID: 7}
	assert.EqualError(t, err, "external service not found: id=7")
	assert.True(t, err.NotFound())
}

func TestLimitOffsetSQL(t *testing.T) {
	var window *LimitOffset
	assert.Equal(t, "", window.SQL())

	window = &LimitOffset{Limit: 10, Offset: 20}
	assert.Equal(t, " LIMIT 10 OFFSET 20", window.SQL())
}
