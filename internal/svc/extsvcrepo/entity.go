package extsvcrepo

import (
	"database/sql"
	"strings"
	"time"
)

// Kind identifies the code host type of an external service record.
// Immutable after creation.
const (
	KindAWSCodeCommit   = "AWSCODECOMMIT"
	KindBitbucketServer = "BITBUCKETSERVER"
	KindGitHub          = "GITHUB"
	KindGitLab          = "GITLAB"
	KindGitolite        = "GITOLITE"
	KindPhabricator     = "PHABRICATOR"
)

// Migration sentinel row. Not a real external service: the row with
// id 0 exists purely as a mutual-exclusion token for the one-time
// legacy config migration. It is stored soft-deleted so the standard
// deleted_at filter keeps it out of every read.
const (
	migrationSentinelID   = 0
	migrationSentinelKind = "migration"
)

// ExternalService is one row of the external_services table: a single
// configured connection to a code host, with its JSONC config document.
type ExternalService struct {
	ID          int64     `json:"id" db:"id"`
	Kind        string    `json:"kind" db:"kind"`
	DisplayName string    `json:"display_name" db:"display_name"`
	Config      string    `json:"config" db:"config"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`

	// DeletedAt non-null marks the record as soft-deleted. Rows are never
	// physically removed; reads filter on deleted_at IS NULL instead.
	DeletedAt sql.NullTime `json:"deleted_at" db:"deleted_at"`
}

// NormalizeKind returns kind the way it is stored: upper-case, trimmed.
func NormalizeKind(kind string) string {
	return strings.ToUpper(strings.TrimSpace(kind))
}
