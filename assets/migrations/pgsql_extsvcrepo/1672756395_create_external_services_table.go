package pgsql_extsvcrepo

import (
	"context"
	"fmt"
)

// CreateExternalServicesTable1672756395 is struct to define a migration with
// ID 1672756395_create_external_services_table
type CreateExternalServicesTable1672756395 struct{}

// ID return unique identifier for each migration. The prefix is unix time when this migration is created.
func (m CreateExternalServicesTable1672756395) ID(ctx context.Context) string {
	return fmt.Sprintf("%d_%s.sql", 1672756395, "create_external_services_table")
}

// SequenceNumber return current time when the migration is created,
// this useful to see the current status of the migration.
func (m CreateExternalServicesTable1672756395) SequenceNumber(ctx context.Context) int {
	return 1672756395
}

// Up return sql migration for sync database.
// Row id 0 is reserved as the legacy-config migration sentinel, so the
// sequence starts at 1 and the primary key stays a plain serial.
func (m CreateExternalServicesTable1672756395) Up(ctx context.Context) (sql string, err error) {
	sql = `
CREATE TABLE IF NOT EXISTS external_services (
	id BIGSERIAL PRIMARY KEY,
	kind VARCHAR NOT NULL,
	display_name VARCHAR NOT NULL DEFAULT '',
	config TEXT NOT NULL DEFAULT '{}',
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
	deleted_at TIMESTAMP WITH TIME ZONE
);

CREATE INDEX IF NOT EXISTS idx_external_services_kind ON external_services (kind) WHERE deleted_at IS NULL;
`

	return
}

// Down return sql migration for rollback database
func (m CreateExternalServicesTable1672756395) Down(ctx context.Context) (sql string, err error) {
	sql = `DROP TABLE IF EXISTS external_services;`
	return
}
