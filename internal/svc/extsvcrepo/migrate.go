package extsvcrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/segmentio/encoding/json"
	"github.com/yusufsyaifudin/ylog"
)

// sentinelConstraint is the primary key constraint of external_services.
// A violation on it during the sentinel insert means another process has
// already claimed the migration.
const sentinelConstraint = "external_services_pkey"

const sqlInsertMigrationSentinel = `INSERT INTO external_services (id, kind, display_name, config, created_at, updated_at, deleted_at) VALUES ($1, $2, $3, $4, $5, $6, $7);`

// legacyKind is one source of connections in the legacy site configuration.
// The stored kind is the upper-cased name.
type legacyKind struct {
	name    string
	configs []interface{}
}

// configList widens a typed connection slice so all six legacy kinds can go
// through one insert loop.
func configList[T any](configs []*T) []interface{} {
	out := make([]interface{}, 0, len(configs))
	for _, config := range configs {
		out = append(out, config)
	}

	return out
}

// migrateLegacyConfig copies connections from the legacy site configuration
// into the table, at most once per process. It is called on every read path;
// when the database-backed mode is off or the migration already ran (or
// failed) in this process it returns immediately. Errors are logged and
// swallowed so a broken migration never takes reads down with it.
func (p *RepoPostgres) migrateLegacyConfig(ctx context.Context) {
	if !p.Config.SiteConfig.ExternalServicesEnabled() {
		return
	}

	p.migrateMu.Lock()
	defer p.migrateMu.Unlock()

	if p.migrated {
		return
	}

	p.migrated = true

	if err := p.runLegacyMigration(ctx); err != nil {
		ylog.Error(ctx, "cannot migrate external services from legacy site config", ylog.KV("error", err.Error()))
	}
}

func (p *RepoPostgres) runLegacyMigration(ctx context.Context) (err error) {
	tx, err := p.Config.Connection.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("cannot begin migration transaction: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()

	acquired, err := p.tryAcquireMigrationLock(ctx, tx, now)
	if err != nil {
		return err
	}

	if !acquired {
		// another process won; its commit carries the data
		_ = tx.Rollback()
		return nil
	}

	site := p.Config.SiteConfig.Site()
	kinds := []legacyKind{
		{name: "AWSCodeCommit", configs: configList(site.AwsCodeCommit)},
		{name: "BitbucketServer", configs: configList(site.BitbucketServer)},
		{name: "GitHub", configs: configList(site.Github)},
		{name: "GitLab", configs: configList(site.Gitlab)},
		{name: "Gitolite", configs: configList(site.Gitolite)},
		{name: "Phabricator", configs: configList(site.Phabricator)},
	}

	for _, legacy := range kinds {
		kind := strings.ToUpper(legacy.name)
		for i, config := range legacy.configs {
			buf, err := json.MarshalIndent(config, "", "  ")
			if err != nil {
				return fmt.Errorf("cannot encode legacy %s config: %w", legacy.name, err)
			}

			displayName := fmt.Sprintf("Migrated %s %d", legacy.name, i+1)
			err = sqlx.GetContext(ctx, tx, new(int64), sqlCreateExtSvc,
				kind, displayName, string(buf), now, now,
			)
			if err != nil {
				return fmt.Errorf("cannot insert migrated %s config: %w", legacy.name, err)
			}
		}
	}

	return tx.Commit()
}

// tryAcquireMigrationLock inserts the sentinel row inside tx. The sentinel
// uses a fixed id so at most one insert ever succeeds table-wide; it is
// created already soft-deleted so no read path can observe it. Returns false
// without error when the sentinel already exists.
func (p *RepoPostgres) tryAcquireMigrationLock(ctx context.Context, tx *sqlx.Tx, now time.Time) (acquired bool, err error) {
	_, err = tx.ExecContext(ctx, sqlInsertMigrationSentinel,
		migrationSentinelID, migrationSentinelKind, "", "{}", now, now, now,
	)
	if err != nil {
		if isSentinelConflict(err) {
			return false, nil
		}

		return false, fmt.Errorf("cannot insert migration sentinel: %w", err)
	}

	return true, nil
}

func isSentinelConflict(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Constraint == sentinelConstraint
	}

	return false
}
