package extsvcrepo

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/priestd09/sourcegraph/internal/schema"
)

const sqlListAll = `SELECT id, kind, display_name, config, created_at, updated_at FROM external_services WHERE (deleted_at IS NULL) ORDER BY id DESC;`

func legacySite() *schema.SiteConfiguration {
	return &schema.SiteConfiguration{
		ExternalServices: true,
		Github: []*schema.GitHubConnection{
			{URL: "https://github.com", Token: "deadbeef"},
			{URL: "https://ghe.example.com", Token: "cafe"},
		},
		Gitolite: []*schema.GitoliteConnection{
			{Host: "git@gitolite.example.com"},
		},
	}
}

func emptyListRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "kind", "display_name", "config", "created_at", "updated_at"})
}

func TestMigrateWinner(t *testing.T) {
	repo, mock := newTestRepo(t, legacySite())

	mock.ExpectBegin()
	mock.ExpectExec(sqlInsertMigrationSentinel).
		WithArgs(0, "migration", "", "{}", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(sqlCreateExtSvc).
		WithArgs(KindGitHub, "Migrated GitHub 1", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectQuery(sqlCreateExtSvc).
		WithArgs(KindGitHub, "Migrated GitHub 2", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(2)))
	mock.ExpectQuery(sqlCreateExtSvc).
		WithArgs(KindGitolite, "Migrated Gitolite 1", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)))
	mock.ExpectCommit()
	mock.ExpectQuery(sqlListAll).WillReturnRows(emptyListRows())

	_, err := repo.List(context.Background(), ListOptions{})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateLoser(t *testing.T) {
	repo, mock := newTestRepo(t, legacySite())

	// another replica already holds the sentinel row
	mock.ExpectBegin()
	mock.ExpectExec(sqlInsertMigrationSentinel).
		WithArgs(0, "migration", "", "{}", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(&pq.Error{Constraint: "external_services_pkey"})
	mock.ExpectRollback()
	mock.ExpectQuery(sqlListAll).WillReturnRows(emptyListRows())

	_, err := repo.List(context.Background(), ListOptions{})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateRunsOncePerInstance(t *testing.T) {
	repo, mock := newTestRepo(t, &schema.SiteConfiguration{ExternalServices: true})

	mock.ExpectBegin()
	mock.ExpectExec(sqlInsertMigrationSentinel).
		WithArgs(0, "migration", "", "{}", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(sqlListAll).WillReturnRows(emptyListRows())

	// second read must not open another migration transaction
	mock.ExpectQuery(sqlListAll).WillReturnRows(emptyListRows())

	_, err := repo.List(context.Background(), ListOptions{})
	require.NoError(t, err)

	_, err = repo.List(context.Background(), ListOptions{})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateLatchedEvenAfterFailure(t *testing.T) {
	repo, mock := newTestRepo(t, &schema.SiteConfiguration{ExternalServices: true})

	mock.ExpectBegin().WillReturnError(assert.AnError)
	mock.ExpectQuery(sqlListAll).WillReturnRows(emptyListRows())

	// failure is logged, not retried and not surfaced to the read
	mock.ExpectQuery(sqlListAll).WillReturnRows(emptyListRows())

	_, err := repo.List(context.Background(), ListOptions{})
	require.NoError(t, err)

	_, err = repo.List(context.Background(), ListOptions{})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateSkippedWhileDisabled(t *testing.T) {
	repo, mock := newTestRepo(t, &schema.SiteConfiguration{ExternalServices: false})

	mock.ExpectQuery(sqlListAll).WillReturnRows(emptyListRows())

	_, err := repo.List(context.Background(), ListOptions{})
	require.NoError(t, err)
	assert.False(t, repo.migrated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateSentinelInvisible(t *testing.T) {
	// the sentinel is soft-deleted on insert, so a GetByID for id 0 must
	// miss under the standard deleted_at filter
	repo, mock := newTestRepo(t, nil)

	mock.ExpectQuery(sqlListByID).
		WithArgs(int64(0)).
		WillReturnRows(emptyListRows())

	_, err := repo.GetByID(context.Background(), 0)
	assert.Equal(t, NotFoundError{ID: 0}, err)
}

func TestCountDoesNotMigrate(t *testing.T) {
	repo, mock := newTestRepo(t, legacySite())

	mock.ExpectQuery(`SELECT COUNT(*) FROM external_services WHERE (deleted_at IS NULL);`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(0)))

	_, err := repo.Count(context.Background(), ListOptions{})
	require.NoError(t, err)
	assert.False(t, repo.migrated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsSentinelConflict(t *testing.T) {
	assert.True(t, isSentinelConflict(&pq.Error{Constraint: "external_services_pkey"}))
	assert.False(t, isSentinelConflict(&pq.Error{Constraint: "external_services_kind_idx"}))
	assert.False(t, isSentinelConflict(assert.AnError))
	assert.False(t, isSentinelConflict(nil))
}

func TestConfigList(t *testing.T) {
	conns := []*schema.GitoliteConnection{{Host: "a"}, {Host: "b"}}
	widened := configList(conns)
	require.Len(t, widened, 2)
	assert.Equal(t, conns[0], widened[0])

	assert.Empty(t, configList[schema.GitHubConnection](nil))
}
