package extsvcrepo

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/priestd09/sourcegraph/internal/schema"
	"github.com/priestd09/sourcegraph/internal/svc/siteconf"
)

func newTestRepo(t *testing.T, site *schema.SiteConfiguration) (*RepoPostgres, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})

	repo, err := Postgres(RepoPostgresConfig{
		Connection: sqlx.NewDb(db, "sqlmock"),
		SiteConfig: siteconf.New(site),
	})
	require.NoError(t, err)
	return repo, mock
}

func TestPostgresConfigValidation(t *testing.T) {
	_, err := Postgres(RepoPostgresConfig{})
	assert.Error(t, err)
}

func TestCreate(t *testing.T) {
	t.Run("assigns id and timestamps", func(t *testing.T) {
		repo, mock := newTestRepo(t, nil)

		mock.ExpectQuery(sqlCreateExtSvc).
			WithArgs(KindGitHub, "GitHub #1", `{"url": "https://github.example.com"}`, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

		extsvc := &ExternalService{
			Kind:        "github",
			DisplayName: "GitHub #1",
			Config:      `{"url": "https://github.example.com"}`,
		}
		err := repo.Create(context.Background(), extsvc)
		require.NoError(t, err)

		assert.Equal(t, int64(42), extsvc.ID)
		assert.Equal(t, KindGitHub, extsvc.Kind)
		assert.False(t, extsvc.CreatedAt.IsZero())
		assert.Equal(t, extsvc.CreatedAt, extsvc.UpdatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("accepts jsonc config with comments", func(t *testing.T) {
		repo, mock := newTestRepo(t, nil)

		config := `{
  // token with repo scope
  "token": "deadbeef"
}`
		mock.ExpectQuery(sqlCreateExtSvc).
			WithArgs(KindGitLab, "GitLab", config, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

		err := repo.Create(context.Background(), &ExternalService{
			Kind:        KindGitLab,
			DisplayName: "GitLab",
			Config:      config,
		})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects broken config", func(t *testing.T) {
		repo, _ := newTestRepo(t, nil)

		err := repo.Create(context.Background(), &ExternalService{
			Kind:   KindGitHub,
			Config: `{"url": }`,
		})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("rejects empty kind", func(t *testing.T) {
		repo, _ := newTestRepo(t, nil)

		err := repo.Create(context.Background(), &ExternalService{Config: "{}"})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("rejects nil input", func(t *testing.T) {
		repo, _ := newTestRepo(t, nil)

		err := repo.Create(context.Background(), nil)
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestUpdate(t *testing.T) {
	displayName := "Renamed"
	config := `{"token": "cafe"}`

	t.Run("both fields in one transaction", func(t *testing.T) {
		repo, mock := newTestRepo(t, nil)

		mock.ExpectBegin()
		mock.ExpectExec(sqlUpdateExtSvcDisplayName).
			WithArgs(displayName, sqlmock.AnyArg(), int64(3)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(sqlUpdateExtSvcConfig).
			WithArgs(config, sqlmock.AnyArg(), int64(3)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.Update(context.Background(), 3, Update{DisplayName: &displayName, Config: &config})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("display name only", func(t *testing.T) {
		repo, mock := newTestRepo(t, nil)

		mock.ExpectBegin()
		mock.ExpectExec(sqlUpdateExtSvcDisplayName).
			WithArgs(displayName, sqlmock.AnyArg(), int64(3)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.Update(context.Background(), 3, Update{DisplayName: &displayName})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing or deleted row", func(t *testing.T) {
		repo, mock := newTestRepo(t, nil)

		mock.ExpectBegin()
		mock.ExpectExec(sqlUpdateExtSvcDisplayName).
			WithArgs(displayName, sqlmock.AnyArg(), int64(404)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := repo.Update(context.Background(), 404, Update{DisplayName: &displayName})
		assert.Equal(t, NotFoundError{ID: 404}, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty patch", func(t *testing.T) {
		repo, _ := newTestRepo(t, nil)

		err := repo.Update(context.Background(), 3, Update{})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("broken config", func(t *testing.T) {
		repo, _ := newTestRepo(t, nil)

		bad := `{]`
		err := repo.Update(context.Background(), 3, Update{Config: &bad})
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestDelete(t *testing.T) {
	t.Run("soft delete", func(t *testing.T) {
		repo, mock := newTestRepo(t, nil)

		mock.ExpectExec(sqlSoftDeleteExtSvc).
			WithArgs(sqlmock.AnyArg(), int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Delete(context.Background(), 5)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("second delete reports not found", func(t *testing.T) {
		repo, mock := newTestRepo(t, nil)

		mock.ExpectExec(sqlSoftDeleteExtSvc).
			WithArgs(sqlmock.AnyArg(), int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Delete(context.Background(), 5)
		assert.Equal(t, NotFoundError{ID: 5}, err)
	})
}

const sqlListByID = `SELECT id, kind, display_name, config, created_at, updated_at FROM external_services WHERE (deleted_at IS NULL) AND (id = $1) ORDER BY id DESC;`

func TestGetByID(t *testing.T) {
	now := time.Now().UTC()

	t.Run("found", func(t *testing.T) {
		repo, mock := newTestRepo(t, nil)

		mock.ExpectQuery(sqlListByID).
			WithArgs(int64(9)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "kind", "display_name", "config", "created_at", "updated_at"}).
				AddRow(int64(9), KindGitHub, "GitHub #1", "{}", now, now))

		extsvc, err := repo.GetByID(context.Background(), 9)
		require.NoError(t, err)
		assert.Equal(t, int64(9), extsvc.ID)
		assert.Equal(t, KindGitHub, extsvc.Kind)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing", func(t *testing.T) {
		repo, mock := newTestRepo(t, nil)

		mock.ExpectQuery(sqlListByID).
			WithArgs(int64(404)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "kind", "display_name", "config", "created_at", "updated_at"}))

		_, err := repo.GetByID(context.Background(), 404)
		assert.Equal(t, NotFoundError{ID: 404}, err)
	})
}

func TestList(t *testing.T) {
	now := time.Now().UTC()

	t.Run("kind filter and pagination", func(t *testing.T) {
		repo, mock := newTestRepo(t, nil)

		query := `SELECT id, kind, display_name, config, created_at, updated_at FROM external_services WHERE (deleted_at IS NULL) AND (kind = $1) ORDER BY id DESC LIMIT 2 OFFSET 1;`
		mock.ExpectQuery(query).
			WithArgs(KindGitLab).
			WillReturnRows(sqlmock.NewRows([]string{"id", "kind", "display_name", "config", "created_at", "updated_at"}).
				AddRow(int64(8), KindGitLab, "GitLab #2", "{}", now, now).
				AddRow(int64(4), KindGitLab, "GitLab #1", "{}", now, now))

		services, err := repo.List(context.Background(), ListOptions{
			Kind:        "gitlab",
			LimitOffset: &LimitOffset{Limit: 2, Offset: 1},
		})
		require.NoError(t, err)
		require.Len(t, services, 2)
		assert.Greater(t, services[0].ID, services[1].ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty result is empty slice", func(t *testing.T) {
		repo, mock := newTestRepo(t, nil)

		query := `SELECT id, kind, display_name, config, created_at, updated_at FROM external_services WHERE (deleted_at IS NULL) ORDER BY id DESC;`
		mock.ExpectQuery(query).
			WillReturnRows(sqlmock.NewRows([]string{"id", "kind", "display_name", "config", "created_at", "updated_at"}))

		services, err := repo.List(context.Background(), ListOptions{})
		require.NoError(t, err)
		assert.NotNil(t, services)
		assert.Len(t, services, 0)
	})
}

func TestCount(t *testing.T) {
	repo, mock := newTestRepo(t, nil)

	// pagination window must not narrow the count
	mock.ExpectQuery(`SELECT COUNT(*) FROM external_services WHERE (deleted_at IS NULL) AND (kind = $1);`).
		WithArgs(KindGitHub).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(37)))

	total, err := repo.Count(context.Background(), ListOptions{
		Kind:        KindGitHub,
		LimitOffset: &LimitOffset{Limit: 1, Offset: 0},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(37), total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTypedListings(t *testing.T) {
	t.Run("fallback to site config while disabled", func(t *testing.T) {
		site := &schema.SiteConfiguration{
			ExternalServices: false,
			Github: []*schema.GitHubConnection{
				{URL: "https://github.example.com", Token: "deadbeef"},
			},
		}
		repo, mock := newTestRepo(t, site)

		connections, err := repo.ListGitHubConnections(context.Background())
		require.NoError(t, err)
		require.Len(t, connections, 1)
		assert.Equal(t, "https://github.example.com", connections[0].URL)

		// no query may reach the database on the fallback path
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("decodes stored configs while enabled", func(t *testing.T) {
		repo, mock := newTestRepo(t, &schema.SiteConfiguration{ExternalServices: true})
		repo.migrated = true // legacy migration already ran in this process

		now := time.Now().UTC()
		query := `SELECT id, kind, display_name, config, created_at, updated_at FROM external_services WHERE (deleted_at IS NULL) AND (kind = $1) ORDER BY id DESC;`
		mock.ExpectQuery(query).
			WithArgs(KindGitHub).
			WillReturnRows(sqlmock.NewRows([]string{"id", "kind", "display_name", "config", "created_at", "updated_at"}).
				AddRow(int64(2), KindGitHub, "GitHub #2", `{
  // enterprise instance
  "url": "https://ghe.example.com",
  "token": "cafe"
}`, now, now).
				AddRow(int64(1), KindGitHub, "GitHub #1", `{"url": "https://github.com"}`, now, now))

		connections, err := repo.ListGitHubConnections(context.Background())
		require.NoError(t, err)
		require.Len(t, connections, 2)
		assert.Equal(t, "https://ghe.example.com", connections[0].URL)
		assert.Equal(t, "cafe", connections[0].Token)
		assert.Equal(t, "https://github.com", connections[1].URL)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("corrupt stored config fails the listing", func(t *testing.T) {
		repo, mock := newTestRepo(t, &schema.SiteConfiguration{ExternalServices: true})
		repo.migrated = true

		now := time.Now().UTC()
		query := `SELECT id, kind, display_name, config, created_at, updated_at FROM external_services WHERE (deleted_at IS NULL) AND (kind = $1) ORDER BY id DESC;`
		mock.ExpectQuery(query).
			WithArgs(KindGitolite).
			WillReturnRows(sqlmock.NewRows([]string{"id", "kind", "display_name", "config", "created_at", "updated_at"}).
				AddRow(int64(1), KindGitolite, "Gitolite", `{"host":`, now, now))

		_, err := repo.ListGitoliteConnections(context.Background())
		assert.Error(t, err)
	})
}
