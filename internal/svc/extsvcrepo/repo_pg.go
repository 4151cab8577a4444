package extsvcrepo

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/segmentio/encoding/json"
	"go.opentelemetry.io/otel/trace"

	"github.com/priestd09/sourcegraph/internal/schema"
	"github.com/priestd09/sourcegraph/internal/svc/siteconf"
	"github.com/priestd09/sourcegraph/pkg/jsonc"
	"github.com/priestd09/sourcegraph/pkg/tracer"
	"github.com/priestd09/sourcegraph/pkg/validator"
)

const (
	sqlCreateExtSvc = `INSERT INTO external_services (kind, display_name, config, created_at, updated_at) VALUES ($1, $2, $3, $4, $5) RETURNING id;`

	sqlUpdateExtSvcDisplayName = `UPDATE external_services SET display_name = $1, updated_at = $2 WHERE id = $3 AND deleted_at IS NULL;`
	sqlUpdateExtSvcConfig      = `UPDATE external_services SET config = $1, updated_at = $2 WHERE id = $3 AND deleted_at IS NULL;`

	sqlSoftDeleteExtSvc = `UPDATE external_services SET deleted_at = $1 WHERE id = $2 AND deleted_at IS NULL;`

	// ordering is descending by id so the most recently created connection
	// comes first; stable as long as rows are never physically removed
	sqlListExtSvc  = `SELECT id, kind, display_name, config, created_at, updated_at FROM external_services WHERE (%s) ORDER BY id DESC%s;`
	sqlCountExtSvc = `SELECT COUNT(*) FROM external_services WHERE (%s);`
)

type RepoPostgresConfig struct {
	Connection *sqlx.DB          `validate:"required"`
	SiteConfig siteconf.Provider `validate:"required"`
}

type RepoPostgres struct {
	Config RepoPostgresConfig

	// one-shot latch: the legacy config migration body runs at most once in
	// this process, success or not. Cross-process correctness comes from the
	// sentinel row primary key, not from this flag.
	migrateMu sync.Mutex
	migrated  bool
}

var _ Repo = (*RepoPostgres)(nil)

// Postgres return repo interface which implements using PgSQL
func Postgres(conf RepoPostgresConfig) (service *RepoPostgres, err error) {
	err = validator.Validate(conf)
	if err != nil {
		return nil, err
	}

	service = &RepoPostgres{
		Config: conf,
	}
	return
}

// validateConfig rejects payloads that are not valid JSON-with-comments.
// All stored configs must pass this before any write.
func validateConfig(config string) error {
	if err := jsonc.Validate([]byte(config)); err != nil {
		return fmt.Errorf("%w: config is not valid jsonc: %s", ErrValidation, err)
	}

	return nil
}

// Create persists a new record. Kind and Config come from the caller;
// ID and both timestamps are assigned here, and the generated ID is
// written back onto the input object.
func (p *RepoPostgres) Create(ctx context.Context, extsvc *ExternalService) (err error) {
	if extsvc == nil {
		return fmt.Errorf("%w: nil external service", ErrValidation)
	}

	kind := NormalizeKind(extsvc.Kind)
	if kind == "" {
		return fmt.Errorf("%w: kind is required", ErrValidation)
	}

	if err = validateConfig(extsvc.Config); err != nil {
		return err
	}

	now := time.Now().UTC()
	extsvc.Kind = kind
	extsvc.CreatedAt = now
	extsvc.UpdatedAt = now

	err = sqlx.GetContext(ctx, p.Config.Connection, &extsvc.ID, sqlCreateExtSvc,
		extsvc.Kind, extsvc.DisplayName, extsvc.Config, extsvc.CreatedAt, extsvc.UpdatedAt,
	)
	return
}

// Update applies the patch atomically: each present field is one conditional
// statement inside a single transaction, and a zero-row match on any of them
// fails the whole call with NotFoundError. A patch with no fields set is
// rejected with ErrValidation rather than committed as a no-op.
func (p *RepoPostgres) Update(ctx context.Context, id int64, update Update) (err error) {
	if update.DisplayName == nil && update.Config == nil {
		return fmt.Errorf("%w: update patch is empty", ErrValidation)
	}

	if update.Config != nil {
		if err = validateConfig(*update.Config); err != nil {
			return err
		}
	}

	tx, err := p.Config.Connection.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("cannot begin update transaction: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()

	execUpdate := func(query string, field interface{}) error {
		res, err := tx.ExecContext(ctx, query, field, now, id)
		if err != nil {
			return err
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}

		if affected == 0 {
			return NotFoundError{ID: id}
		}

		return nil
	}

	if update.DisplayName != nil {
		if err = execUpdate(sqlUpdateExtSvcDisplayName, *update.DisplayName); err != nil {
			return err
		}
	}

	if update.Config != nil {
		if err = execUpdate(sqlUpdateExtSvcConfig, *update.Config); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Delete soft-deletes the record. The row stays in the table with
// deleted_at set, so a second Delete on the same id reports not-found.
func (p *RepoPostgres) Delete(ctx context.Context, id int64) (err error) {
	res, err := p.Config.Connection.ExecContext(ctx, sqlSoftDeleteExtSvc, time.Now().UTC(), id)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if affected == 0 {
		return NotFoundError{ID: id}
	}

	return nil
}

// GetByID reuses the list query with an id condition so it goes through the
// same migration trigger and deleted_at filtering as every other read.
func (p *RepoPostgres) GetByID(ctx context.Context, id int64) (extsvc ExternalService, err error) {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "extsvcrepo.GetByID")
	defer span.End()

	conds, args := sqlConditions(ListOptions{})
	args = append(args, id)
	conds = append(conds, fmt.Sprintf("id = $%d", len(args)))

	services, err := p.list(ctx, conds, args, nil)
	if err != nil {
		return
	}

	if len(services) == 0 {
		err = NotFoundError{ID: id}
		return
	}

	extsvc = services[0]
	return
}

// List returns all non-deleted records matching opt, newest id first.
func (p *RepoPostgres) List(ctx context.Context, opt ListOptions) (services []ExternalService, err error) {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "extsvcrepo.List")
	defer span.End()

	conds, args := sqlConditions(opt)
	return p.list(ctx, conds, args, opt.LimitOffset)
}

// Count reports the full matching count, ignoring any pagination window.
func (p *RepoPostgres) Count(ctx context.Context, opt ListOptions) (total int64, err error) {
	conds, args := sqlConditions(opt)
	query := fmt.Sprintf(sqlCountExtSvc, strings.Join(conds, ") AND ("))

	err = sqlx.GetContext(ctx, p.Config.Connection, &total, query, args...)
	return
}

func sqlConditions(opt ListOptions) (conds []string, args []interface{}) {
	conds = []string{"deleted_at IS NULL"}
	if opt.Kind != "" {
		args = append(args, NormalizeKind(opt.Kind))
		conds = append(conds, fmt.Sprintf("kind = $%d", len(args)))
	}

	return conds, args
}

// list is the single read path. Triggering the legacy migration here means
// any direct query always sees fully-migrated data without explicit
// orchestration by callers; a failed migration never fails the read.
func (p *RepoPostgres) list(ctx context.Context, conds []string, args []interface{}, limitOffset *LimitOffset) (services []ExternalService, err error) {
	p.migrateLegacyConfig(ctx)

	query := fmt.Sprintf(sqlListExtSvc, strings.Join(conds, ") AND ("), limitOffset.SQL())

	services = make([]ExternalService, 0)
	err = sqlx.SelectContext(ctx, p.Config.Connection, &services, query, args...)
	if err != nil {
		err = fmt.Errorf("cannot get list of external services: %w", err)
		return
	}

	return services, nil
}

// listConfigs concatenates the config payloads of every non-deleted row of
// the given kind into one JSON array and decodes it into result.
func (p *RepoPostgres) listConfigs(ctx context.Context, kind string, result interface{}) error {
	services, err := p.List(ctx, ListOptions{Kind: kind})
	if err != nil {
		return err
	}

	configs := make([]json.RawMessage, 0, len(services))
	for _, service := range services {
		plain, err := jsonc.Parse([]byte(service.Config))
		if err != nil {
			return fmt.Errorf("stored config of external service id=%d is corrupt: %w", service.ID, err)
		}

		configs = append(configs, json.RawMessage(plain))
	}

	buf, err := json.Marshal(configs)
	if err != nil {
		return err
	}

	return json.Unmarshal(buf, result)
}

func (p *RepoPostgres) ListAWSCodeCommitConnections(ctx context.Context) (connections []*schema.AWSCodeCommitConnection, err error) {
	if !p.Config.SiteConfig.ExternalServicesEnabled() {
		return p.Config.SiteConfig.Site().AwsCodeCommit, nil
	}

	err = p.listConfigs(ctx, KindAWSCodeCommit, &connections)
	return
}

func (p *RepoPostgres) ListBitbucketServerConnections(ctx context.Context) (connections []*schema.BitbucketServerConnection, err error) {
	if !p.Config.SiteConfig.ExternalServicesEnabled() {
		return p.Config.SiteConfig.Site().BitbucketServer, nil
	}

	err = p.listConfigs(ctx, KindBitbucketServer, &connections)
	return
}

func (p *RepoPostgres) ListGitHubConnections(ctx context.Context) (connections []*schema.GitHubConnection, err error) {
	if !p.Config.SiteConfig.ExternalServicesEnabled() {
		return p.Config.SiteConfig.Site().Github, nil
	}

	err = p.listConfigs(ctx, KindGitHub, &connections)
	return
}

func (p *RepoPostgres) ListGitLabConnections(ctx context.Context) (connections []*schema.GitLabConnection, err error) {
	if !p.Config.SiteConfig.ExternalServicesEnabled() {
		return p.Config.SiteConfig.Site().Gitlab, nil
	}

	err = p.listConfigs(ctx, KindGitLab, &connections)
	return
}

func (p *RepoPostgres) ListGitoliteConnections(ctx context.Context) (connections []*schema.GitoliteConnection, err error) {
	if !p.Config.SiteConfig.ExternalServicesEnabled() {
		return p.Config.SiteConfig.Site().Gitolite, nil
	}

	err = p.listConfigs(ctx, KindGitolite, &connections)
	return
}

func (p *RepoPostgres) ListPhabricatorConnections(ctx context.Context) (connections []*schema.PhabricatorConnection, err error) {
	if !p.Config.SiteConfig.ExternalServicesEnabled() {
		return p.Config.SiteConfig.Site().Phabricator, nil
	}

	err = p.listConfigs(ctx, KindPhabricator, &connections)
	return
}
