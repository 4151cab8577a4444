package extsvcrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yusufsyaifudin/ylog"

	"github.com/priestd09/sourcegraph/internal/schema"
	"github.com/priestd09/sourcegraph/pkg/cache"
	"github.com/priestd09/sourcegraph/pkg/validator"
)

type CachedConfig struct {
	Persistent     Repo          `validate:"required"`
	CacheExpiry    time.Duration `validate:"required"`
	CachePrefixKey string        `validate:"required,alphanum"`
	Cache          cache.Cache   `validate:"required"`
}

// CachedRepo caches single-record reads in front of a persistent Repo.
// List, Count and the typed listings always hit the persistent store since
// any write elsewhere could invalidate them.
type CachedRepo struct {
	Config CachedConfig
}

var _ Repo = (*CachedRepo)(nil)

func NewCached(cfg CachedConfig) (*CachedRepo, error) {
	if err := validator.Validate(cfg); err != nil {
		return nil, err
	}

	return &CachedRepo{
		Config: cfg,
	}, nil
}

func (c *CachedRepo) Create(ctx context.Context, extsvc *ExternalService) error {
	err := c.Config.Persistent.Create(ctx, extsvc)
	if err != nil {
		return err
	}

	// if ok, save to cache using the generated id
	c.setByID(ctx, *extsvc)
	return nil
}

func (c *CachedRepo) Update(ctx context.Context, id int64, update Update) error {
	err := c.Config.Persistent.Update(ctx, id, update)
	if err != nil {
		return err
	}

	// drop stale entry, the next GetByID re-populates it
	return c.delByID(ctx, id)
}

func (c *CachedRepo) Delete(ctx context.Context, id int64) error {
	err := c.Config.Persistent.Delete(ctx, id)
	if err != nil {
		return err
	}

	return c.delByID(ctx, id)
}

func (c *CachedRepo) GetByID(ctx context.Context, id int64) (extsvc ExternalService, err error) {
	// Get from cache first
	extsvc, err = c.getByID(ctx, id)
	if err == nil && extsvc.ID == id {
		return
	}

	// If error occurred, then try get from persistent storage
	if err != nil && !errors.Is(err, cache.ErrKeyNotExist) {
		ylog.Error(ctx, fmt.Sprintf("external service id %d error get from cache", id), ylog.KV("error", err))
	}

	extsvc, err = c.Config.Persistent.GetByID(ctx, id)
	if err != nil {
		return
	}

	// Try cache, only log when error
	c.setByID(ctx, extsvc)
	return
}

// List of cached external services now will not use cache. It hard to maintain list in cache.
func (c *CachedRepo) List(ctx context.Context, opt ListOptions) ([]ExternalService, error) {
	return c.Config.Persistent.List(ctx, opt)
}

func (c *CachedRepo) Count(ctx context.Context, opt ListOptions) (int64, error) {
	return c.Config.Persistent.Count(ctx, opt)
}

func (c *CachedRepo) ListAWSCodeCommitConnections(ctx context.Context) ([]*schema.AWSCodeCommitConnection, error) {
	return c.Config.Persistent.ListAWSCodeCommitConnections(ctx)
}

func (c *CachedRepo) ListBitbucketServerConnections(ctx context.Context) ([]*schema.BitbucketServerConnection, error) {
	return c.Config.Persistent.ListBitbucketServerConnections(ctx)
}

func (c *CachedRepo) ListGitHubConnections(ctx context.Context) ([]*schema.GitHubConnection, error) {
	return c.Config.Persistent.ListGitHubConnections(ctx)
}

func (c *CachedRepo) ListGitLabConnections(ctx context.Context) ([]*schema.GitLabConnection, error) {
	return c.Config.Persistent.ListGitLabConnections(ctx)
}

func (c *CachedRepo) ListGitoliteConnections(ctx context.Context) ([]*schema.GitoliteConnection, error) {
	return c.Config.Persistent.ListGitoliteConnections(ctx)
}

func (c *CachedRepo) ListPhabricatorConnections(ctx context.Context) ([]*schema.PhabricatorConnection, error) {
	return c.Config.Persistent.ListPhabricatorConnections(ctx)
}

// -- cache

func (c *CachedRepo) genCacheKeyByID(id int64) string {
	return fmt.Sprintf("%s:%d", c.Config.CachePrefixKey, id)
}

func (c *CachedRepo) getByID(ctx context.Context, id int64) (ExternalService, error) {
	var extsvc ExternalService
	err := c.Config.Cache.GetAs(ctx, c.genCacheKeyByID(id), &extsvc)
	if err != nil {
		return ExternalService{}, err
	}

	ylog.Debug(ctx, fmt.Sprintf("get external service id %d from cache", id))
	return extsvc, nil
}

func (c *CachedRepo) setByID(ctx context.Context, extsvc ExternalService) {
	err := c.Config.Cache.SetExp(ctx, c.genCacheKeyByID(extsvc.ID), extsvc, c.Config.CacheExpiry)
	if err != nil {
		ylog.Error(ctx, fmt.Sprintf("cannot save cache external service id %d", extsvc.ID), ylog.KV("error", err))
		return
	}

	ylog.Debug(ctx, fmt.Sprintf("caching external service id %d", extsvc.ID))
}

func (c *CachedRepo) delByID(ctx context.Context, id int64) error {
	return c.Config.Cache.Delete(ctx, c.genCacheKeyByID(id))
}
