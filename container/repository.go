package container

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/multierr"

	"github.com/priestd09/sourcegraph/internal/schema"
	"github.com/priestd09/sourcegraph/internal/svc/extsvcrepo"
	"github.com/priestd09/sourcegraph/internal/svc/siteconf"
	"github.com/priestd09/sourcegraph/pkg/cache"
	"github.com/priestd09/sourcegraph/pkg/multidb"
	"github.com/priestd09/sourcegraph/pkg/validator"
)

// Repositories is an abstraction layer to list down all repositories.
// This only will connect and save the repository.
// To use this, you must select the db label based on config file
type Repositories interface {
	io.Closer

	SiteConfig() siteconf.Provider
	ExtSvcRepo() (extsvcrepo.Repo, error)
}

// RepositoryImpl the real implementation of Repositories
type RepositoryImpl struct {
	conf       Config            `validate:"structonly"`
	siteConfig siteconf.Provider `validate:"required"`
	dbSqlConn  multidb.MultiDB   `validate:"required"` // all database connection
	redisConn  *RedisConnMaker
}

// Ensure that RepositoryImpl implements Repositories
var _ Repositories = (*RepositoryImpl)(nil)

// SetupRepositories return pointer because it heavily used.
// This will initialize all required dependencies to run.
// This will return RepositoryImpl instead Repositories,
// the reason is when SetupRepositories called it must be close in deferred mode, any passed value using interface
// won't let user Close any dependencies during run-time.
func SetupRepositories(ctx context.Context, conf Config) (*RepositoryImpl, error) {
	sqlDbConfig := multidb.DatabaseResources{}
	for name, conn := range conf.DatabaseResources {
		sqlDbConfig[name] = multidb.DatabaseResource{
			Disable:  conn.Disable,
			Driver:   multidb.Driver(conn.Driver),
			Postgres: multidb.GoSqlDb(conn.Postgres),
		}
	}

	dbSqlConn, err := multidb.NewSqlDbConnMaker(multidb.SqlDbConnMakerConfig{Config: sqlDbConfig})
	if err != nil {
		return nil, err
	}

	siteConfig, err := loadSiteConfig(conf.ExternalServices.LegacySiteFile)
	if err != nil {
		if _err := dbSqlConn.Close(); _err != nil {
			err = fmt.Errorf("%w: close db sql error: %s", err, _err)
		}

		return nil, err
	}

	var redisConn *RedisConnMaker
	if len(conf.Redis) > 0 {
		redisConn, err = NewRedisConnMaker(ctx, conf.Redis)
		if err != nil {
			if _err := dbSqlConn.Close(); _err != nil {
				err = fmt.Errorf("%w: close db sql error: %s", err, _err)
			}

			return nil, err
		}
	}

	dep := &RepositoryImpl{
		conf:       conf,
		siteConfig: siteConfig,
		dbSqlConn:  dbSqlConn,
		redisConn:  redisConn,
	}

	err = validator.Validate(dep)
	if err != nil {
		return nil, err
	}

	return dep, nil
}

// loadSiteConfig reads the legacy JSONC document when configured. With no
// legacy document the store runs purely from the database, so per-row
// storage is unconditionally on.
func loadSiteConfig(legacySiteFile string) (siteconf.Provider, error) {
	if legacySiteFile == "" {
		return siteconf.New(&schema.SiteConfiguration{ExternalServices: true}), nil
	}

	siteConfig, err := siteconf.Load(legacySiteFile)
	if err != nil {
		return nil, fmt.Errorf("prepare site config error: %w", err)
	}

	return siteConfig, nil
}

func (r *RepositoryImpl) SiteConfig() siteconf.Provider {
	return r.siteConfig
}

// ExtSvcRepo return extsvcrepo.Repo and return error when connection is closed or nil.
// This should never have caused panic.
func (r *RepositoryImpl) ExtSvcRepo() (repo extsvcrepo.Repo, err error) {
	dbLabel := r.conf.ExternalServices.DBLabel
	repoConnInfo, ok := r.conf.DatabaseResources[dbLabel]
	if !ok {
		err = fmt.Errorf("unknown database key %s on extSvcRepo", dbLabel)
		return
	}

	// for type postgres use sqlx
	sqlDriver := repoConnInfo.Driver
	switch sqlDriver {
	case "postgres":
		var sqlConn *sqlx.DB
		sqlConn, err = r.dbSqlConn.GetSqlx(multidb.Postgres, dbLabel)
		if err != nil {
			return
		}

		cfg := extsvcrepo.RepoPostgresConfig{
			Connection: sqlConn,
			SiteConfig: r.siteConfig,
		}

		repo, err = extsvcrepo.Postgres(cfg)
		if err != nil {
			return
		}

		return r.wrapCache(repo)

	default:
		err = fmt.Errorf("not supported db driver '%s' on label '%s'", sqlDriver, dbLabel)
		return
	}
}

// wrapCache puts the configured cache in front of the persistent repo.
func (r *RepositoryImpl) wrapCache(persistent extsvcrepo.Repo) (extsvcrepo.Repo, error) {
	cacheConf := r.conf.ExternalServices.Cache

	var cacheStore cache.Cache
	switch cacheConf.Driver {
	case "":
		return persistent, nil

	case "inmem":
		maxSize := cacheConf.MaxSizeBytes
		if maxSize <= 0 {
			maxSize = 32 * 1024 * 1024
		}

		cacheStore = cache.NewInMem(maxSize)

	case "redis":
		if r.redisConn == nil {
			return nil, fmt.Errorf("cache driver redis needs a redis connection config")
		}

		redisClient, err := r.redisConn.Get(cacheConf.RedisLabel)
		if err != nil {
			return nil, err
		}

		cacheStore, err = cache.NewRedis(cache.RedisConfig{Client: redisClient})
		if err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("unknown cache driver: %s", cacheConf.Driver)
	}

	expiry := time.Duration(cacheConf.ExpirySeconds) * time.Second
	if expiry <= 0 {
		expiry = time.Minute
	}

	prefix := cacheConf.PrefixKey
	if prefix == "" {
		prefix = "extsvc"
	}

	return extsvcrepo.NewCached(extsvcrepo.CachedConfig{
		Persistent:     persistent,
		CacheExpiry:    expiry,
		CachePrefixKey: prefix,
		Cache:          cacheStore,
	})
}

// Close will close all dependencies.
func (r *RepositoryImpl) Close() error {
	if r == nil {
		return nil
	}

	var err error
	if r.dbSqlConn != nil {
		if _err := r.dbSqlConn.Close(); _err != nil {
			err = multierr.Append(err, fmt.Errorf("close db error: %w", _err))
		}
	}

	if r.redisConn != nil {
		if _err := r.redisConn.CloseAll(); _err != nil {
			err = multierr.Append(err, fmt.Errorf("close redis error: %w", _err))
		}
	}

	return err
}
