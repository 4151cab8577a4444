package migrate

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/mitchellh/cli"
	"github.com/satori/uuid"
	"github.com/yusufsyaifudin/ylog"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/priestd09/sourcegraph/assets/migrations/pgsql_extsvcrepo"
	"github.com/priestd09/sourcegraph/container"
	"github.com/priestd09/sourcegraph/pkg/migration"
	"github.com/priestd09/sourcegraph/pkg/multidb"
	"github.com/priestd09/sourcegraph/pkg/tracer"
)

const (
	ExitSuccess = 0
	ExitErr     = -1

	migrationTable = "migration_records_extsvc_repo"
)

// Cmd migrates the external services schema. Directions: up, down, print.
type Cmd struct {
	flags      *flag.FlagSet
	configFile string
}

func NewCmd() func() (cli.Command, error) {
	return func() (cli.Command, error) {
		cmd := &Cmd{
			flags: &flag.FlagSet{},
		}
		err := cmd.init()
		return cmd, err
	}
}

var _ cli.Command = (*Cmd)(nil)
var _ cli.CommandFactory = NewCmd()

func (c *Cmd) init() error {
	c.flags = flag.NewFlagSet("", flag.ContinueOnError)
	c.flags.StringVar(&c.configFile, "config", "config.yml",
		"Config file to load")
	c.flags.StringVar(&c.configFile, "c", "config.yml",
		"Alias for config file to load")
	return nil
}

func (c *Cmd) Help() string {
	return `Migrate the external services database schema.

Usage: migrate [-c config.yml] <up|down|print>`
}

func (c *Cmd) Synopsis() string {
	return `Migrate the external services database schema`
}

func (c *Cmd) Run(args []string) int {
	err := c.flags.Parse(args)
	if err != nil {
		log.Printf("error parsing config argument: %s", err)
		return ExitErr
	}

	direction := "up"
	if rest := c.flags.Args(); len(rest) > 0 {
		direction = rest[0]
	}

	ctx := setupLog(context.Background())

	cfg, err := container.LoadConfig(c.configFile)
	if err != nil {
		ylog.Error(ctx, "error load config", ylog.KV("error", err))
		return ExitErr
	}

	if err := c.migrate(ctx, cfg, direction); err != nil {
		ylog.Error(ctx, "migration failed", ylog.KV("error", err))
		return ExitErr
	}

	return ExitSuccess
}

func (c *Cmd) migrate(ctx context.Context, cfg container.Config, direction string) (err error) {
	migrations := []migration.Migrate{
		new(pgsql_extsvcrepo.CreateExternalServicesTable1672756395),
	}

	if direction == "print" {
		for _, mig := range migrations {
			fmt.Println(mig.ID(ctx))

			sqlUp, _ := mig.Up(ctx)
			fmt.Println(sqlUp)
		}

		return nil
	}

	dbLabel := cfg.ExternalServices.DBLabel
	dbConf, ok := cfg.DatabaseResources[dbLabel]
	if !ok {
		return fmt.Errorf("unknown database key %s on extSvcRepo", dbLabel)
	}

	sqlDbConfig := multidb.DatabaseResources{}
	for name, conn := range cfg.DatabaseResources {
		sqlDbConfig[name] = multidb.DatabaseResource{
			Disable:  conn.Disable,
			Driver:   multidb.Driver(conn.Driver),
			Postgres: multidb.GoSqlDb(conn.Postgres),
		}
	}

	dbSqlConn, err := multidb.NewSqlDbConnMaker(multidb.SqlDbConnMakerConfig{Config: sqlDbConfig})
	if err != nil {
		return err
	}

	defer func() {
		if _err := dbSqlConn.Close(); _err != nil {
			ylog.Error(ctx, "error close db", ylog.KV("error", _err))
		}
	}()

	sqlConn, err := dbSqlConn.GetSqlx(multidb.Driver(dbConf.Driver), dbLabel)
	if err != nil {
		return err
	}

	if err = sqlConn.Ping(); err != nil {
		return fmt.Errorf("ping db error: %w", err)
	}

	ylog.Info(ctx, "trying to migrate")
	mig, err := migration.NewSQLImmigration(ctx, migration.SQLImmigrationConfig{
		Dialect:        dbConf.Driver,
		DB:             sqlConn.DB,
		MigrationTable: migrationTable,
		Migrations:     migrations,
	})
	if err != nil {
		return fmt.Errorf("prepare immigration error: %w", err)
	}

	switch direction {
	case "up":
		err = mig.Up()
	case "down":
		err = mig.Down()
	default:
		err = fmt.Errorf("unknown migration direction: %s", direction)
	}

	if err != nil {
		return err
	}

	ylog.Info(ctx, fmt.Sprintf("migration %s: done", direction))
	return nil
}

func setupLog(ctx context.Context) context.Context {
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zapcore.EncoderConfig{
			TimeKey:        "ts",
			MessageKey:     "msg",
			EncodeDuration: zapcore.MillisDurationEncoder,
			EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
			LineEnding:     zapcore.DefaultLineEnding,
			LevelKey:       "level",
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
		}),
		zapcore.NewMultiWriteSyncer(zapcore.AddSync(os.Stdout)),
		zapcore.DebugLevel,
	)

	traceLog, err := ylog.NewTracer(tracer.LogData{
		RemoteAddr: "system",
		TraceID:    uuid.NewV4().String(),
	}, ylog.WithTag("tracer"))
	if err != nil {
		log.Fatalf("error prepare tracer system data: %s", err)
		return ctx
	}

	ctx = ylog.Inject(ctx, traceLog)
	ylog.SetGlobalLogger(ylog.NewZap(zap.New(core)))

	return ctx
}
