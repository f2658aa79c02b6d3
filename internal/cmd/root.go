// Package cmd implements the tasktracker command line.
package cmd

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"taskTracker/internal/auth"
	"taskTracker/internal/config"
	"taskTracker/internal/db"
	"taskTracker/internal/logging"
	"taskTracker/internal/policy"
	"taskTracker/internal/service"
	"taskTracker/repository"
)

type rootOptions struct {
	configFile string
	dev        bool
}

// NewRootCmd returns the tasktracker root command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "tasktracker",
		Short: "Role-scoped task tracker",
		Long: `tasktracker serves a task tracking API over REST and gRPC.
Superadmins see every task, admins see the tasks they created and users see
the tasks assigned to them.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "config file (YAML); env vars prefixed "+config.EnvPrefix+"_ override it")
	root.PersistentFlags().BoolVar(&opts.dev, "dev", false, "fall back to a development JWT secret when none is configured")

	root.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newCreateSuperadminCmd(opts),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// load reads configuration. Commands that never sign or verify tokens pass
// needSecret=false and do not require auth.jwt_secret.
func (o *rootOptions) load(needSecret bool) (*config.Config, error) {
	v, err := config.New(o.configFile)
	if err != nil {
		return nil, err
	}
	if o.dev || !needSecret {
		return config.LoadWithDefaults(v)
	}
	return config.Load(v)
}

// app holds everything built from configuration.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	db       *sql.DB
	users    *repository.UserRepository
	tokens   *repository.TokenRepository
	authn    *auth.Authenticator
	tasks    *service.TaskService
	accounts *service.AccountService
}

func (o *rootOptions) build(cmd *cobra.Command, needSecret bool) (*app, error) {
	cfg, err := o.load(needSecret)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger := logging.Setup(cmd.ErrOrStderr(), cfg.Logging.Level)
	logger.Debug("configuration loaded", slog.String("config", cfg.String()))

	d, err := db.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	users := repository.NewUserRepository(d)
	tasks := repository.NewTaskRepository(d)
	tokens := repository.NewTokenRepository(d)
	pol := policy.New(policy.Options{AllowUserCreateTasks: cfg.Policy.AllowUserCreateTasks})
	val := service.NewValidator()

	return &app{
		cfg:    cfg,
		logger: logger,
		db:     d,
		users:  users,
		tokens: tokens,
		authn:  auth.NewAuthenticator(cfg.Auth.JWTSecret, tokens),
		tasks:  service.NewTaskService(tasks, users, pol, val, logger),
		accounts: &service.AccountService{
			Users:      users,
			Tokens:     tokens,
			Issuer:     auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
			Policy:     pol,
			Validator:  val,
			BcryptCost: cfg.Auth.BcryptCost,
			Logger:     logger,
		},
	}, nil
}

func (a *app) close() {
	if err := a.db.Close(); err != nil {
		a.logger.Error("close db", slog.String("error", err.Error()))
	}
}
