package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	"intelhub/internal/auth"
	"intelhub/internal/config"
	"intelhub/internal/db"
	"intelhub/internal/hashing"
	"intelhub/internal/httpserver"
	"intelhub/internal/logging"
	"intelhub/internal/migrate"
	"intelhub/internal/users"
)

// env bundles what every command needs before it touches the database.
type env struct {
	cfg    config.Config
	logger *slog.Logger
	hasher *hashing.Manager
}

func loadEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	hasher, err := hashing.New(hashing.Options{
		Driver:     hashing.Format(cfg.HashDriver),
		BcryptCost: cfg.BcryptCost,
	})
	if err != nil {
		return nil, fmt.Errorf("configure hashing: %w", err)
	}
	return &env{cfg: cfg, logger: logger, hasher: hasher}, nil
}

func (e *env) openDB(ctx context.Context) (*sql.DB, error) {
	conn, err := db.Open(ctx, e.cfg.DBDriver, e.cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return conn, nil
}

func (e *env) service(conn *sql.DB) (*auth.Service, *users.Store) {
	store := users.NewStore(conn)
	svc := auth.NewService(store, e.hasher, e.logger, auth.Options{
		DistinctLoginErrors: e.cfg.DistinctLoginErrors,
	})
	return svc, store
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP API",
		Action: func(c *cli.Context) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			conn, err := e.openDB(c.Context)
			if err != nil {
				return err
			}
			defer conn.Close()

			if err := db.RunMigrations(c.Context, conn); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}

			svc, store := e.service(conn)
			handler := httpserver.NewRouter(e.logger, svc, auth.NewAdmin(store, e.logger))
			server := httpserver.New(e.cfg.HTTPAddr, handler, e.logger)

			errCh := make(chan error, 1)
			go func() { errCh <- server.Start() }()

			select {
			case err := <-errCh:
				return fmt.Errorf("http server: %w", err)
			case <-c.Context.Done():
			}

			ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(ctxShutdown); err != nil {
				e.logger.Error("shutdown error", "err", err)
			}
			return nil
		},
	}
}

func setupCommand() *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "create the schema and migrate legacy credentials",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "legacy", Usage: "flat credential file (overrides INTELHUB_LEGACY_USERS_PATH)"},
			&cli.StringFlag{Name: "seed", Usage: "YAML seed file (overrides INTELHUB_SEED_USERS_PATH)"},
		},
		Action: func(c *cli.Context) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			legacy := e.cfg.LegacyUsersPath
			if v := c.String("legacy"); v != "" {
				legacy = v
			}
			seed := e.cfg.SeedUsersPath
			if v := c.String("seed"); v != "" {
				seed = v
			}

			conn, err := e.openDB(c.Context)
			if err != nil {
				return err
			}
			defer conn.Close()

			sum, err := migrate.Setup{
				DB:       conn,
				Legacy:   users.NewFileStore(legacy),
				Hasher:   e.hasher,
				Logger:   e.logger,
				SeedPath: seed,
			}.Run(c.Context)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "migrated %d, skipped %d, refused %d, seeded %d, %d users total\n",
				sum.Report.Migrated, sum.Report.Skipped, sum.Report.Refused, sum.Seeded, sum.Users)
			return nil
		},
	}
}

func userCommand() *cli.Command {
	usernameFlag := &cli.StringFlag{Name: "username", Aliases: []string{"u"}, Required: true}
	passwordFlag := &cli.StringFlag{Name: "password", Aliases: []string{"p"}, Required: true}

	return &cli.Command{
		Name:  "user",
		Usage: "manage accounts",
		Subcommands: []*cli.Command{
			{
				Name:  "register",
				Usage: "create an account",
				Flags: []cli.Flag{
					usernameFlag,
					passwordFlag,
					&cli.StringFlag{Name: "confirm", Usage: "repeat the password; defaults to --password"},
					&cli.StringFlag{Name: "role", Value: string(users.RoleUser)},
				},
				Action: withService(func(c *cli.Context, svc *auth.Service, _ *auth.Admin) error {
					confirm := c.String("password")
					if c.IsSet("confirm") {
						confirm = c.String("confirm")
					}
					out := svc.RegisterOutcome(c.Context, auth.Registration{
						Username: c.String("username"),
						Password: c.String("password"),
						Confirm:  confirm,
						Role:     c.String("role"),
					})
					return report(c, out)
				}),
			},
			{
				Name:  "login",
				Usage: "check a username and password",
				Flags: []cli.Flag{usernameFlag, passwordFlag},
				Action: withService(func(c *cli.Context, svc *auth.Service, _ *auth.Admin) error {
					return report(c, svc.LoginOutcome(c.Context, c.String("username"), c.String("password")))
				}),
			},
			{
				Name:  "role",
				Usage: "change an account's role",
				Flags: []cli.Flag{
					usernameFlag,
					&cli.StringFlag{Name: "role", Required: true},
				},
				Action: withService(func(c *cli.Context, _ *auth.Service, admin *auth.Admin) error {
					n, err := admin.UpdateRole(c.Context, c.String("username"), c.String("role"))
					if err != nil {
						return err
					}
					if n == 0 {
						return cli.Exit(fmt.Sprintf("no such user %q", c.String("username")), 1)
					}
					fmt.Fprintln(c.App.Writer, "role updated")
					return nil
				}),
			},
			{
				Name:  "delete",
				Usage: "remove an account",
				Flags: []cli.Flag{usernameFlag},
				Action: withService(func(c *cli.Context, _ *auth.Service, admin *auth.Admin) error {
					n, err := admin.Delete(c.Context, c.String("username"))
					if err != nil {
						return err
					}
					if n == 0 {
						return cli.Exit(fmt.Sprintf("no such user %q", c.String("username")), 1)
					}
					fmt.Fprintln(c.App.Writer, "user deleted")
					return nil
				}),
			},
			{
				Name:  "list",
				Usage: "list accounts",
				Action: withService(func(c *cli.Context, _ *auth.Service, admin *auth.Admin) error {
					list, err := admin.List(c.Context)
					if err != nil {
						return err
					}
					tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
					fmt.Fprintln(tw, "ID\tUSERNAME\tROLE\tCREATED")
					for _, u := range list {
						fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", u.ID, u.Username, u.Role, u.CreatedAt.Format(time.RFC3339))
					}
					return tw.Flush()
				}),
			},
		},
	}
}

func withService(fn func(*cli.Context, *auth.Service, *auth.Admin) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		conn, err := e.openDB(c.Context)
		if err != nil {
			return err
		}
		defer conn.Close()

		svc, store := e.service(conn)
		return fn(c, svc, auth.NewAdmin(store, e.logger))
	}
}

func report(c *cli.Context, out auth.Outcome) error {
	if !out.Success {
		return cli.Exit(out.Message, 1)
	}
	if out.Role != nil {
		fmt.Fprintf(c.App.Writer, "%s (role: %s)\n", out.Message, *out.Role)
		return nil
	}
	fmt.Fprintln(c.App.Writer, out.Message)
	return nil
}
