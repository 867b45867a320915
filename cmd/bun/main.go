package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
	"github.com/urfave/cli/v2"

	scheduledb "github.com/polp-online/schedule-service/app/modules/schedule/infrastructure/repositories"
	schedulemigrations "github.com/polp-online/schedule-service/app/modules/schedule/infrastructure/repositories/migrations"
	"github.com/polp-online/schedule-service/config"
	"github.com/polp-online/schedule-service/internal/db/bundb"
	"github.com/polp-online/schedule-service/internal/seed"
)

func main() {
	configFile := flag.String("config", "config.yaml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := bundb.NewDB(cfg.Postgres.DSN)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	migrator := migrate.NewMigrator(db, schedulemigrations.Migrations)

	cliApp := &cli.App{
		Name: "bun",
		Commands: []*cli.Command{
			newDBCommand(migrator),
			newSeedCommand(db),
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newDBCommand(migrator *migrate.Migrator) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "database migrations",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "create migration tables",
				Action: func(c *cli.Context) error {
					return migrator.Init(c.Context)
				},
			},
			{
				Name:  "migrate",
				Usage: "migrate database",
				Action: func(c *cli.Context) error {
					group, err := migrator.Migrate(c.Context)
					if err != nil {
						return err
					}
					if group.IsZero() {
						fmt.Println("no new migrations to run")
					} else {
						fmt.Printf("migrated to %s\n", group)
					}
					return nil
				},
			},
			{
				Name:  "rollback",
				Usage: "rollback the last migration group",
				Action: func(c *cli.Context) error {
					group, err := migrator.Rollback(c.Context)
					if err != nil {
						return err
					}
					if group.IsZero() {
						fmt.Println("no groups to roll back")
					} else {
						fmt.Printf("rolled back %s\n", group)
					}
					return nil
				},
			},
		},
	}
}

func newSeedCommand(db *bun.DB) *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "import activity and roster files",
		Subcommands: []*cli.Command{
			{
				Name:      "events",
				Usage:     "import the activity workbook (xlsx)",
				ArgsUsage: "<file.xlsx>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return fmt.Errorf("usage: seed events <file.xlsx>")
					}
					return seedEvents(c.Context, db, c.Args().First())
				},
			},
			{
				Name:      "users",
				Usage:     "import the participant roster (csv)",
				ArgsUsage: "<file.csv>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return fmt.Errorf("usage: seed users <file.csv>")
					}
					return seedUsers(c.Context, db, c.Args().First())
				},
			},
		},
	}
}

func seedEvents(ctx context.Context, db *bun.DB, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	parsed, err := seed.ParseEventsWorkbook(f)
	if err != nil {
		return fmt.Errorf("failed to parse workbook: %w", err)
	}

	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, e := range parsed {
			event := &scheduledb.Event{
				Name:           e.Name,
				Description:    e.Name,
				Room:           e.Room,
				Zone:           e.Zone,
				Floor:          e.Floor,
				MinimumSection: e.MinimumSection,
			}
			if _, err := tx.NewInsert().Model(event).Exec(ctx); err != nil {
				return fmt.Errorf("failed to insert event %q: %w", e.Name, err)
			}

			capacities := make([]scheduledb.RoundMaxUsers, 0, len(e.Capacities))
			for _, c := range e.Capacities {
				capacities = append(capacities, scheduledb.RoundMaxUsers{
					Round:    c.Round,
					EventID:  event.ID,
					MaxUsers: c.MaxUsers,
				})
			}
			if _, err := tx.NewInsert().Model(&capacities).Exec(ctx); err != nil {
				return fmt.Errorf("failed to insert capacities for %q: %w", e.Name, err)
			}

			fmt.Printf("seeded event %q (%d rounds)\n", e.Name, len(capacities))
		}
		return nil
	})
}

func seedUsers(ctx context.Context, db *bun.DB, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	records, err := seed.ParseUsersCSV(f)
	if err != nil {
		return fmt.Errorf("failed to parse roster: %w", err)
	}

	users := make([]scheduledb.User, 0, len(records))
	for _, r := range records {
		name := r.Name
		users = append(users, scheduledb.User{
			Name:    &name,
			Email:   r.Email,
			Section: r.Section,
		})
	}

	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().
			Model(&users).
			On("CONFLICT (email) DO NOTHING").
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert users: %w", err)
		}
		fmt.Printf("seeded %d users\n", len(users))
		return nil
	})
}
