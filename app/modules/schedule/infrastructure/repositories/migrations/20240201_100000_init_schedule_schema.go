package schedulemigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	if err := Migrations.DiscoverCaller(); err != nil {
		panic(err)
	}
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating schedule schema...")

		_, err := db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS events (
				id BIGSERIAL PRIMARY KEY,
				name TEXT NOT NULL,
				description TEXT NOT NULL,
				room TEXT NOT NULL,
				zone TEXT NOT NULL,
				floor TEXT NOT NULL,
				minimum_section INTEGER NOT NULL DEFAULT 0
			);

			CREATE TABLE IF NOT EXISTS users (
				id BIGSERIAL PRIMARY KEY,
				name TEXT,
				email TEXT NOT NULL UNIQUE,
				interactive_done BOOLEAN NOT NULL DEFAULT FALSE,
				section INTEGER NOT NULL DEFAULT 1,
				class TEXT,
				admin BOOLEAN NOT NULL DEFAULT FALSE
			);
			CREATE INDEX IF NOT EXISTS idx_users_email ON users (email);

			CREATE TABLE IF NOT EXISTS event_users (
				event_id BIGINT NOT NULL REFERENCES events (id) ON DELETE CASCADE,
				user_id BIGINT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
				round INTEGER NOT NULL,
				joined_at TIMESTAMPTZ,
				left_at TIMESTAMPTZ,
				CONSTRAINT pk_event_users PRIMARY KEY (user_id, round)
			);
			CREATE INDEX IF NOT EXISTS idx_event_users_event_round ON event_users (event_id, round);

			CREATE TABLE IF NOT EXISTS round_max_users (
				round INTEGER NOT NULL,
				event_id BIGINT NOT NULL REFERENCES events (id) ON DELETE CASCADE,
				max_users INTEGER NOT NULL,
				CONSTRAINT pk_round_max_users PRIMARY KEY (round, event_id)
			);
		`)
		if err != nil {
			return fmt.Errorf("failed to create schedule schema: %w", err)
		}

		fmt.Println("Schedule schema created successfully!")
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping schedule schema...")

		_, err := db.ExecContext(ctx, `
			DROP TABLE IF EXISTS round_max_users;
			DROP TABLE IF EXISTS event_users;
			DROP TABLE IF EXISTS users;
			DROP TABLE IF EXISTS events;
		`)
		if err != nil {
			return fmt.Errorf("failed to drop schedule schema: %w", err)
		}

		fmt.Println("Schedule schema dropped successfully!")
		return nil
	})
}
