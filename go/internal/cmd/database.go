package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/tradeengine/go/internal/dbconfig"
	"github.com/mcdev12/tradeengine/go/internal/store"
)

func setupDatabase(ctx context.Context) (*sql.DB, *store.PostgresStore, error) {
	dbConfig := dbconfig.NewConfigFromEnv()

	database, err := dbConfig.Open()
	if err != nil {
		return nil, nil, err
	}

	if err := database.PingContext(ctx); err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	repo := store.NewPostgresStore(database)
	if err := repo.Migrate(ctx); err != nil {
		database.Close()
		return nil, nil, err
	}

	log.Info().
		Str("user", dbConfig.User).
		Str("host", dbConfig.Host).
		Int("port", dbConfig.Port).
		Str("database", dbConfig.Database).
		Msg("connected to database")
	return database, repo, nil
}
