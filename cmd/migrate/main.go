// Command migrate applies or rolls back the schema migrations.
//
//	migrate up
//	migrate down
package main

import (
	"context"
	"fmt"
	"os"

	"leetmentor/internal/platform/config"
	"leetmentor/internal/platform/database"
	"leetmentor/internal/platform/logging"
)

func main() {
	if len(os.Args) != 2 || (os.Args[1] != "up" && os.Args[1] != "down") {
		fmt.Fprintln(os.Stderr, "usage: migrate up|down")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("invalid configuration")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	db, err := database.Connect(context.Background(), cfg.DBConnStr)
	if err != nil {
		logging.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()

	switch os.Args[1] {
	case "up":
		err = database.MigrateUp(db)
	case "down":
		err = database.MigrateDown(db)
	}
	if err != nil {
		logging.Error().Err(err).Str("direction", os.Args[1]).Msg("migration failed")
		os.Exit(1)
	}
	logging.Info().Str("direction", os.Args[1]).Msg("migration finished")
}
