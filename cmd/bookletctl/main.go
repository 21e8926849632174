package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/iliyamo/bookletify-api/internal/cli"
	"github.com/iliyamo/bookletify-api/internal/config"
	"github.com/iliyamo/bookletify-api/internal/database"
	"github.com/iliyamo/bookletify-api/internal/repository"
)

func main() {
	_ = godotenv.Load()

	open := func(ctx context.Context) (cli.Backend, func(), error) {
		db, err := database.Open(config.LoadDatabase())
		if err != nil {
			return cli.Backend{}, nil, err
		}
		return cli.Backend{
			Users:   repository.NewUserRepo(db),
			Admin:   repository.NewAdminRepo(db),
			Migrate: func(ctx context.Context) error { return database.Migrate(ctx, db) },
		}, func() { _ = db.Close() }, nil
	}

	if err := cli.NewRootCmd(open).Execute(); err != nil {
		log.SetFlags(0)
		log.Println(err)
		os.Exit(1)
	}
}
