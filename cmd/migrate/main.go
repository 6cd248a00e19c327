package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"

	"mining_hub/internal/migrations"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

func main() {
	down := flag.Bool("down", false, "roll back the most recent migration")
	flag.Parse()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		log.Fatalf("set dialect: %v", err)
	}

	ctx := context.Background()
	if *down {
		if err := goose.DownContext(ctx, db, "."); err != nil {
			log.Fatalf("migrate down: %v", err)
		}
		return
	}

	if err := goose.UpContext(ctx, db, "."); err != nil {
		log.Fatalf("migrate up: %v", err)
	}
}
