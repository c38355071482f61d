// Command migrate applies the schema for the Mix backend. Development
// profiles migrate automatically on connect; production runs this explicitly
// as a deploy step.
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"mix/internal/config"
	"mix/internal/database"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func usage() error {
	return fmt.Errorf("usage: go run ./cmd/migrate/main.go <auto|status>")
}

func run() error {
	flag.Parse()
	if flag.NArg() < 1 {
		return usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(flag.Arg(0))) {
	case "auto":
		if err := db.AutoMigrate(database.AllModels()...); err != nil {
			return fmt.Errorf("automigration failed: %w", err)
		}
		log.Println("automigrations applied")
	case "status":
		migrator := db.Migrator()
		for _, model := range database.AllModels() {
			state := "missing"
			if migrator.HasTable(model) {
				state = "present"
			}
			log.Printf("%-30T %s", model, state)
		}
	default:
		return usage()
	}

	return nil
}
