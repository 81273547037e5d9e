package main

import (
	"flag"
	"os"

	"github.com/joho/godotenv"
	"github.com/unsaid-app/backend/internal/database"
	"github.com/unsaid-app/backend/internal/logger"
	"github.com/unsaid-app/backend/internal/seed"
)

func main() {
	env := flag.String("env", "dev", "seed profile: dev or test")
	clean := flag.Bool("clean", false, "delete all seeded data first")
	flag.Parse()

	_ = godotenv.Load()

	if err := logger.Initialize(os.Getenv("LOG_LEVEL"), ""); err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer logger.Close()

	if err := database.Initialize(); err != nil {
		logger.FatalWithFields("Failed to initialize database", err)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		logger.FatalWithFields("Failed to run migrations", err)
	}

	seeder := seed.NewSeeder(database.DB)

	if *clean {
		logger.Log.Info("Cleaning existing data")
		if err := seeder.Clean(); err != nil {
			logger.FatalWithFields("Failed to clean database", err)
		}
	}

	switch *env {
	case "dev":
		if err := seeder.SeedDev(); err != nil {
			logger.FatalWithFields("Failed to seed dev data", err)
		}
	case "test":
		if err := seeder.SeedTest(); err != nil {
			logger.FatalWithFields("Failed to seed test data", err)
		}
	default:
		logger.Log.Fatal("Unknown seed profile: " + *env)
	}

	logger.Log.Info("Seeding complete")
}
