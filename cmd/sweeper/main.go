package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dawei41468/CardGameApp/pkg/engine"
	"github.com/dawei41468/CardGameApp/pkg/log"
	"github.com/dawei41468/CardGameApp/pkg/presence"
	"github.com/dawei41468/CardGameApp/pkg/repositories"
	"github.com/dawei41468/CardGameApp/pkg/store/firebase"
	"github.com/dawei41468/CardGameApp/pkg/version"
)

func main() {
	logLevel := flag.String("log-level", "info", "Log level")
	firebaseURL := flag.String("firebase-url", "", "Firebase Realtime Database URL")
	firebaseCredentials := flag.String("firebase-credentials", "", "Path to Firebase service account credentials")
	interval := flag.Duration("interval", 5*time.Minute, "Sweep interval")
	once := flag.Bool("once", false, "Run a single sweep and exit")
	archiveBackend := flag.String("archive", "postgres", "Room archive backend (none, sqlite, or postgres)")
	sqlitePath := flag.String("sqlite-path", "archives.db", "Path to the SQLite archive database")
	flag.Parse()

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}

	logger := log.New(os.Stdout, "", log.DefaultLoggerFlag, parsedLogLevel)
	log.SetDefaultLogger(logger)

	log.Info("Starting sweeper version %s", version.Get())
	ctx := context.Background()

	if *firebaseURL == "" {
		panic("firebase-url must be set")
	}
	firebaseStore, err := firebase.NewStore(ctx, firebase.NewStoreOptions{
		DatabaseURL:     *firebaseURL,
		CredentialsFile: *firebaseCredentials,
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to create firebase store: %v", err))
	}
	defer firebaseStore.Close(ctx)

	var repository repositories.Repository
	switch *archiveBackend {
	case "none":
	case "sqlite":
		repository, err = repositories.NewSQLiteRepository(ctx, *sqlitePath)
		if err != nil {
			panic(fmt.Sprintf("Failed to create sqlite repository: %v", err))
		}
		defer repository.Close(ctx)
	case "postgres":
		connStr := os.Getenv("DATABASE_URL")
		if connStr == "" {
			panic("DATABASE_URL environment variable must be set")
		}
		repository, err = repositories.NewPostgresRepository(ctx, connStr)
		if err != nil {
			panic(fmt.Sprintf("Failed to create postgres repository: %v", err))
		}
		defer repository.Close(ctx)
	default:
		panic(fmt.Sprintf("Unknown archive backend %q", *archiveBackend))
	}

	gameEngine := engine.NewEngine(engine.NewEngineOptions{
		Store: firebaseStore,
	})

	var archiver engine.Archiver
	if repository != nil {
		archiver = repository
	}

	sweeper := presence.NewSweeper(presence.NewSweeperOptions{
		Engine:   gameEngine,
		Archiver: archiver,
		Interval: *interval,
	})

	if *once {
		if err := sweeper.SweepOnce(ctx); err != nil {
			panic(fmt.Sprintf("Sweep failed: %v", err))
		}
		return
	}

	log.Info("Sweeping every %s", *interval)
	sweeper.Start(ctx)
}
