package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/dawei41468/CardGameApp/pkg/engine"
	"github.com/dawei41468/CardGameApp/pkg/gateway"
	"github.com/dawei41468/CardGameApp/pkg/log"
	"github.com/dawei41468/CardGameApp/pkg/presence"
	"github.com/dawei41468/CardGameApp/pkg/repositories"
	"github.com/dawei41468/CardGameApp/pkg/store"
	"github.com/dawei41468/CardGameApp/pkg/store/firebase"
	"github.com/dawei41468/CardGameApp/pkg/store/memory"
	"github.com/dawei41468/CardGameApp/pkg/version"
)

func main() {
	port := flag.Int("port", 8080, "HTTP port to listen on")
	logLevel := flag.String("log-level", "info", "Log level")
	storeBackend := flag.String("store", "memory", "Store backend (memory or firebase)")
	firebaseURL := flag.String("firebase-url", "", "Firebase Realtime Database URL")
	firebaseCredentials := flag.String("firebase-credentials", "", "Path to Firebase service account credentials")
	archiveBackend := flag.String("archive", "memory", "Room archive backend (none, memory, sqlite, or postgres)")
	sqlitePath := flag.String("sqlite-path", "archives.db", "Path to the SQLite archive database")
	certFile := flag.String("cert-file", "", "Path to TLS certificate file")
	keyFile := flag.String("key-file", "", "Path to TLS key file")
	flag.Parse()

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}

	logger := log.New(os.Stdout, "", log.DefaultLoggerFlag, parsedLogLevel)
	log.SetDefaultLogger(logger)
	log.Info("Log level set to %s", parsedLogLevel)

	log.Info("Starting gateway version %s", version.Get())
	ctx := context.Background()

	var storeClient store.Store
	switch *storeBackend {
	case "memory":
		storeClient = memory.NewBackend().NewClient()
	case "firebase":
		if *firebaseURL == "" {
			panic("firebase-url must be set for the firebase store backend")
		}
		firebaseStore, err := firebase.NewStore(ctx, firebase.NewStoreOptions{
			DatabaseURL:     *firebaseURL,
			CredentialsFile: *firebaseCredentials,
		})
		if err != nil {
			panic(fmt.Sprintf("Failed to create firebase store: %v", err))
		}
		defer firebaseStore.Close(ctx)
		storeClient = firebaseStore
	default:
		panic(fmt.Sprintf("Unknown store backend %q", *storeBackend))
	}

	var repository repositories.Repository
	switch *archiveBackend {
	case "none":
	case "memory":
		repository = repositories.NewInMemoryRepository()
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
		Store: storeClient,
	})

	sessionManager := presence.NewSessionManager(presence.NewSessionManagerOptions{
		Store:  storeClient,
		Engine: gameEngine,
	})

	var tlsConfig *gateway.TLSConfig
	if *certFile != "" && *keyFile != "" {
		tlsConfig = &gateway.TLSConfig{
			CertFile: *certFile,
			KeyFile:  *keyFile,
		}
	}

	server := gateway.NewServer(gateway.NewServerOptions{
		Port:           *port,
		TLS:            tlsConfig,
		Engine:         gameEngine,
		SessionManager: sessionManager,
		Repository:     repository,
		BaseContext:    ctx,
	})

	log.Info("Starting gateway")
	server.Start()
}
