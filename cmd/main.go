package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/senyabanana/freight-bidding/internal/db"
	"github.com/senyabanana/freight-bidding/internal/handlers"
	"github.com/senyabanana/freight-bidding/internal/notify"
	"github.com/senyabanana/freight-bidding/internal/repository"
	"github.com/senyabanana/freight-bidding/internal/router"
	"github.com/senyabanana/freight-bidding/internal/router/config"
	"github.com/senyabanana/freight-bidding/internal/services"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatal("cannot load config:", err)
	}

	runDBMigration(cfg.MigrationURL, cfg.PostgresConn)

	dbPool, err := db.InitDb(cfg)
	if err != nil {
		log.Fatalf("error initializing database: %v", err)
	}
	defer dbPool.Close()

	logger := log.New(os.Stdout, "INFO: ", log.LstdFlags)

	repo := repository.NewPostgresRequestRepository(dbPool)

	var notifier notify.Notifier = notify.NewLogNotifier(logger)
	if telegram := notify.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatID); telegram.Enabled() {
		notifier = telegram
	}

	requestService := services.NewRequestService(repo, notifier, logger)
	offerService := services.NewOfferService(repo, notifier, logger)

	requestHandler := handlers.NewRequestHandler(requestService, logger, 5*time.Second)
	offerHandler := handlers.NewOfferHandler(offerService, logger, 5*time.Second)

	routes := router.InitRoutes(requestHandler, offerHandler)

	log.Printf("server is listening on %s...", cfg.ServerAddress)
	if err := http.ListenAndServe(cfg.ServerAddress, routes); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

func runDBMigration(migrationURL string, dbSource string) {
	migration, err := migrate.New(migrationURL, dbSource)
	if err != nil {
		log.Fatal("cannot create a new migrate instance", err)
	}

	if err = migration.Up(); err != nil && err != migrate.ErrNoChange {
		log.Fatal("failed to run migrate up:", err)
	}
	log.Println("db migrated successfully")
}
