package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"finbook/internal/budget"
	"finbook/internal/config"
	"finbook/internal/database"
	"finbook/internal/ledger"
	"finbook/internal/notify"
	"finbook/internal/router"
)

func main() {
	// load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// ensure basic directories exist
	if err := ensureDir(filepath.Dir(cfg.Database.Path)); err != nil {
		log.Fatalf("create data dir: %v", err)
	}

	// init database
	db, err := database.Init(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}

	// run migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	// notification sink: NATS when configured, log-only otherwise
	var notifier notify.Notifier
	if cfg.Notify.URL != "" {
		natsNotifier, err := notify.Connect(cfg.Notify.URL, cfg.Notify.Subject)
		if err != nil {
			log.Fatalf("connect notifier: %v", err)
		}
		defer natsNotifier.Close()
		notifier = natsNotifier
	} else {
		notifier = &notify.LogNotifier{Log: slog.Default()}
	}

	ledgerEngine := ledger.NewEngine(db, notifier, ledger.Config{
		NotifyTimeout:      time.Duration(cfg.Notify.TimeoutMS) * time.Millisecond,
		DefaultCurrency:    cfg.App.DefaultCurrency,
		ReconcileTolerance: time.Duration(cfg.Ledger.ReconcileToleranceSec) * time.Second,
	})
	budgetEngine := budget.NewEngine(db, slog.Default())

	// setup router
	r := router.SetupRouter(cfg, db, ledgerEngine, budgetEngine)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port)
	log.Printf("server listening on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("run server: %v", err)
	}
}

func ensureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
