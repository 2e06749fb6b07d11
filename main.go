package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/unionhall/gameshelf/cli"
	"github.com/unionhall/gameshelf/collection"
	"github.com/unionhall/gameshelf/config"
	"github.com/unionhall/gameshelf/gateway"
	"github.com/unionhall/gameshelf/session"
	"go.uber.org/zap"
)

func main() {
	cfgPath := defaultConfigPath()
	if env := os.Getenv("GAMESHELF_CONFIG"); env != "" {
		cfgPath = env
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logger ----
	var logger *zap.Logger
	var logErr error
	if cfg.Client.Debug {
		logger, logErr = zap.NewDevelopment()
	} else {
		logger, logErr = zap.NewProduction()
	}
	if logErr != nil {
		log.Fatalf("logger: %v", logErr)
	}
	defer logger.Sync()

	// ---- Services ----
	gw := gateway.New(cfg.API, logger)
	store := session.NewStore(cfg.Session.CredentialFile)
	sessions := session.NewController(gw, store, cfg.Session, logger)
	defer sessions.Close()

	mgr := collection.NewManager(gw, sessions, logger)

	// Resume a persisted session if one is still live. Failure just means
	// starting out as a guest.
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	if err := sessions.Restore(ctx); err != nil {
		logger.Warn("could not resume previous session", zap.Error(err))
	}
	cancel()

	app := &cli.App{Sessions: sessions, Collection: mgr, Logger: logger}
	if err := cli.NewRootCmd(app).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(dir, "gameshelf", "config.yaml")
}
