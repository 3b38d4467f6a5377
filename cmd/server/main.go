package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jdriscoll/go-social/internal/api"
	"github.com/jdriscoll/go-social/internal/cleanup"
	"github.com/jdriscoll/go-social/internal/config"
	"github.com/jdriscoll/go-social/internal/database"
	"github.com/jdriscoll/go-social/internal/server"
	"github.com/jdriscoll/go-social/internal/stats"
	_ "github.com/lib/pq"
)

const defaultSigningKey = "mMN0AHulWScXuxGkJ0MNqvJaHqfZ4t/kCijlYK10uzw="

type stringSliceFlag []string

func (s *stringSliceFlag) String() string {
	return strings.Join(*s, ",")
}

func (s *stringSliceFlag) Set(value string) error {
	*s = append(*s, strings.Split(value, ",")...)
	return nil
}

var (
	addr            string
	dsn             string
	signingKey      string
	allowedOrigins  stringSliceFlag
	cleanupInterval time.Duration
)

func main() {
	envCfg, err := config.FromEnv()
	if err != nil {
		log.Fatal("config from env:", err)
	}

	if envCfg.SigningSecret == "" {
		envCfg.SigningSecret = defaultSigningKey
	}
	if envCfg.DatabaseDSN == "" {
		envCfg.DatabaseDSN = "host=localhost user=postgres password=postgres dbname=postgres sslmode=disable"
	}

	flag.StringVar(&addr, "addr", envCfg.ServerAddr, "server address")
	flag.StringVar(&dsn, "dsn", envCfg.DatabaseDSN, "database connection string")
	flag.StringVar(&signingKey, "signing-key", envCfg.SigningSecret, "base64 encoded signing key")
	flag.Var(&allowedOrigins, "allowed-origins", "comma-separated list of allowed origins for CORS")
	flag.DurationVar(&cleanupInterval, "cleanup-interval", envCfg.CleanupInterval, "interval between retention sweeps")
	flag.Parse()

	if len(allowedOrigins) == 0 {
		allowedOrigins = envCfg.AllowedOrigins
	}

	logger := log.New(os.Stderr, "[go-social] ", log.LstdFlags)

	cfg, err := config.NewConfig(addr, dsn, signingKey, allowedOrigins, cleanupInterval)
	if err != nil {
		logger.Fatal("config:", err)
	}

	dbConn, err := database.NewPgSocialRepository(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("db open:", err)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Fatal("db close:", err)
		}
	}()

	mux := http.NewServeMux()

	statsUpdater := stats.NewStatsUpdater(mux)

	socialServer, err := server.NewSocialServer(logger, dbConn, server.NewLogPushNotifier(logger), statsUpdater)
	if err != nil {
		logger.Fatal("new social server:", err)
	}

	srv := api.NewSocialApp(mux, logger, socialServer, dbConn, cfg)

	statsUpdater.Run()
	defer statsUpdater.Stop()

	sweeper := cleanup.NewSweeper(logger, dbConn, cfg.CleanupInterval)
	sweeper.Run()
	defer sweeper.Stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Printf("received signal: %s\n", sig)
	case err := <-errCh:
		logger.Println("server:", err)
	}

	shutDownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("HTTP server shutdown:", err)
	}

	logger.Println("shutting down social server...")
	if err := socialServer.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("social server shutdown:", err)
	}

	logger.Println("shutdown complete")
}
