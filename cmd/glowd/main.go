package main

import (
	"context"
	"database/sql"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	_ "github.com/mattn/go-sqlite3"
	"github.com/wheelibin/glow/internal/config"
	"github.com/wheelibin/glow/internal/repos"
	"github.com/wheelibin/glow/internal/server"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	configFile := flag.String("config", "", "path to config file")
	flag.Parse()

	// read the config file
	cfg, err := config.ReadConfig(*configFile)
	if err != nil {
		log.Fatal(err)
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatal("invalid logLevel", "logLevel", cfg.LogLevel)
	}

	var out io.Writer = os.Stderr
	if cfg.LogFile != "" {
		out = &lumberjack.Logger{
			Filename: cfg.LogFile,
			MaxAge:   3,
		}
	}
	logger := log.NewWithOptions(out, log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      "2006/01/02 15:04:05",
	})
	logger.Info("glowd starting")

	db, err := sql.Open("sqlite3", cfg.DatabasePath)
	if err != nil {
		logger.Fatal("error opening database", "path", cfg.DatabasePath, "err", err)
	}
	defer db.Close()
	// sqlite only supports one writer at a time
	db.SetMaxOpenConns(1)

	// create/wire up services
	repo, err := repos.NewDocumentRepo(logger, db)
	if err != nil {
		logger.Fatal(err)
	}
	if err := repo.Seed(server.DefaultDocuments()); err != nil {
		logger.Fatal(err)
	}
	srv := server.NewServer(logger, repo, server.Options{RequestsPerMinute: cfg.RequestsPerMinute})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.ListenAndServe(ctx, cfg.ListenAddress); err != nil {
		logger.Error(err)
		return
	}
	logger.Info("glowd is closing")
}
