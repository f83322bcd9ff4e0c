package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/iudanet/gophdash/internal/config"
	"github.com/iudanet/gophdash/internal/logger"
	"github.com/iudanet/gophdash/internal/server"
	"github.com/iudanet/gophdash/internal/validation"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	configPath := flag.String("config", "", "Path to YAML config file")
	addr := flag.String("addr", "", "Listen address (overrides config)")
	dbPath := flag.String("db", "", "Path to SQLite database (overrides config)")
	issueToken := flag.String("issue-token", "", "Print an access token for the given user and exit")
	tokenDocs := flag.String("token-docs", "", "Comma-separated documents the issued token is limited to")
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	cfg, err := config.LoadServer(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	if *issueToken != "" {
		if err := printToken(cfg, *issueToken, *tokenDocs); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := server.New(ctx, cfg, Version, log)
	if err != nil {
		log.Error("Failed to start server", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := srv.Close(); err != nil {
			log.Error("failed to close server", "error", err)
		}
	}()

	log.Info("GophDash Server starting", "version", Version, "addr", cfg.Addr, "db", cfg.DBPath)

	if err := srv.Run(ctx); err != nil {
		log.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}

func printToken(cfg config.ServerConfig, user, docs string) error {
	if err := validation.ValidateSubject(user); err != nil {
		return err
	}

	var documents []string
	for _, d := range strings.Split(docs, ",") {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		if err := validation.ValidateDocumentID(d); err != nil {
			return err
		}
		documents = append(documents, d)
	}

	token, expiresIn, err := server.IssueToken(cfg, user, documents...)
	if err != nil {
		return err
	}

	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires in %ds\n", expiresIn)
	return nil
}

func printVersion() {
	fmt.Printf("GophDash Server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
