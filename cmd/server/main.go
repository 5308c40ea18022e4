// Package main initializes and starts the rubrica contact server and its
// admin HTTP API, setting up configuration, logging, the audit trail,
// stores, services and handlers.
package main

import (
	"cmp"
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	nethttp "net/http"

	"go.uber.org/zap"

	"github.com/avoront/rubrica/internal/auditlog"
	"github.com/avoront/rubrica/internal/config"
	"github.com/avoront/rubrica/internal/db"
	"github.com/avoront/rubrica/internal/logger"
	"github.com/avoront/rubrica/internal/repository"
	"github.com/avoront/rubrica/internal/server/handler/http"
	"github.com/avoront/rubrica/internal/server/session"
	"github.com/avoront/rubrica/internal/server/tcp"
	"github.com/avoront/rubrica/internal/service"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	// Open the audit trail.
	if err := os.MkdirAll(filepath.Dir(options.AuditLog), 0o755); err != nil {
		zapLogger.Fatal("cannot create audit log directory", zap.Error(err))
	}
	audit, err := auditlog.Open(options.AuditLog)
	if err != nil {
		zapLogger.Fatal("cannot open audit log", zap.Error(err))
	}
	defer func() { _ = audit.Close() }()

	// Pick the storage backend: Postgres when a DSN is given, flat files
	// otherwise.
	var (
		contactRepo service.ContactRepository
		credRepo    service.CredentialRepository
	)
	if options.DatabaseDSN != "" {
		postgresDB, err := db.InitPostgres(options.DatabaseDSN)
		if err != nil {
			zapLogger.Fatal("cannot init database", zap.Error(err))
		}
		defer func() { _ = postgresDB.Close() }()
		contactRepo = repository.NewPostgresContactRepository(postgresDB)
		credRepo = repository.NewPostgresCredentialRepository(postgresDB)
	} else {
		if err := os.MkdirAll(options.DataDir, 0o755); err != nil {
			zapLogger.Fatal("cannot create data directory", zap.Error(err))
		}
		contactRepo = repository.NewFileContactRepository(filepath.Join(options.DataDir, "rubrica.txt"))
		credRepo = repository.NewFileCredentialRepository(filepath.Join(options.DataDir, "credenziali.txt"))
	}

	// Initialize business-logic services.
	contactService := service.NewContactService(contactRepo)
	credentialService := service.NewCredentialService(credRepo)

	// The actor string names this instance in the audit trail.
	_, port, err := net.SplitHostPort(options.Address)
	if err != nil {
		zapLogger.Fatal("invalid listen address", zap.String("addr", options.Address), zap.Error(err))
	}
	serverName := "Server:" + port

	// Build the session handler and the TCP listener.
	handler := session.NewHandler(contactService, credentialService, audit, zapLogger, serverName)
	server, err := tcp.New(options.Address, handler, zapLogger)
	if err != nil {
		zapLogger.Fatal("cannot start contact server", zap.Error(err))
	}

	// Build the admin API around the credential service and the listener.
	adminHandler := &http.AdminHandler{
		Users:    credentialService,
		Audit:    audit,
		Shutdown: server.Stop,
		Actor:    serverName,
	}
	router := http.NewRouter(adminHandler, zapLogger, options.AdminToken)
	adminServer := &nethttp.Server{
		Addr:    options.AdminAddress,
		Handler: router,
	}

	go func() {
		zapLogger.Info("starting admin API", zap.String("addr", options.AdminAddress))
		if err := adminServer.ListenAndServe(); err != nil && err != nethttp.ErrServerClosed {
			zapLogger.Error("admin API failed", zap.Error(err))
		}
	}()

	// SIGINT and SIGTERM stop the listener like an admin shutdown request.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		zapLogger.Info("shutdown signal received")
		server.Stop()
	}()

	audit.Record(serverName, "Server started", auditlog.StatusIgnored,
		"Listening on "+server.Addr().String())
	zapLogger.Info("starting contact server", zap.String("addr", server.Addr().String()))
	// Sessions outlive the shutdown signal: they get a background context
	// and drain on their own schedule once the listener is closed.
	if err := server.Serve(context.Background()); err != nil {
		zapLogger.Fatal("contact server failed", zap.Error(err))
	}

	// The listener is closed; let live sessions finish, then take the
	// admin API down with us.
	zapLogger.Info("listener closed, draining sessions")
	server.Wait()
	if err := adminServer.Shutdown(context.Background()); err != nil {
		zapLogger.Error("admin API shutdown failed", zap.Error(err))
	}
	audit.Record(serverName, "Server stopped", auditlog.StatusIgnored, "All sessions drained")
}
