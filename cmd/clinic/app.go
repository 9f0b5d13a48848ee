package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/nkiryanov/clinic/internal/db"
	"github.com/nkiryanov/clinic/internal/handlers"
	"github.com/nkiryanov/clinic/internal/logger"
	"github.com/nkiryanov/clinic/internal/models"
	"github.com/nkiryanov/clinic/internal/repository/postgres"
	"github.com/nkiryanov/clinic/internal/service/auth"
	"github.com/nkiryanov/clinic/internal/service/auth/tokenmanager"
	"github.com/nkiryanov/clinic/internal/service/doctor"
	"github.com/nkiryanov/clinic/internal/service/patient"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	l, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize repositories
	accountRepo := &postgres.AccountRepo{DB: pool}
	refreshRepo := &postgres.RefreshTokenRepo{DB: pool}
	resetRepo := &postgres.PasswordResetTokenRepo{DB: pool}
	doctorRepo := &postgres.DoctorRepo{DB: pool}
	patientRepo := &postgres.PatientRepo{DB: pool}

	// Initialize services
	tokenManager, err := tokenmanager.New(tokenmanager.Config{SecretKey: c.SecretKey}, refreshRepo)
	if err != nil {
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}

	authService, err := auth.NewService(auth.Config{
		// Reset tokens go to the mailer one day; logged until then
		ResetNotifier: func(ctx context.Context, account models.Account, token string) {
			l.Info("password reset token issued", "account_id", account.ID)
		},
	}, tokenManager, accountRepo, resetRepo)
	if err != nil {
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}

	doctorService := doctor.NewService(doctorRepo)
	patientService := patient.NewService(patientRepo, doctorRepo)

	mux := handlers.NewRouter(
		authService,
		doctorService,
		patientService,
		l,
	)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
	}, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			slog.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		slog.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	slog.Info("Starting server")
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}
