package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"

	"github.com/MyraLuetke/CISC498-Backend/internal/account"
	accountrepo "github.com/MyraLuetke/CISC498-Backend/internal/account/repo"
	"github.com/MyraLuetke/CISC498-Backend/internal/config"
	"github.com/MyraLuetke/CISC498-Backend/internal/router"
	"github.com/MyraLuetke/CISC498-Backend/internal/token"
	tokenrepo "github.com/MyraLuetke/CISC498-Backend/internal/token/repo"
	"github.com/MyraLuetke/CISC498-Backend/internal/visit"
	visitrepo "github.com/MyraLuetke/CISC498-Backend/internal/visit/repo"
	"github.com/MyraLuetke/CISC498-Backend/pkg/database"
	"github.com/MyraLuetke/CISC498-Backend/pkg/utilities"
)

func main() {
	// load .env file if present so os.Getenv picks values from it
	// this is best-effort: if no .env exists, continue (use defaults or real env)
	_ = godotenv.Load()

	lg, err := utilities.Init(utilities.ConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	sugar := lg.Sugar()

	cfg, err := config.Load()
	if err != nil {
		sugar.Fatalf("load config: %v", err)
	}
	sugar.Infow("starting checkin api", "env", cfg.Environment, "addr", cfg.HTTPAddr)

	sqlDB, err := database.Connect(database.ConfigFromEnv())
	if err != nil {
		sugar.Fatalf("db connect: %v", err)
	}
	// wrap with sqlx for convenience in repos/services
	db := sqlx.NewDb(sqlDB, "postgres")
	defer db.Close()

	accounts := accountrepo.NewAccountRepo(db)
	visits := visitrepo.NewVisitRepo(db)
	sessions := tokenrepo.NewRefreshRepo(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.EnsureSchema {
		// visits and sessions reference identities and profiles
		steps := []struct {
			name   string
			ensure func(context.Context) error
		}{
			{"accounts", accounts.EnsureTable},
			{"visits", visits.EnsureTable},
			{"refresh sessions", sessions.EnsureTable},
		}
		for _, step := range steps {
			if err := step.ensure(ctx); err != nil {
				sugar.Fatalf("ensure %s schema: %v", step.name, err)
			}
		}
		sugar.Info("database schema ensured")
	}
	if n, err := sessions.PurgeExpired(ctx); err != nil {
		sugar.Warnw("purge expired refresh sessions failed", "err", err)
	} else if n > 0 {
		sugar.Infow("purged expired refresh sessions", "count", n)
	}

	hasher, err := account.NewHasher(cfg.PasswordHasher, cfg.BcryptCost)
	if err != nil {
		sugar.Fatalf("password hasher: %v", err)
	}
	ids, err := utilities.NewIDGenerator(cfg.SnowflakeNode)
	if err != nil {
		sugar.Fatalf("id generator: %v", err)
	}

	accountSvc := account.NewService(accounts, hasher, sessions, sugar)
	visitSvc := visit.NewService(visits, accounts, ids, sugar)
	tokenSvc, err := token.NewService(accountSvc, sessions, token.Config{
		Secret:     []byte(cfg.JWTSecret),
		Issuer:     cfg.JWTIssuer,
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
	}, sugar)
	if err != nil {
		sugar.Fatalf("token service: %v", err)
	}

	handler := router.RegisterRoutes(sugar, router.Deps{
		Accounts:       account.NewHandler(accountSvc, sugar),
		Visits:         visit.NewHandler(visitSvc, sugar),
		Tokens:         token.NewHandler(tokenSvc, sugar),
		Auth:           tokenSvc,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Ping:           db.PingContext,
	})
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("http server failed: %v", err)
		}
	}()
	sugar.Info("service is running; press Ctrl+C to stop")

	<-ctx.Done()

	sugar.Info("shutting down")

	// give a short grace period for in-flight requests
	doneCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}

	sugar.Info("goodbye")
}
