// Package main provides a CLI tool that applies the database schema and
// seeds the initial accounts and recovery settings.
package main

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"

	"leadtrack/internal/domain/auth"
	"leadtrack/internal/domain/settings"
	"leadtrack/internal/infrastructure/storage/postgres"
	"leadtrack/internal/infrastructure/storage/postgres/auth_repo"
	"leadtrack/internal/infrastructure/storage/postgres/settings_repo"
	"leadtrack/pkg/logger"
)

//go:embed schema.sql
var schemaSQL string

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("LEADTRACK_DATABASE_URL")
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		log.Fatal("LEADTRACK_DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dbURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		log.Fatalw("failed to apply schema", "error", err)
	}
	log.Info("schema applied")

	txManager := postgres.NewTxManager(pool)

	if err := seedAccounts(ctx, txManager, log); err != nil {
		log.Fatalw("failed to seed accounts", "error", err)
	}

	if err := seedSettings(ctx, txManager, log); err != nil {
		log.Fatalw("failed to seed recovery settings", "error", err)
	}

	log.Info("seeding completed successfully")
}

// seedAccounts creates the fixed plant accounts: the admin and the
// shared floor account. Existing accounts are left untouched so a
// re-run never resets a changed password.
func seedAccounts(ctx context.Context, txManager *postgres.TxManager, log *logger.Logger) error {
	type account struct {
		name        string
		passwordEnv string
		fallback    string
		isAdmin     bool
	}

	accounts := []account{
		{name: envOr("LEADTRACK_ADMIN_NAME", "TT"), passwordEnv: "LEADTRACK_ADMIN_PASSWORD", fallback: "ChangeMe123!", isAdmin: true},
		{name: "Factory", passwordEnv: "LEADTRACK_FACTORY_PASSWORD", fallback: "Factory123!", isAdmin: false},
	}

	repo := auth_repo.NewUserRepo(txManager)
	for _, a := range accounts {
		exists, err := repo.Exists(ctx, a.name)
		if err != nil {
			return fmt.Errorf("check account %s: %w", a.name, err)
		}
		if exists {
			log.Infow("account already exists", "name", a.name)
			continue
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(envOr(a.passwordEnv, a.fallback)), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", a.name, err)
		}

		user := auth.NewUser(a.name, string(hash))
		user.IsAdmin = a.isAdmin

		if err := repo.Create(ctx, user); err != nil {
			return fmt.Errorf("create account %s: %w", a.name, err)
		}

		log.Infow("account created", "name", a.name, "is_admin", a.isAdmin, "user_id", user.ID)
	}

	return nil
}

// seedSettings writes the factory-default recovery percentages when the
// singleton row is missing.
func seedSettings(ctx context.Context, txManager *postgres.TxManager, log *logger.Logger) error {
	var count int
	err := txManager.GetQuerier(ctx).
		QueryRow(ctx, `SELECT COUNT(*) FROM recovery_settings`).
		Scan(&count)
	if err != nil {
		return fmt.Errorf("check settings: %w", err)
	}
	if count > 0 {
		log.Info("recovery settings already present")
		return nil
	}

	defaults := settings.Defaults()
	defaults.UpdatedAt = time.Now().UTC()
	defaults.UpdatedBy = "seed"

	repo := settings_repo.NewSettingsRepo(txManager)
	if err := repo.Save(ctx, defaults); err != nil {
		return fmt.Errorf("save defaults: %w", err)
	}

	log.Infow("recovery settings seeded",
		"pp", defaults.PP.String(),
		"mc_smf", defaults.MCSMF.String(),
		"hr", defaults.HR.String(),
	)
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
