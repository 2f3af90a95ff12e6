package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/attendance-api/internal/models"
	"github.com/noah-isme/attendance-api/internal/repository"
	"github.com/noah-isme/attendance-api/pkg/config"
	"github.com/noah-isme/attendance-api/pkg/database"
	"github.com/noah-isme/attendance-api/pkg/logger"
)

// create-admin creates an admin account, or grants admin to an existing one
// and resets its password.
func main() {
	email := pflag.StringP("email", "e", "", "account email")
	password := pflag.StringP("password", "p", "", "account password (or ADMIN_PASSWORD)")
	pflag.Parse()

	if *password == "" {
		*password = os.Getenv("ADMIN_PASSWORD")
	}
	*email = strings.ToLower(strings.TrimSpace(*email))
	if *email == "" || *password == "" {
		pflag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := run(cfg, logr, *email, *password); err != nil {
		logr.Fatal("create admin failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger, email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := database.Migrate(ctx, db, logr); err != nil {
		return err
	}

	users := repository.NewUserRepository(db)
	existing, err := users.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		user := &models.User{Email: email, PasswordHash: string(hash), IsAdmin: true}
		if err := users.Create(ctx, user); err != nil {
			return err
		}
		logr.Info("admin created", zap.Int64("user_id", user.ID), zap.String("email", email))
		return nil
	case err != nil:
		return err
	}

	if err := users.SetAdmin(ctx, existing.ID, true); err != nil {
		return err
	}
	if err := users.UpdatePassword(ctx, existing.ID, string(hash)); err != nil {
		return err
	}
	logr.Info("existing user promoted to admin", zap.Int64("user_id", existing.ID), zap.String("email", email))
	return nil
}
