package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"github.com/scalpi-pos/api/internal/config"
	"github.com/scalpi-pos/api/internal/database"
	"github.com/scalpi-pos/api/internal/enum"
)

func main() {
	_ = godotenv.Load()

	// CLI flags
	email := flag.String("email", "", "Owner email address")
	password := flag.String("password", "", "Owner password")
	name := flag.String("name", "", "Owner full name")
	flag.Parse()

	// Fall back to environment variables
	if *email == "" {
		*email = os.Getenv("SEED_EMAIL")
	}
	if *password == "" {
		*password = os.Getenv("SEED_PASSWORD")
	}
	if *name == "" {
		*name = os.Getenv("SEED_NAME")
	}

	// Fall back to defaults
	if *email == "" {
		*email = "owner@scalpi.local"
	}
	if *password == "" {
		*password = "password123"
		log.Println("WARNING: Using default password 'password123'. Change immediately in production!")
	}
	if *name == "" {
		*name = "Owner"
	}

	cfg := config.Load()

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Unable to ping database: %v", err)
	}
	log.Println("Connected to database")

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("Failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	q := database.New(tx)

	if err := seedOwner(ctx, q, *email, *password, *name); err != nil {
		log.Fatalf("Failed to seed owner: %v", err)
	}
	if err := seedSettings(ctx, q); err != nil {
		log.Fatalf("Failed to seed settings: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("Failed to commit: %v", err)
	}
	log.Println("Seed completed successfully")
}

// seedOwner creates the owner user if it doesn't exist.
func seedOwner(ctx context.Context, q *database.Queries, email, password, fullName string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	existing, err := q.GetUserByEmail(ctx, email)
	if err == nil {
		log.Printf("User '%s' already exists (ID: %s), skipping", email, existing.ID)
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("check user: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user, err := q.CreateUser(ctx, database.CreateUserParams{
		Email:          email,
		HashedPassword: string(hashed),
		FullName:       fullName,
		Role:           enum.UserRoleOwner,
	})
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}

	log.Printf("Created owner user '%s' (ID: %s)", email, user.ID)
	return nil
}

// seedSettings makes sure the cashless tax row exists so the cashier view
// shows an explicit 0 instead of a missing setting.
func seedSettings(ctx context.Context, q *database.Queries) error {
	_, err := q.GetSetting(ctx, enum.SettingTaxCashless)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("check setting: %w", err)
	}
	if _, err := q.UpsertSetting(ctx, database.UpsertSettingParams{Key: enum.SettingTaxCashless, Value: "0"}); err != nil {
		return fmt.Errorf("insert setting: %w", err)
	}
	log.Printf("Created setting '%s' = 0", enum.SettingTaxCashless)
	return nil
}
