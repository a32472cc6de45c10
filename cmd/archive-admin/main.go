// Package main is the entry point for the archive admin CLI.
// It manages users directly against the configured database.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/pryanikov/archiveapp/internal/config"
	"github.com/pryanikov/archiveapp/internal/domain"
	"github.com/pryanikov/archiveapp/internal/repository"
	"github.com/pryanikov/archiveapp/internal/repository/postgres"
	"github.com/pryanikov/archiveapp/internal/repository/sqlite"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "version":
		fmt.Printf("archive-admin\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)

	case "user":
		if err := runUser(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runUser(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: archive-admin user <create|list> [flags]")
	}

	switch args[0] {
	case "create":
		return runUserCreate(args[1:])
	case "list":
		return runUserList(args[1:])
	default:
		return fmt.Errorf("unknown user subcommand: %s", args[0])
	}
}

func runUserCreate(args []string) error {
	fs := flag.NewFlagSet("user create", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	email := fs.String("email", "", "user email (required)")
	name := fs.String("name", "", "display name")
	role := fs.String("role", "READER", "user role: ADMIN, EDITOR or READER")
	password := fs.String("password", "", "initial password (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *email == "" {
		return fmt.Errorf("--email is required")
	}
	if *password == "" {
		return fmt.Errorf("--password is required")
	}
	parsedRole := domain.ParseRole(*role)
	if parsedRole == domain.RoleUnknown {
		return fmt.Errorf("invalid role %q", *role)
	}

	ctx := context.Background()
	users, cleanup, err := openUserRepository(ctx, *configPath)
	if err != nil {
		return err
	}
	defer cleanup()

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        *email,
		Name:         *name,
		Role:         parsedRole,
		PasswordHash: string(hash),
	}

	if err := users.Create(ctx, user); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Printf("created user %s (%s, %s)\n", user.ID, user.Email, user.Role)
	return nil
}

func runUserList(args []string) error {
	fs := flag.NewFlagSet("user list", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	users, cleanup, err := openUserRepository(ctx, *configPath)
	if err != nil {
		return err
	}
	defer cleanup()

	list, err := users.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	for _, u := range list {
		fmt.Printf("%s\t%s\t%s\t%s\n", u.ID, u.Email, u.Role, u.Name)
	}
	return nil
}

// openUserRepository connects to the configured database. The memory
// driver is rejected since it cannot outlive the CLI process.
func openUserRepository(ctx context.Context, configPath string) (repository.UserRepository, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := zerolog.Nop()

	switch cfg.Database.Driver {
	case "sqlite":
		db, err := sqlite.NewDB(ctx, sqlite.Config{
			Path:            cfg.Database.Path,
			JournalMode:     cfg.Database.JournalMode,
			BusyTimeout:     cfg.Database.BusyTimeout,
			CacheSize:       cfg.Database.CacheSize,
			SynchronousMode: cfg.Database.SynchronousMode,
		}, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		return sqlite.NewUserRepository(db, logger), func() { _ = db.Close() }, nil

	case "postgres":
		db, err := postgres.NewDB(ctx, postgres.Config{
			DSN:             cfg.Database.DSN(),
			MaxConns:        int32(cfg.Database.MaxOpenConns),
			MinConns:        int32(cfg.Database.MaxIdleConns),
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		}, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		return postgres.NewUserRepository(db, logger), func() { _ = db.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("database driver %q is not supported by the admin CLI", cfg.Database.Driver)
	}
}

func printUsage() {
	fmt.Println(`archive-admin

Usage:
  archive-admin <command> [arguments]

Commands:
  user        Manage users (create, list)
  version     Print version information
  help        Show this help message

Examples:
  archive-admin user create --email admin@example.com --role ADMIN --password secret
  archive-admin user list --config ./configs/config.yaml`)
}
