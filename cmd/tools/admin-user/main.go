// cmd/tools/admin-user/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"membership-signup/internal/admin/auth"
	"membership-signup/internal/common/config"
	"membership-signup/internal/common/database"
	"membership-signup/internal/common/errors"
	"membership-signup/internal/common/logger"
	"membership-signup/internal/store"
)

func main() {
	createCmd := flag.NewFlagSet("create", flag.ExitOnError)
	lookupCmd := flag.NewFlagSet("lookup", flag.ExitOnError)

	// Create command flags
	emailCreate := createCmd.String("email", "", "Admin email address")
	password := createCmd.String("password", "", "Password (defaults to $ADMIN_PASSWORD)")

	// Lookup command flags
	emailLookup := lookupCmd.String("email", "", "Admin email address")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "create":
		createCmd.Parse(os.Args[2:])
		if *password == "" {
			*password = os.Getenv("ADMIN_PASSWORD")
		}
		if *emailCreate == "" || *password == "" {
			fmt.Println("Error: email and password are required for create.")
			createCmd.Usage()
			os.Exit(1)
		}
		withStore(func(ctx context.Context, s *store.PostgresStore) error {
			hash, err := auth.HashPassword(*password)
			if err != nil {
				return err
			}
			user, err := s.CreateAdminUser(ctx, *emailCreate, hash)
			if err != nil {
				return err
			}
			fmt.Printf("Created admin %s (%s)\n", user.Email, user.ID)
			return nil
		})
	case "lookup":
		lookupCmd.Parse(os.Args[2:])
		if *emailLookup == "" {
			fmt.Println("Error: email is required for lookup.")
			lookupCmd.Usage()
			os.Exit(1)
		}
		withStore(func(ctx context.Context, s *store.PostgresStore) error {
			user, err := s.FindAdminByEmail(ctx, *emailLookup)
			if err != nil {
				return err
			}
			fmt.Printf("%s\t%s\tcreated %s\n", user.ID, user.Email, user.CreatedAt.Format(time.RFC3339))
			return nil
		})
	default:
		help()
		os.Exit(1)
	}
}

func withStore(run func(ctx context.Context, s *store.PostgresStore) error) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		fmt.Printf("Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer pg.Close()

	if err := pg.EnsureSchema(ctx, store.Schema); err != nil {
		fmt.Printf("Error preparing schema: %v\n", err)
		os.Exit(1)
	}

	if err := run(ctx, store.NewPostgresStore(pg.DB, logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format))); err != nil {
		if std := errors.AsStandard(err); std != nil {
			fmt.Printf("Error: %s (%s)\n", std.Message, std.Details)
		} else {
			fmt.Printf("Error: %v\n", err)
		}
		pg.Close()
		os.Exit(1)
	}
}

func help() {
	fmt.Println("Usage: admin-user <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  create   Create a dashboard account")
	fmt.Println("  lookup   Show an existing account")
	fmt.Println("\nUse 'admin-user <command> -h' for more information on a command.")
}
