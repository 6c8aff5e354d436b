// Command createsuperuser provisions an administrative account. It reads
// the same environment as the server and inserts an active superuser row.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"cvforge/internal/auth"
	"cvforge/internal/config"
	"cvforge/internal/models"
	"cvforge/internal/repositories"
)

func main() {
	username := flag.String("username", "", "username for the new superuser")
	email := flag.String("email", "", "email for the new superuser")
	password := flag.String("password", "", "password for the new superuser")
	flag.Parse()

	if *username == "" || *email == "" || *password == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*username, *email, *password); err != nil {
		log.Fatalf("createsuperuser: %v", err)
	}
	fmt.Printf("Superuser %q created\n", *username)
}

func run(username, email, password string) error {
	if err := auth.ValidateUsername(username); err != nil {
		return err
	}
	if err := auth.ValidateEmail(email); err != nil {
		return err
	}
	if err := auth.ValidatePassword(password); err != nil {
		return err
	}

	cfg := config.Load()
	db, err := repositories.Connect(cfg.DBURL)
	if err != nil {
		return err
	}
	if err := repositories.Migrate(db); err != nil {
		return err
	}

	ctx := context.Background()
	users := repositories.NewUserRepository(db)
	if existing, err := users.FindByUsernameOrEmail(ctx, username, email); err != nil {
		return err
	} else if existing != nil {
		return errors.New("a user with that username or email already exists")
	}

	hashed, err := auth.NewHasher(cfg.BcryptCost).Hash(password)
	if err != nil {
		return err
	}

	return users.Create(ctx, &models.User{
		Username:    username,
		Email:       email,
		Password:    hashed,
		IsActive:    true,
		IsSuperuser: true,
	})
}
