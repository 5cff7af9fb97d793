package main

import (
	"context"
	"fmt"
	"os"

	"github.com/linesmerrill/uptime-api/auth"
	"github.com/linesmerrill/uptime-api/config"
	"github.com/linesmerrill/uptime-api/databases"
)

// Quick utility to reset a user's password directly in the data directory.
// It uses the same HASHING_SECRET and DATA_DIR as the running service.
// Usage: go run scripts/fix_user_password.go <phone> <password>
func main() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: go run scripts/fix_user_password.go <phone> <password>")
		fmt.Println("Example: go run scripts/fix_user_password.go 5551234567 0i2rinbcp12yc31h")
		os.Exit(1)
	}
	phone, password := os.Args[1], os.Args[2]

	conf, err := config.New()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	store, err := databases.NewStore(conf)
	if err != nil {
		fmt.Printf("Error opening data store: %v\n", err)
		os.Exit(1)
	}

	authority := auth.NewAuthority(databases.NewTokenDatabase(store), conf.HashingSecret)
	hashedPassword, err := authority.Hash(password)
	if err != nil {
		fmt.Printf("Error generating hash: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	users := databases.NewUserDatabase(store)
	user, err := users.FindOne(ctx, phone)
	if err != nil {
		fmt.Printf("Error reading user %s: %v\n", phone, err)
		os.Exit(1)
	}
	user.HashedPassword = hashedPassword
	if err := users.UpdateOne(ctx, *user); err != nil {
		fmt.Printf("Error updating user %s: %v\n", phone, err)
		os.Exit(1)
	}

	fmt.Printf("Password for %s reset in %s\n", phone, conf.DataDir)
}
