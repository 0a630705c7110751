package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/cmlabs-hris/attendance-import-go/internal/config"
	"github.com/cmlabs-hris/attendance-import-go/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-import-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-import-go/internal/repository/postgresql"
)

// mktoken mints an access token for local testing. The role and company are
// taken from the stored account, not from flags:
//
//	mktoken -username jdoe
func main() {
	username := flag.String("username", "", "username of the account to mint a token for")
	flag.Parse()

	if *username == "" {
		fmt.Fprintln(os.Stderr, "mktoken: -username is required")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "mktoken: config:", err)
		os.Exit(1)
	}

	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL(), cfg.Database.MaxConns, cfg.Database.MinConns)
	if err != nil {
		fmt.Fprintln(os.Stderr, "mktoken: database:", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	u, err := postgresql.NewUserRepository(db).GetByUsername(ctx, *username)
	if err != nil {
		fmt.Fprintln(os.Stderr, "mktoken:", err)
		os.Exit(1)
	}
	if !u.IsActive {
		fmt.Fprintf(os.Stderr, "mktoken: account %q is deactivated\n", *username)
		os.Exit(1)
	}

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	token, expiresAt, err := JWTService.GenerateAccessToken(u.ID, u.Role, u.CompanyID)
	if err != nil {
		fmt.Fprintln(os.Stderr, "mktoken:", err)
		os.Exit(1)
	}

	fmt.Println(token)
	fmt.Fprintln(os.Stderr, "expires:", time.Unix(expiresAt, 0).UTC().Format(time.RFC3339))
}
