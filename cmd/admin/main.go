// Package main provides administrative commands for the Recipebook server.
//
// Usage:
//
//	recipebook-admin [server flags] <command> [command flags]
//
// Commands:
//
//	createsuperuser  create an identity with every access tier
//	migrate          apply pending migrations and print the schema version
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/samber/do/v2"
	"golang.org/x/term"

	"github.com/recipebook/recipebook-server/internal/config"
	"github.com/recipebook/recipebook-server/internal/di"
	"github.com/recipebook/recipebook-server/internal/di/providers"
	domainerrors "github.com/recipebook/recipebook-server/internal/errors"
	"github.com/recipebook/recipebook-server/internal/service"
)

const usage = `usage: recipebook-admin [server flags] <command> [command flags]

commands:
  createsuperuser  create an identity with every access tier
  migrate          apply pending migrations and print the schema version
`

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	cfg, rest, err := config.LoadArgs(args)
	if err != nil {
		return err
	}
	if len(rest) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return errors.New("missing command")
	}

	// Only the services a command invokes are constructed, so the HTTP
	// server never starts here.
	injector := di.NewContainer()
	do.OverrideValue(injector, cfg)
	defer func() {
		_ = injector.Shutdown()
	}()

	switch rest[0] {
	case "createsuperuser":
		return createSuperuser(ctx, injector, rest[1:])
	case "migrate":
		return migrate(ctx, injector)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", rest[0])
	}
}

func createSuperuser(ctx context.Context, injector do.Injector, args []string) error {
	fs := flag.NewFlagSet("createsuperuser", flag.ContinueOnError)
	var req service.RegisterRequest
	fs.StringVar(&req.Email, "email", "", "Email address (required)")
	fs.StringVar(&req.Username, "username", "", "Username (required)")
	fs.StringVar(&req.FirstName, "first-name", "", "First name")
	fs.StringVar(&req.LastName, "last-name", "", "Last name")
	fs.StringVar(&req.Password, "password", "", "Password, prompted for when empty")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if req.Password == "" {
		password, err := promptPassword()
		if err != nil {
			return err
		}
		req.Password = password
	}

	identity, err := do.Invoke[*service.IdentityService](injector)
	if err != nil {
		return err
	}

	user, err := identity.RegisterSuperuser(ctx, req)
	if err != nil {
		return describe(err)
	}

	fmt.Printf("Superuser %s created (id %s)\n", user.Email, user.ID)
	return nil
}

func migrate(ctx context.Context, injector do.Injector) error {
	// Opening the store applies pending migrations.
	storeHandle, err := do.Invoke[*providers.StoreHandle](injector)
	if err != nil {
		return err
	}

	version, err := storeHandle.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Database is at schema version %d\n", version)
	return nil
}

func promptPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("password is required: pass -password or run in a terminal")
	}

	fmt.Print("Password: ")
	first, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	fmt.Print("Password (again): ")
	second, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	return string(first), nil
}

// describe flattens field-level validation details into the message.
func describe(err error) error {
	var domainErr *domainerrors.Error
	if !errors.As(err, &domainErr) {
		return err
	}
	details, ok := domainErr.Details.(map[string]string)
	if !ok || len(details) == 0 {
		return err
	}
	var b strings.Builder
	b.WriteString(err.Error())
	for _, field := range slices.Sorted(maps.Keys(details)) {
		fmt.Fprintf(&b, "\n  %s: %s", field, details[field])
	}
	return errors.New(b.String())
}
