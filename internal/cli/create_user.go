package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mrlokans/sharedreader/internal/auth"
	"github.com/mrlokans/sharedreader/internal/config"
	"github.com/mrlokans/sharedreader/internal/database"
	"github.com/mrlokans/sharedreader/internal/entities"
)

// CreateUserCommand adds a local account for the cookie auth mode.
type CreateUserCommand struct {
	Username string
	Password string
	Role     string

	cfg *config.Config
}

func NewCreateUserCommand(cfg *config.Config) *CreateUserCommand {
	return &CreateUserCommand{cfg: cfg}
}

func (cmd *CreateUserCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ExitOnError)

	fs.StringVar(&cmd.Username, "username", "", "Login name: letters, digits and spaces (required)")
	fs.StringVar(&cmd.Password, "password", "", "Password, at least 12 characters (required, or set CREATE_USER_PASSWORD)")
	fs.StringVar(&cmd.Role, "role", string(entities.UserRoleAuthor), "Role: admin, author or participant")
	fs.StringVar(&cmd.cfg.Database.Path, "db", cmd.cfg.Database.Path, "Path to the sqlite database file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s create-user -username <name> -password <password> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create a local account for AUTH_MODE=cookie.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s create-user -username gb -password 'a long passphrase' -role admin\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Password == "" {
		cmd.Password = os.Getenv("CREATE_USER_PASSWORD")
	}
	if cmd.Username == "" {
		return fmt.Errorf("required flag -username not provided")
	}
	if cmd.Password == "" {
		return fmt.Errorf("required flag -password not provided")
	}
	if !entities.UserRole(cmd.Role).IsValid() {
		return fmt.Errorf("invalid role %q", cmd.Role)
	}

	return nil
}

func (cmd *CreateUserCommand) Run() error {
	db, err := database.NewDatabase(cmd.cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	user, err := auth.NewService(db, cmd.cfg.Auth).
		CreateUser(context.Background(), cmd.Username, cmd.Password, entities.UserRole(cmd.Role))
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Printf("Created %s user %q (id %d)\n", user.Role, user.Username, user.ID)
	if cmd.cfg.Auth.Mode != config.AuthModeCookie {
		fmt.Printf("Note: AUTH_MODE is %q; local accounts are only used with AUTH_MODE=cookie\n", cmd.cfg.Auth.Mode)
	}
	return nil
}
