package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/term"

	"github.com/mkrupp/inventory-tracker/internal/domain"
	context_ "github.com/mkrupp/inventory-tracker/internal/infra/context"
	"github.com/mkrupp/inventory-tracker/internal/infra/logging"
	"github.com/mkrupp/inventory-tracker/internal/svc/authsvc"
)

// readPassword is a test seam for term.ReadPassword.
//
//nolint:gochecknoglobals
var readPassword = term.ReadPassword

// console is the line-oriented login front end. The logged in identity lives
// here and is handed to the auth service explicitly on every call.
type console struct {
	svc      *authsvc.AuthService
	in       *bufio.Reader
	out      io.Writer
	tty      int // terminal fd for hidden password entry, -1 to read passwords as plain lines
	identity domain.Identity
	log      logging.Logger
}

func newConsole(svc *authsvc.AuthService, in io.Reader, out io.Writer, tty int) *console {
	return &console{
		svc: svc,
		in:  bufio.NewReader(in),
		out: out,
		tty: tty,
		log: logging.GetLogger("cmd.inventoryauth.console"),
	}
}

// Run reads commands until quit, end of input or ctx is done. An open
// session is closed before returning.
func (c *console) Run(ctx context.Context) error {
	defer c.logoutOnExit(ctx)

	c.println("Type 'help' for a list of commands.")

	for ctx.Err() == nil {
		line, err := c.prompt(c.status() + "> ")
		if errors.Is(err, io.EOF) {
			return nil
		} else if err != nil {
			return fmt.Errorf("read command: %w", err)
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		cmdCtx, _ := context_.WithNewTraceID(ctx)
		c.log.DebugContext(cmdCtx, "command", "cmd", fields[0])

		switch strings.ToLower(fields[0]) {
		case "help":
			c.help()
		case "register":
			err = c.register(cmdCtx, fields[1:])
		case "login":
			err = c.login(cmdCtx)
		case "logout":
			err = c.logout(cmdCtx)
		case "whoami":
			c.whoami()
		case "users":
			err = c.users(cmdCtx)
		case "admin":
			err = c.admin(cmdCtx)
		case "quit", "exit":
			c.println("Bye!")

			return nil
		default:
			c.println("Unknown command:", fields[0])
		}

		if err != nil {
			c.println(describe(err))

			if errors.Is(err, io.EOF) {
				return nil
			}
		}
	}

	return nil
}

func (c *console) status() string {
	if c.identity.IsZero() {
		return "anonymous"
	}

	return c.identity.Username
}

func (c *console) help() {
	c.println("Commands:")
	c.println("  register [role]  create an account (role: admins only, default User)")
	c.println("  login            log in")
	c.println("  logout           log out")
	c.println("  whoami           show the logged in account")
	c.println("  users            list accounts (admins only)")
	c.println("  admin            check access to administration")
	c.println("  quit | exit      leave the program")
}

func (c *console) register(ctx context.Context, args []string) error {
	role := domain.RoleUser

	if len(args) > 0 {
		if err := authsvc.RequireAdmin(c.identity); err != nil {
			return err
		}

		parsed, err := domain.ParseRole(args[0])
		if err != nil {
			return err
		}

		role = parsed
	}

	username, err := c.prompt("Username: ")
	if err != nil {
		return err
	}

	password, err := c.password("Password: ")
	if err != nil {
		return err
	}

	confirmation, err := c.password("Confirm password: ")
	if err != nil {
		return err
	}

	if err := authsvc.ConfirmPassword(password, confirmation); err != nil {
		return err
	}

	account, err := c.svc.Register(ctx, username, password, role)
	if err != nil {
		return err
	}

	c.println(fmt.Sprintf("Registered %s (%s).", account.Username, account.Role))

	return nil
}

func (c *console) login(ctx context.Context) error {
	if !c.identity.IsZero() {
		c.println("Already logged in as", c.identity.Username+".")

		return nil
	}

	username, err := c.prompt("Username: ")
	if err != nil {
		return err
	}

	password, err := c.password("Password: ")
	if err != nil {
		return err
	}

	identity, err := c.svc.Login(ctx, username, password)
	if err != nil {
		return err
	}

	c.identity = identity
	c.println(fmt.Sprintf("Welcome, %s.", identity.Username))

	return nil
}

func (c *console) logout(ctx context.Context) error {
	if c.identity.IsZero() {
		c.println("Not logged in.")

		return nil
	}

	if err := c.svc.Logout(ctx, c.identity.UserID); err != nil {
		return err
	}

	c.identity = domain.Identity{}
	c.println("Logged out.")

	return nil
}

func (c *console) logoutOnExit(ctx context.Context) {
	if c.identity.IsZero() {
		return
	}

	if err := c.svc.Logout(context.WithoutCancel(ctx), c.identity.UserID); err != nil {
		c.log.WarnContext(ctx, "logout on exit failed", logging.Err(err))
	}

	c.identity = domain.Identity{}
}

func (c *console) whoami() {
	if c.identity.IsZero() {
		c.println("Not logged in.")

		return
	}

	c.println(fmt.Sprintf("%s (id %d, %s)", c.identity.Username, c.identity.UserID, c.identity.Role))
}

func (c *console) users(ctx context.Context) error {
	names, err := c.svc.ListUsernames(ctx, c.identity)
	if err != nil {
		return err
	}

	for _, name := range names {
		c.println(" ", name)
	}

	return nil
}

func (c *console) admin(ctx context.Context) error {
	if err := c.svc.Authorize(ctx, c.identity); err != nil {
		return err
	}

	c.println("Administration access granted.")

	return nil
}

func (c *console) prompt(text string) (string, error) {
	if _, err := fmt.Fprint(c.out, text); err != nil {
		return "", fmt.Errorf("write prompt: %w", err)
	}

	line, err := c.in.ReadString('\n')
	if errors.Is(err, io.EOF) && line != "" {
		return strings.TrimSpace(line), nil
	} else if err != nil {
		return "", err //nolint:wrapcheck
	}

	return strings.TrimSpace(line), nil
}

// password reads a secret without echo when attached to a terminal.
func (c *console) password(text string) (string, error) {
	if c.tty < 0 {
		return c.prompt(text)
	}

	if _, err := fmt.Fprint(c.out, text); err != nil {
		return "", fmt.Errorf("write prompt: %w", err)
	}

	pw, err := readPassword(c.tty)
	c.println()

	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	return string(pw), nil
}

func (c *console) println(a ...any) {
	_, _ = fmt.Fprintln(c.out, a...)
}

// describe turns an error into the message shown to the user.
func describe(err error) string {
	switch {
	case errors.Is(err, io.EOF):
		return "Input closed."
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "Invalid username or password."
	case errors.Is(err, domain.ErrDuplicateUsername):
		return "That username is already taken."
	case errors.Is(err, domain.ErrNoUsername):
		return "A username is required."
	case errors.Is(err, domain.ErrNoPassword):
		return "A password is required."
	case errors.Is(err, domain.ErrPasswordMismatch):
		return "Passwords do not match."
	case errors.Is(err, domain.ErrUnknownRole):
		return "Unknown role; choose Admin, User or Visitor."
	case errors.Is(err, domain.ErrNotAuthorized):
		return "Only administrators may do that."
	case errors.Is(err, domain.ErrStorageUnavailable):
		return "The user database is unavailable, try again later."
	default:
		return "Error: " + err.Error()
	}
}
