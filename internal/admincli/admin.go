// Package admincli implements docutrack-admin, which creates the first
// ADMIN account or promotes an existing one.
package admincli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/docutrack/internal/server/models"
)

// Options are the command-line inputs. Missing name or email are prompted for.
type Options struct {
	DSN   string
	Email string
	Name  string
}

// AdminEnsurer creates or promotes an ADMIN account.
type AdminEnsurer interface {
	EnsureAdmin(ctx context.Context, name, email, password string) (*models.User, bool, error)
}

var ErrPasswordMismatch = errors.New("passwords do not match")

// ParseFlags reads -d, -email and -name. The DSN falls back to defaultDSN,
// usually $DATABASE_URL.
func ParseFlags(args []string, defaultDSN string, stderr io.Writer) (Options, error) {
	var o Options

	fs := flag.NewFlagSet("docutrack-admin", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.DSN, "d", defaultDSN, "database DSN")
	fs.StringVar(&o.Email, "email", "", "admin email")
	fs.StringVar(&o.Name, "name", "", "admin display name")

	if err := fs.Parse(args); err != nil {
		return Options{}, err
	}
	if o.DSN == "" {
		return Options{}, errors.New("database DSN is required (-d or DATABASE_URL)")
	}
	return o, nil
}

// Prompter collects interactive input.
type Prompter struct {
	In      *bufio.Reader
	Out     io.Writer
	StdinFd int
}

// Run fills in missing options, asks for the password twice and calls
// EnsureAdmin.
func Run(ctx context.Context, svc AdminEnsurer, o Options, p Prompter) error {
	var err error
	if strings.TrimSpace(o.Email) == "" {
		if o.Email, err = GetSimpleText(p.In, "Admin email", p.Out); err != nil {
			return err
		}
	}
	if strings.TrimSpace(o.Name) == "" {
		if o.Name, err = GetSimpleText(p.In, "Admin name", p.Out); err != nil {
			return err
		}
	}

	pw, err := GetPassword(p.StdinFd, "Password", p.Out)
	if err != nil {
		return err
	}
	defer clear(pw)
	confirm, err := GetPassword(p.StdinFd, "Repeat password", p.Out)
	if err != nil {
		return err
	}
	defer clear(confirm)
	if string(pw) != string(confirm) {
		return ErrPasswordMismatch
	}

	user, created, err := svc.EnsureAdmin(ctx, o.Name, o.Email, string(pw))
	if err != nil {
		return err
	}

	if created {
		fmt.Fprintf(p.Out, "Created ADMIN %s (id %d)\n", user.Email, user.ID)
	} else {
		fmt.Fprintf(p.Out, "Promoted %s (id %d) to ADMIN\n", user.Email, user.ID)
	}
	return nil
}
