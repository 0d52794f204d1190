package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Herbstein/iracing-driver-data-dump/internal/components/telemetry"
	"github.com/Herbstein/iracing-driver-data-dump/lib/configutil"

	"github.com/tcnksm/go-input"
	"golang.org/x/term"
)

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Config struct {
	Auth Credentials `json:"auth"`
}

type prompter interface {
	Prompt(label string) (string, error)
	// PromptSecret is like Prompt, but does not echo the input if possible.
	PromptSecret(label string) (string, error)
}

// inputPrompter asks on a terminal, looping until an answer is given and
// masking secrets. Otherwise an empty answer is an error.
type inputPrompter struct {
	ui          *input.UI
	interactive bool
}

func newStdioPrompter(out io.Writer) inputPrompter {
	return inputPrompter{
		ui: &input.UI{
			Writer: out,
			Reader: os.Stdin,
		},
		interactive: term.IsTerminal(int(os.Stdin.Fd())),
	}
}

func (p inputPrompter) ask(label string, mask bool) (string, error) {
	return p.ui.Ask(label, &input.Options{
		Required:  true,
		Loop:      p.interactive,
		HideOrder: true,
		Mask:      mask && p.interactive,
	})
}

func (p inputPrompter) Prompt(label string) (string, error) {
	return p.ask(label, false)
}

func (p inputPrompter) PromptSecret(label string) (string, error) {
	return p.ask(label, true)
}

// resolveCredentials reads credentials from the config at `path`, asking for
// whatever the config leaves out.
func resolveCredentials(path string, p prompter, tel telemetry.API) (Credentials, error) {
	cfg, err := configutil.ReadConfig[Config](path)
	if errors.Is(err, os.ErrNotExist) {
		tel.ReportDebug("no config file, prompting for credentials", "path", path)
	} else if err != nil {
		return Credentials{}, fmt.Errorf("read config: %w", err)
	}

	creds := Credentials{
		Email:    strings.TrimSpace(cfg.Auth.Email),
		Password: strings.TrimSpace(cfg.Auth.Password),
	}
	if creds.Email == "" {
		email, err := p.Prompt("Email")
		if err != nil {
			return Credentials{}, fmt.Errorf("prompt email: %w", err)
		}
		creds.Email = strings.TrimSpace(email)
	}
	if creds.Password == "" {
		password, err := p.PromptSecret("Password")
		if err != nil {
			return Credentials{}, fmt.Errorf("prompt password: %w", err)
		}
		creds.Password = strings.TrimSpace(password)
	}

	if creds.Email == "" {
		return Credentials{}, fmt.Errorf("an email is required")
	}
	if creds.Password == "" {
		return Credentials{}, fmt.Errorf("a password is required")
	}
	return creds, nil
}
