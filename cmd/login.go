// =============================================================================
// Vision Connector - Login Command
// =============================================================================
//
// This file defines the 'login' and 'logout' commands, which keep the Vision
// password in the operating system keyring.
//
// COMMAND USAGE:
//   visionctl login [--password-stdin]
//   visionctl logout
//
// =============================================================================

package cmd

import (
	"bufio"
	"context"
	"os"
	"strings"

	"github.com/juju/errors"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/vision-connector/internal/config"
	"github.com/ginjaninja78/vision-connector/internal/session"
	"github.com/ginjaninja78/vision-connector/internal/vision"
)

// passwordStdin reads the password from standard input instead of a prompt.
var passwordStdin bool

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Check a password and store it in the keyring",
	Long: `The login command asks for the password of the configured user, checks it
against Vision and stores it in the keyring. Later commands read it from
there unless the configuration or VISION_PASSWORD provides one.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLogin(cmd.Context())
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored password from the keyring",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return errors.Trace(err)
		}
		store, err := openStore(cfg.Credentials)
		if err != nil {
			return errors.Trace(err)
		}
		if err := store.Remove(cfg.Credentials.Account()); err != nil {
			return errors.Trace(err)
		}
		pterm.Success.Printfln("Removed the password of %s", cfg.Credentials.Account())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd, logoutCmd)

	loginCmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from standard input")
}

func runLogin(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return errors.Trace(err)
	}
	password, err := readPassword(cfg.Credentials)
	if err != nil {
		return errors.Trace(err)
	}
	endpoint, err := newEndpoint(cfg)
	if err != nil {
		return errors.Trace(err)
	}

	creds := session.Credentials{
		Database: cfg.Credentials.Database,
		Username: cfg.Credentials.Username,
		Password: password,
	}
	if !vision.CanAuthenticate(ctx, endpoint, creds) {
		return errors.Unauthorizedf("login of %s to %s", creds.Username, creds.Database)
	}

	store, err := openStore(cfg.Credentials)
	if err != nil {
		return errors.Trace(err)
	}
	if err := store.SetPassword(cfg.Credentials.Account(), password); err != nil {
		return errors.Trace(err)
	}
	pterm.Success.Printfln("Logged in as %s, password stored in the keyring", cfg.Credentials.Account())
	return nil
}

func readPassword(cfg config.CredentialsConfig) (string, error) {
	if passwordStdin {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", errors.Annotate(err, "reading password")
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
	pw, err := pterm.DefaultInteractiveTextInput.WithMask("*").Show("Password for " + cfg.Account())
	if err != nil {
		return "", errors.Annotate(err, "reading password")
	}
	if pw == "" {
		return "", errors.NotValidf("empty password")
	}
	return pw, nil
}
