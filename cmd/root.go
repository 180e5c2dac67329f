// =============================================================================
// Vision Connector - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Every other command
// is attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (visionctl)
//   ├── processCmd     (visionctl process)
//   ├── watchCmd       (visionctl watch)
//   ├── recordsCmd     (visionctl records)
//   ├── sendCmd        (visionctl send)
//   ├── transactionCmd (visionctl transaction get|add|post)
//   ├── pickListCmd    (visionctl picklist)
//   ├── procCmd        (visionctl proc)
//   ├── infoCmd        (visionctl info)
//   ├── loginCmd       (visionctl login)
//   ├── logoutCmd      (visionctl logout)
//   ├── databasesCmd   (visionctl databases)
//   ├── pingCmd        (visionctl ping)
//   └── versionCmd     (visionctl version)
//
// CONFIGURATION:
//   The root command owns the global flags (--config, --verbose). Commands
//   call loadConfig and the builders below to get a configured logger, a
//   web service endpoint, a session manager and a Vision client.
//
// =============================================================================

package cmd

import (
	"os"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/loggo"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/vision-connector/internal/config"
	"github.com/ginjaninja78/vision-connector/internal/credentials"
	"github.com/ginjaninja78/vision-connector/internal/logging"
	"github.com/ginjaninja78/vision-connector/internal/session"
	"github.com/ginjaninja78/vision-connector/internal/soap"
	"github.com/ginjaninja78/vision-connector/internal/vision"
)

var logger = loggo.GetLogger("vision.cmd")

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the configuration file.
var cfgFile string

// verbose enables debug logging for the vision modules.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "visionctl",
	Short: "Vision Connector - Talk to a Deltek Vision web service",
	Long: `visionctl reads and writes Deltek Vision data through its XML web service.

Key Features:
  - Record and transaction retrieval with automatic paging
  - Session token reuse with transparent re-login
  - Expense export ingestion with validation, batching and posting
  - Passwords kept in the operating system keyring

Example Usage:
  visionctl login                          # Store the password and test it
  visionctl records Employees --key 00001  # Fetch one employee
  visionctl process                        # Import every export file once
  visionctl watch                          # Import export files on a schedule`,

	SilenceUsage: true,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the configuration file",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)
}

// =============================================================================
// CLIENT CONSTRUCTION
// =============================================================================

// loadConfig reads the configuration file and configures logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if err := logging.Configure(cfg.LogLevel, verbose); err != nil {
		return nil, errors.Trace(err)
	}
	logger.Debugf("loaded configuration from %s", cfgFile)
	return cfg, nil
}

// openStore opens the keyring named by the configuration.
func openStore(cfg config.CredentialsConfig) (*credentials.Store, error) {
	store, err := credentials.Open(credentials.Config{
		Service: cfg.KeyringService,
		Backend: cfg.KeyringBackend,
		Dir:     cfg.KeyringDir,
	})
	return store, errors.Trace(err)
}

// newEndpoint creates the SOAP endpoint of the configured web service.
func newEndpoint(cfg *config.Config) (*soap.Client, error) {
	endpoint, err := soap.New(soap.Config{
		URL:       cfg.Vision.URL,
		Namespace: cfg.Vision.Namespace,
		Timeout:   cfg.Vision.Timeout,
		Username:  cfg.Vision.HTTPUser,
		Password:  cfg.Vision.HTTPPassword,
	})
	return endpoint, errors.Trace(err)
}

// resolveCredentials returns the configured user with the password taken
// from the configuration, the environment or the keyring, in that order.
func resolveCredentials(cfg config.CredentialsConfig) (session.Credentials, error) {
	creds := session.Credentials{Database: cfg.Database, Username: cfg.Username}
	var store config.PasswordStore
	if cfg.Password == "" && os.Getenv(config.PasswordEnv) == "" {
		s, err := openStore(cfg)
		if err != nil {
			return creds, errors.Trace(err)
		}
		store = s
	}
	pw, err := cfg.ResolvePassword(store)
	if err != nil {
		return creds, errors.Annotate(err, "resolving password, run \"visionctl login\" first")
	}
	creds.Password = pw
	return creds, nil
}

// newClient builds the Vision client described by cfg.
//
// RETURNS:
//   - The client.
//   - An error if the endpoint, the credentials or the session manager
//     cannot be set up.
func newClient(cfg *config.Config) (*vision.Client, error) {
	endpoint, err := newEndpoint(cfg)
	if err != nil {
		return nil, errors.Trace(err)
	}
	creds, err := resolveCredentials(cfg.Credentials)
	if err != nil {
		return nil, errors.Trace(err)
	}
	mgr, err := session.NewManager(session.Config{
		Credentials: creds,
		UseSession:  cfg.Credentials.SessionEnabled(),
		MaxAge:      cfg.Credentials.SessionMaxAge,
		Login:       vision.LoginFunc(endpoint),
		Clock:       clock.WallClock,
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	client, err := vision.NewClient(endpoint, mgr, vision.Options{
		ChunkSize: cfg.Fetch.ChunkSize,
		MaxPages:  cfg.Fetch.MaxPages,
		RowAccess: cfg.Fetch.RowAccess,
		Namespace: cfg.Fetch.PayloadNamespace,
	})
	return client, errors.Trace(err)
}
