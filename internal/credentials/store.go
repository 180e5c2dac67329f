// Package credentials keeps Vision passwords in the operating system keyring
// so they never have to be written into the configuration file.
package credentials

import (
	"strings"

	"github.com/99designs/keyring"
	"github.com/juju/errors"
	"github.com/juju/loggo"
)

var logger = loggo.GetLogger("vision.credentials")

// DefaultService is the keyring service name items are stored under.
const DefaultService = "visionctl"

// Config selects the keyring backend.
type Config struct {
	// Service defaults to DefaultService.
	Service string

	// Backend restricts the keyring to one backend, for example "file",
	// "keychain", "wincred" or "secret-service". Empty lets the keyring
	// pick the first available one.
	Backend string

	// Dir is the directory used by the file backend.
	Dir string

	// FilePassword unlocks the file backend. When empty the file backend
	// prompts on the terminal.
	FilePassword string
}

// Store reads and writes passwords keyed by account.
type Store struct {
	ring keyring.Keyring
}

// Open opens the keyring described by cfg.
func Open(cfg Config) (*Store, error) {
	if cfg.Service == "" {
		cfg.Service = DefaultService
	}
	krCfg := keyring.Config{
		ServiceName:  cfg.Service,
		FileDir:      cfg.Dir,
		PassPrefix:   cfg.Service,
		KeychainName: "login",
	}
	if cfg.Backend != "" {
		backend := keyring.BackendType(strings.ToLower(cfg.Backend))
		if !supported(backend) {
			return nil, errors.NotValidf("keyring backend %q", cfg.Backend)
		}
		krCfg.AllowedBackends = []keyring.BackendType{backend}
	}
	if cfg.FilePassword != "" {
		krCfg.FilePasswordFunc = keyring.FixedStringPrompt(cfg.FilePassword)
	} else {
		krCfg.FilePasswordFunc = keyring.TerminalPrompt
	}
	ring, err := keyring.Open(krCfg)
	if err != nil {
		return nil, errors.Annotatef(err, "opening keyring %q", cfg.Service)
	}
	logger.Debugf("opened keyring %q", cfg.Service)
	return NewStore(ring), nil
}

// NewStore wraps an already opened keyring.
func NewStore(ring keyring.Keyring) *Store {
	return &Store{ring: ring}
}

func supported(backend keyring.BackendType) bool {
	for _, b := range keyring.AvailableBackends() {
		if b == backend {
			return true
		}
	}
	return false
}

// Account is the key a password is stored under: database/username.
func Account(database, username string) string {
	return database + "/" + username
}

// Password returns the password stored for account. A missing item is a
// NotFound error.
func (s *Store) Password(account string) (string, error) {
	item, err := s.ring.Get(account)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", errors.NotFoundf("password for %q", account)
	}
	if err != nil {
		return "", errors.Annotatef(err, "reading password for %q", account)
	}
	return string(item.Data), nil
}

// SetPassword stores password for account, replacing any previous value.
func (s *Store) SetPassword(account, password string) error {
	if account == "" {
		return errors.NotValidf("empty account")
	}
	err := s.ring.Set(keyring.Item{
		Key:         account,
		Data:        []byte(password),
		Label:       "Vision " + account,
		Description: "Deltek Vision password",
	})
	return errors.Annotatef(err, "storing password for %q", account)
}

// Remove deletes the password for account. Removing a missing item is not
// an error.
func (s *Store) Remove(account string) error {
	err := s.ring.Remove(account)
	if err == nil || errors.Is(err, keyring.ErrKeyNotFound) {
		return nil
	}
	return errors.Annotatef(err, "removing password for %q", account)
}

// Accounts lists the accounts with a stored password.
func (s *Store) Accounts() ([]string, error) {
	keys, err := s.ring.Keys()
	if err != nil {
		return nil, errors.Annotate(err, "listing keyring items")
	}
	return keys, nil
}
