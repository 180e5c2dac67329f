// =============================================================================
// Vision Connector - Configuration Module
// =============================================================================
//
// This module loads the visionctl configuration file. A single YAML file holds
// every section:
//
//   vision:       where the web service lives and how to reach it
//   credentials:  the Vision database user and session settings
//   fetch:        paging settings for retrievals
//   ingest:       directories and rules for the expense import job
//   log_level:    root logging level
//
// LOADING:
//   Load reads the file, applies defaults, validates the result and creates
//   the ingest directories. Durations are written as Go duration strings
//   ("90s", "10m").
//
// =============================================================================

package config

import (
	"os"
	"strings"
	"time"

	"github.com/juju/errors"
	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/vision-connector/internal/credentials"
)

// =============================================================================
// DEFAULTS
// =============================================================================

const (
	DefaultNamespace     = "http://tempuri.org/"
	DefaultHTTPTimeout   = 5 * time.Minute
	DefaultSessionMaxAge = 10 * time.Minute
	DefaultChunkSize     = 100
	DefaultMaxPages      = 1000
	DefaultInterval      = 60 * time.Second
	DefaultFilePattern   = "*.expense"
	DefaultXLSXPattern   = "*.xlsx"
	DefaultLogLevel      = "INFO"

	// PasswordEnv is consulted when the configuration carries no password.
	PasswordEnv = "VISION_PASSWORD"
)

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// Config is the root of the configuration file.
type Config struct {
	Vision      VisionConfig      `yaml:"vision"`
	Credentials CredentialsConfig `yaml:"credentials"`
	Fetch       FetchConfig       `yaml:"fetch"`
	Ingest      IngestConfig      `yaml:"ingest"`

	// LogLevel is the root logging level: TRACE, DEBUG, INFO, WARNING or
	// ERROR.
	// Default: "INFO"
	LogLevel string `yaml:"log_level"`
}

// VisionConfig locates the web service.
type VisionConfig struct {
	// URL of the web service, for example
	// "https://vision.example.com/Vision/VisionWS.asmx".
	URL string `yaml:"url"`

	// Namespace is the SOAP target namespace.
	// Default: "http://tempuri.org/"
	Namespace string `yaml:"namespace"`

	// Timeout bounds one HTTP round trip.
	// Default: 5m
	Timeout time.Duration `yaml:"timeout"`

	// HTTPUser and HTTPPassword enable basic authentication when the
	// service sits behind a protected IIS site.
	HTTPUser     string `yaml:"http_user"`
	HTTPPassword string `yaml:"http_password"`
}

// CredentialsConfig identifies the Vision user.
type CredentialsConfig struct {
	Database string `yaml:"database"`
	Username string `yaml:"username"`

	// Password is optional. When empty it is read from the VISION_PASSWORD
	// environment variable and then from the keyring.
	Password string `yaml:"password"`

	// KeyringService, KeyringBackend and KeyringDir select the keyring
	// used to store the password. See "visionctl login".
	KeyringService string `yaml:"keyring_service"`
	KeyringBackend string `yaml:"keyring_backend"`
	KeyringDir     string `yaml:"keyring_dir"`

	// UseSession reuses the token from ValidateLogin across calls.
	// Default: true
	UseSession *bool `yaml:"use_session"`

	// SessionMaxAge is how long a token is reused.
	// Default: 10m
	SessionMaxAge time.Duration `yaml:"session_max_age"`
}

// SessionEnabled reports whether session tokens are reused.
func (c CredentialsConfig) SessionEnabled() bool {
	return c.UseSession == nil || *c.UseSession
}

// FetchConfig tunes paginated retrievals.
type FetchConfig struct {
	// ChunkSize is the page size.
	// Default: 100
	ChunkSize int `yaml:"chunk_size"`

	// MaxPages bounds the pages read by one retrieval.
	// Default: 1000
	MaxPages int `yaml:"max_pages"`

	// RowAccess applies Vision row level security to retrievals.
	RowAccess bool `yaml:"row_access"`

	// RecordDetail is the default detail level: Primary, AllPrimary or All.
	// Empty lets the server decide.
	RecordDetail string `yaml:"record_detail"`

	// PayloadNamespace is applied to outgoing payloads when set.
	PayloadNamespace string `yaml:"payload_namespace"`
}

// IngestConfig drives the expense import job.
type IngestConfig struct {
	// InputDir is scanned for export files.
	// Default: "./input"
	InputDir string `yaml:"input_dir"`

	// InputArchiveDir receives files after they were accepted by Vision.
	// Default: "./input_archive"
	InputArchiveDir string `yaml:"input_archive_dir"`

	// ErrorDir receives the error log of a rejected file.
	// Default: "./errors"
	ErrorDir string `yaml:"error_dir"`

	// OutputDir receives a copy of every payload that was sent.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// FilePattern and XLSXPattern select the input files.
	// Default: "*.expense" and "*.xlsx"
	FilePattern string `yaml:"file_pattern"`
	XLSXPattern string `yaml:"xlsx_pattern"`

	// Interval is the pause between passes of "visionctl watch".
	// Default: 60s
	Interval time.Duration `yaml:"interval"`

	// ArchiveRetention removes archived input files older than this after
	// each pass. Zero keeps them forever.
	ArchiveRetention time.Duration `yaml:"archive_retention"`

	// AutoPost posts the batch after it was added.
	AutoPost bool `yaml:"auto_post"`

	// TreatWarningsAsErrors rejects files with validation warnings.
	TreatWarningsAsErrors bool `yaml:"treat_warnings_as_errors"`

	// Company overrides the company column of every record.
	Company string `yaml:"company"`

	// CSVSettings describes the layout of delimited files.
	CSVSettings CSVSettings `yaml:"csv_settings"`

	// TransformationRules rewrite record fields before validation.
	TransformationRules []TransformationRule `yaml:"transformation_rules"`
}

// =============================================================================
// CSV SETTINGS STRUCTURE
// =============================================================================

// CSVSettings contains settings for parsing delimited export files.
type CSVSettings struct {
	// Delimiter separates fields. Accepts a single character or one of
	// "pipe", "comma", "tab" and "semicolon".
	// Default: "|"
	Delimiter string `yaml:"delimiter"`

	// HeaderRows is the number of header rows skipped before the data.
	// Default: 1
	HeaderRows int `yaml:"header_rows"`
}

// =============================================================================
// TRANSFORMATION RULE STRUCTURE
// =============================================================================

// TransformationRule defines a transformation to apply to a specific field.
type TransformationRule struct {
	// Field is the expense column to transform, for example "WBS1".
	Field string `yaml:"field"`

	// Actions are applied in order.
	Actions []TransformationAction `yaml:"actions"`
}

// TransformationAction defines a single transformation action.
type TransformationAction struct {
	// Type is the type of transformation to apply. See
	// converter.ApplyTransformation for the supported types.
	Type string `yaml:"type"`

	// Value is the parameter for the transformation.
	Value string `yaml:"value"`

	// Find is used for "replace" and "regex_replace" transformations.
	Find string `yaml:"find,omitempty"`

	// LookupTable is used for "lookup" transformations.
	LookupTable map[string]string `yaml:"lookup_table,omitempty"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Load loads the configuration from a YAML file.
//
// PARAMETERS:
//   - path: The path to the configuration file.
//
// RETURNS:
//   - The configuration with defaults applied.
//   - An error if the file cannot be read, parsed or validated, or if an
//     ingest directory cannot be created.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Annotate(err, "reading config file")
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.Annotatef(err, "loading %s", path)
	}
	if err := cfg.Ingest.createDirs(); err != nil {
		return nil, errors.Trace(err)
	}
	return cfg, nil
}

// Parse decodes, defaults and validates configuration data.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Annotate(err, "parsing config")
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, errors.Annotate(err, "invalid configuration")
	}
	return &cfg, nil
}

// ApplyDefaults sets default values for any unset option.
func (c *Config) ApplyDefaults() {
	if c.Vision.Namespace == "" {
		c.Vision.Namespace = DefaultNamespace
	}
	if c.Vision.Timeout == 0 {
		c.Vision.Timeout = DefaultHTTPTimeout
	}
	if c.Credentials.SessionMaxAge == 0 {
		c.Credentials.SessionMaxAge = DefaultSessionMaxAge
	}
	if c.Fetch.ChunkSize == 0 {
		c.Fetch.ChunkSize = DefaultChunkSize
	}
	if c.Fetch.MaxPages == 0 {
		c.Fetch.MaxPages = DefaultMaxPages
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}

	in := &c.Ingest
	if in.InputDir == "" {
		in.InputDir = "./input"
	}
	if in.InputArchiveDir == "" {
		in.InputArchiveDir = "./input_archive"
	}
	if in.ErrorDir == "" {
		in.ErrorDir = "./errors"
	}
	if in.OutputDir == "" {
		in.OutputDir = "./output"
	}
	if in.FilePattern == "" {
		in.FilePattern = DefaultFilePattern
	}
	if in.XLSXPattern == "" {
		in.XLSXPattern = DefaultXLSXPattern
	}
	if in.Interval == 0 {
		in.Interval = DefaultInterval
	}
	if in.CSVSettings.Delimiter == "" {
		in.CSVSettings.Delimiter = "|"
	}
	if in.CSVSettings.HeaderRows == 0 {
		in.CSVSettings.HeaderRows = 1
	}
}

// Validate checks a configuration with defaults applied.
func (c *Config) Validate() error {
	if c.Vision.URL == "" {
		return errors.NotValidf("empty vision.url")
	}
	if c.Vision.Timeout < 0 {
		return errors.NotValidf("negative vision.timeout")
	}
	if c.Credentials.Database == "" {
		return errors.NotValidf("empty credentials.database")
	}
	if c.Credentials.Username == "" {
		return errors.NotValidf("empty credentials.username")
	}
	if c.Credentials.SessionMaxAge < 0 {
		return errors.NotValidf("negative credentials.session_max_age")
	}
	if c.Fetch.ChunkSize < 0 {
		return errors.NotValidf("fetch.chunk_size %d", c.Fetch.ChunkSize)
	}
	if c.Fetch.MaxPages < 0 {
		return errors.NotValidf("fetch.max_pages %d", c.Fetch.MaxPages)
	}
	switch c.Fetch.RecordDetail {
	case "", "Primary", "AllPrimary", "All":
	default:
		return errors.NotValidf("fetch.record_detail %q", c.Fetch.RecordDetail)
	}
	if c.Ingest.Interval < 0 {
		return errors.NotValidf("negative ingest.interval")
	}
	if c.Ingest.ArchiveRetention < 0 {
		return errors.NotValidf("negative ingest.archive_retention")
	}
	if c.Ingest.CSVSettings.HeaderRows < 0 {
		return errors.NotValidf("ingest.csv_settings.header_rows %d", c.Ingest.CSVSettings.HeaderRows)
	}
	for i, rule := range c.Ingest.TransformationRules {
		if rule.Field == "" {
			return errors.NotValidf("transformation rule %d without field", i+1)
		}
	}
	return nil
}

// createDirs creates the ingest directories if they do not exist.
func (in IngestConfig) createDirs() error {
	for _, dir := range []string{in.InputDir, in.InputArchiveDir, in.ErrorDir, in.OutputDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Annotatef(err, "creating directory %s", dir)
		}
	}
	return nil
}

// =============================================================================
// PASSWORD RESOLUTION
// =============================================================================

// PasswordStore looks up a stored password by account.
type PasswordStore interface {
	Password(account string) (string, error)
}

// ResolvePassword returns the Vision password from, in order, the
// configuration, the VISION_PASSWORD environment variable and store. store
// may be nil.
func (c CredentialsConfig) ResolvePassword(store PasswordStore) (string, error) {
	if c.Password != "" {
		return c.Password, nil
	}
	if pw := os.Getenv(PasswordEnv); pw != "" {
		return pw, nil
	}
	if store == nil {
		return "", errors.NotFoundf("password for %q", c.Account())
	}
	pw, err := store.Password(c.Account())
	if err != nil {
		return "", errors.Trace(err)
	}
	return pw, nil
}

// Account is the keyring account of the configured user.
func (c CredentialsConfig) Account() string {
	return credentials.Account(c.Database, c.Username)
}

// DelimiterRune resolves the configured delimiter.
func (s CSVSettings) DelimiterRune() rune {
	switch strings.ToLower(s.Delimiter) {
	case "\\t", "tab":
		return '\t'
	case "pipe":
		return '|'
	case "comma":
		return ','
	case "semicolon":
		return ';'
	}
	if s.Delimiter == "" {
		return '|'
	}
	return []rune(s.Delimiter)[0]
}
