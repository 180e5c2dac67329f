// =============================================================================
// Vision Connector - Logging
// =============================================================================
//
// Every package logs through a package level loggo logger named below the
// "vision" root module, for example "vision.client" or "vision.ingest".
// Configure sets the levels once at start-up from the configuration file and
// the --verbose flag.
//
// Connection envelopes carry the Vision password and the session token.
// Anything that may contain an envelope goes through Mask before it is
// written to a log.
//
// =============================================================================

package logging

import (
	"regexp"
	"strings"

	"github.com/juju/errors"
	"github.com/juju/loggo"
)

// Logger is the subset of loggo.Logger the pipeline components use.
type Logger interface {
	Debugf(message string, args ...interface{})
	Infof(message string, args ...interface{})
	Warningf(message string, args ...interface{})
	Errorf(message string, args ...interface{})
}

var _ Logger = loggo.Logger{}

// DefaultLevel is used when the configuration names no level.
const DefaultLevel = "INFO"

// Configure sets the root log level. When verbose is set the vision modules
// log at DEBUG regardless of level.
func Configure(level string, verbose bool) error {
	if level == "" {
		level = DefaultLevel
	}
	if _, ok := loggo.ParseLevel(level); !ok {
		return errors.NotValidf("log level %q", level)
	}
	spec := "<root>=" + strings.ToUpper(level)
	if verbose {
		spec += ";vision=DEBUG"
	}
	return errors.Annotate(loggo.ConfigureLoggers(spec), "configuring loggers")
}

const redacted = "********"

var (
	secretElements = regexp.MustCompile(`(?s)<(userPassword|SessionID)>.*?</(userPassword|SessionID)>`)
	secretPairs    = regexp.MustCompile(`(?i)\b(password|token)=[^\s&;]+`)
)

// Mask replaces passwords and session tokens in s.
func Mask(s string) string {
	s = secretElements.ReplaceAllString(s, "<$1>"+redacted+"</$2>")
	return secretPairs.ReplaceAllString(s, "$1="+redacted)
}
