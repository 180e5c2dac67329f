package vision

import (
	"context"

	"github.com/juju/errors"

	"github.com/ginjaninja78/vision-connector/internal/envelope"
	"github.com/ginjaninja78/vision-connector/internal/message"
	"github.com/ginjaninja78/vision-connector/internal/session"
)

// Ping reports whether the web service answers its test operation.
func Ping(ctx context.Context, endpoint Endpoint) bool {
	raw, err := endpoint.Call(ctx, Request{Operation: OpMyTest})
	if err != nil {
		logger.Debugf("ping failed: %v", err)
		return false
	}
	return raw != ""
}

// CanAuthenticate reports whether the server accepts creds. Only an explicit
// invalid login answer or a failed call counts as rejection.
func CanAuthenticate(ctx context.Context, endpoint Endpoint, creds session.Credentials) bool {
	raw, err := LoginFunc(endpoint)(ctx, envelope.LoginConnInfo(creds.Database, creds.Username, creds.Password))
	if err != nil {
		logger.Debugf("authentication check failed: %v", err)
		return false
	}
	return message.Parse(raw).ReturnCode != message.CodeInvalidLogin
}

// Databases lists the database descriptions available on the server.
func Databases(ctx context.Context, endpoint Endpoint) ([]string, error) {
	raw, err := endpoint.Call(ctx, Request{Operation: OpGetDatabases})
	if err != nil {
		return nil, errors.Annotate(err, "listing databases")
	}
	doc, err := message.ReadDocument(raw)
	if err != nil {
		return nil, errors.Annotate(err, "listing databases")
	}
	root := doc.Root()
	if root.Tag != "databases" {
		return nil, errors.NotValidf("databases response with root %q", root.Tag)
	}
	var names []string
	for _, desc := range root.SelectElements("desc") {
		names = append(names, desc.Text())
	}
	return names, nil
}
