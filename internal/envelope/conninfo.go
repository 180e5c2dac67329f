// =============================================================================
// Vision Connector - Connection Info
// =============================================================================
//
// This file builds the ConnInfo fragment that carries the database, the user
// and, when sessions are in use, the session token.
//
// =============================================================================

package envelope

import "github.com/beevik/etree"

// Connection info element names.
const (
	connInfoTag     = "VisionConnInfo"
	databaseTag     = "databaseDescription"
	userNameTag     = "userName"
	userPasswordTag = "userPassword"
	sessionIDTag    = "SessionID"
)

type connField struct {
	tag, value string
}

func connInfo(fields ...connField) string {
	root := etree.NewElement(connInfoTag)
	for _, f := range fields {
		textElement(root, f.tag, f.value)
	}
	return String(root)
}

// SessionConnInfo returns connection info carrying only a session id.
func SessionConnInfo(sessionID string) string {
	return connInfo(connField{sessionIDTag, sessionID})
}

// DatabaseConnInfo returns connection info for a database and session id.
func DatabaseConnInfo(database, sessionID string) string {
	return connInfo(
		connField{databaseTag, database},
		connField{sessionIDTag, sessionID},
	)
}

// LoginConnInfo returns connection info with credentials and no session.
func LoginConnInfo(database, username, password string) string {
	return connInfo(
		connField{databaseTag, database},
		connField{userNameTag, username},
		connField{userPasswordTag, password},
	)
}

// FullConnInfo returns connection info with credentials and a session id.
func FullConnInfo(database, username, password, sessionID string) string {
	return connInfo(
		connField{databaseTag, database},
		connField{userNameTag, username},
		connField{userPasswordTag, password},
		connField{sessionIDTag, sessionID},
	)
}
