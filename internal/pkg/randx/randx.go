/*
Package randx generates unique identifiers for transport-level objects.
*/
package randx

import "github.com/google/uuid"

// ConnectionID returns an opaque identifier for a new client connection.
// Connections carry no other identity until a join succeeds, so the handle
// only needs to be unique for the process lifetime.
func ConnectionID() string {
	return uuid.NewString()
}
