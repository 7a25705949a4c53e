package memori

import (
	"context"
)

// SessionConfig describes a memory-engine session for one namespace.
// The engine owns the database; memorid only hands over the connection
// string and the namespace to partition under.
type SessionConfig struct {
	DatabaseURL string `json:"database_url"`
	Namespace   string `json:"namespace"`
	// ConsciousIngest enables the engine's short-term working memory.
	ConsciousIngest bool `json:"conscious_ingest"`
	// AutoIngest enables dynamic memory search per query.
	AutoIngest bool `json:"auto_ingest"`
}

// Session is an enabled memory-engine connection for one namespace.
// A session is only valid for the namespace it was opened with.
type Session struct {
	ID        string
	Namespace string
}

// EngineClient opens namespaced sessions against the external memory
// engine. Ingestion and recall happen inside the engine once a session is
// enabled; memorid never sees memory content.
type EngineClient interface {
	Open(ctx context.Context, cfg SessionConfig) (*Session, error)
}
