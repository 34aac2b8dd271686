package model

import (
	"time"

	"github.com/google/uuid"
)

// Entity carries the identity and bookkeeping columns shared by every table.
// CreatedAt, UpdatedAt and Version are owned by the persistence gateway and are
// overwritten on save; callers only read them.
type Entity struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	// Version is the optimistic concurrency token. Updates and deletes only
	// succeed against the version that was read.
	Version int64 `json:"version"`
}
