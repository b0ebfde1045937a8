package catalog

import "github.com/google/uuid"

// Permission is a fixed catalog entry. Codes are stored normalized (trimmed,
// case-folded) and are immutable once created; entries are only ever
// deactivated, never deleted.
type Permission struct {
	ID       uuid.UUID `json:"id"`
	Code     string    `json:"code"`
	Name     string    `json:"name"`
	IsActive bool      `json:"is_active"`
}
