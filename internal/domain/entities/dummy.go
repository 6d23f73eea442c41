// Package entities contains domain entities with identity and lifecycle.
// Entities are compared by their ID, not by their attributes.
package entities

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Haleralex/gincore/internal/domain/errors"
	"github.com/google/uuid"
)

// MaxDummyNameLength is the longest name a Dummy may carry (in runes).
const MaxDummyNameLength = 100

// Dummy is the sample entity served by the demo API.
// The client may choose the ID; that ID doubles as the body dedup token.
type Dummy struct {
	id             uuid.UUID
	name           string
	dateCreatedUTC time.Time
}

// NewDummy creates a Dummy. A nil id means "generate one".
//
// Business Rules:
//   - name is trimmed, may be empty, but not longer than MaxDummyNameLength
//   - creation time is always UTC
func NewDummy(id uuid.UUID, name string) (*Dummy, error) {
	if id == uuid.Nil {
		id = uuid.New()
	}

	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) > MaxDummyNameLength {
		return nil, errors.ValidationError{
			Field:   "name",
			Message: "name must not exceed 100 characters",
		}
	}

	return &Dummy{
		id:             id,
		name:           name,
		dateCreatedUTC: time.Now().UTC(),
	}, nil
}

// ReconstructDummy hydrates a Dummy from storage without validation.
func ReconstructDummy(id uuid.UUID, name string, dateCreatedUTC time.Time) *Dummy {
	return &Dummy{
		id:             id,
		name:           name,
		dateCreatedUTC: dateCreatedUTC.UTC(),
	}
}

// ID returns the dummy's identifier.
func (d *Dummy) ID() uuid.UUID {
	return d.id
}

// Name returns the dummy's name.
func (d *Dummy) Name() string {
	return d.name
}

// DateCreatedUTC returns when the dummy was created.
func (d *Dummy) DateCreatedUTC() time.Time {
	return d.dateCreatedUTC
}
