package window

import (
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// Identity names a window. It is comparable and can be used as a map key.
// The zero value is the primary window.
type Identity struct {
	id uuid.UUID
}

// NewIdentity generates a random identity. It never equals Primary().
func NewIdentity() Identity {
	for {
		id := uuid.New()
		if id != uuid.Nil {
			return Identity{id: id}
		}
	}
}

// Primary returns the identity reserved for the primary window.
func Primary() Identity {
	return Identity{id: uuid.Nil}
}

// ParseIdentity parses either the simple (32 hex digits) or the canonical
// dashed form of an identity.
func ParseIdentity(s string) (Identity, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return Identity{}, fmt.Errorf("invalid window identity %q: %w", s, err)
	}
	return Identity{id: id}, nil
}

// IsPrimary reports whether id is the primary window sentinel.
func (id Identity) IsPrimary() bool {
	return id == Primary()
}

// String renders the identity as 32 lowercase hex digits without dashes.
func (id Identity) String() string {
	return hex.EncodeToString(id.id[:])
}

// MarshalText implements encoding.TextMarshaler.
func (id Identity) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *Identity) UnmarshalText(text []byte) error {
	parsed, err := ParseIdentity(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
