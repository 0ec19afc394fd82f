// Package contacts owns the address book: a Postgres-backed directory with a
// Redis read-through cache, and the resolvers that turn a recipient token
// into an address.
package contacts

import (
	"context"
	"strings"

	"milo-interpreter/internal/common/errors"
	"milo-interpreter/internal/common/validation"
	"milo-interpreter/internal/models"
)

// Resolver turns a contact name or a literal address into an address.
type Resolver interface {
	Resolve(ctx context.Context, nameOrAddress string) (string, error)
}

// SnapshotResolver resolves against a fixed contact list. Names match
// case-insensitively; with duplicate names the first entry wins.
type SnapshotResolver struct {
	byName map[string]string
}

func NewSnapshotResolver(contacts []models.Contact) *SnapshotResolver {
	byName := make(map[string]string, len(contacts))
	for _, c := range contacts {
		key := strings.ToLower(strings.TrimSpace(c.Name))
		if key == "" {
			continue
		}
		if _, dup := byName[key]; !dup {
			byName[key] = c.Address
		}
	}
	return &SnapshotResolver{byName: byName}
}

func (r *SnapshotResolver) Resolve(_ context.Context, nameOrAddress string) (string, error) {
	token := strings.TrimSpace(nameOrAddress)
	if addr, ok := r.Lookup(token); ok {
		return addr, nil
	}
	if validation.LooksLikeAddress(token) {
		return token, nil
	}
	return "", errors.NewContactResolutionFailedError(token)
}

// Lookup is the name match alone.
func (r *SnapshotResolver) Lookup(name string) (string, bool) {
	addr, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	return addr, ok
}

func (r *SnapshotResolver) Len() int {
	return len(r.byName)
}
