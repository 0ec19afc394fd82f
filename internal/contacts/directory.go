package contacts

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"milo-interpreter/internal/common/database"
	"milo-interpreter/internal/common/errors"
	"milo-interpreter/internal/common/validation"
	"milo-interpreter/internal/models"
)

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Schema creates the contacts table. Duplicate names per owner are allowed;
// exact duplicate rows are not.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS contacts (
		owner_address TEXT NOT NULL,
		name          TEXT NOT NULL,
		address       TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (owner_address, name, address)
	)`,
	`CREATE INDEX IF NOT EXISTS contacts_owner_lower_name_idx ON contacts (owner_address, lower(name))`,
}

const (
	listQuery   = `SELECT name, address FROM contacts WHERE owner_address = $1 ORDER BY created_at, name`
	insertQuery = `INSERT INTO contacts (owner_address, name, address) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`
	deleteQuery = `DELETE FROM contacts WHERE owner_address = $1 AND lower(name) = lower($2)`
)

// Directory is the persistent address book, one list per owner address.
type Directory struct {
	db     *database.PostgresClient
	cache  *redis.Client
	ttl    time.Duration
	logger Logger
}

// NewDirectory builds a directory. cache may be nil.
func NewDirectory(db *database.PostgresClient, cache *redis.Client, ttl time.Duration, log Logger) *Directory {
	return &Directory{db: db, cache: cache, ttl: ttl, logger: log}
}

func (d *Directory) Migrate(ctx context.Context) error {
	return d.db.Migrate(ctx, Schema...)
}

func cacheKey(owner string) string {
	return "contacts:" + strings.ToLower(owner)
}

// List returns owner's contacts, from cache when possible.
func (d *Directory) List(ctx context.Context, owner string) ([]models.Contact, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return nil, errors.NewInvalidRequestError("owner is required")
	}

	if cached, ok := d.fromCache(ctx, owner); ok {
		return cached, nil
	}

	rows, err := d.db.Query(ctx, listQuery, owner)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("list_contacts", err)
	}
	defer rows.Close()

	contacts := []models.Contact{}
	for rows.Next() {
		var c models.Contact
		if err := rows.Scan(&c.Name, &c.Address); err != nil {
			return nil, errors.NewQueryExecutionFailedError("list_contacts", err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("list_contacts", err)
	}

	d.toCache(ctx, owner, contacts)
	return contacts, nil
}

func (d *Directory) Save(ctx context.Context, owner string, c models.Contact) error {
	owner = strings.TrimSpace(owner)
	c.Name = strings.TrimSpace(c.Name)
	c.Address = strings.TrimSpace(c.Address)

	switch {
	case owner == "":
		return errors.NewInvalidRequestError("owner is required")
	case c.Name == "":
		return errors.NewInvalidRequestError("contact name is required")
	case !validation.LooksLikeAddress(c.Address):
		return errors.NewInvalidRequestError(fmt.Sprintf("%q is not a valid Sui address", c.Address))
	}

	if _, err := d.db.Exec(ctx, insertQuery, owner, c.Name, c.Address); err != nil {
		return errors.NewQueryExecutionFailedError("save_contact", err)
	}
	d.invalidate(ctx, owner)
	return nil
}

// Delete removes every contact named name and reports how many went.
func (d *Directory) Delete(ctx context.Context, owner, name string) (int64, error) {
	res, err := d.db.Exec(ctx, deleteQuery, strings.TrimSpace(owner), strings.TrimSpace(name))
	if err != nil {
		return 0, errors.NewQueryExecutionFailedError("delete_contact", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.NewQueryExecutionFailedError("delete_contact", err)
	}
	d.invalidate(ctx, owner)
	return n, nil
}

// Resolver snapshots owner's contacts into a resolver.
func (d *Directory) Resolver(ctx context.Context, owner string) (*SnapshotResolver, error) {
	contacts, err := d.List(ctx, owner)
	if err != nil {
		return nil, err
	}
	return NewSnapshotResolver(contacts), nil
}

func (d *Directory) fromCache(ctx context.Context, owner string) ([]models.Contact, bool) {
	if d.cache == nil {
		return nil, false
	}

	raw, err := d.cache.Get(ctx, cacheKey(owner)).Result()
	if err != nil {
		if !stderrors.Is(err, redis.Nil) {
			d.logger.Warn("contact cache read failed", map[string]interface{}{
				"owner": owner,
				"error": err.Error(),
			})
		}
		return nil, false
	}

	var contacts []models.Contact
	if err := json.Unmarshal([]byte(raw), &contacts); err != nil {
		d.logger.Warn("discarding corrupt contact cache entry", map[string]interface{}{
			"owner": owner,
			"error": err.Error(),
		})
		return nil, false
	}
	return contacts, true
}

func (d *Directory) toCache(ctx context.Context, owner string, contacts []models.Contact) {
	if d.cache == nil {
		return
	}
	data, err := json.Marshal(contacts)
	if err != nil {
		return
	}
	if err := d.cache.Set(ctx, cacheKey(owner), data, d.ttl).Err(); err != nil {
		d.logger.Warn("contact cache write failed", map[string]interface{}{
			"owner": owner,
			"error": err.Error(),
		})
	}
}

func (d *Directory) invalidate(ctx context.Context, owner string) {
	if d.cache == nil {
		return
	}
	if err := d.cache.Del(ctx, cacheKey(strings.TrimSpace(owner))).Err(); err != nil {
		d.logger.Warn("contact cache invalidation failed", map[string]interface{}{
			"owner": owner,
			"error": err.Error(),
		})
	}
}
