package contacts

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"milo-interpreter/internal/common/database"
	"milo-interpreter/internal/common/errors"
	"milo-interpreter/internal/models"
)

const (
	owner    = "0xowner00000001"
	aliceHex = "0xa11ce0000000000001"
	bobHex   = "0xb0b0000000000000002"
)

type TestLogger struct {
	t *testing.T
}

func (l *TestLogger) Info(msg string, fields map[string]interface{}) {
	l.t.Logf("[INFO] %s %v", msg, fields)
}

func (l *TestLogger) Warn(msg string, fields map[string]interface{}) {
	l.t.Logf("[WARN] %s %v", msg, fields)
}

func (l *TestLogger) Error(msg string, fields map[string]interface{}) {
	l.t.Logf("[ERROR] %s %v", msg, fields)
}

func TestSnapshotResolver(t *testing.T) {
	r := NewSnapshotResolver([]models.Contact{
		{Name: "Alice", Address: aliceHex},
		{Name: "alice", Address: bobHex},
		{Name: "Bob", Address: bobHex},
		{Name: " ", Address: bobHex},
	})
	ctx := context.Background()

	tests := []struct {
		name     string
		token    string
		expected string
	}{
		{"exact name", "Alice", aliceHex},
		{"case insensitive", "ALICE", aliceHex},
		{"padded", "  bob ", bobHex},
		{"literal address", "0x1234567890abcdef", "0x1234567890abcdef"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(ctx, tt.token)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}

	assert.Equal(t, 2, r.Len())
}

func TestSnapshotResolver_Unknown(t *testing.T) {
	r := NewSnapshotResolver(nil)

	for _, token := range []string{"Charlie", "0x12", "", "0xZZZZZZZZZZZZ"} {
		_, err := r.Resolve(context.Background(), token)
		require.Error(t, err, token)
		assert.True(t, stderrors.Is(err, errors.ErrContactResolutionFailed), token)
	}
}

func newMockDirectory(t *testing.T, cache *redis.Client) (*Directory, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewDirectory(database.NewPostgresFromDB(db), cache, time.Minute, &TestLogger{t: t}), mock
}

func TestDirectory_ListReadThrough(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer cache.Close()

	dir, mock := newMockDirectory(t, cache)
	mock.ExpectQuery("SELECT name, address FROM contacts").
		WithArgs(owner).
		WillReturnRows(sqlmock.NewRows([]string{"name", "address"}).
			AddRow("Alice", aliceHex).
			AddRow("Bob", bobHex))

	ctx := context.Background()
	first, err := dir.List(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, []models.Contact{{Name: "Alice", Address: aliceHex}, {Name: "Bob", Address: bobHex}}, first)
	assert.True(t, mr.Exists(cacheKey(owner)))

	// Served from cache; no second query is expected.
	second, err := dir.List(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDirectory_SaveInvalidatesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer cache.Close()
	require.NoError(t, mr.Set(cacheKey(owner), `[]`))

	dir, mock := newMockDirectory(t, cache)
	mock.ExpectExec("INSERT INTO contacts").
		WithArgs(owner, "Alice", aliceHex).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := dir.Save(context.Background(), owner, models.Contact{Name: " Alice ", Address: aliceHex})
	require.NoError(t, err)
	assert.False(t, mr.Exists(cacheKey(owner)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDirectory_SaveValidation(t *testing.T) {
	dir, mock := newMockDirectory(t, nil)

	tests := []struct {
		name    string
		owner   string
		contact models.Contact
	}{
		{"missing owner", "", models.Contact{Name: "Alice", Address: aliceHex}},
		{"missing name", owner, models.Contact{Address: aliceHex}},
		{"bad address", owner, models.Contact{Name: "Alice", Address: "alice.sui"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := dir.Save(context.Background(), tt.owner, tt.contact)
			assert.Equal(t, errors.ErrCodeInvalidRequest, errors.CodeOf(err))
		})
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDirectory_Delete(t *testing.T) {
	dir, mock := newMockDirectory(t, nil)
	mock.ExpectExec("DELETE FROM contacts").
		WithArgs(owner, "alice").
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := dir.Delete(context.Background(), owner, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDirectory_QueryFailure(t *testing.T) {
	dir, mock := newMockDirectory(t, nil)
	mock.ExpectQuery("SELECT name, address FROM contacts").
		WithArgs(owner).
		WillReturnError(stderrors.New("connection reset"))

	_, err := dir.List(context.Background(), owner)
	assert.Equal(t, errors.ErrCodeQueryExecutionFailed, errors.CodeOf(err))
}

func TestDirectory_CacheFailureFallsBackToDatabase(t *testing.T) {
	cache, cacheMock := redismock.NewClientMock()
	cacheMock.ExpectGet(cacheKey(owner)).SetErr(stderrors.New("cache down"))

	dir, mock := newMockDirectory(t, cache)
	mock.ExpectQuery("SELECT name, address FROM contacts").
		WithArgs(owner).
		WillReturnRows(sqlmock.NewRows([]string{"name", "address"}).AddRow("Alice", aliceHex))

	resolver, err := dir.Resolver(context.Background(), owner)
	require.NoError(t, err)

	addr, err := resolver.Resolve(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, aliceHex, addr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDirectory_CorruptCacheEntry(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer cache.Close()
	require.NoError(t, mr.Set(cacheKey(owner), `{not json`))

	dir, mock := newMockDirectory(t, cache)
	mock.ExpectQuery("SELECT name, address FROM contacts").
		WithArgs(owner).
		WillReturnRows(sqlmock.NewRows([]string{"name", "address"}).AddRow("Bob", bobHex))

	got, err := dir.List(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, []models.Contact{{Name: "Bob", Address: bobHex}}, got)

	cached, err := mr.Get(cacheKey(owner))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"Bob","address":"`+bobHex+`"}]`, cached)
}

func TestDirectory_Migrate(t *testing.T) {
	dir, mock := newMockDirectory(t, nil)
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS contacts").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS contacts_owner_lower_name_idx").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	require.NoError(t, dir.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
