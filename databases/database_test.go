package databases_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linesmerrill/uptime-api/config"
	"github.com/linesmerrill/uptime-api/databases"
	"github.com/linesmerrill/uptime-api/models"
)

func newStore(t *testing.T) (databases.DocumentStore, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := databases.NewFileStore(dir)
	require.NoError(t, err)
	return store, dir
}

func TestNewStore(t *testing.T) {
	store, err := databases.NewStore(&config.Config{DataDir: filepath.Join(t.TempDir(), "data")})
	assert.NoError(t, err)
	assert.NotNil(t, store)

	_, err = databases.NewFileStore("")
	assert.Error(t, err)
}

func TestFileStore_CreateThenRead(t *testing.T) {
	store, dir := newStore(t)
	ctx := context.Background()

	in := models.Check{
		ID:             "abcdefghij0123456789",
		UserPhone:      "5551234567",
		Protocol:       "https",
		URL:            "example.com",
		Method:         "get",
		SuccessCodes:   []int{200, 201},
		TimeoutSeconds: 3,
	}
	require.NoError(t, store.Create(ctx, "checks", in.ID, in))

	var out models.Check
	require.NoError(t, store.Read(ctx, "checks", in.ID, &out))
	assert.Equal(t, in, out)

	_, err := os.Stat(filepath.Join(dir, "checks", in.ID+".json"))
	assert.NoError(t, err)
}

func TestFileStore_CreateDoesNotOverwrite(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, "users", "5551234567", map[string]string{"firstName": "Ann"}))
	err := store.Create(ctx, "users", "5551234567", map[string]string{"firstName": "Bob"})
	assert.ErrorIs(t, err, databases.ErrAlreadyExists)

	var out map[string]string
	require.NoError(t, store.Read(ctx, "users", "5551234567", &out))
	assert.Equal(t, "Ann", out["firstName"])
}

func TestFileStore_ConcurrentCreateOnlyOneWins(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results <- store.Create(ctx, "users", "5550000000", map[string]int{"n": i})
		}(i)
	}
	wg.Wait()
	close(results)

	ok := 0
	for err := range results {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, databases.ErrAlreadyExists)
	}
	assert.Equal(t, 1, ok)
}

func TestFileStore_ReadMissing(t *testing.T) {
	store, _ := newStore(t)

	var out map[string]interface{}
	err := store.Read(context.Background(), "users", "0000000000", &out)
	assert.ErrorIs(t, err, databases.ErrNotFound)
}

func TestFileStore_ReadCorrupt(t *testing.T) {
	store, dir := newStore(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "users"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "users", "5551234567.json"), []byte(`{"firstName":`), 0o644))

	var out models.User
	err := store.Read(context.Background(), "users", "5551234567", &out)
	assert.ErrorIs(t, err, databases.ErrCorruptData)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "users", "5551234568.json"), nil, 0o644))
	err = store.Read(context.Background(), "users", "5551234568", &out)
	assert.ErrorIs(t, err, databases.ErrCorruptData)

	for key, body := range map[string]string{
		"5551234569": "null",
		"5551234570": " null\n",
		"5551234571": `["5551234567"]`,
		"5551234572": `"5551234567"`,
		"5551234573": "42",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "users", key+".json"), []byte(body), 0o644))
		out = models.User{}
		err = store.Read(context.Background(), "users", key, &out)
		assert.ErrorIs(t, err, databases.ErrCorruptData, key)
		assert.Empty(t, out.Phone, key)
	}
}

func TestFileStore_Update(t *testing.T) {
	store, dir := newStore(t)
	ctx := context.Background()

	err := store.Update(ctx, "tokens", "missing", models.Token{ID: "missing"})
	assert.ErrorIs(t, err, databases.ErrNotFound)

	require.NoError(t, store.Create(ctx, "tokens", "t1", models.Token{ID: "t1", Phone: "5551234567", Expires: 1}))
	require.NoError(t, store.Update(ctx, "tokens", "t1", models.Token{ID: "t1", Phone: "5551234567", Expires: 2}))

	var out models.Token
	require.NoError(t, store.Read(ctx, "tokens", "t1", &out))
	assert.Equal(t, int64(2), out.Expires)

	// no temp files left behind
	entries, err := os.ReadDir(filepath.Join(dir, "tokens"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileStore_DeleteTwice(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, "checks", "c1", models.Check{ID: "c1"}))
	assert.NoError(t, store.Delete(ctx, "checks", "c1"))
	assert.ErrorIs(t, store.Delete(ctx, "checks", "c1"), databases.ErrNotFound)
}

func TestFileStore_List(t *testing.T) {
	store, dir := newStore(t)
	ctx := context.Background()

	keys, err := store.List(ctx, "checks")
	require.NoError(t, err)
	assert.Empty(t, keys)

	require.NoError(t, store.Create(ctx, "checks", "b", models.Check{ID: "b"}))
	require.NoError(t, store.Create(ctx, "checks", "a", models.Check{ID: "a"}))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "checks", ".tmp-123"), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "checks", "notes.txt"), []byte("x"), 0o644))

	keys, err = store.List(ctx, "checks")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keys)
}

func TestFileStore_RejectsTraversal(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	for _, key := range []string{"../etc/passwd", "..", "a/b", `a\b`, "", ".hidden", "a..b"} {
		err := store.Create(ctx, "users", key, map[string]string{})
		assert.ErrorIs(t, err, databases.ErrInvalidKey, key)
	}
	_, err := store.List(ctx, "../users")
	assert.ErrorIs(t, err, databases.ErrInvalidKey)
}

func TestFileStore_CanceledContext(t *testing.T) {
	store, _ := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.Create(ctx, "users", "5551234567", models.User{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestUserDatabase_RoundTrip(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()
	userDB := databases.NewUserDatabase(store)

	u := models.User{FirstName: "Ann", LastName: "Lee", Phone: "5551234567", HashedPassword: "x", TOSAgreement: true}
	require.NoError(t, userDB.InsertOne(ctx, u))

	got, err := userDB.FindOne(ctx, "5551234567")
	require.NoError(t, err)
	assert.Equal(t, u, *got)

	got.Checks = []string{"c1"}
	require.NoError(t, userDB.UpdateOne(ctx, *got))
	got, err = userDB.FindOne(ctx, "5551234567")
	require.NoError(t, err)
	assert.Equal(t, []string{"c1"}, got.Checks)

	require.NoError(t, userDB.DeleteOne(ctx, "5551234567"))
	_, err = userDB.FindOne(ctx, "5551234567")
	assert.ErrorIs(t, err, databases.ErrNotFound)
}

func TestTokenAndCheckDatabase_Keys(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()
	tokenDB := databases.NewTokenDatabase(store)
	checkDB := databases.NewCheckDatabase(store)

	require.NoError(t, tokenDB.InsertOne(ctx, models.Token{ID: "t1"}))
	require.NoError(t, checkDB.InsertOne(ctx, models.Check{ID: "c1"}))
	require.NoError(t, checkDB.InsertOne(ctx, models.Check{ID: "c2"}))

	keys, err := tokenDB.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, keys)

	keys, err = checkDB.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c2"}, keys)
}
