package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) DB {
	t.Helper()

	conn, err := sqlx.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = conn.Close() })

	_, err = conn.Exec(`CREATE TABLE setting (id TEXT PRIMARY KEY, value TEXT)`)
	require.NoError(t, err)

	return NewDatabaseInstance(conn, ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}))
}

func TestFlavorForDriver(t *testing.T) {
	assert.Equal(t, sqlbuilder.SQLite, FlavorForDriver("sqlite3"))
	assert.Equal(t, sqlbuilder.PostgreSQL, FlavorForDriver("postgres"))
	assert.Equal(t, sqlbuilder.MySQL, FlavorForDriver("mysql"))
}

func TestColumn(t *testing.T) {
	assert.Equal(t, `"name"`, Column("", "name"))
	assert.Equal(t, `"agreementaccount"."name"`, Column("agreementaccount", "name"))
	assert.Equal(t, `"a""b"`, QuoteIdent(`a"b`))
}

func TestTransaction(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	t.Run("nested GetTx reuses the open transaction", func(t *testing.T) {
		txCtx, tx, err := db.GetTx(ctx, nil)
		require.NoError(t, err)

		_, nested, err := db.GetTx(txCtx, nil)
		require.NoError(t, err)

		_, err = ExecutorFromContext(txCtx, db).ExecContext(txCtx, `INSERT INTO setting (id, value) VALUES ('a', '1')`)
		require.NoError(t, err)

		// the nested handle does not own the transaction
		require.NoError(t, nested.Commit(txCtx))
		assert.True(t, tx.IsOpen())

		require.NoError(t, tx.Commit(txCtx))
		assert.False(t, tx.IsOpen())

		var count int
		require.NoError(t, db.GetContext(ctx, &count, `SELECT COUNT(*) FROM setting`))
		assert.Equal(t, 1, count)
	})

	t.Run("rollback discards writes", func(t *testing.T) {
		txCtx, tx, err := db.GetTx(ctx, nil)
		require.NoError(t, err)

		_, err = tx.ExecContext(txCtx, `INSERT INTO setting (id, value) VALUES ('b', '2')`)
		require.NoError(t, err)
		require.NoError(t, tx.Rollback(txCtx))

		var count int
		require.NoError(t, db.GetContext(ctx, &count, `SELECT COUNT(*) FROM setting WHERE id = 'b'`))
		assert.Equal(t, 0, count)
	})
}

func TestJSONB(t *testing.T) {
	var fromString JSONB[map[string]string]
	require.NoError(t, fromString.Scan(`{"key":"value"}`))
	assert.Equal(t, "value", fromString.GetValue()["key"])

	var fromBytes JSONB[[]int]
	require.NoError(t, fromBytes.Scan([]byte(`[1,2]`)))
	assert.Equal(t, []int{1, 2}, fromBytes.GetValue())

	var fromNil JSONB[[]int]
	require.NoError(t, fromNil.Scan(nil))
	assert.Nil(t, fromNil.GetValue())

	assert.Error(t, fromBytes.Scan(42))

	value, err := JSONB[[]string]{Data: []string{"a"}}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["a"]`, value)
}

func TestLatestVersion(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"000001_init.up.sql", "000001_init.down.sql", "000003_settings.up.sql", "README.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("--"), 0o600))
	}

	version, err := LatestVersion(dir)
	require.NoError(t, err)
	assert.Equal(t, 3, version)

	_, err = LatestVersion(t.TempDir())
	assert.Error(t, err)
}
