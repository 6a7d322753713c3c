package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"aquaculture-platform/pkg/logging"
	"aquaculture-platform/pkg/metrics"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func openMemory(t *testing.T) *DB {
	t.Helper()

	db, err := Open(&Config{Driver: DriverSQLite, Path: ":memory:"}, logging.NewNopLogger(), metrics.NewTestCollector())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestConfigDSN(t *testing.T) {
	pg := &Config{Driver: DriverPostgres, Host: "db", Port: 5432, User: "pond", Password: "secret", Database: "aquaculture", SSLMode: "disable"}
	dsn, err := pg.DSN()
	require.NoError(t, err)
	assert.Equal(t, "host=db port=5432 user=pond password=secret dbname=aquaculture sslmode=disable", dsn)

	_, err = (&Config{Driver: DriverSQLite}).DSN()
	assert.Error(t, err)

	_, err = (&Config{Driver: "mongo"}).DSN()
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestOpen_SQLite(t *testing.T) {
	db := openMemory(t)

	assert.Equal(t, DriverSQLite, db.DriverName())
	assert.Equal(t, "SELECT 1 WHERE 1 = ?", db.Rebind("SELECT 1 WHERE 1 = ?"))
	require.NoError(t, db.HealthCheck(context.Background()))
}

func TestMigrate_UpDown(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)

	require.NoError(t, db.Migrate(ctx, DirectionUp))
	// re-running is a no-op
	require.NoError(t, db.Migrate(ctx, DirectionUp))

	version, err := db.MigrationVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, version)

	var count int
	require.NoError(t, db.GetContext(ctx, "count", &count, "SELECT COUNT(*) FROM pond_analyses"))
	assert.Zero(t, count)

	require.NoError(t, db.Migrate(ctx, DirectionDown))

	version, err = db.MigrationVersion(ctx)
	require.NoError(t, err)
	assert.Zero(t, version)

	err = db.GetContext(ctx, "count", &count, "SELECT COUNT(*) FROM pond_analyses")
	assert.Error(t, err)
}

func TestMigrate_UnknownDirection(t *testing.T) {
	db := openMemory(t)
	assert.ErrorContains(t, db.Migrate(context.Background(), "sideways"), "unknown migration direction")
}

func TestLoadMigrations(t *testing.T) {
	for _, driver := range []string{DriverPostgres, DriverSQLite} {
		migrations, err := loadMigrations(driver)
		require.NoError(t, err, driver)
		require.NotEmpty(t, migrations, driver)

		first := migrations[0]
		assert.Equal(t, 1, first.Version)
		assert.Equal(t, "create_schema", first.Description)
		assert.Contains(t, first.Up, "CREATE TABLE IF NOT EXISTS pond_analyses")
		assert.Contains(t, first.Down, "DROP TABLE IF EXISTS pond_analyses")
	}

	_, err := loadMigrations("oracle")
	assert.Error(t, err)
}

func TestClose_Idempotent(t *testing.T) {
	db, err := Open(&Config{Driver: DriverSQLite, Path: ":memory:"}, logging.NewNopLogger(), metrics.NewTestCollector())
	require.NoError(t, err)

	require.NoError(t, db.Close())
	require.NoError(t, db.Close())
}
