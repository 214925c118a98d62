package migration

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/prompthero/backend/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupRunner(t *testing.T) (*Runner, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	l := logrus.New()
	l.SetOutput(io.Discard)
	return NewRunner(db, l), db
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestRunMigrations_OrderedSQLFiles(t *testing.T) {
	runner, db := setupRunner(t)
	dir := t.TempDir()
	writeFile(t, dir, "002_seed_marker.sql", "INSERT INTO marker (step) VALUES (2);")
	writeFile(t, dir, "001_marker.sql", "CREATE TABLE marker (step INTEGER);")
	writeFile(t, dir, "README.md", "not a migration")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "999_dir.sql"), 0o700))

	files, err := SQLFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_marker.sql", "002_seed_marker.sql"}, files)

	require.NoError(t, runner.RunMigrations(dir))

	for _, m := range Models() {
		assert.True(t, db.Migrator().HasTable(m))
	}
	var step int
	require.NoError(t, db.Raw("SELECT step FROM marker").Scan(&step).Error)
	assert.Equal(t, 2, step)
	assert.True(t, db.Migrator().HasColumn(&models.Prompt{}, "tags"))
	assert.False(t, db.Migrator().HasColumn(&models.Prompt{}, "relevance"))
}

func TestRunMigrations_MissingDirectory(t *testing.T) {
	runner, _ := setupRunner(t)
	assert.NoError(t, runner.RunMigrations(filepath.Join(t.TempDir(), "absent")))
}

func TestRunMigrations_BrokenFile(t *testing.T) {
	runner, _ := setupRunner(t)
	dir := t.TempDir()
	writeFile(t, dir, "001_broken.sql", "CREATE TABLE (;")

	err := runner.RunMigrations(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "001_broken.sql")
}
