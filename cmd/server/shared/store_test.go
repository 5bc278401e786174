package shared

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/UkralStul/graphql-social-feed/internal/config"
	"github.com/UkralStul/graphql-social-feed/internal/storage/gormstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })
	return &buf
}

func TestOpenStore_SQLite(t *testing.T) {
	captureLog(t)
	cfg := &config.Config{Storage: config.StorageSQLite, DatabaseURL: filepath.Join(t.TempDir(), "feed.db")}

	store, closeStore, err := OpenStore(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &gormstore.Store{}, store)
	assert.NoError(t, closeStore())
}

func TestOpenStore_UnknownStorage(t *testing.T) {
	captureLog(t)
	_, _, err := OpenStore(context.Background(), &config.Config{Storage: "mongo"})
	assert.Error(t, err)
}

func TestCloseStore_LogsError(t *testing.T) {
	logs := captureLog(t)

	CloseStore(func() error { return nil })
	assert.Empty(t, logs.String())

	CloseStore(func() error { return errors.New("disk gone") })
	assert.Contains(t, logs.String(), "close storage: disk gone")
}
