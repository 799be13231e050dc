package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"komoralink/internal/config"
	"komoralink/internal/sheets/memory"
	"komoralink/internal/storage"
)

func TestCreateBackend_Memory(t *testing.T) {
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: MemoryBackend})
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Cleanup() })

	assert.IsType(t, &storage.MemoryStore{}, res.Store)
	assert.IsType(t, &memory.Exporter{}, res.Exporter)
	assert.Nil(t, res.Queue)
}

func TestCreateBackend_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports.db")
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: SQLiteBackend, SQLiteDBPath: path})
	require.NoError(t, err)

	assert.IsType(t, &storage.SQLiteRepository{}, res.Store)
	assert.Nil(t, res.Exporter, "sqlite without a spreadsheet does not export")
	assert.NoError(t, res.Cleanup())
}

func TestCreateBackend_Invalid(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"unknown type", Config{Type: "sheets"}},
		{"sqlite without path", Config{Type: SQLiteBackend}},
		{"amqp without queue", Config{Type: MemoryBackend, AMQPURL: "amqp://localhost", AMQPExchange: "x"}},
		{"sheets without credentials", Config{Type: MemoryBackend, GoogleSpreadsheetID: "sheet"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFactory(nil).CreateBackend(context.Background(), tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	assert.Error(t, err)

	_, err = FromAppConfig(&config.Config{DataBackend: "postgres"})
	assert.Error(t, err)

	cfg, err := FromAppConfig(&config.Config{
		DataBackend:           "sqlite",
		SQLiteDBPath:          "./data/k.db",
		GoogleSpreadsheetID:   "sheet",
		GoogleReportSheetName: "Rapports",
		GoogleCredentialsJSON: "{}",
	})
	require.NoError(t, err)
	assert.Equal(t, SQLiteBackend, cfg.Type)
	assert.Equal(t, "Rapports", cfg.GoogleSheetName)
	assert.Equal(t, "{}", cfg.GoogleCredentialsJSON)
}

func TestGetBackendTypeStrings(t *testing.T) {
	assert.Equal(t, []string{"sqlite", "memory"}, GetBackendTypeStrings())
}
