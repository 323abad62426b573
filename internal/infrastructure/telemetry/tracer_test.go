package telemetry

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       sqlDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	return db
}

func TestNewTracerProviderDisabled(t *testing.T) {
	tp, err := NewTracerProvider(context.Background(), Config{Enabled: false}, nil)
	require.NoError(t, err)
	require.NotNil(t, tp)

	// Disabled provider is a no-op and shuts down cleanly
	assert.NoError(t, tp.Shutdown(context.Background()))
}

func TestRegisterDBTracingDisabled(t *testing.T) {
	db := openTestDB(t)

	err := RegisterDBTracing(db, DBTracingConfig{Enabled: false}, nil)
	assert.NoError(t, err)
}

func TestRegisterDBTracingEnabled(t *testing.T) {
	db := openTestDB(t)

	err := RegisterDBTracing(db, DBTracingConfig{Enabled: true, DBName: "printd_test"}, nil)
	assert.NoError(t, err)
}

func TestDefaultDBTracingConfig(t *testing.T) {
	cfg := DefaultDBTracingConfig()
	assert.False(t, cfg.Enabled)
	assert.False(t, cfg.LogFullSQL)
	assert.Equal(t, "printd", cfg.DBName)
}
