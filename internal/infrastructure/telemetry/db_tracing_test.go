package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/erp/backoffice/internal/domain/identity"
	"github.com/erp/backoffice/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type tracedRow struct {
	ID   uint
	Name string
}

func openTracedDB(t *testing.T, cfg DBTracingConfig) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, NewDBTracingPlugin(cfg, zap.NewNop()).Register(db))
	require.NoError(t, db.AutoMigrate(&tracedRow{}))
	return db
}

func TestDBTracingConfigFrom(t *testing.T) {
	cfg := DBTracingConfigFrom(config.TelemetryConfig{Enabled: true, DBTraceEnabled: true, DBLogFullSQL: true}, time.Second)
	assert.True(t, cfg.Enabled)
	assert.True(t, cfg.LogFullSQL)
	assert.Equal(t, time.Second, cfg.SlowQueryThresh)

	cfg = DBTracingConfigFrom(config.TelemetryConfig{Enabled: false, DBTraceEnabled: true}, 0)
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 200*time.Millisecond, cfg.SlowQueryThresh)
}

func TestDBTracingPlugin_Disabled(t *testing.T) {
	db := openTracedDB(t, DefaultDBTracingConfig())
	_, ok := db.Plugins["otelgorm"]
	assert.False(t, ok)
}

func TestDBTracingPlugin_AnnotatesSpans(t *testing.T) {
	exporter := setupTestTracer(t)
	cfg := DefaultDBTracingConfig()
	cfg.Enabled = true
	cfg.SlowQueryThresh = 0
	db := openTracedDB(t, cfg)
	exporter.Reset()

	branch := uuid.New()
	ctx := identity.WithCaller(context.Background(), identity.Caller{UserID: uuid.New(), BranchID: &branch})
	ctx, parent := StartSpan(ctx, "parent")
	require.NoError(t, db.WithContext(ctx).Create(&tracedRow{Name: "a"}).Error)
	parent.End()

	var insert map[string]string
	for _, s := range exporter.GetSpans() {
		if s.Name == "parent" {
			continue
		}
		insert = map[string]string{}
		for k, v := range attrMap(s.Attributes) {
			insert[k] = v.Emit()
		}
	}
	require.NotNil(t, insert)
	assert.Equal(t, branch.String(), insert[SpanAttrBranchID])
	assert.Equal(t, "1", insert["db.rows_affected"])
	assert.Equal(t, "true", insert["db.slow_query"])
}
