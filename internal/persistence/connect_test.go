package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/classroom-service/internal/config"
)

func TestPoolConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.PostgresConfig
		wantErr error
		check   func(t *testing.T, max, min int32, idle, life time.Duration, appName string)
	}{
		{name: "missing dsn", cfg: config.PostgresConfig{}, wantErr: ErrNoDSN},
		{
			name: "limits applied",
			cfg: config.PostgresConfig{
				DSN: "postgres://u:p@localhost:5432/school", MaxConns: 8, MinConns: 2,
				ConnMaxIdleSec: 30, ConnMaxLifeSec: 300,
			},
			check: func(t *testing.T, max, min int32, idle, life time.Duration, appName string) {
				assert.Equal(t, int32(8), max)
				assert.Equal(t, int32(2), min)
				assert.Equal(t, 30*time.Second, idle)
				assert.Equal(t, 5*time.Minute, life)
				assert.Equal(t, "classroom-service", appName)
			},
		},
		{
			name: "min above max ignored and dsn application name kept",
			cfg:  config.PostgresConfig{DSN: "postgres://u:p@localhost:5432/school?application_name=psql", MaxConns: 2, MinConns: 5},
			check: func(t *testing.T, max, min int32, _, _ time.Duration, appName string) {
				assert.Equal(t, int32(2), max)
				assert.Zero(t, min)
				assert.Equal(t, "psql", appName)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := poolConfig(tt.cfg, "classroom-service")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, got.MaxConns, got.MinConns, got.MaxConnIdleTime, got.MaxConnLifetime,
				got.ConnConfig.RuntimeParams["application_name"])
		})
	}
}

func TestRedisPing(t *testing.T) {
	mr := miniredis.RunT(t)
	r := NewRedis(context.Background(), config.RedisConfig{Addr: mr.Addr()}, "classroom-service", zap.NewNop())
	defer r.Close()
	assert.NoError(t, r.Ping(context.Background()))

	mr.Close()
	assert.Error(t, r.Ping(context.Background()))

	var missing *Redis
	assert.Error(t, missing.Ping(context.Background()))
	var noPool *Postgres
	assert.Error(t, noPool.Ping(context.Background()))
}
