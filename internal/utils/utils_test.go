package utils

import (
	"context"
	"testing"

	"geotz/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenRedisDisabled(t *testing.T) {
	rc, err := OpenRedis(context.Background(), config.RedisConfig{Enable: false})
	require.NoError(t, err)
	assert.Nil(t, rc)
}

func TestOpenRedisUnreachable(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rc, err := OpenRedis(ctx, config.RedisConfig{Enable: true, Host: "127.0.0.1", Port: "1"})
	assert.Error(t, err)
	assert.Nil(t, rc)
}

func TestOpenPostgresUnreachable(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	db, err := OpenPostgres(ctx, config.PostgresConfig{Host: "127.0.0.1", Port: "1", User: "u", DB: "d", SSLMode: "disable", MaxOpenConns: 1})
	assert.Error(t, err)
	assert.Nil(t, db)
}
