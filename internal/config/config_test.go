package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("PG_HOST", "db")
	t.Setenv("PG_USER", "bank")
	t.Setenv("PG_PASSWORD", "secret")
	t.Setenv("PG_DATABASE", "questions")
	t.Setenv("JWT_SECRET", "jwt")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "question-bank", cfg.Name)
	assert.Equal(t, int32(10), cfg.Postgres.MaxConns)
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "owner", cfg.Security.OwnerRole)
	assert.False(t, cfg.Evaluation.StrictMatching)
	assert.Equal(t, "host=db port=5432 user=bank password=secret dbname=questions sslmode=disable", cfg.Postgres.DSN())
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("EVAL_STRICT_MATCHING", "true")
	t.Setenv("QUESTION_CACHE_TTL", "30s")

	cfg, err := Load(context.Background())
	require.NoError(t, err)
	assert.True(t, cfg.Redis.Enabled())
	assert.True(t, cfg.Evaluation.StrictMatching)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
}

func TestLoadRequiresSecrets(t *testing.T) {
	setRequired(t)
	t.Setenv("JWT_SECRET", "")

	_, err := Load(context.Background())
	assert.Error(t, err)
}
