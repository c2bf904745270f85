package server

import (
	"context"
	"testing"

	"DarkPull/internal/usecase"
	"DarkPull/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleRejectsBadSpec(t *testing.T) {
	cfg := config.Default()
	cfg.Pipeline.Schedule = "every weekday"
	a := New(cfg, nil, &usecase.Orchestrator{}, nil)

	err := a.schedule(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "every weekday")
}

func TestScheduleDisabledWithoutSpec(t *testing.T) {
	a := New(config.Default(), nil, &usecase.Orchestrator{}, nil)

	require.NoError(t, a.schedule(context.Background()))
	assert.Nil(t, a.cron)
}

func TestScheduleStartsCron(t *testing.T) {
	cfg := config.Default()
	cfg.Pipeline.Schedule = "30 16 * * 1-5"
	a := New(cfg, nil, &usecase.Orchestrator{}, nil)

	require.NoError(t, a.schedule(context.Background()))
	require.NotNil(t, a.cron)
	assert.Len(t, a.cron.Entries(), 1)
	<-a.cron.Stop().Done()
}

func TestHealthReportsBackends(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Backend = "redis"
	a := New(cfg, nil, nil, nil)

	h, ok := a.health().(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "redis", h["store"])
	assert.Equal(t, false, h["provider_auth"])
}
