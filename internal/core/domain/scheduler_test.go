package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultSchedulerConfig(t *testing.T) {
	config := DefaultSchedulerConfig()

	assert.True(t, config.Enabled)
	assert.Empty(t, config.Users)
	assert.Len(t, config.TaskConfigs, 2)

	syncCfg := config.TaskConfigs[TaskIDPeriodicSync]
	assert.True(t, syncCfg.Enabled)
	assert.Equal(t, 15*time.Minute, syncCfg.Interval)

	expiryCfg := config.TaskConfigs[TaskIDConflictExpiry]
	assert.True(t, expiryCfg.Enabled)
	assert.Equal(t, 1*time.Hour, expiryCfg.Interval)
}

func TestSchedulerConfig_GetTaskConfig(t *testing.T) {
	config := DefaultSchedulerConfig()

	syncCfg := config.GetTaskConfig(TaskIDPeriodicSync)
	assert.True(t, syncCfg.Enabled)

	unknownCfg := config.GetTaskConfig("unknown-task")
	assert.False(t, unknownCfg.Enabled)
	assert.Equal(t, time.Duration(0), unknownCfg.Interval)
}

func TestSchedulerConfig_GetTaskConfig_NilMap(t *testing.T) {
	config := SchedulerConfig{Enabled: true}

	cfg := config.GetTaskConfig("any-task")
	assert.False(t, cfg.Enabled)
	assert.Equal(t, time.Duration(0), cfg.Interval)
}

func TestTaskConstants(t *testing.T) {
	assert.Equal(t, "periodic-sync", TaskIDPeriodicSync)
	assert.Equal(t, "conflict-expiry", TaskIDConflictExpiry)
}
