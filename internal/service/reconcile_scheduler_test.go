package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReconcileScheduler_RejectsInvalidSpec(t *testing.T) {
	_, err := NewReconcileScheduler("not a cron", time.UTC, newTestLogger(), func(context.Context) error { return nil })
	assert.Error(t, err)
}

func TestReconcileScheduler_StartStop(t *testing.T) {
	s, err := NewReconcileScheduler("5 0 * * *", time.UTC, newTestLogger(), func(context.Context) error { return nil })
	require.NoError(t, err)

	s.Start()
	assert.Len(t, s.cron.Entries(), 1)
	s.Stop()
}
