package service

import (
	"testing"

	"battguard/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatchPlansFirstTriggerOnly(t *testing.T) {
	l := NewDisconnectLatch()

	intent := l.Plan(domain.DecisionTrigger)
	require.NotNil(t, intent)
	assert.True(t, intent.Disconnect)

	// nothing committed yet, so the same decision replans
	again := l.Plan(domain.DecisionTrigger)
	require.NotNil(t, again)

	l.Commit(intent)
	assert.True(t, l.Asserted())
	assert.False(t, l.Released())

	// committed: repeated triggers are no-ops
	assert.Nil(t, l.Plan(domain.DecisionTrigger))
}

func TestLatchReleaseCycle(t *testing.T) {
	l := NewDisconnectLatch()

	l.Commit(l.Plan(domain.DecisionTrigger))
	require.True(t, l.Asserted())

	intent := l.Plan(domain.DecisionRelease)
	require.NotNil(t, intent)
	assert.False(t, intent.Disconnect)
	l.Commit(intent)

	assert.False(t, l.Asserted())
	assert.True(t, l.Released())
	assert.Nil(t, l.Plan(domain.DecisionRelease))

	// a fresh trigger rearms the cycle
	intent = l.Plan(domain.DecisionTrigger)
	require.NotNil(t, intent)
	l.Commit(intent)
	assert.True(t, l.Asserted())
	assert.False(t, l.Released())
}

func TestLatchIgnoresNilCommitAndNoneDecision(t *testing.T) {
	l := NewDisconnectLatch()

	assert.Nil(t, l.Plan(domain.DecisionNone))
	l.Commit(nil)
	assert.False(t, l.Asserted())
	assert.False(t, l.Released())
}

func TestLatchUncommittedWriteLeavesState(t *testing.T) {
	l := NewDisconnectLatch()

	// a failed coil write means Commit never runs
	_ = l.Plan(domain.DecisionTrigger)
	assert.False(t, l.Asserted())

	// so the next trigger decision plans the write again
	assert.NotNil(t, l.Plan(domain.DecisionTrigger))
}
