package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoalesceKeyGroupsSameEntity(t *testing.T) {
	a := CoalesceKey(ExecutorOnline("exe1"))
	b := CoalesceKey(ExecutorOnline("exe1"))
	c := CoalesceKey(ExecutorOffline("exe1"))
	d := CoalesceKey(ExecutorOnline("exe2"))

	assert.Equal(t, a, b, "identical kind+entity must coalesce")
	assert.NotEqual(t, a, c, "different kind for the same entity must not coalesce")
	assert.NotEqual(t, a, d, "same kind for a different entity must not coalesce")
}

func TestCoalesceKeyEmptyForWholeNamespaceEvents(t *testing.T) {
	assert.Empty(t, CoalesceKey(Resync))
	assert.Empty(t, CoalesceKey(LeaderChanged("host-1")))
	assert.Empty(t, CoalesceKey(ShardingTrigger("manual", "")))
}

func TestEventKindString(t *testing.T) {
	assert.Equal(t, "ExecutorOnline", EventExecutorOnline.String())
	assert.Equal(t, "Resync", EventResync.String())
	assert.Equal(t, "Unknown", EventKind(99).String())
}
