package alarm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogSinkRaiseLogsAtWarnWithFields(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	sink := NewLogSink(zap.New(core))

	sink.Raise(Event{Namespace: "/ns", Job: "J", Executor: "exe1", Reason: "no-failover-stale-holder", Detail: "d"})

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, zap.WarnLevel, entries[0].Level)
		fields := entries[0].ContextMap()
		assert.Equal(t, "J", fields["job"])
		assert.Equal(t, "no-failover-stale-holder", fields["reason"])
	}
}
