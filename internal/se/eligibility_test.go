package se

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"shardkeeper/pkg/model"
)

func TestEligibleDefaultsToAllOnlineNonContainerExecutors(t *testing.T) {
	job := &model.JobView{Enabled: true}
	regular := &model.Executor{ID: "exe1", Online: true}
	container := &model.Executor{ID: "@exe2", Online: true, ContainerOnly: true}
	offline := &model.Executor{ID: "exe3", Online: false}

	assert.True(t, eligible(job, regular))
	assert.False(t, eligible(job, container), "container-only executors are excluded when preferList is empty")
	assert.False(t, eligible(job, offline))
}

func TestEligibleDisabledJobHasNoEligibleExecutors(t *testing.T) {
	job := &model.JobView{Enabled: false}
	exe := &model.Executor{ID: "exe1", Online: true}
	assert.False(t, eligible(job, exe))
}

// Scenario 5: prefer-list exclusive. When preferList is set and
// useDispreferList is false, only the named executors are eligible.
func TestEligiblePreferListIsExclusiveByDefault(t *testing.T) {
	job := &model.JobView{Enabled: true, PreferList: []string{"exe1"}}
	preferred := &model.Executor{ID: "exe1", Online: true}
	other := &model.Executor{ID: "exe2", Online: true}

	assert.True(t, eligible(job, preferred))
	assert.False(t, eligible(job, other), "non-preferred executors are excluded when useDispreferList is false")
}

func TestEligiblePreferListWithDispreferAllowsNonContainerFallback(t *testing.T) {
	job := &model.JobView{Enabled: true, PreferList: []string{"exe1"}, UseDispreferList: true}
	preferred := &model.Executor{ID: "exe1", Online: true}
	fallback := &model.Executor{ID: "exe2", Online: true}
	container := &model.Executor{ID: "@exe3", Online: true, ContainerOnly: true, HasTask: true}

	assert.True(t, eligible(job, preferred))
	assert.True(t, eligible(job, fallback))
	assert.True(t, eligible(job, container), "a running container executor is reachable via the dispreferred fallback")
}

func TestEligibleExecutorsReturnsSortedIDs(t *testing.T) {
	job := &model.JobView{Enabled: true}
	executors := model.ExecutorView{
		"b": {ID: "b", Online: true},
		"a": {ID: "a", Online: true},
		"c": {ID: "c", Online: false},
	}
	assert.Equal(t, []string{"a", "b"}, eligibleExecutors(job, executors))
}

func TestEligibleExecutorsEmptyWhenNoneQualify(t *testing.T) {
	job := &model.JobView{Enabled: true}
	executors := model.ExecutorView{"a": {ID: "a", Online: false}}
	assert.Empty(t, eligibleExecutors(job, executors))
}
