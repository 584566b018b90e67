package se

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shardkeeper/pkg/model"
)

func jobView(name string, shardCount, loadLevel int, failover bool) *model.JobView {
	return &model.JobView{
		Name:               name,
		Enabled:            true,
		ShardingTotalCount: shardCount,
		LoadLevel:          loadLevel,
		Failover:           failover,
	}
}

func online(ids ...string) model.ExecutorView {
	v := make(model.ExecutorView, len(ids))
	for _, id := range ids {
		v[id] = &model.Executor{ID: id, Online: true}
	}
	return v
}

// Scenario 1: cold start, one job, four shards, two executors, no prior
// assignment. Expect shards(J,A)={0,2}, shards(J,B)={1,3}.
func TestComputeTurnColdStartBalancesAcrossExecutors(t *testing.T) {
	jobs := model.JobIndex{"J": jobView("J", 4, 1, true)}
	executors := online("A", "B")
	assignment := make(model.Assignment)

	result := computeTurn(jobs, executors, assignment, []string{"J"}, func(*model.JobView) bool { return true })

	require.Contains(t, result.changed, "J")
	assert.Equal(t, []int{0, 2}, result.changed["J"]["A"])
	assert.Equal(t, []int{1, 3}, result.changed["J"]["B"])
	assert.Empty(t, result.alarms)
}

// Scenario 2: executor B goes offline, job has failover=true. Expect all
// four shards reclaimed onto A, B cleared.
func TestComputeTurnReclaimsOnFailoverWhenExecutorGoesOffline(t *testing.T) {
	jobs := model.JobIndex{"J": jobView("J", 4, 1, true)}
	executors := online("A")
	assignment := model.Assignment{"J": {"A": {0, 2}, "B": {1, 3}}}

	result := computeTurn(jobs, executors, assignment, []string{"J"}, func(*model.JobView) bool { return true })

	require.Contains(t, result.changed, "J")
	assert.Equal(t, []int{0, 1, 2, 3}, result.changed["J"]["A"])
	assert.Nil(t, result.changed["J"]["B"])
	assert.Empty(t, result.alarms)
}

// Scenario 3: executor B goes offline, job has failover=false. Expect A's
// shards unchanged, B's shards remain recorded (no commit for B), and an
// alarm is raised for the stale holder.
func TestComputeTurnKeepsStaleShardsAndAlarmsWhenNoFailover(t *testing.T) {
	jobs := model.JobIndex{"J": jobView("J", 4, 1, false)}
	executors := online("A")
	assignment := model.Assignment{"J": {"A": {0, 2}, "B": {1, 3}}}

	reclaim := func(job *model.JobView) bool { return job.Failover }
	result := computeTurn(jobs, executors, assignment, []string{"J"}, reclaim)

	_, changed := result.changed["J"]
	assert.False(t, changed, "no-failover job with an unchanged placement should not produce a commit")

	require.Len(t, result.alarms, 1)
	assert.Equal(t, "no-failover-stale-holder", result.alarms[0].Reason)
	assert.Equal(t, "J", result.alarms[0].Job)
}

// Scenario 4: local mode assigns the sentinel shard to every eligible
// executor instead of partitioning {0..N-1}.
func TestComputeTurnLocalModeAssignsSentinelToEveryExecutor(t *testing.T) {
	job := jobView("J", 0, 1, true)
	job.LocalMode = true
	jobs := model.JobIndex{"J": job}
	executors := online("A", "B")
	assignment := make(model.Assignment)

	result := computeTurn(jobs, executors, assignment, []string{"J"}, func(*model.JobView) bool { return true })

	require.Contains(t, result.changed, "J")
	assert.Equal(t, []int{model.LocalModeShard}, result.changed["J"]["A"])
	assert.Equal(t, []int{model.LocalModeShard}, result.changed["J"]["B"])
}

func TestComputeTurnAlarmsWhenNoEligibleExecutor(t *testing.T) {
	jobs := model.JobIndex{"J": jobView("J", 4, 1, true)}
	executors := model.ExecutorView{}
	assignment := make(model.Assignment)

	result := computeTurn(jobs, executors, assignment, []string{"J"}, func(*model.JobView) bool { return true })

	require.Len(t, result.alarms, 1)
	assert.Equal(t, "no-eligible-executor", result.alarms[0].Reason)
	assert.Empty(t, result.changed)
}

func TestComputeTurnClearsRemovedJob(t *testing.T) {
	jobs := model.JobIndex{}
	executors := online("A")
	assignment := model.Assignment{"J": {"A": {0, 1}}}

	result := computeTurn(jobs, executors, assignment, []string{"J"}, func(*model.JobView) bool { return true })

	require.Contains(t, result.changed, "J")
	assert.Nil(t, result.changed["J"]["A"])
}

// P5: within one turn, shared load accumulation across jobs keeps
// per-executor load balanced even when jobs are processed in sequence.
func TestComputeTurnBalancesLoadAcrossJobsInSameTurn(t *testing.T) {
	jobs := model.JobIndex{
		"A": jobView("A", 2, 1, true),
		"B": jobView("B", 2, 1, true),
	}
	executors := online("x", "y")
	assignment := make(model.Assignment)

	result := computeTurn(jobs, executors, assignment, []string{"A", "B"}, func(*model.JobView) bool { return true })

	totalX := len(result.changed["A"]["x"]) + len(result.changed["B"]["x"])
	totalY := len(result.changed["A"]["y"]) + len(result.changed["B"]["y"])
	assert.Equal(t, totalX, totalY, "four shards across two jobs should split evenly across executors")
}

// P4: computing the same turn twice against the same inputs is
// deterministic and idempotent (no diff on the second pass).
func TestComputeTurnIsDeterministic(t *testing.T) {
	jobs := model.JobIndex{"J": jobView("J", 5, 1, true)}
	executors := online("A", "B", "C")
	assignment := make(model.Assignment)

	first := computeTurn(jobs, executors, assignment, []string{"J"}, func(*model.JobView) bool { return true })
	for job, byExe := range first.changed {
		for exe, shards := range byExe {
			assignment.Set(job, exe, shards)
		}
	}

	second := computeTurn(jobs, executors, assignment, []string{"J"}, func(*model.JobView) bool { return true })
	assert.Empty(t, second.changed, "re-running the same turn against its own output should be a no-op")
}

func TestAssignShardedPicksLeastLoadedAndBreaksTiesLexicographically(t *testing.T) {
	job := jobView("J", 3, 1, true)
	load := map[string]int{"A": 0, "B": 0}
	result, stale := assignSharded(job, nil, []string{"A", "B"}, nil, load, true)
	assert.Empty(t, stale)
	assert.Equal(t, []int{0, 2}, result["A"])
	assert.Equal(t, []int{1}, result["B"])
}

func TestDiffAssignmentReportsOnlyChanges(t *testing.T) {
	old := map[string][]int{"A": {0, 1}, "B": {2}}
	next := map[string][]int{"A": {0, 1}, "C": {3}}

	diff := diffAssignment(old, next)
	assert.NotContains(t, diff, "A", "unchanged executor should not appear in the diff")
	assert.Equal(t, []int{3}, diff["C"])
	assert.Nil(t, diff["B"])
}
