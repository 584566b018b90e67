package se

import (
	"sort"

	"shardkeeper/pkg/model"
)

// turnResult is everything one sharding turn produced: the jobs whose
// assignment changed (for diffing against the committed assignment) and
// any alarm-worthy conditions observed along the way.
type turnResult struct {
	changed map[string]map[string][]int // job -> exe -> new shards (nil slice = cleared)
	alarms  []alarmInfo
}

type alarmInfo struct {
	Job    string
	Reason string
	Detail string
}

// reclaimPolicy decides, for one affected job, whether shards currently
// held by a now-ineligible executor may be pulled back into the
// unassigned pool this turn. False implements the "no-failover" branch
// of spec.md §4.4.3: those shards stay recorded against the offline
// executor until an explicit resharding trigger.
type reclaimPolicy func(job *model.JobView) bool

// computeTurn recomputes assignment for the affected jobs, sharing one
// load accumulator across them so the greedy placement inside one turn
// balances load across overlapping jobs (spec.md §4.4.4/P5). assignment
// is not mutated; callers apply turnResult.changed themselves.
func computeTurn(jobs model.JobIndex, executors model.ExecutorView, assignment model.Assignment, affected []string, reclaim reclaimPolicy) turnResult {
	result := turnResult{changed: make(map[string]map[string][]int)}

	load := computeLoad(jobs, assignment)

	sortedAffected := append([]string(nil), affected...)
	sort.Strings(sortedAffected)

	for _, jobName := range sortedAffected {
		job, ok := jobs[jobName]
		if !ok {
			// job removed: clear whatever it held.
			if byExe, existed := assignment[jobName]; existed {
				cleared := make(map[string][]int, len(byExe))
				for exe := range byExe {
					cleared[exe] = nil
				}
				result.changed[jobName] = cleared
			}
			continue
		}

		old := assignment[jobName]
		eligible := eligibleExecutors(job, executors)

		var newForJob map[string][]int
		var staleHolders []string
		if job.LocalMode {
			newForJob = assignLocalMode(job, executors, load)
		} else {
			newForJob, staleHolders = assignSharded(job, executors, eligible, old, load, reclaim(job))
		}

		if len(eligible) == 0 && job.Enabled && job.ShardingTotalCount > 0 {
			result.alarms = append(result.alarms, alarmInfo{
				Job:    jobName,
				Reason: "no-eligible-executor",
				Detail: "job has no eligible executor; shards unassigned",
			})
		}
		for _, exe := range staleHolders {
			result.alarms = append(result.alarms, alarmInfo{
				Job:    jobName,
				Reason: "no-failover-stale-holder",
				Detail: "executor " + exe + " is no longer eligible but keeps its recorded shards (failover=false)",
			})
		}

		if diff := diffAssignment(old, newForJob); len(diff) > 0 {
			result.changed[jobName] = diff
		}
	}

	return result
}

// computeLoad seeds the per-executor load accumulator from the full
// current assignment across every known job, not just the ones affected
// this turn, since unaffected jobs still consume shared executor load.
func computeLoad(jobs model.JobIndex, assignment model.Assignment) map[string]int {
	load := make(map[string]int)
	for jobName, byExe := range assignment {
		job, ok := jobs[jobName]
		if !ok {
			continue
		}
		for exe, shards := range byExe {
			load[exe] += job.LoadLevel * len(shards)
		}
	}
	return load
}

func assignLocalMode(job *model.JobView, executors model.ExecutorView, load map[string]int) map[string][]int {
	result := make(map[string][]int)
	for _, exe := range eligibleExecutors(job, executors) {
		result[exe] = []int{model.LocalModeShard}
		load[exe] += job.LoadLevel
	}
	return result
}

// assignSharded implements spec.md §4.4.4's minimum-churn, load-balanced
// placement for a non-local-mode job.
func assignSharded(job *model.JobView, executors model.ExecutorView, enew []string, old map[string][]int, load map[string]int, reclaim bool) (map[string][]int, []string) {
	enewSet := make(map[string]bool, len(enew))
	for _, e := range enew {
		enewSet[e] = true
	}

	result := make(map[string][]int)
	placed := make(map[int]bool)
	var staleHolders []string

	for exe, shards := range old {
		if !enewSet[exe] {
			if reclaim {
				continue
			}
			staleHolders = append(staleHolders, exe)
		}
		var kept []int
		for _, s := range shards {
			if s >= 0 && s < job.ShardingTotalCount {
				kept = append(kept, s)
				placed[s] = true
			}
		}
		if len(kept) > 0 {
			result[exe] = kept
			load[exe] += job.LoadLevel * len(kept)
		}
	}

	if len(enew) == 0 {
		sort.Strings(staleHolders)
		return result, staleHolders
	}

	var unassigned []int
	for s := 0; s < job.ShardingTotalCount; s++ {
		if !placed[s] {
			unassigned = append(unassigned, s)
		}
	}

	for _, shard := range unassigned {
		pick := pickLeastLoaded(enew, load)
		result[pick] = append(result[pick], shard)
		load[pick] += job.LoadLevel
	}

	for exe := range result {
		sort.Ints(result[exe])
	}
	sort.Strings(staleHolders)
	return result, staleHolders
}

// pickLeastLoaded returns the eligible executor with the lowest current
// load, breaking ties by lexicographic id (candidates is already sorted).
func pickLeastLoaded(candidates []string, load map[string]int) string {
	best := candidates[0]
	bestLoad := load[best]
	for _, c := range candidates[1:] {
		if load[c] < bestLoad {
			best = c
			bestLoad = load[c]
		}
	}
	return best
}

// diffAssignment returns only the (exe -> shards) entries that changed
// between old and next, including exes present in old but absent from
// next (cleared, encoded as a nil slice).
func diffAssignment(old, next map[string][]int) map[string][]int {
	diff := make(map[string][]int)
	for exe, shards := range next {
		if !intSliceEqual(old[exe], shards) {
			diff[exe] = shards
		}
	}
	for exe := range old {
		if _, present := next[exe]; !present {
			diff[exe] = nil
		}
	}
	return diff
}

func intSliceEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
