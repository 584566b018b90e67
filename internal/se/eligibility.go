package se

import (
	"sort"

	"shardkeeper/pkg/model"
)

// eligible implements the per-job eligibility rule from spec.md §4.4.3.
func eligible(job *model.JobView, exe *model.Executor) bool {
	if exe == nil || !exe.Online {
		return false
	}
	if !job.Enabled {
		return false
	}

	if len(job.PreferList) > 0 {
		if containsString(job.PreferList, exe.ID) {
			return true
		}
		if exe.IsContainer() && job.UseDispreferList {
			return true
		}
		if job.UseDispreferList && !exe.IsContainer() {
			return true
		}
		return false
	}

	return !exe.ContainerOnly
}

// eligibleExecutors returns the eligible executor ids for job, sorted
// lexicographically so downstream iteration is deterministic (P4).
func eligibleExecutors(job *model.JobView, executors model.ExecutorView) []string {
	var result []string
	for id, exe := range executors {
		if eligible(job, exe) {
			result = append(result, id)
		}
	}
	sort.Strings(result)
	return result
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
