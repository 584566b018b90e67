package se

import (
	"context"
	"sort"
	"strconv"
	"time"

	"shardkeeper/internal/cc"
	"shardkeeper/internal/ei"
	"shardkeeper/pkg/model"
)

// buildCommitOps turns one turn's changed assignments into the
// transactional batch described by spec.md §4.4.5: one put/delete per
// (job, exe) sharding leaf, plus a /sharding/<reason> marker and an
// advisory bump of /sharding/count.
func buildCommitOps(changed map[string]map[string][]int, reason string, shardingCount int64) []cc.Op {
	var ops []cc.Op

	jobs := make([]string, 0, len(changed))
	for job := range changed {
		jobs = append(jobs, job)
	}
	sort.Strings(jobs)

	for _, job := range jobs {
		byExe := changed[job]
		exes := make([]string, 0, len(byExe))
		for exe := range byExe {
			exes = append(exes, exe)
		}
		sort.Strings(exes)

		for _, exe := range exes {
			path := ei.JobsPath + "/" + job + "/servers/" + exe + "/sharding"
			shards := byExe[exe]
			if shards == nil {
				ops = append(ops, cc.DeleteOp(path))
				continue
			}
			ops = append(ops, cc.PutOp(path, model.EncodeShards(shards)))
		}
	}

	ops = append(ops, cc.PutOp(ei.ShardingPath+"/"+reason, time.Now().UTC().Format(time.RFC3339)))
	ops = append(ops, cc.PutOp(ei.ShardingPath+"/count", strconv.FormatInt(shardingCount+1, 10)))

	return ops
}

// commit applies a turn's changes guarded by the leader lock's mod
// revision, so a turn computed under a leadership this host has since
// lost never lands (I4).
func commit(ctx context.Context, client *cc.Client, changed map[string]map[string][]int, reason string, guard cc.LeaderCheck) error {
	if len(changed) == 0 {
		return nil
	}

	value, _, ok, err := client.GetWithVersion(ctx, ei.ShardingPath+"/count")
	if err != nil {
		return err
	}
	var shardingCount int64
	if ok {
		shardingCount, _ = strconv.ParseInt(string(value), 10, 64)
	}

	ops := buildCommitOps(changed, reason, shardingCount)
	return client.Transaction(ctx, ops, &guard)
}
