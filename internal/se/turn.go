package se

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"shardkeeper/internal/alarm"
	"shardkeeper/internal/cc"
	"shardkeeper/pkg/model"
)

// resync reloads the entire namespace from the store and recomputes
// every known job's assignment. Used on startup (including the fresh
// engine NC builds after a lost session), after winning a re-election,
// and whenever a Resync event is popped (queue overflow, a failed load,
// or a transient commit failure).
func (e *Engine) resync(ctx context.Context, reason string) {
	jobs, assignment, err := loadJobs(ctx, e.client)
	if err != nil {
		e.log.Warn("resync: load jobs failed", zap.Error(err))
		e.queue.Push(model.Resync)
		return
	}
	executors, err := loadExecutors(ctx, e.client)
	if err != nil {
		e.log.Warn("resync: load executors failed", zap.Error(err))
		e.queue.Push(model.Resync)
		return
	}

	e.mu.Lock()
	e.jobs = jobs
	e.executors = executors
	e.assignment = assignment
	affected := make([]string, 0, len(jobs))
	for name := range jobs {
		affected = append(affected, name)
	}
	e.mu.Unlock()

	e.runTurn(ctx, affected, reason)
}

// handleEvent reacts to one non-Resync, non-LeaderChanged event: it
// refreshes the slice of the snapshot the event concerns and recomputes
// just the affected jobs.
func (e *Engine) handleEvent(ctx context.Context, event model.ShardingEvent) {
	switch event.Kind {
	case model.EventExecutorOnline, model.EventExecutorOffline:
		executors, err := loadExecutors(ctx, e.client)
		if err != nil {
			e.log.Warn("handleEvent: load executors failed", zap.Error(err))
			e.queue.Push(model.Resync)
			return
		}
		e.mu.Lock()
		e.executors = executors
		affected := make([]string, 0, len(e.jobs))
		for name := range e.jobs {
			affected = append(affected, name)
		}
		e.mu.Unlock()
		e.runTurn(ctx, affected, "executor:"+event.Executor)

	case model.EventJobAdded, model.EventJobRemoved:
		jobs, assignment, err := loadJobs(ctx, e.client)
		if err != nil {
			e.log.Warn("handleEvent: load jobs failed", zap.Error(err))
			e.queue.Push(model.Resync)
			return
		}
		e.mu.Lock()
		e.jobs = jobs
		e.assignment = assignment
		e.mu.Unlock()
		e.runTurn(ctx, []string{event.Job}, "job:"+event.Job)

	case model.EventShardingTrigger:
		affected := strings.Split(event.Payload, ",")
		if len(affected) == 1 && affected[0] == "" {
			e.mu.Lock()
			affected = affected[:0]
			for name := range e.jobs {
				affected = append(affected, name)
			}
			e.mu.Unlock()
		}
		e.runTurn(ctx, affected, "trigger:"+event.Reason)
	}
}

// runTurn computes and commits assignment changes for affected, sharing
// reclaimPolicy across every job: a full resync or explicit trigger may
// pull shards back from now-ineligible executors, but an executor
// online/offline transition honors each job's own failover setting
// (spec.md §4.4.3's no-failover branch).
func (e *Engine) runTurn(ctx context.Context, affected []string, reason string) {
	if len(affected) == 0 {
		return
	}

	e.mu.Lock()
	jobs := e.jobs
	executors := e.executors
	assignment := e.assignment
	leaderVersion := e.leaderVersion
	e.mu.Unlock()

	fullReclaim := strings.HasPrefix(reason, "resync") || strings.HasPrefix(reason, "trigger:") || reason == "startup" || reason == "leader-changed"
	reclaim := func(job *model.JobView) bool {
		return fullReclaim || job.Failover
	}

	result := computeTurn(jobs, executors, assignment, affected, reclaim)

	for _, a := range result.alarms {
		e.alarm.Raise(alarm.Event{
			Namespace: e.client.Namespace(),
			Job:       a.Job,
			Reason:    a.Reason,
			Detail:    a.Detail,
		})
	}

	if len(result.changed) == 0 {
		return
	}

	guard := cc.LeaderCheck{Path: leaderPath, ExpectedVersion: leaderVersion}
	if err := commit(ctx, e.client, result.changed, reason, guard); err != nil {
		e.handleCommitError(err)
		return
	}

	e.mu.Lock()
	for job, byExe := range result.changed {
		for exe, shards := range byExe {
			e.assignment.Set(job, exe, shards)
		}
	}
	e.mu.Unlock()
}

// handleCommitError implements spec.md §7's turn-failure treatment: a
// lost leader lock steps the engine down without retrying; a transient
// store error re-queues a Resync so the next turn starts from a clean
// snapshot instead of compounding a partial one.
func (e *Engine) handleCommitError(err error) {
	if errors.Is(err, cc.ErrTransactionAborted) {
		e.mu.Lock()
		e.state = StateFollowing
		e.heldLock = false
		e.mu.Unlock()
		e.log.Warn("commit aborted: leadership lock no longer held")
		return
	}

	var coordErr *cc.CoordinationError
	if errors.As(err, &coordErr) {
		switch coordErr.Kind {
		case cc.KindSessionLost:
			e.mu.Lock()
			e.state = StateFollowing
			e.heldLock = false
			e.mu.Unlock()
			e.log.Warn("commit failed: session lost")
			return
		case cc.KindTransient:
			e.log.Warn("commit failed: transient, re-queuing resync", zap.Error(err))
			e.queue.Push(model.Resync)
			return
		}
	}

	e.log.Error("commit failed", zap.Error(err))
}
