// Package ei is the Event Intake: it attaches domain-specific listeners
// to TCM's watched subtrees and translates raw tree events into the
// typed ShardingEvent queue SE consumes (spec.md §4.3).
package ei

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"shardkeeper/internal/cc"
	"shardkeeper/internal/tcm"
	"shardkeeper/pkg/model"
)

const (
	JobsPath      = "/jobs"
	ExecutorsPath = "/executors"
	ShardingPath  = "/sharding"
	LeaderPath    = "/leader"

	JobsDepth      = 1
	ExecutorsDepth = 2
	ShardingDepth  = 1
	LeaderDepth    = 1

	DefaultQueueCapacity = 1024
)

// Intake owns the bounded event queue and the listeners that feed it.
type Intake struct {
	tcm    *tcm.Manager
	client *cc.Client
	log    *zap.Logger
	queue  *Queue
	clean  ExecutorCleaner
}

func New(tm *tcm.Manager, client *cc.Client, log *zap.Logger, clean ExecutorCleaner) *Intake {
	return &Intake{
		tcm:    tm,
		client: client,
		log:    log.Named("ei"),
		queue:  NewQueue(DefaultQueueCapacity),
		clean:  clean,
	}
}

// Events returns the queue SE drains.
func (ei *Intake) Events() *Queue { return ei.queue }

// Start creates the four watched subtrees (pre-creating their roots)
// and attaches EI's translation listeners, per spec.md §4.3's table.
func (ei *Intake) Start(ctx context.Context) {
	ei.ensureRoot(ctx, JobsPath)
	ei.ensureRoot(ctx, ExecutorsPath)
	ei.ensureRoot(ctx, ShardingPath)
	ei.ensureRoot(ctx, LeaderPath)

	ei.tcm.AddCacheIfAbsent(ctx, JobsPath, JobsDepth)
	ei.tcm.AddListenerIfAbsent(JobsPath, JobsDepth, ei.onJobsEvent)

	ei.tcm.AddCacheIfAbsent(ctx, ExecutorsPath, ExecutorsDepth)
	ei.tcm.AddListenerIfAbsent(ExecutorsPath, ExecutorsDepth, ei.onExecutorsEvent)

	ei.tcm.AddCacheIfAbsent(ctx, ShardingPath, ShardingDepth)
	ei.tcm.AddListenerIfAbsent(ShardingPath, ShardingDepth, ei.onShardingEvent)

	ei.tcm.AddCacheIfAbsent(ctx, LeaderPath, LeaderDepth)
	ei.tcm.AddListenerIfAbsent(LeaderPath, LeaderDepth, ei.onLeaderEvent)
}

func (ei *Intake) ensureRoot(ctx context.Context, path string) {
	if err := ei.client.CreatePersistent(ctx, path, ""); err != nil {
		ei.log.Warn("ensureRoot", zap.String("path", path), zap.Error(err))
	}
}

// Stop closes the queue; TCM's own shutdown (owned by NC) stops the
// caches that call the listeners.
func (ei *Intake) Stop() {
	ei.queue.Close()
}

// onJobsEvent handles NODE_ADDED/REMOVED on immediate children of
// /jobs: job config subtrees, not config leaves (depth 1 only sees the
// job name segment).
func (ei *Intake) onJobsEvent(e tcm.Event) {
	switch e.Type {
	case tcm.NodeAdded:
		if job, ok := immediateChild(JobsPath, e.Path); ok {
			ei.queue.Push(model.JobAdded(job))
		}
	case tcm.NodeRemoved:
		if job, ok := immediateChild(JobsPath, e.Path); ok {
			ei.queue.Push(model.JobRemoved(job))
		}
	}
}

// onExecutorsEvent watches 2 levels deep so it can see /executors/<exe>/ip
// transitions, which are the liveness signal (spec.md §4.3).
func (ei *Intake) onExecutorsEvent(e tcm.Event) {
	switch e.Type {
	case tcm.NodeAdded:
		if exe, ok := livenessChild(e.Path); ok {
			ei.queue.Push(model.ExecutorOnline(exe))
		}
	case tcm.NodeRemoved:
		if exe, ok := livenessChild(e.Path); ok {
			ei.queue.Push(model.ExecutorOffline(exe))
			if ei.clean != nil {
				go ei.clean.Clean(context.Background(), exe)
			}
		}
	}
}

// onShardingEvent also re-observes the /sharding/<reason> markers SE's
// own commits write (an RFC3339 timestamp, not a job list): those
// replay here as a ShardingTrigger whose payload fails to name any real
// job, so the resulting turn is a harmless no-op. Advisory per spec.md
// §9; not worth filtering by writer.
func (ei *Intake) onShardingEvent(e tcm.Event) {
	if e.Type != tcm.NodeAdded {
		return
	}
	if reason, ok := immediateChild(ShardingPath, e.Path); ok {
		if reason == "count" {
			return // the advisory counter itself, not a trigger
		}
		ei.queue.Push(model.ShardingTrigger(reason, string(e.Data)))
	}
}

func (ei *Intake) onLeaderEvent(e tcm.Event) {
	switch e.Type {
	case tcm.NodeAdded, tcm.NodeUpdated:
		if isLeaderHost(e.Path) {
			ei.queue.Push(model.LeaderChanged(string(e.Data)))
		}
	case tcm.NodeRemoved:
		if isLeaderHost(e.Path) {
			ei.queue.Push(model.LeaderChanged(""))
		}
	}
}

func immediateChild(root, path string) (string, bool) {
	rest := strings.TrimPrefix(path, root+"/")
	if rest == path || strings.Contains(rest, "/") {
		return "", false
	}
	return rest, true
}

func livenessChild(path string) (string, bool) {
	rest := strings.TrimPrefix(path, ExecutorsPath+"/")
	if rest == path {
		return "", false
	}
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[1] != "ip" {
		return "", false
	}
	return parts[0], true
}

func isLeaderHost(path string) bool {
	return path == LeaderPath+"/host"
}
