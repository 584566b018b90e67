// Package se is the Sharding Engine: the single-writer decision loop
// that turns coordination-store events into shard assignments (spec.md
// §4.4).
package se

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"shardkeeper/internal/alarm"
	"shardkeeper/internal/cc"
	"shardkeeper/internal/ei"
	"shardkeeper/pkg/model"
)

// State is SE's own lifecycle state, independent of CC's connection
// state (spec.md §4.4.1).
type State int

const (
	StateUninitialized State = iota
	StateFollowing
	StateLeading
	StateDraining
)

func (s State) String() string {
	switch s {
	case StateFollowing:
		return "FOLLOWING"
	case StateLeading:
		return "LEADING"
	case StateDraining:
		return "DRAINING"
	default:
		return "UNINITIALIZED"
	}
}

const leaderPath = ei.LeaderPath + "/host"

// Engine owns the in-memory JobIndex/ExecutorView/Assignment snapshot
// and the single goroutine that drains EI's queue. No other goroutine
// may mutate that snapshot while the engine is running.
type Engine struct {
	client *cc.Client
	queue  *ei.Queue
	alarm  alarm.Sink
	hostID string
	log    *zap.Logger

	mu            sync.Mutex
	state         State
	heldLock      bool
	leaderVersion int64

	jobs       model.JobIndex
	executors  model.ExecutorView
	assignment model.Assignment

	cancel context.CancelFunc
	doneCh chan struct{}
}

func NewEngine(client *cc.Client, queue *ei.Queue, alarmSink alarm.Sink, hostID string, log *zap.Logger) *Engine {
	if alarmSink == nil {
		alarmSink = alarm.NewLogSink(log)
	}
	return &Engine{
		client: client,
		queue:  queue,
		alarm:  alarmSink,
		hostID: hostID,
		log:    log.Named("se"),
		state:  StateUninitialized,
	}
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Start attempts leader election once (fail-fast, first-writer-wins per
// spec.md §4.4.1) and launches the run loop regardless of outcome: a
// follower keeps draining the queue so it notices the leader going away
// and can re-attempt.
func (e *Engine) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.doneCh = make(chan struct{})

	if err := e.tryBecomeLeader(runCtx); err != nil {
		cancel()
		return err
	}

	go e.run(runCtx)
	return nil
}

func (e *Engine) tryBecomeLeader(ctx context.Context) error {
	won, err := e.client.CreateEphemeralExclusive(ctx, leaderPath, e.hostID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if won {
		_, version, _, verr := e.client.GetWithVersion(ctx, leaderPath)
		if verr == nil {
			e.leaderVersion = version
		}
		e.heldLock = true
		e.state = StateLeading
		e.log.Info("became leader", zap.String("host", e.hostID))
	} else {
		e.state = StateFollowing
		e.log.Info("following", zap.String("host", e.hostID))
	}
	return nil
}

// run drains the event queue until it closes or ctx is cancelled.
// LeaderChanged is handled in every state; turns only run while Leading.
func (e *Engine) run(ctx context.Context) {
	defer close(e.doneCh)

	if e.State() == StateLeading {
		e.resync(ctx, "startup")
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		event, ok := e.queue.Pop()
		if !ok {
			return
		}

		if event.Kind == model.EventLeaderChanged {
			e.handleLeaderChanged(ctx, event)
			continue
		}

		if e.State() != StateLeading {
			continue
		}

		if event.Kind == model.EventResync {
			e.resync(ctx, "resync")
			continue
		}

		e.handleEvent(ctx, event)
	}
}

// handleLeaderChanged reacts to /leader/host transitions observed
// through EI. A follower re-attempts election the instant the holder
// disappears; a leader that sees someone else's host value published
// has lost its lock underneath it (e.g. session loss raced a
// re-election) and steps down without deleting the node it no longer
// owns.
func (e *Engine) handleLeaderChanged(ctx context.Context, event model.ShardingEvent) {
	e.mu.Lock()
	state := e.state
	e.mu.Unlock()

	switch {
	case event.LeaderHolder == "" && state != StateLeading:
		if err := e.tryBecomeLeader(ctx); err != nil {
			e.log.Warn("re-election failed", zap.Error(err))
			return
		}
		if e.State() == StateLeading {
			e.resync(ctx, "leader-changed")
		}
	case event.LeaderHolder != "" && event.LeaderHolder != e.hostID && state == StateLeading:
		e.mu.Lock()
		e.state = StateFollowing
		e.heldLock = false
		e.mu.Unlock()
		e.log.Warn("stepped down: leader node held by another host", zap.String("holder", event.LeaderHolder))
	}
}

// Stop drains the run loop and, if this host still holds the leader
// lock, releases it explicitly rather than waiting on session expiry.
func (e *Engine) Stop() {
	e.mu.Lock()
	e.state = StateDraining
	held := e.heldLock
	e.mu.Unlock()

	if e.cancel != nil {
		e.cancel()
	}
	e.queue.Close()
	if e.doneCh != nil {
		<-e.doneCh
	}

	if held {
		if err := e.client.Delete(context.Background(), leaderPath); err != nil {
			e.log.Warn("release leader lock failed", zap.Error(err))
		}
	}
}
