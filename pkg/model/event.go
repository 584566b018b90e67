package model

// EventKind discriminates the ShardingEvent union EI hands to SE.
type EventKind int

const (
	EventExecutorOnline EventKind = iota
	EventExecutorOffline
	EventJobAdded
	EventJobRemoved
	EventShardingTrigger
	EventLeaderChanged
	EventResync
)

func (k EventKind) String() string {
	switch k {
	case EventExecutorOnline:
		return "ExecutorOnline"
	case EventExecutorOffline:
		return "ExecutorOffline"
	case EventJobAdded:
		return "JobAdded"
	case EventJobRemoved:
		return "JobRemoved"
	case EventShardingTrigger:
		return "ShardingTrigger"
	case EventLeaderChanged:
		return "LeaderChanged"
	case EventResync:
		return "Resync"
	default:
		return "Unknown"
	}
}

// ShardingEvent is the typed event EI produces and SE consumes. Not every
// field is populated for every Kind; see the Kind-specific constructors.
type ShardingEvent struct {
	Kind EventKind

	Executor string // ExecutorOnline/Offline
	Job      string // JobAdded/Removed

	Reason  string // ShardingTrigger
	Payload string // ShardingTrigger, optional

	LeaderHolder string // LeaderChanged; "" means no leader
}

// entityKey identifies the entity a per-entity ordering guarantee (same
// executor, same job) is keyed on. Empty string for events with no
// single affected entity (ShardingTrigger, LeaderChanged, Resync).
func (e ShardingEvent) entityKey() string {
	switch e.Kind {
	case EventExecutorOnline, EventExecutorOffline:
		return "exe:" + e.Executor
	case EventJobAdded, EventJobRemoved:
		return "job:" + e.Job
	default:
		return ""
	}
}

// CoalesceKey identifies events that should collapse into one when they
// arrive within the same engine turn: identical kind + identical entity.
// Events with no single affected entity (ShardingTrigger, LeaderChanged,
// Resync) return "" and are never coalesced.
func CoalesceKey(e ShardingEvent) string {
	key := e.entityKey()
	if key == "" {
		return ""
	}
	return e.Kind.String() + "|" + key
}

func ExecutorOnline(id string) ShardingEvent  { return ShardingEvent{Kind: EventExecutorOnline, Executor: id} }
func ExecutorOffline(id string) ShardingEvent { return ShardingEvent{Kind: EventExecutorOffline, Executor: id} }
func JobAdded(job string) ShardingEvent       { return ShardingEvent{Kind: EventJobAdded, Job: job} }
func JobRemoved(job string) ShardingEvent     { return ShardingEvent{Kind: EventJobRemoved, Job: job} }
func LeaderChanged(holder string) ShardingEvent {
	return ShardingEvent{Kind: EventLeaderChanged, LeaderHolder: holder}
}
func ShardingTrigger(reason, payload string) ShardingEvent {
	return ShardingEvent{Kind: EventShardingTrigger, Reason: reason, Payload: payload}
}

var Resync = ShardingEvent{Kind: EventResync}
