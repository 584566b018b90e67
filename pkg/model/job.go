package model

// LocalModeShard is the sentinel shard id assigned to every eligible
// executor of a local-mode job instead of splitting {0..N-1}.
const LocalModeShard = -1

// JobView is the engine's snapshot of one job's configuration, derived
// from /jobs/<job>/config/*. Field names mirror the recognized config
// keys in spec.md §6.
type JobView struct {
	Name               string
	Enabled            bool
	LocalMode          bool
	ShardingTotalCount int
	LoadLevel          int
	PreferList         []string
	UseDispreferList   bool
	Failover           bool
	JobDegree          int

	JobType              string
	TimeZone             string
	PausePeriodDate      string
	PausePeriodTime      string
	Timeout4AlarmSeconds int
	EnabledReport        bool
	QueueName            string
	ChannelName          string
	CustomContext        map[string]string
}

// JobIndex is the engine's per-namespace index of all known jobs.
type JobIndex map[string]*JobView
