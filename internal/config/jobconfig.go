package config

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"shardkeeper/pkg/model"
)

// Recognized config keys under /jobs/<job>/config/*, per spec.md §6.
const (
	KeyEnabled              = "enabled"
	KeyLocalMode            = "localMode"
	KeyShardingTotalCount   = "shardingTotalCount"
	KeyLoadLevel            = "loadLevel"
	KeyPreferList           = "preferList"
	KeyUseDispreferList     = "useDispreferList"
	KeyFailover             = "failover"
	KeyJobType              = "jobType"
	KeyTimeZone             = "timeZone"
	KeyPausePeriodDate      = "pausePeriodDate"
	KeyPausePeriodTime      = "pausePeriodTime"
	KeyTimeout4AlarmSeconds = "timeout4AlarmSeconds"
	KeyJobDegree            = "jobDegree"
	KeyEnabledReport        = "enabledReport"
	KeyQueueName            = "queueName"
	KeyChannelName          = "channelName"
	KeyCustomContext        = "customContext"
	KeyShardingItemParams   = "shardingItemParameters"
)

// BuildJobView projects the raw config node values (as read from
// /jobs/<job>/config/<name>) into a model.JobView. Unrecognized keys are
// ignored; missing keys take their documented defaults.
func BuildJobView(name string, raw map[string]string) *model.JobView {
	v := &model.JobView{
		Name:          name,
		EnabledReport: true, // default true per spec.md §6
	}

	v.Enabled = parseBool(raw[KeyEnabled], false)
	v.LocalMode = parseBool(raw[KeyLocalMode], false)
	v.ShardingTotalCount = parseInt(raw[KeyShardingTotalCount], 0)
	v.LoadLevel = parseInt(raw[KeyLoadLevel], 1)
	v.PreferList = parsePreferList(raw[KeyPreferList])
	v.UseDispreferList = parseBool(raw[KeyUseDispreferList], false)
	v.Failover = parseBool(raw[KeyFailover], false)
	v.JobDegree = parseInt(raw[KeyJobDegree], 0)

	v.JobType = raw[KeyJobType]
	v.TimeZone = raw[KeyTimeZone]
	v.PausePeriodDate = raw[KeyPausePeriodDate]
	v.PausePeriodTime = raw[KeyPausePeriodTime]
	v.Timeout4AlarmSeconds = parseInt(raw[KeyTimeout4AlarmSeconds], 0)
	v.QueueName = raw[KeyQueueName]
	v.ChannelName = raw[KeyChannelName]

	if er, ok := raw[KeyEnabledReport]; ok {
		v.EnabledReport = parseBool(er, true)
	}
	v.CustomContext = parseCustomContext(raw[KeyCustomContext])

	return v
}

// TimeZoneOrDefault returns j's configured time zone, or DefaultTimeZone
// if unset/blank.
func TimeZoneOrDefault(j *model.JobView) string {
	if strings.TrimSpace(j.TimeZone) == "" {
		return DefaultTimeZone
	}
	return j.TimeZone
}

// IsInPausePeriod evaluates InPausePeriod against now, converted to j's
// configured time zone (defaulting to UTC). A bad zone name falls back
// to UTC rather than erroring the turn.
func IsInPausePeriod(j *model.JobView, now time.Time) bool {
	loc, err := time.LoadLocation(TimeZoneOrDefault(j))
	if err != nil {
		loc = time.UTC
	}
	return InPausePeriod(now.In(loc), j.PausePeriodDate, j.PausePeriodTime)
}

func parseBool(s string, def bool) bool {
	if s == "" {
		return def
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return def
	}
	return b
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return n
}

func parsePreferList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var list []string
	for _, e := range strings.Split(s, ",") {
		e = strings.TrimSpace(e)
		if e != "" {
			list = append(list, e)
		}
	}
	return list
}

func parseCustomContext(s string) map[string]string {
	result := make(map[string]string)
	if strings.TrimSpace(s) == "" {
		return result
	}
	if err := json.Unmarshal([]byte(s), &result); err != nil {
		return make(map[string]string)
	}
	return result
}
