package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInPausePeriodDateRange(t *testing.T) {
	inRange := time.Date(2026, time.March, 5, 10, 0, 0, 0, time.UTC)
	outOfRange := time.Date(2026, time.June, 1, 10, 0, 0, 0, time.UTC)

	assert.True(t, InPausePeriod(inRange, "3/1-3/10", ""))
	assert.False(t, InPausePeriod(outOfRange, "3/1-3/10", ""))
}

func TestInPausePeriodTimeRange(t *testing.T) {
	inRange := time.Date(2026, time.March, 5, 2, 30, 0, 0, time.UTC)
	outOfRange := time.Date(2026, time.March, 5, 23, 0, 0, 0, time.UTC)

	assert.True(t, InPausePeriod(inRange, "", "1:00-3:00"))
	assert.False(t, InPausePeriod(outOfRange, "", "1:00-3:00"))
}

func TestInPausePeriodRequiresBothWhenBothSet(t *testing.T) {
	dateMatchesOnly := time.Date(2026, time.March, 5, 23, 0, 0, 0, time.UTC)
	assert.False(t, InPausePeriod(dateMatchesOnly, "3/1-3/10", "1:00-3:00"))

	both := time.Date(2026, time.March, 5, 2, 0, 0, 0, time.UTC)
	assert.True(t, InPausePeriod(both, "3/1-3/10", "1:00-3:00"))
}

func TestInPausePeriodEmptyMeansNeverPaused(t *testing.T) {
	assert.False(t, InPausePeriod(time.Now(), "", ""))
}

func TestInPausePeriodMalformedTreatedAsAbsent(t *testing.T) {
	assert.False(t, InPausePeriod(time.Date(2026, time.March, 5, 2, 0, 0, 0, time.UTC), "garbage", ""))
}

func TestInPausePeriodMultipleRanges(t *testing.T) {
	dec := time.Date(2026, time.December, 25, 10, 0, 0, 0, time.UTC)
	jan := time.Date(2026, time.January, 1, 10, 0, 0, 0, time.UTC)
	july := time.Date(2026, time.July, 1, 10, 0, 0, 0, time.UTC)

	spec := "12/20-12/31,1/1-1/5"
	assert.True(t, InPausePeriod(dec, spec, ""))
	assert.True(t, InPausePeriod(jan, spec, ""))
	assert.False(t, InPausePeriod(july, spec, ""))
}
