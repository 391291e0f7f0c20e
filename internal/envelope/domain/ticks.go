package domain

import "time"

const (
	ticksPerSecond = int64(10_000_000)
	nanosPerTick   = int64(100)

	// epochOffsetSeconds is the number of seconds between 0001-01-01 and 1970-01-01.
	epochOffsetSeconds = int64(62_135_596_800)

	minYear = 1
	maxYear = 9999
)

const (
	// MinTicks is 0001-01-01T00:00:00.
	MinTicks = int64(0)

	// MaxTicks is 9999-12-31T23:59:59.9999999.
	MaxTicks = int64(3_155_378_975_999_999_999)
)

// TicksFromTime returns the number of 100ns ticks since 0001-01-01T00:00:00
// for the wall clock reading of t in its own location. Sub-tick precision is
// truncated. The result is only meaningful for years 1 through 9999.
func TicksFromTime(t time.Time) int64 {
	year, month, day := t.Date()
	hour, minute, second := t.Clock()
	wall := time.Date(year, month, day, hour, minute, second, t.Nanosecond(), time.UTC)

	return (wall.Unix()+epochOffsetSeconds)*ticksPerSecond + int64(wall.Nanosecond())/nanosPerTick
}

// TimeFromTicks converts ticks since 0001-01-01T00:00:00 to a UTC time.
func TimeFromTicks(ticks int64) time.Time {
	seconds := ticks/ticksPerSecond - epochOffsetSeconds
	nanos := (ticks % ticksPerSecond) * nanosPerTick
	return time.Unix(seconds, nanos).UTC()
}

// ValidTicks reports whether ticks falls inside years 1 through 9999.
func ValidTicks(ticks int64) bool {
	return ticks >= MinTicks && ticks <= MaxTicks
}
