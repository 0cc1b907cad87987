package timeutil

import "time"

func NowUnix() int64 {
	return time.Now().Unix()
}

// DaysAgoUnix returns the unix timestamp of now minus the given number of days.
func DaysAgoUnix(days int) int64 {
	return time.Now().Add(-time.Duration(days) * 24 * time.Hour).Unix()
}
