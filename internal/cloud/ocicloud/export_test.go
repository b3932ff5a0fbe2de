package ocicloud

import "time"

func NewForTest(computeCli Compute) *OCI {
	return newForTest(computeCli)
}

var (
	ShouldRetryOperation = shouldRetryOperation
	NextRetryDuration    = nextRetryDuration
)

func SetPollIntervalForTest(interval time.Duration) (restore func()) {
	previous := terminatingPollInterval
	terminatingPollInterval = interval
	return func() {
		terminatingPollInterval = previous
	}
}
