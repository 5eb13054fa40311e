package teststream

import "time"

// HTTP status code constants.
const (
	StatusOK              = 200
	StatusCreated         = 201
	StatusAccepted        = 202
	StatusNotFound        = 404
	StatusTooManyRequests = 429
)

// Terminal trial states reported by the service.
const (
	StateCompletedSuccess = "completed_success"
	StateCompletedFailure = "completed_failure"
	StateAborted          = "aborted"
)

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// Streaming constants.
const (
	FrameBatchSize   = 25
	MaxBatchRetries  = 5
	BackpressureWait = 100 * time.Millisecond
)

// Runner configuration constants.
const (
	ResultSettleDelay    = 2 * time.Second
	ResultPollInterval   = 200 * time.Millisecond
	ResultPollTimeout    = 15 * time.Second
	PercentageMultiplier = 100
)
