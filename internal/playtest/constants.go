package playtest

import "time"

// HTTP status code constants.
const (
	StatusOK              = 200
	StatusNotFound        = 404
	StatusTooManyRequests = 429
)

// Runner configuration constants.
const (
	WorkerChannelMultiplier = 2
	PercentageMultiplier    = 100
	RetryBackoff            = 500 * time.Millisecond
)
