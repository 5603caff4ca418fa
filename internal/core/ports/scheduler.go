// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package ports

import "time"

// Scheduler runs periodic tasks, a run is skipped while the previous one is in progress.
type Scheduler interface {
	Every(interval time.Duration, task func()) error
	Start()
	Stop()
}
