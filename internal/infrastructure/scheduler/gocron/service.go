// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package scheduler

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/BoostyLabs/staking/internal/core/ports"
)

type service struct {
	scheduler *gocron.Scheduler
}

func NewScheduler() ports.Scheduler {
	return &service{gocron.NewScheduler(time.UTC)}
}

// Every schedules task to run every interval, starting right after Start.
// A run is skipped while the previous one is in progress.
func (s *service) Every(interval time.Duration, task func()) error {
	if interval <= 0 {
		return fmt.Errorf("invalid interval %s", interval)
	}

	_, err := s.scheduler.Every(interval).SingletonMode().Do(task)
	return err
}

func (s *service) Start() {
	s.scheduler.StartAsync()
}

func (s *service) Stop() {
	s.scheduler.Stop()
}
