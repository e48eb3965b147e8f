package scheduler

import (
	"context"
	"log"
	"time"

	"gathering_notification_service/internal/app"

	"github.com/robfig/cron/v3"
)

// ProcessorScheduler drives the scheduled processor on a fixed cron interval.
// It only prevents overlap within this process (one cron engine, sequential
// jobs); single-instance deployment is assumed.
type ProcessorScheduler struct {
	cronEngine      *cron.Cron
	processor       *app.Processor
	logger          *log.Logger
	cronSpecProcess string
}

func NewProcessorScheduler(processor *app.Processor, logger *log.Logger, cronSpecProcess string) *ProcessorScheduler {
	return &ProcessorScheduler{
		cronEngine:      cron.New(cron.WithLocation(time.Local)), // Use server's local time for cron
		processor:       processor,
		logger:          logger,
		cronSpecProcess: cronSpecProcess,
	}
}

func (s *ProcessorScheduler) Start() {
	s.logger.Println("INFO: Starting gathering notification scheduler...")

	_, err := s.cronEngine.AddFunc(s.cronSpecProcess, func() {
		s.logger.Println("INFO: Cron job triggered for gathering candidate processing.")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := s.processor.Run(ctx); err != nil {
			s.logger.Printf("ERROR: Error during gathering candidate processing: %v", err)
		}
	})
	if err != nil {
		s.logger.Fatalf("FATAL: Could not add gathering processing cron job: %v", err)
	}

	s.cronEngine.Start()
	s.logger.Println("INFO: Gathering notification scheduler started.")
}

func (s *ProcessorScheduler) Stop() {
	s.logger.Println("INFO: Stopping gathering notification scheduler...")
	ctx := s.cronEngine.Stop() // Stops new jobs, waits for running ones.
	<-ctx.Done()
	s.logger.Println("INFO: Gathering notification scheduler gracefully stopped.")
}
