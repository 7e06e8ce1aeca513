// Package scheduler runs the periodic history retention sweep.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/safebite/internal/common"
	"github.com/ternarybob/safebite/internal/interfaces"
)

// RetentionService deletes scan records older than the configured age on a
// cron schedule. Disabled by default; history is kept forever unless the
// operator opts in.
type RetentionService struct {
	config  *common.RetentionConfig
	storage interfaces.ProductStorage
	logger  arbor.ILogger
	cron    *cron.Cron
	maxAge  time.Duration
}

// NewRetentionService creates the retention sweep service.
func NewRetentionService(config *common.RetentionConfig, storage interfaces.ProductStorage, logger arbor.ILogger) *RetentionService {
	return &RetentionService{
		config:  config,
		storage: storage,
		logger:  logger,
		cron:    cron.New(cron.WithSeconds()),
		maxAge:  common.ParseDurationOrDefault(config.MaxAge, 90*24*time.Hour),
	}
}

// Start registers the sweep and starts the cron runner. A no-op when
// retention is disabled.
func (s *RetentionService) Start() error {
	if !s.config.Enabled {
		s.logger.Debug().Msg("History retention sweep disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(s.config.Schedule, s.sweep); err != nil {
		return fmt.Errorf("invalid retention schedule '%s': %w", s.config.Schedule, err)
	}

	s.cron.Start()
	s.logger.Info().
		Str("schedule", s.config.Schedule).
		Dur("max_age", s.maxAge).
		Msg("History retention sweep started")

	return nil
}

// Stop halts the cron runner and waits for a running sweep to finish.
func (s *RetentionService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// sweep deletes every record scanned longer ago than maxAge.
func (s *RetentionService) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := time.Now().Add(-s.maxAge)
	products, err := s.storage.ListProductsAscending(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Retention sweep failed to list products")
		return
	}

	deleted := 0
	for _, product := range products {
		if !product.TimeScanned.Before(cutoff) {
			// Ascending order: everything after this is within the window.
			break
		}
		if err := s.storage.DeleteProduct(ctx, product.ID); err != nil {
			s.logger.Warn().
				Err(err).
				Str("product_id", product.ID).
				Msg("Retention sweep failed to delete product")
			continue
		}
		deleted++
	}

	if deleted > 0 {
		s.logger.Info().
			Int("deleted", deleted).
			Str("cutoff", cutoff.Format(time.RFC3339)).
			Msg("Retention sweep completed")
	}
}
