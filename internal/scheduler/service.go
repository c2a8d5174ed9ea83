package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cdaniela3026/Proyecto-El-Deber-Metricas/internal/aggregator"
	"github.com/cdaniela3026/Proyecto-El-Deber-Metricas/internal/config"
	"github.com/cdaniela3026/Proyecto-El-Deber-Metricas/internal/models"
	"github.com/cdaniela3026/Proyecto-El-Deber-Metricas/internal/notifications"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Service samples the configured watch list on a fixed cadence, feeding the
// rolling history buffers and alerting on live-status transitions. The core
// stays request-driven; this runs only when WATCH_STREAMS is set.
type Service struct {
	config     *config.Config
	aggregator *aggregator.Service
	notifier   notifications.NotificationInterface
	cron       *cron.Cron

	mu         sync.Mutex
	lastStatus map[string]models.Status
}

// NewService creates a new sampling scheduler
func NewService(cfg *config.Config, agg *aggregator.Service, notifier notifications.NotificationInterface) *Service {
	return &Service{
		config:     cfg,
		aggregator: agg,
		notifier:   notifier,
		cron:       cron.New(cron.WithSeconds()),
		lastStatus: make(map[string]models.Status),
	}
}

// Start begins the sampling schedule. With an empty watch list nothing is
// scheduled and the service is a no-op.
func (s *Service) Start() error {
	if len(s.config.WatchStreams) == 0 {
		logrus.Info("No watched streams configured, sampler disabled")
		return nil
	}

	spec := fmt.Sprintf("@every %s", s.config.SampleInterval)
	_, err := s.cron.AddFunc(spec, s.SampleAll)
	if err != nil {
		return err
	}

	s.cron.Start()
	logrus.Infof("Sampler started: %d watched streams every %s", len(s.config.WatchStreams), s.config.SampleInterval)
	return nil
}

// Stop stops the scheduler
func (s *Service) Stop() {
	if s.cron != nil {
		s.cron.Stop()
		logrus.Info("Sampler stopped")
	}
}

// SampleAll polls every watched stream once and reports transitions.
func (s *Service) SampleAll() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.SampleInterval)
	defer cancel()

	for _, watch := range s.config.WatchStreams {
		parts := strings.SplitN(watch, ":", 2)
		if len(parts) != 2 {
			logrus.Errorf("Skipping malformed watch entry %q", watch)
			continue
		}

		platform := models.Platform(parts[0])
		record := s.aggregator.GetMetrics(ctx, platform, parts[1])
		s.observe(watch, record)
	}

	if removed := s.aggregator.PurgeCache(); removed > 0 {
		logrus.Debugf("Purged %d expired cache entries", removed)
	}
}

func (s *Service) observe(watch string, record *models.MetricsRecord) {
	s.mu.Lock()
	previous, seen := s.lastStatus[watch]
	s.lastStatus[watch] = record.Status
	s.mu.Unlock()

	if !seen || previous == record.Status {
		return
	}

	logrus.Infof("Watched stream %s changed status: %s -> %s", watch, previous, record.Status)

	if s.notifier == nil {
		return
	}

	change := &models.StatusChange{
		Platform: record.Platform,
		StreamID: record.StreamID,
		From:     previous,
		To:       record.Status,
		At:       time.Now(),
	}
	if err := s.notifier.SendStatusChange(change); err != nil {
		logrus.Errorf("Failed to notify status change for %s: %v", watch, err)
	}
}
