// internal/app/config_service.go
package app

import (
	"context"
	"fmt"

	"gathering_notification_service/internal/domain/notification"

	"github.com/sirupsen/logrus"
)

// Custom application-level errors for config management
var ErrInvalidConfig = fmt.Errorf("invalid gathering config parameters")

// ConfigParams are the operator-settable fields of a GatheringConfig.
type ConfigParams struct {
	Enabled                  bool
	MinAttendeesPerEvent     int
	UpcomingWindowDays       int
	ReminderDaysBefore       int
	TotalEventsThreshold     int
	QualifiedEventsThreshold int
}

func (p ConfigParams) validate() error {
	if p.MinAttendeesPerEvent < 1 || p.UpcomingWindowDays < 1 || p.ReminderDaysBefore < 1 ||
		p.TotalEventsThreshold < 1 || p.QualifiedEventsThreshold < 1 {
		return ErrInvalidConfig
	}
	return nil
}

// ConfigService maintains the single active gathering configuration.
type ConfigService struct {
	configRepo notification.ConfigRepository
	logger     *logrus.Entry
}

func NewConfigService(cr notification.ConfigRepository, logger *logrus.Entry) *ConfigService {
	return &ConfigService{configRepo: cr, logger: logger}
}

func (s *ConfigService) GetActive(ctx context.Context) (*notification.GatheringConfig, error) {
	return s.configRepo.GetActive(ctx)
}

// CreateAndActivate inserts a new config and makes it the single active one.
func (s *ConfigService) CreateAndActivate(ctx context.Context, params ConfigParams) (*notification.GatheringConfig, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	cfg := &notification.GatheringConfig{
		Enabled:                  params.Enabled,
		MinAttendeesPerEvent:     params.MinAttendeesPerEvent,
		UpcomingWindowDays:       params.UpcomingWindowDays,
		ReminderDaysBefore:       params.ReminderDaysBefore,
		TotalEventsThreshold:     params.TotalEventsThreshold,
		QualifiedEventsThreshold: params.QualifiedEventsThreshold,
	}
	if err := s.configRepo.CreateAndActivate(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to create and activate config: %w", err)
	}
	s.logger.WithField("config_id", cfg.ID).Info("Gathering config created and activated")
	return cfg, nil
}

// Update mutates an existing config's parameters in place.
func (s *ConfigService) Update(ctx context.Context, id int64, params ConfigParams) (*notification.GatheringConfig, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	cfg, err := s.configRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	cfg.Enabled = params.Enabled
	cfg.MinAttendeesPerEvent = params.MinAttendeesPerEvent
	cfg.UpcomingWindowDays = params.UpcomingWindowDays
	cfg.ReminderDaysBefore = params.ReminderDaysBefore
	cfg.TotalEventsThreshold = params.TotalEventsThreshold
	cfg.QualifiedEventsThreshold = params.QualifiedEventsThreshold
	if err := s.configRepo.Update(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to update config %d: %w", id, err)
	}
	s.logger.WithField("config_id", id).Info("Gathering config updated")
	return cfg, nil
}

// SetEnabled toggles the active config's enabled flag.
func (s *ConfigService) SetEnabled(ctx context.Context, enabled bool) (*notification.GatheringConfig, error) {
	cfg, err := s.configRepo.GetActive(ctx)
	if err != nil {
		return nil, err
	}
	cfg.Enabled = enabled
	if err := s.configRepo.Update(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to toggle config %d: %w", cfg.ID, err)
	}
	s.logger.WithFields(logrus.Fields{"config_id": cfg.ID, "enabled": enabled}).Info("Gathering config toggled")
	return cfg, nil
}

// Activate makes the given config the single active one.
func (s *ConfigService) Activate(ctx context.Context, id int64) error {
	if err := s.configRepo.Activate(ctx, id); err != nil {
		return err
	}
	s.logger.WithField("config_id", id).Info("Gathering config activated")
	return nil
}
