package telegram

import (
	"context"
	"fmt"
	"strconv"

	"gathering_notification_service/internal/app"
	"gathering_notification_service/internal/domain/notification"
	idb "gathering_notification_service/internal/infra/database"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// RegisterOperatorHandlers registers the operator entry points: the manual
// trigger and config management commands. Commands are gated on the
// configured operator Telegram ID; the app services themselves carry no
// authentication.
func RegisterOperatorHandlers(
	ctx context.Context,
	b *telebot.Bot,
	triggerService *app.TriggerService,
	configService *app.ConfigService,
	adminTelegramID int64,
	baseLogger *logrus.Entry,
) {
	b.Handle("/trigger_gathering", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/trigger_gathering",
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		if c.Sender().ID != adminTelegramID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send("Error: you are not authorized to run this command.")
		}

		args := c.Args()
		// Expected format: /trigger_gathering <gatheringID> <UPCOMING|REMINDER>
		if len(args) != 2 {
			handlerLogger.WithField("args_count", len(args)).Warn("Invalid command format")
			return c.Send("Invalid format. Use: /trigger_gathering <gatheringID> <UPCOMING|REMINDER>")
		}

		gatheringID := args[0]
		kind, err := notification.ParseRuleKind(args[1])
		if err != nil {
			handlerLogger.WithField("arg", args[1]).Warn("Invalid rule kind")
			return c.Send("Error: rule kind must be UPCOMING or REMINDER.")
		}

		result, err := triggerService.Trigger(ctx, gatheringID, kind)
		if err != nil {
			handlerLogger.WithError(err).Error("Manual trigger failed")
			return c.Send(fmt.Sprintf("Trigger failed: %s", err.Error()))
		}

		handlerLogger.WithFields(logrus.Fields{
			"action": result.Action,
			"reason": result.Reason,
		}).Info("Manual trigger returned")

		if result.Action == app.ActionSkipped {
			return c.Send(fmt.Sprintf("Skipped (%s). Events in window: %d.", result.Reason, result.EventsTotal))
		}
		return c.Send(fmt.Sprintf(
			"Notification %s (id %s). Candidates processed: %d, events: %d, attendees: %d.",
			result.Action, result.NotificationID, result.CandidatesProcessed, result.EventsTotal, result.AttendeeTotal,
		))
	})

	b.Handle("/gathering_config", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/gathering_config",
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		if c.Sender().ID != adminTelegramID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send("Error: you are not authorized to run this command.")
		}

		cfg, err := configService.GetActive(ctx)
		if err != nil {
			if err == idb.ErrConfigNotFound {
				return c.Send("No active gathering config. Create one with /create_gathering_config.")
			}
			handlerLogger.WithError(err).Error("Failed to load active config")
			return c.Send(fmt.Sprintf("Failed to load config: %s", err.Error()))
		}
		return c.Send(formatConfig(cfg))
	})

	b.Handle("/create_gathering_config", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/create_gathering_config",
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		if c.Sender().ID != adminTelegramID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send("Error: you are not authorized to run this command.")
		}

		args := c.Args()
		// Expected format: /create_gathering_config <minAttendees> <upcomingDays> <reminderDays> <totalThreshold> <qualifiedThreshold>
		if len(args) != 5 {
			return c.Send("Invalid format. Use: /create_gathering_config <minAttendees> <upcomingDays> <reminderDays> <totalThreshold> <qualifiedThreshold>")
		}
		values := make([]int, 5)
		for i, a := range args {
			v, err := strconv.Atoi(a)
			if err != nil {
				return c.Send(fmt.Sprintf("Error: %q is not a number.", a))
			}
			values[i] = v
		}

		cfg, err := configService.CreateAndActivate(ctx, app.ConfigParams{
			Enabled:                  true,
			MinAttendeesPerEvent:     values[0],
			UpcomingWindowDays:       values[1],
			ReminderDaysBefore:       values[2],
			TotalEventsThreshold:     values[3],
			QualifiedEventsThreshold: values[4],
		})
		if err != nil {
			if err == app.ErrInvalidConfig {
				return c.Send("Error: all values must be at least 1.")
			}
			handlerLogger.WithError(err).Error("Failed to create config")
			return c.Send(fmt.Sprintf("Failed to create config: %s", err.Error()))
		}

		handlerLogger.WithField("config_id", cfg.ID).Info("Config created and activated")
		return c.Send("New config activated.\n" + formatConfig(cfg))
	})

	b.Handle("/set_gathering_config", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/set_gathering_config",
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		if c.Sender().ID != adminTelegramID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send("Error: you are not authorized to run this command.")
		}

		args := c.Args()
		// Expected format: /set_gathering_config <field> <value>
		if len(args) != 2 {
			return c.Send("Invalid format. Use: /set_gathering_config <field> <value>\nFields: min_attendees, upcoming_days, reminder_days, total_threshold, qualified_threshold")
		}
		value, err := strconv.Atoi(args[1])
		if err != nil {
			return c.Send(fmt.Sprintf("Error: %q is not a number.", args[1]))
		}

		cfg, err := configService.GetActive(ctx)
		if err != nil {
			if err == idb.ErrConfigNotFound {
				return c.Send("No active gathering config. Create one with /create_gathering_config.")
			}
			handlerLogger.WithError(err).Error("Failed to load active config")
			return c.Send(fmt.Sprintf("Failed to load config: %s", err.Error()))
		}

		params := app.ConfigParams{
			Enabled:                  cfg.Enabled,
			MinAttendeesPerEvent:     cfg.MinAttendeesPerEvent,
			UpcomingWindowDays:       cfg.UpcomingWindowDays,
			ReminderDaysBefore:       cfg.ReminderDaysBefore,
			TotalEventsThreshold:     cfg.TotalEventsThreshold,
			QualifiedEventsThreshold: cfg.QualifiedEventsThreshold,
		}
		switch args[0] {
		case "min_attendees":
			params.MinAttendeesPerEvent = value
		case "upcoming_days":
			params.UpcomingWindowDays = value
		case "reminder_days":
			params.ReminderDaysBefore = value
		case "total_threshold":
			params.TotalEventsThreshold = value
		case "qualified_threshold":
			params.QualifiedEventsThreshold = value
		default:
			return c.Send(fmt.Sprintf("Error: unknown field %q.", args[0]))
		}

		updated, err := configService.Update(ctx, cfg.ID, params)
		if err != nil {
			if err == app.ErrInvalidConfig {
				return c.Send("Error: all values must be at least 1.")
			}
			handlerLogger.WithError(err).Error("Failed to update config")
			return c.Send(fmt.Sprintf("Failed to update config: %s", err.Error()))
		}

		handlerLogger.WithFields(logrus.Fields{"config_id": updated.ID, "field": args[0]}).Info("Config field updated")
		return c.Send("Config updated.\n" + formatConfig(updated))
	})

	b.Handle("/activate_gathering_config", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/activate_gathering_config",
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		if c.Sender().ID != adminTelegramID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send("Error: you are not authorized to run this command.")
		}

		args := c.Args()
		// Expected format: /activate_gathering_config <configID>
		if len(args) != 1 {
			return c.Send("Invalid format. Use: /activate_gathering_config <configID>")
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return c.Send("Error: config ID must be a number.")
		}

		if err := configService.Activate(ctx, id); err != nil {
			if err == idb.ErrConfigNotFound {
				return c.Send(fmt.Sprintf("Config %d not found.", id))
			}
			handlerLogger.WithError(err).Error("Failed to activate config")
			return c.Send(fmt.Sprintf("Failed to activate config: %s", err.Error()))
		}

		handlerLogger.WithField("config_id", id).Info("Config activated")
		return c.Send(fmt.Sprintf("Config %d is now active.", id))
	})

	b.Handle("/enable_gathering", toggleHandler(ctx, configService, adminTelegramID, baseLogger, true))
	b.Handle("/disable_gathering", toggleHandler(ctx, configService, adminTelegramID, baseLogger, false))
}

func toggleHandler(ctx context.Context, configService *app.ConfigService, adminTelegramID int64, baseLogger *logrus.Entry, enabled bool) telebot.HandlerFunc {
	name := "/disable_gathering"
	if enabled {
		name = "/enable_gathering"
	}
	return func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   name,
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		if c.Sender().ID != adminTelegramID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send("Error: you are not authorized to run this command.")
		}

		cfg, err := configService.SetEnabled(ctx, enabled)
		if err != nil {
			if err == idb.ErrConfigNotFound {
				return c.Send("No active gathering config. Create one with /create_gathering_config.")
			}
			handlerLogger.WithError(err).Error("Failed to toggle config")
			return c.Send(fmt.Sprintf("Failed to toggle config: %s", err.Error()))
		}
		if enabled {
			return c.Send(fmt.Sprintf("Gathering notifications enabled (config %d).", cfg.ID))
		}
		return c.Send(fmt.Sprintf("Gathering notifications disabled (config %d).", cfg.ID))
	}
}

func formatConfig(cfg *notification.GatheringConfig) string {
	return fmt.Sprintf(
		"Config %d (enabled: %t)\nmin attendees per event: %d\nupcoming window days: %d\nreminder days before: %d\ntotal events threshold: %d\nqualified events threshold: %d",
		cfg.ID, cfg.Enabled, cfg.MinAttendeesPerEvent, cfg.UpcomingWindowDays,
		cfg.ReminderDaysBefore, cfg.TotalEventsThreshold, cfg.QualifiedEventsThreshold,
	)
}
