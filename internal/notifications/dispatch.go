package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Dispatcher turns pipeline events into public posts and operator alerts.
// Both channels are optional: a nil channel logs the message instead.
type Dispatcher struct {
	poster  Poster
	alerter Alerter
	logger  *slog.Logger
}

// NewDispatcher creates a dispatcher. poster and alerter may be nil.
func NewDispatcher(poster Poster, alerter Alerter, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{poster: poster, alerter: alerter, logger: logger}
}

// InitialAvailability announces that appointments are bookable again after
// the service came back online.
func (d *Dispatcher) InitialAvailability(ctx context.Context, service string) error {
	return d.post(ctx, "initial", initialMessage(service))
}

// BulkIncrease announces new appointments at the given locations and returns
// the message that was posted so it can be reused by other channels.
func (d *Dispatcher) BulkIncrease(ctx context.Context, service string, locations []string) (string, error) {
	if len(locations) == 0 {
		return "", fmt.Errorf("bulk increase: no locations")
	}
	msg := bulkMessage(service, locations)
	if err := d.post(ctx, "bulk", msg); err != nil {
		return "", err
	}
	return msg, nil
}

// NoAppointments announces that the service is up but nothing is bookable.
func (d *Dispatcher) NoAppointments(ctx context.Context, service string) error {
	return d.post(ctx, "no_appointments", noAppointmentsMessage(service))
}

// Alert forwards a message to the direct alert channel.
func (d *Dispatcher) Alert(ctx context.Context, service, message string) error {
	if d.alerter == nil {
		d.logger.Info("Alert (no alert channel configured)", "service", service, "message", message)
		return nil
	}
	if err := d.alerter.Alert(ctx, service, message); err != nil {
		return fmt.Errorf("send alert: %w", err)
	}
	return nil
}

func (d *Dispatcher) post(ctx context.Context, kind, msg string) error {
	if d.poster == nil {
		d.logger.Info("Post (no social channel configured)", "kind", kind, "message", msg)
		return nil
	}
	if err := d.poster.Post(ctx, msg); err != nil {
		return fmt.Errorf("post %s update: %w", kind, err)
	}
	d.logger.Info("Posted update", "kind", kind)
	return nil
}

// --------------------------------------------------------------------------
// Messages
// --------------------------------------------------------------------------

func initialMessage(service string) string {
	return fmt.Sprintf("%s passport appointments are available to book again. Check the latest availability before they go.", title(service))
}

func bulkMessage(service string, locations []string) string {
	return fmt.Sprintf("New %s passport appointments have just been added at %s.", title(service), joinPlaces(locations))
}

func noAppointmentsMessage(service string) string {
	return fmt.Sprintf("The %s passport service is online but there are no appointments to book right now.", title(service))
}

// joinPlaces renders ["a"] as "a", ["a","b"] as "a and b" and longer lists
// with commas before the final "and".
func joinPlaces(places []string) string {
	switch len(places) {
	case 0:
		return ""
	case 1:
		return places[0]
	default:
		return strings.Join(places[:len(places)-1], ", ") + " and " + places[len(places)-1]
	}
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
