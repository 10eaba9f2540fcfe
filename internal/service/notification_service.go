package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/turnify/turnify-api/internal/models"
	"github.com/turnify/turnify-api/pkg/jobs"
)

const (
	jobTypeBookingConfirmed = "booking.confirmed"
	jobTypeBookingCancelled = "booking.cancelled"
)

// NotificationPayload carries appointment details to the delivery workers.
type NotificationPayload struct {
	Appointment models.Appointment
	Reason      string
}

// NotificationService delivers client notifications for booking events
// through a background worker queue. Delivery failures never fail the
// booking itself; the queue retries and then drops with a log line.
type NotificationService struct {
	queue   *jobs.Queue
	logger  *zap.Logger
	enabled bool
}

// NewNotificationService constructs the service and its queue. Call Start
// before enqueuing and Stop during shutdown. A disabled service accepts
// every call and does nothing.
func NewNotificationService(enabled bool, workers, maxRetries int, retryDelay time.Duration, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{logger: logger, enabled: enabled}
	s.queue = jobs.NewQueue("notifications", s.deliver, jobs.QueueConfig{
		Workers:    workers,
		MaxRetries: maxRetries,
		RetryDelay: retryDelay,
		Logger:     logger,
	})
	return s
}

// Start launches the delivery workers.
func (s *NotificationService) Start(ctx context.Context) {
	if !s.enabled {
		return
	}
	s.queue.Start(ctx)
}

// Stop drains the workers.
func (s *NotificationService) Stop() {
	if !s.enabled {
		return
	}
	s.queue.Stop()
}

// NotifyBooked enqueues a booking confirmation.
func (s *NotificationService) NotifyBooked(appt models.Appointment) {
	s.enqueue(jobTypeBookingConfirmed, NotificationPayload{Appointment: appt})
}

// NotifyCancelled enqueues a cancellation notice.
func (s *NotificationService) NotifyCancelled(appt models.Appointment, reason string) {
	s.enqueue(jobTypeBookingCancelled, NotificationPayload{Appointment: appt, Reason: reason})
}

func (s *NotificationService) enqueue(jobType string, payload NotificationPayload) {
	if !s.enabled {
		return
	}
	job := jobs.Job{ID: uuid.NewString(), Type: jobType, Payload: payload}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Warn("failed to enqueue notification",
			zap.String("type", jobType),
			zap.String("appointment_id", payload.Appointment.ID),
			zap.Error(err))
	}
}

// deliver is the queue handler. Outbound email/SMS integration is not
// wired yet, so delivery is a structured log entry with the message body.
func (s *NotificationService) deliver(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(NotificationPayload)
	if !ok {
		return fmt.Errorf("unexpected payload type for job %s", job.ID)
	}
	appt := payload.Appointment
	msg := fmt.Sprintf("your appointment on %s is confirmed", appt.StartTime.Format("2006-01-02 15:04"))
	if job.Type == jobTypeBookingCancelled {
		msg = fmt.Sprintf("your appointment on %s was cancelled", appt.StartTime.Format("2006-01-02 15:04"))
		if payload.Reason != "" {
			msg += ": " + payload.Reason
		}
	}
	s.logger.Info("notification delivered",
		zap.String("type", job.Type),
		zap.String("appointment_id", appt.ID),
		zap.String("client_email", appt.ClientEmail),
		zap.String("message", msg))
	return nil
}
