package service

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"

	bookingserrors "chairside/internal/bookings/errors"
	"chairside/internal/bookings/repository"
	"chairside/internal/bookings/validator"
	"chairside/pkg/config"
	apperrors "chairside/pkg/errors"
	"chairside/pkg/model"
	"chairside/pkg/notifier"
	"chairside/pkg/sanitizer"
)

type BookingService interface {
	Create(ctx context.Context, booking *model.Booking) error
	GetAll(ctx context.Context, startDate, endDate string) ([]*model.Booking, error)
	Cancel(ctx context.Context, id int) (*model.Booking, error)
	CheckAvailability(ctx context.Context, date, timeSlot string) (*model.Booking, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	validator *validator.BookingValidator
	hub       *notifier.Hub
	cfg       *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	validator *validator.BookingValidator,
	hub *notifier.Hub,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		validator: validator,
		hub:       hub,
		cfg:       cfg,
	}
}

// Create books a slot. Slot uniqueness is enforced by the storage index, so
// two concurrent requests for the same slot resolve to one success and one
// conflict without any pre-check. The created event is published only after
// the insert has committed.
func (s *bookingService) Create(ctx context.Context, booking *model.Booking) error {
	s.sanitize(booking)
	if err := s.validate(booking); err != nil {
		return err
	}

	if err := s.repo.Create(ctx, booking); err != nil {
		if errors.Is(err, bookingserrors.ErrSlotTaken) {
			s.cfg.Log.Info("Slot already booked",
				"date", booking.Date,
				"time", booking.Time,
			)
			return apperrors.Conflict("This time slot is already booked")
		}
		s.cfg.Log.Error("Failed to create booking", "error", err)
		return apperrors.Internal("Failed to create booking", err)
	}

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"date", booking.Date,
		"time", booking.Time,
		"service", booking.Service,
	)

	s.hub.Publish(notifier.Event{
		Kind:    notifier.EventBookingCreated,
		Booking: booking,
	})
	return nil
}

// GetAll lists bookings. The date filter applies only when both bounds are
// supplied; a lone bound is ignored and the full ledger is returned.
func (s *bookingService) GetAll(ctx context.Context, startDate, endDate string) ([]*model.Booking, error) {
	var bookings []*model.Booking
	var err error

	if startDate != "" && endDate != "" {
		bookings, err = s.repo.FindByDateRange(ctx, startDate, endDate)
	} else {
		bookings, err = s.repo.FindAll(ctx)
	}
	if err != nil {
		s.cfg.Log.Error("Failed to list bookings", "error", err)
		return nil, apperrors.Internal("Failed to retrieve bookings", err)
	}

	return bookings, nil
}

// Cancel removes the booking and returns its last state. The read and the
// delete run in one transaction so the published snapshot is exactly the row
// that was removed.
func (s *bookingService) Cancel(ctx context.Context, id int) (*model.Booking, error) {
	var cancelled *model.Booking

	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		booking, err := s.repo.FindByID(sessCtx, id)
		if err != nil {
			if errors.Is(err, bookingserrors.ErrNotFound) {
				return apperrors.NotFound("Booking not found")
			}
			return apperrors.Internal("Failed to retrieve booking", err)
		}

		if err := s.repo.Delete(sessCtx, id); err != nil {
			if errors.Is(err, bookingserrors.ErrNotFound) {
				return apperrors.NotFound("Booking not found")
			}
			return apperrors.Internal("Failed to delete booking", err)
		}

		cancelled = booking
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Booking cancelled successfully",
		"id", cancelled.ID,
		"date", cancelled.Date,
		"time", cancelled.Time,
	)

	s.hub.Publish(notifier.Event{
		Kind:    notifier.EventBookingCancelled,
		Booking: cancelled,
	})
	return cancelled, nil
}

// CheckAvailability returns the occupying booking for the slot, or nil when
// the slot is free.
func (s *bookingService) CheckAvailability(ctx context.Context, date, timeSlot string) (*model.Booking, error) {
	if date == "" || timeSlot == "" {
		return nil, apperrors.InvalidInput("Date and time are required")
	}

	booking, err := s.repo.FindBySlot(ctx, date, timeSlot)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, nil
		}
		s.cfg.Log.Error("Failed to check slot availability",
			"date", date,
			"time", timeSlot,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to check availability", err)
	}

	return booking, nil
}

// --- Helpers ---

func (s *bookingService) sanitize(b *model.Booking) {
	b.Date = sanitizer.TrimAndNormalize(b.Date)
	b.Time = sanitizer.TrimAndNormalize(b.Time)
	b.Name = sanitizer.NormalizeName(b.Name)
	b.Phone = sanitizer.NormalizePhone(b.Phone)
	b.Service = sanitizer.NormalizeService(b.Service)
}

func (s *bookingService) validate(booking *model.Booking) error {
	if err := s.validator.Validate(booking); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)

		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return apperrors.InvalidInput(verrs[0].Message)
		}
		return apperrors.InvalidInput("Invalid booking input")
	}
	return nil
}
