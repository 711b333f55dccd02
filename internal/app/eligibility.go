package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"drivent/internal/domain"
)

// EligibilityResolver walks enrollment -> ticket -> ticket type for a user and
// decides whether hotel listings may be shown. It never writes and never caches.
type EligibilityResolver struct {
	enrollments domain.EnrollmentRepository
	tickets     domain.TicketRepository
}

func NewEligibilityResolver(e domain.EnrollmentRepository, t domain.TicketRepository) *EligibilityResolver {
	return &EligibilityResolver{enrollments: e, tickets: t}
}

// Resolve returns the decision for userID. A non-nil error means a store read
// failed for a reason other than absence; the decision is then meaningless.
func (r *EligibilityResolver) Resolve(ctx context.Context, userID int64) (domain.Eligibility, error) {
	enr, err := r.enrollments.FindEnrollmentByUserID(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return r.deny(userID, domain.DenyNotFound(domain.StageEnrollment, "no enrollment")), nil
	}
	if err != nil {
		return domain.Eligibility{}, fmt.Errorf("find enrollment for user %d: %w", userID, err)
	}

	tk, err := r.tickets.FindTicketByEnrollmentID(ctx, enr.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return r.deny(userID, domain.DenyNotFound(domain.StageTicket, "no ticket")), nil
	}
	if err != nil {
		return domain.Eligibility{}, fmt.Errorf("find ticket for enrollment %d: %w", enr.ID, err)
	}

	if d, denied := domain.DenyPayment(enr.ID, tk); denied {
		return r.deny(userID, d), nil
	}
	return domain.Allow(enr.ID, tk.ID), nil
}

// ResolveForHotel runs the same chain ahead of a single-hotel lookup.
func (r *EligibilityResolver) ResolveForHotel(ctx context.Context, userID, hotelID int64) (domain.Eligibility, error) {
	e, err := r.Resolve(ctx, userID)
	if err == nil && !e.Allowed() {
		log.Debug().Int64("user_id", userID).Int64("hotel_id", hotelID).Msg("hotel lookup denied")
	}
	return e, err
}

func (r *EligibilityResolver) deny(userID int64, e domain.Eligibility) domain.Eligibility {
	log.Debug().
		Int64("user_id", userID).
		Str("outcome", e.Outcome.String()).
		Str("stage", string(e.Stage)).
		Str("reason", e.Reason).
		Msg("hotel access denied")
	return e
}
