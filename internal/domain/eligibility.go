package domain

import "fmt"

type Outcome int

const (
	Eligible Outcome = iota
	DeniedNotFound
	DeniedPaymentRequired
)

func (o Outcome) String() string {
	switch o {
	case Eligible:
		return "eligible"
	case DeniedNotFound:
		return "not_found"
	case DeniedPaymentRequired:
		return "payment_required"
	}
	return "unknown"
}

// Stage names the lookup in the enrollment -> ticket -> ticket type chain that decided the outcome.
type Stage string

const (
	StageNone       Stage = ""
	StageEnrollment Stage = "enrollment"
	StageTicket     Stage = "ticket"
	StageTicketType Stage = "ticket_type"
)

// Eligibility is the result of one resolution. The zero value is not meaningful;
// build it with Allow, DenyNotFound or DenyPayment.
type Eligibility struct {
	Outcome      Outcome
	Stage        Stage
	Reason       string
	EnrollmentID int64
	TicketID     int64
}

func Allow(enrollmentID, ticketID int64) Eligibility {
	return Eligibility{Outcome: Eligible, EnrollmentID: enrollmentID, TicketID: ticketID}
}

func DenyNotFound(stage Stage, reason string) Eligibility {
	return Eligibility{Outcome: DeniedNotFound, Stage: stage, Reason: reason}
}

// DenyPayment evaluates the ticket predicate and returns ok=false when the ticket grants hotel access.
func DenyPayment(enrollmentID int64, t Ticket) (Eligibility, bool) {
	reason := t.hotelDenial()
	if reason == "" {
		return Eligibility{}, false
	}
	return Eligibility{
		Outcome:      DeniedPaymentRequired,
		Stage:        StageTicketType,
		Reason:       reason,
		EnrollmentID: enrollmentID,
		TicketID:     t.ID,
	}, true
}

func (e Eligibility) Allowed() bool { return e.Outcome == Eligible }

// Err converts a denial into a *DenialError; nil when eligible.
func (e Eligibility) Err() error {
	switch e.Outcome {
	case Eligible:
		return nil
	case DeniedNotFound:
		return &DenialError{Kind: ErrNotFound, Stage: e.Stage, Reason: e.Reason}
	case DeniedPaymentRequired:
		return &DenialError{Kind: ErrPaymentRequired, Stage: e.Stage, Reason: e.Reason}
	}
	return fmt.Errorf("unknown eligibility outcome %d", e.Outcome)
}

// DenialError unwraps to ErrNotFound or ErrPaymentRequired.
type DenialError struct {
	Kind   error
	Stage  Stage
	Reason string
}

func (e *DenialError) Error() string {
	return fmt.Sprintf("%v: %s", e.Kind, e.Reason)
}

func (e *DenialError) Unwrap() error { return e.Kind }

func (e *DenialError) Outcome() Outcome {
	if e.Kind == ErrPaymentRequired {
		return DeniedPaymentRequired
	}
	return DeniedNotFound
}
