package booking

import "errors"

var (
	// ErrActiveBookingExists is returned when the user already holds an
	// active booking.
	ErrActiveBookingExists = errors.New("user already has an active booking")

	// ErrSpotUnavailable is returned when the target spot was taken between
	// selection and commit.
	ErrSpotUnavailable = errors.New("parking spot is not available")

	// ErrNoSpotsAvailable is returned when a lot has no free spot left.
	ErrNoSpotsAvailable = errors.New("no available spots in the selected lot")

	// ErrInvalidState is returned when an operation is attempted on a
	// booking that is not in the required state.
	ErrInvalidState = errors.New("booking is not in the required state")

	// ErrNotFound is returned when a referenced spot, booking or vehicle
	// does not exist or does not belong to the acting user.
	ErrNotFound = errors.New("record not found")
)

// IsConflict reports whether err is one of the recoverable reservation
// conflicts: the caller re-displays the action form, nothing is retried.
func IsConflict(err error) bool {
	return errors.Is(err, ErrActiveBookingExists) ||
		errors.Is(err, ErrSpotUnavailable) ||
		errors.Is(err, ErrNoSpotsAvailable)
}

// IsInvalidState reports whether err is a lifecycle state violation.
func IsInvalidState(err error) bool {
	return errors.Is(err, ErrInvalidState)
}

// IsNotFound reports whether err is a missing-record error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
