package room

import (
	"errors"
	"fmt"

	"github.com/rapidkeys/rapidkeys/internal/protocol"
)

// ErrNoToken is returned when no credential is available. Connect fails
// with it synchronously, before any network activity.
var ErrNoToken = errors.New("no auth token")

// RejectionKind identifies why the server refused a room join.
type RejectionKind int

// Join rejection kinds.
const (
	RejectUnknown RejectionKind = iota
	RejectRaceInProgress
	RejectRoomNotFound
	RejectInvalidToken
	RejectAlreadyInRoom
)

// String returns a short name for the kind.
func (k RejectionKind) String() string {
	switch k {
	case RejectRaceInProgress:
		return "race_in_progress"
	case RejectRoomNotFound:
		return "room_not_found"
	case RejectInvalidToken:
		return "invalid_token"
	case RejectAlreadyInRoom:
		return "already_in_room"
	default:
		return "rejected"
	}
}

// RejectionError is an authoritative join refusal: the server closed the
// connection with the policy-violation code and a reason string.
type RejectionError struct {
	Kind   RejectionKind
	Reason string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("room join rejected (%s): %s", e.Kind, e.Reason)
}

// TransportError is an unexpected connection failure or drop.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("room connection lost: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// classifyReason maps a policy-violation reason string to its kind. The
// reason string is the sole discriminant; anything unrecognized surfaces
// as a generic rejection rather than being dropped.
func classifyReason(reason string) RejectionKind {
	switch reason {
	case protocol.ReasonRaceInProgress:
		return RejectRaceInProgress
	case protocol.ReasonRoomNotFound:
		return RejectRoomNotFound
	case protocol.ReasonInvalidToken:
		return RejectInvalidToken
	case protocol.ReasonAlreadyInRoom:
		return RejectAlreadyInRoom
	default:
		return RejectUnknown
	}
}
