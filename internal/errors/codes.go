// Package errors provides structured error handling for the engine.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Validation errors
	CodeNotYourTurn        Code = "ACTION_NOT_YOUR_TURN"
	CodeIllegalAction      Code = "ACTION_ILLEGAL_FOR_PHASE"
	CodeIllegalAmount      Code = "ACTION_ILLEGAL_AMOUNT"
	CodeInsufficientChips  Code = "ACTION_INSUFFICIENT_CHIPS"
	CodeSeatNotInHand      Code = "SEAT_NOT_IN_HAND"
	CodeDecisionNotPending Code = "DECISION_NOT_PENDING"
	CodeHandInProgress     Code = "HAND_IN_PROGRESS"
	CodeNotEnoughPlayers   Code = "NOT_ENOUGH_PLAYERS"

	// Consistency errors
	CodePotSumMismatch       Code = "POT_SUM_MISMATCH"
	CodeNegativeContribution Code = "NEGATIVE_CONTRIBUTION"

	// Concurrency errors
	CodeVersionConflict Code = "SESSION_VERSION_CONFLICT"

	// Configuration errors
	CodeUnknownVariant   Code = "VARIANT_UNKNOWN"
	CodeMissingEvaluator Code = "EVALUATOR_MISSING"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeIllegalAmount,
		CodeSeatNotInHand:
		return codes.InvalidArgument

	// FailedPrecondition - state doesn't allow operation
	case CodeNotYourTurn,
		CodeIllegalAction,
		CodeInsufficientChips,
		CodeDecisionNotPending,
		CodeHandInProgress,
		CodeNotEnoughPlayers:
		return codes.FailedPrecondition

	// Unavailable - transient, caller should retry
	case CodeVersionConflict:
		return codes.Unavailable

	// NotFound - resource doesn't exist
	case CodeNotFound:
		return codes.NotFound

	default:
		return codes.Internal
	}
}
