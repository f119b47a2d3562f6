package errors

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// userMessages maps codes to the stable user-facing messages the transport
// layer may surface. Internal consistency corrections never appear here.
var userMessages = map[Code]string{
	CodeNotYourTurn:       "not your turn",
	CodeIllegalAction:     "illegal action for this phase",
	CodeIllegalAmount:     "illegal action for this phase",
	CodeInsufficientChips: "insufficient chips",
	CodeVersionConflict:   "please retry",
}

// HandleError converts domain errors to gRPC status for client responses.
// Unknown errors collapse to a generic internal status so internal details
// never leak to end users.
func HandleError(err error) error {
	if err == nil {
		return nil
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.ToGRPCStatus(userMessages[appErr.Code])
	}

	return status.Error(codes.Internal, "an unexpected error occurred")
}

// GetCode extracts the error code from any error.
// Returns CodeUnknown if the error is not a domain error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// IsCode checks if the error has the specified code.
func IsCode(err error, code Code) bool {
	return GetCode(err) == code
}
