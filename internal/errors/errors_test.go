package errors

import (
	"errors"
	"fmt"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestGRPCCodeMapping(t *testing.T) {
	tests := []struct {
		code Code
		want codes.Code
	}{
		{CodeIllegalAmount, codes.InvalidArgument},
		{CodeSeatNotInHand, codes.InvalidArgument},
		{CodeNotYourTurn, codes.FailedPrecondition},
		{CodeIllegalAction, codes.FailedPrecondition},
		{CodeInsufficientChips, codes.FailedPrecondition},
		{CodeVersionConflict, codes.Unavailable},
		{CodeNotFound, codes.NotFound},
		{CodePotSumMismatch, codes.Internal},
		{CodeUnknownVariant, codes.Internal},
		{CodeUnknown, codes.Internal},
	}
	for _, tc := range tests {
		t.Run(string(tc.code), func(t *testing.T) {
			if got := tc.code.GRPCCode(); got != tc.want {
				t.Fatalf("GRPCCode(%s) = %v, want %v", tc.code, got, tc.want)
			}
		})
	}
}

func TestHandleErrorDomainError(t *testing.T) {
	err := New(CodeNotYourTurn, "seat 3 acted out of turn")
	grpcErr := HandleError(err)

	st, ok := status.FromError(grpcErr)
	if !ok {
		t.Fatalf("expected grpc status, got %v", grpcErr)
	}
	if st.Code() != codes.FailedPrecondition {
		t.Fatalf("expected FailedPrecondition, got %v", st.Code())
	}
	if st.Message() != "not your turn" {
		t.Fatalf("expected stable user message, got %q", st.Message())
	}
}

func TestHandleErrorUnknownError(t *testing.T) {
	grpcErr := HandleError(errors.New("ledger exploded"))

	st, _ := status.FromError(grpcErr)
	if st.Code() != codes.Internal {
		t.Fatalf("expected Internal, got %v", st.Code())
	}
	if st.Message() == "ledger exploded" {
		t.Fatal("internal error detail leaked to user message")
	}
}

func TestHandleErrorNil(t *testing.T) {
	if err := HandleError(nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestGetCodeThroughWrapping(t *testing.T) {
	inner := New(CodeInsufficientChips, "ante exceeds stack")
	wrapped := fmt.Errorf("apply ante: %w", inner)

	if got := GetCode(wrapped); got != CodeInsufficientChips {
		t.Fatalf("GetCode = %s, want %s", got, CodeInsufficientChips)
	}
	if !IsCode(wrapped, CodeInsufficientChips) {
		t.Fatal("IsCode should unwrap")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(CodeVersionConflict, "save session", cause)

	if !errors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be discoverable")
	}
}
