package service

import (
	"context"
	"errors"
	"fmt"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/apperrors"
	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/middleware"
)

// connectError maps ledger errors to Connect status codes.
func connectError(err error) *connect.Error {
	var code connect.Code
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		code = connect.CodeNotFound
	case errors.Is(err, apperrors.ErrInvalidExpense):
		code = connect.CodeInvalidArgument
	case errors.Is(err, apperrors.ErrUnsupportedSplitKind):
		code = connect.CodeUnimplemented
	case errors.Is(err, apperrors.ErrMutationConflict):
		code = connect.CodeAborted
	case errors.Is(err, apperrors.ErrAlreadyExists):
		code = connect.CodeAlreadyExists
	case errors.Is(err, context.Canceled):
		code = connect.CodeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		code = connect.CodeDeadlineExceeded
	default:
		code = connect.CodeInternal
	}
	return connect.NewError(code, err)
}

// callerID returns the authenticated user ID set by middleware.RequireAuth.
func callerID(ctx context.Context) (string, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	return userID, nil
}

func permissionDenied(format string, args ...any) *connect.Error {
	return connect.NewError(connect.CodePermissionDenied, fmt.Errorf(format, args...))
}
