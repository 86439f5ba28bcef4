package services

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"

	apperrors "esgcli/internal/errors"
	"esgcli/internal/returns"
)

// wrapEngineError maps engine and ingestion failures onto AppError types.
// AppErrors and context errors pass through unchanged.
func wrapEngineError(err error) error {
	if err == nil {
		return nil
	}

	var (
		appErr  *apperrors.AppError
		missing *returns.MissingColumnError
		policy  *returns.InvalidPolicyError
		verrs   validator.ValidationErrors
	)
	switch {
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.As(err, &missing):
		return apperrors.NewMissingColumnsError(missing.Columns, err)
	case errors.As(err, &policy):
		return apperrors.NewAppValidationError("invalid partial policy", err).
			WithContext("policy", policy.Policy)
	case errors.As(err, &verrs):
		return apperrors.NewAppValidationError("invalid engine configuration", err)
	default:
		return apperrors.NewComputationError("annual return computation failed", err)
	}
}
