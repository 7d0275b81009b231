package service

import (
	"errors"

	"expertsolve.com/hub/pkg/apperror"
)

// notFound gives a bare ErrNotFound a resource-specific public message.
func notFound(err error, message string) error {
	if err != nil && errors.Is(err, apperror.ErrNotFound) {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return err
		}
		return apperror.NotFound(message)
	}
	return err
}

// conflictAs turns a unique violation into a 400 or 409 with message.
func conflictAs(err error, status int, message string) error {
	if err != nil && errors.Is(err, apperror.ErrConflict) {
		return apperror.New(status, message, err)
	}
	return err
}
