package commands

import (
	"context"
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes attached to errors returned by render and build handlers.
const (
	CodeInvalidCommand = "WMARKDOWN_COMMAND_INVALID"
	CodeCanceled       = "WMARKDOWN_COMMAND_CANCELED"
	CodeTimedOut       = "WMARKDOWN_COMMAND_TIMED_OUT"
	CodeRenderFailed   = "WMARKDOWN_RENDER_FAILED"
)

// tag wraps err unless an earlier layer already categorised it.
func tag(err error, category goerrors.Category, message, code string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, category, message).WithTextCode(code)
}

func wrapValidationError(err error) error {
	return tag(err, goerrors.CategoryValidation, "invalid render command", CodeInvalidCommand)
}

func wrapContextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return tag(err, goerrors.CategoryCommand, "render command timed out", CodeTimedOut)
	}
	return tag(err, goerrors.CategoryCommand, "render command canceled", CodeCanceled)
}

func wrapExecuteError(err error) error {
	return tag(err, goerrors.CategoryCommand, "render command failed", CodeRenderFailed)
}
