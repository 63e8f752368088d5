package errprocess

import (
	"errors"
	"fmt"

	"owner_chat_service/pkg/logger"
)

// Set set err info
func Set(errMsg string) error {
	logger.Log.Error(errMsg)
	return errors.New(errMsg)
}

// Wrap returns kind wrapping cause, both matchable with errors.Is.
// Unlike Set it does not log, the caller that handles the error does.
func Wrap(kind error, op string, cause error) error {
	if cause == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", kind, op, cause)
}
