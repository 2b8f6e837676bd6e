package util

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrAttemptNotFound    = errors.New("attempt not found")
	ErrQuestionNotFound   = errors.New("question not found")
	ErrEmptyBank          = errors.New("question bank is empty, cannot build battery")
	ErrSessionNotActive   = errors.New("quiz session is not active")
	ErrSessionFinished    = errors.New("quiz session already finished")
	ErrQuestionMismatch   = errors.New("answer does not match the current question")
	ErrIncompleteResponse = errors.New("response is incomplete")
	ErrAttemptUnfinished  = errors.New("attempt has not been finished")
	ErrMailDelivery       = errors.New("report e-mail could not be delivered")
	ErrMailNotConfigured  = errors.New("mail transport is not configured")
)
