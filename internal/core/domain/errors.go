package domain

import "errors"

var (
	// ErrNotFound is returned by state-changing operations whose target
	// row does not exist. Plain lookups return nil, nil instead.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyProcessed is returned when a transition targets a payment
	// request that has already left the pending state.
	ErrAlreadyProcessed = errors.New("already processed")

	// ErrDuplicateLesson is returned when a lesson_number is already taken.
	ErrDuplicateLesson = errors.New("lesson number already exists")
)
