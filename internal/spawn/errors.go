package spawn

import (
	"errors"
	"log/slog"
)

var (
	// ErrSequenceTooShort is returned when the location sequence holds fewer
	// entries than the pool needs.
	ErrSequenceTooShort = errors.New("location sequence shorter than pool size")

	// ErrInvalidPoolSize is returned for a pool size below 1.
	ErrInvalidPoolSize = errors.New("pool size must be >= 1")

	// ErrPoolInitialized is returned when InitPool runs twice without Release.
	ErrPoolInitialized = errors.New("emitter pool already initialized")

	// ErrNoHost is returned when no ObjectHost is supplied.
	ErrNoHost = errors.New("object host is required")

	// ErrSlotIndex is returned for a slot index outside the pool.
	ErrSlotIndex = errors.New("slot index out of range")
)

// violated reports a caller contract violation. Builds tagged spawndebug
// panic; normal builds log and return err so the caller can no-op.
func violated(err error, args ...any) error {
	if strictPreconditions {
		panic(err)
	}
	slog.Warn("spawner precondition violated", append([]any{"error", err}, args...)...)
	return err
}
