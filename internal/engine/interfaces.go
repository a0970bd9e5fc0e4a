package engine

import (
	"context"
	"time"
)

// Sleeper pauses between upstream requests. It returns early with the
// context's error when ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Clock returns the current time.
type Clock func() time.Time
