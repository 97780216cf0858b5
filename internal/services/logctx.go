package services

import (
	"context"

	"github.com/rs/zerolog"
)

// loggerFor returns the logger attached to ctx by the update loop, which
// carries the message's correlation ID, or fallback when ctx has none.
func loggerFor(ctx context.Context, fallback zerolog.Logger) zerolog.Logger {
	if l := zerolog.Ctx(ctx); l != nil && l.GetLevel() != zerolog.Disabled {
		return *l
	}
	return fallback
}
