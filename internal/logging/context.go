package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// FromContext returns the logger carried by ctx, or a disabled logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}

// WithContext attaches logger to ctx.
func WithContext(ctx context.Context, logger zerolog.Logger) context.Context {
	return logger.WithContext(ctx)
}

func withStr(ctx context.Context, key, value string) context.Context {
	return WithContext(ctx, FromContext(ctx).With().Str(key, value).Logger())
}

// WithComponent tags every line logged through ctx with the subsystem name.
func WithComponent(ctx context.Context, component string) context.Context {
	return withStr(ctx, "component", component)
}

// WithURL tags log lines with the page or cookie URL being worked on.
func WithURL(ctx context.Context, url string) context.Context {
	return withStr(ctx, "url", url)
}

// WithSnapshot tags log lines with a cookie snapshot id.
func WithSnapshot(ctx context.Context, id int64) context.Context {
	return WithContext(ctx, FromContext(ctx).With().Int64("snapshot", id).Logger())
}
