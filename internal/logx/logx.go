package logx

import (
	"context"

	"pkt.systems/codelab/schema"
	"pkt.systems/pslog"
)

type contextKey int

const (
	languageKey contextKey = iota
	generationKey
)

// Ctx returns the logger bound to the provided context.
func Ctx(ctx context.Context) pslog.Logger {
	return pslog.Ctx(ctx)
}

// WithLanguage annotates the logger with the language if present.
func WithLanguage(ctx context.Context, lang schema.Language) pslog.Logger {
	log := pslog.Ctx(ctx)
	if lang != "" {
		if current, ok := ctx.Value(languageKey).(schema.Language); ok && current == lang {
			return log
		}
		log = log.With("language", lang)
	}
	return log
}

// WithRun annotates the logger with language and run generation.
func WithRun(ctx context.Context, lang schema.Language, generation uint64) pslog.Logger {
	log := WithLanguage(ctx, lang)
	if generation != 0 {
		if current, ok := ctx.Value(generationKey).(uint64); ok && current == generation {
			return log
		}
		log = log.With("generation", generation)
	}
	return log
}

// ContextWithLanguage stores the language marker on the context for log de-duplication.
func ContextWithLanguage(ctx context.Context, lang schema.Language) context.Context {
	if ctx == nil || lang == "" {
		return ctx
	}
	return context.WithValue(ctx, languageKey, lang)
}

// ContextWithRunLogger attaches the logger and run markers to the context.
func ContextWithRunLogger(ctx context.Context, log pslog.Logger, lang schema.Language, generation uint64) context.Context {
	ctx = pslog.ContextWithLogger(ctx, log)
	ctx = ContextWithLanguage(ctx, lang)
	if generation != 0 {
		ctx = context.WithValue(ctx, generationKey, generation)
	}
	return ctx
}

// CopyContextFields copies language/generation markers from src to dst.
func CopyContextFields(dst context.Context, src context.Context) context.Context {
	if src == nil {
		return dst
	}
	if lang, ok := src.Value(languageKey).(schema.Language); ok && lang != "" {
		dst = ContextWithLanguage(dst, lang)
	}
	if gen, ok := src.Value(generationKey).(uint64); ok && gen != 0 {
		dst = context.WithValue(dst, generationKey, gen)
	}
	return dst
}

// Detach returns a cancelable context that keeps the logger and markers of
// ctx but not its deadline or cancellation.
func Detach(ctx context.Context) (context.Context, context.CancelFunc) {
	base := context.Background()
	if ctx != nil {
		if logger := pslog.Ctx(ctx); logger != nil {
			base = CopyContextFields(pslog.ContextWithLogger(base, logger), ctx)
		}
	}
	return context.WithCancel(base)
}
