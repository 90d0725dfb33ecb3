package recgo

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/hupe1980/recgo/model"
	"github.com/hupe1980/recgo/recommender"
	"github.com/hupe1980/recgo/refresh"
)

// Logger wraps slog.Logger with recgo-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithUser adds a user ID field to the logger.
func (l *Logger) WithUser(userID uint64) *Logger {
	return &Logger{
		Logger: l.Logger.With("user_id", userID),
	}
}

// WithItem adds an item ID field to the logger.
func (l *Logger) WithItem(itemID uint64) *Logger {
	return &Logger{
		Logger: l.Logger.With("item_id", itemID),
	}
}

// LogRecommend logs a recommendation query.
func (l *Logger) LogRecommend(userID uint64, howMany, results int, err error) {
	if err != nil {
		l.Error("recommend failed",
			"user_id", userID,
			"how_many", howMany,
			"error", err,
		)
	} else {
		l.Debug("recommend completed",
			"user_id", userID,
			"how_many", howMany,
			"results", results,
		)
	}
}

// LogEstimate logs a preference estimation.
func (l *Logger) LogEstimate(userID, itemID uint64, value float64, err error) {
	if err != nil {
		l.Error("estimate failed",
			"user_id", userID,
			"item_id", itemID,
			"error", err,
		)
	} else {
		l.Debug("estimate completed",
			"user_id", userID,
			"item_id", itemID,
			"value", value,
		)
	}
}

// LogRefresh logs a refresh broadcast.
func (l *Logger) LogRefresh(components int) {
	l.Info("refresh completed",
		"components", components,
	)
}

// Compile time checks to ensure loggingRecommender satisfies the engine contracts.
var (
	_ recommender.Recommender      = (*loggingRecommender)(nil)
	_ recommender.PreferenceWriter = (*loggingRecommender)(nil)
)

// loggingRecommender instruments every engine operation with the configured
// logger. The builders install it when a logger is attached.
type loggingRecommender struct {
	delegate recommender.Recommender
	logger   *Logger
}

// Recommend delegates and logs the outcome.
func (l *loggingRecommender) Recommend(userID model.UserID, howMany int, rescorer recommender.Rescorer) ([]recommender.RecommendedItem, error) {
	items, err := l.delegate.Recommend(userID, howMany, rescorer)
	l.logger.LogRecommend(uint64(userID), howMany, len(items), err)
	return items, err
}

// EstimatePreference delegates and logs the outcome.
func (l *loggingRecommender) EstimatePreference(userID model.UserID, itemID model.ItemID) (float64, error) {
	value, err := l.delegate.EstimatePreference(userID, itemID)
	l.logger.LogEstimate(uint64(userID), uint64(itemID), value, err)
	return value, err
}

// SetPreference writes through to the delegate and logs the mutation.
// Delegates without write support return ErrUnsupported.
func (l *loggingRecommender) SetPreference(userID model.UserID, itemID model.ItemID, value float64) error {
	pw, ok := l.delegate.(recommender.PreferenceWriter)
	if !ok {
		return fmt.Errorf("logging recommender: %w", model.ErrUnsupported)
	}
	if err := pw.SetPreference(userID, itemID, value); err != nil {
		return err
	}
	l.logger.WithUser(uint64(userID)).WithItem(uint64(itemID)).Debug("preference set",
		"value", value,
	)
	return nil
}

// RemovePreference writes through to the delegate and logs the mutation.
// Delegates without write support return ErrUnsupported.
func (l *loggingRecommender) RemovePreference(userID model.UserID, itemID model.ItemID) error {
	pw, ok := l.delegate.(recommender.PreferenceWriter)
	if !ok {
		return fmt.Errorf("logging recommender: %w", model.ErrUnsupported)
	}
	if err := pw.RemovePreference(userID, itemID); err != nil {
		return err
	}
	l.logger.WithUser(uint64(userID)).WithItem(uint64(itemID)).Debug("preference removed")
	return nil
}

// Refresh propagates to the delegate and logs the broadcast size.
func (l *loggingRecommender) Refresh(visited refresh.Visited) {
	if visited == nil {
		visited = make(refresh.Visited)
	}
	visited.Once(l)

	refresh.Recurse(visited, l.delegate)

	l.logger.LogRefresh(len(visited))
}
