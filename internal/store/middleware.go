package store

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Logger logs every action passing through the dispatch chain.
func Logger(log *zap.Logger) Middleware {
	return func(next DispatchFunc) DispatchFunc {
		return func(ctx context.Context, action Action) error {
			start := time.Now()
			err := next(ctx, action)
			if err != nil {
				log.Warn("dispatch failed",
					zap.String("type", action.Kind()),
					zap.Error(err))
				return err
			}
			log.Debug("action dispatched",
				zap.String("type", action.Kind()),
				zap.Duration("took", time.Since(start)))
			return nil
		}
	}
}
