package cmd

import (
	"github.com/spigell/career-compass/internal/session"
	"go.uber.org/zap"
)

// watchSession calls onChange after every session cookie change until the
// returned stop func is called. Stores that cannot report changes yield a
// no-op stop.
func watchSession(store session.Store, logger *zap.Logger, onChange func()) (func(), error) {
	watcher, ok := store.(session.Watcher)
	if !ok {
		logger.Debug("session store does not report changes")
		return func() {}, nil
	}

	sub, err := watcher.Watch()
	if err != nil {
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range sub.Changes() {
			onChange()
		}
	}()

	return func() {
		if err := sub.Close(); err != nil {
			logger.Warn("closing session watch", zap.Error(err))
		}
		<-done
	}, nil
}
