package settings

import (
	"context"

	"tableflip.dev/memos/pkg/fswatch"
	"tableflip.dev/memos/pkg/logging"
)

// Watch streams the record every time it changes on disk, including writes
// from other processes. The channel is closed once ctx is done or the watcher
// fails. Consumers that fall behind miss intermediate records but always
// receive a later one.
func (s *Store) Watch(ctx context.Context) (<-chan Settings, error) {
	ticks, err := fswatch.Dir(ctx, s.basePath, func(name string) bool {
		return name == settingsKey
	}, fswatch.DefaultDelay)
	if err != nil {
		return nil, err
	}

	out := make(chan Settings, 1)
	go func() {
		defer close(out)
		log := logging.NewLogger("settings")
		for range ticks {
			st, err := s.Load()
			if err != nil {
				log.WithError(err).Warn("reload after change")
				continue
			}
			// Replace an unread record with the newer one.
			select {
			case <-out:
			default:
			}
			select {
			case out <- st:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
