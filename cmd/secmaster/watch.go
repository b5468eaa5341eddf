package main

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// watchAndMerge re-runs onChange every time path is written to, serialized
// onto this single goroutine so merges into the shared state file never
// overlap (SPEC_FULL.md §5). It blocks until the watcher's event or error
// channel is closed; watcher errors and failed re-merges are logged and
// watching continues.
func watchAndMerge(path string, logger zerolog.Logger, onChange func() error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return err
	}

	name := filepath.Base(path)
	logger.Debug().Str("path", path).Msg("watching fact log for changes")

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
				continue
			}
			logger.Debug().Str("event", event.Op.String()).Msg("fact log changed, re-merging")
			if err := onChange(); err != nil {
				logger.Error().Err(err).Msg("re-merge failed")
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error().Err(err).Msg("watcher error")
		}
	}
}
