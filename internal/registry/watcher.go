package registry

import (
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const debounceInterval = 250 * time.Millisecond

// Watcher observes a model repository directory and coalesces filesystem
// events into change notifications. Events are debounced because model
// directories are typically copied in non-atomically.
type Watcher struct {
	dir       string
	watcher   *fsnotify.Watcher
	log       zerolog.Logger
	changeCh  chan struct{}
	closeCh   chan struct{}
	closeOnce sync.Once
}

// NewWatcher starts watching dir. The returned Watcher must be closed.
func NewWatcher(dir string, log zerolog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	w := &Watcher{
		dir:      dir,
		watcher:  fsw,
		log:      log,
		changeCh: make(chan struct{}, 1),
		closeCh:  make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Changes delivers one signal per coalesced burst of repository events.
func (w *Watcher) Changes() <-chan struct{} { return w.changeCh }

// Close stops the watcher. Safe to call more than once.
func (w *Watcher) Close() {
	w.closeOnce.Do(func() {
		close(w.closeCh)
		_ = w.watcher.Close()
	})
}

func (w *Watcher) run() {
	var debounce *time.Timer
	var debounceCh <-chan time.Time
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.log.Debug().Str("op", ev.Op.String()).Str("path", ev.Name).Msg("repository event")
			if debounce == nil {
				debounce = time.NewTimer(debounceInterval)
			} else {
				if !debounce.Stop() {
					select {
					case <-debounce.C:
					default:
					}
				}
				debounce.Reset(debounceInterval)
			}
			debounceCh = debounce.C
		case <-debounceCh:
			debounceCh = nil
			// Non-blocking: one pending signal is enough.
			select {
			case w.changeCh <- struct{}{}:
			default:
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("repository watch error")
		case <-w.closeCh:
			return
		}
	}
}
