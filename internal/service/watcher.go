package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"rentsnap/internal/client"
	"rentsnap/internal/domain"
	"rentsnap/internal/logger"
)

const DefaultPollInterval = 10 * time.Second

// Watcher polls a user's inbox on a fixed interval and reports changes.
type Watcher struct {
	cron     *cron.Cron
	stopOnce sync.Once
	startMu  sync.Mutex
	stopping chan struct{}
	done     chan struct{}

	mu     sync.Mutex
	polled bool
	last   string
}

// Watch starts polling. onChange runs once with the current inbox and again
// every time it changes. Polling stops when ctx is cancelled or Stop is called,
// which onChange may do itself.
func (s *notificationService) Watch(ctx context.Context, userID int32, interval time.Duration, onChange func([]*domain.Notification)) (*Watcher, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	w := &Watcher{
		cron: cron.New(
			cron.WithLogger(logger.Cron()),
			cron.WithChain(cron.Recover(logger.Cron()), cron.SkipIfStillRunning(logger.Cron())),
		),
		stopping: make(chan struct{}),
		done:     make(chan struct{}),
	}

	poll := func() {
		if w.stopped() {
			return
		}
		notes, err := s.noteRepo.List(client.FreshRead(ctx), userID)
		if err != nil {
			logger.WarnContext(ctx, "polling notifications failed", "user_id", userID, "error", err)
			return
		}
		if w.changed(notes) {
			onChange(notes)
		}
	}

	if _, err := w.cron.AddFunc(fmt.Sprintf("@every %s", interval), poll); err != nil {
		return nil, fmt.Errorf("schedule notification polling: %w", err)
	}
	poll()
	w.startMu.Lock()
	if !w.stopped() {
		w.cron.Start()
	}
	w.startMu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			w.Stop()
		case <-w.stopping:
		}
	}()
	return w, nil
}

func (w *Watcher) changed(notes []*domain.Notification) bool {
	var b strings.Builder
	for _, n := range notes {
		b.WriteString(strconv.Itoa(int(n.ID)))
		if n.IsRead {
			b.WriteByte('r')
		}
		b.WriteByte(',')
	}
	sig := b.String()

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.polled && sig == w.last {
		return false
	}
	w.polled = true
	w.last = sig
	return true
}

// Stop cancels polling and returns without waiting, so it is safe to call
// from onChange. Done is closed once a running poll has finished.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		w.startMu.Lock()
		close(w.stopping)
		stopped := w.cron.Stop()
		w.startMu.Unlock()
		go func() {
			<-stopped.Done()
			close(w.done)
		}()
	})
}

func (w *Watcher) stopped() bool {
	select {
	case <-w.stopping:
		return true
	default:
		return false
	}
}

// Done is closed once the watcher has stopped.
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}
