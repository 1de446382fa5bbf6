package service_test

import (
	"context"
	"sync"
	"time"

	service "github.com/okian/patabol/internal/app"
	"github.com/okian/patabol/internal/adapters/notify"
	"github.com/okian/patabol/pkg/logger"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type notification struct {
	to   string
	text string
}

// recorder is a thread-safe notify.Notifier that keeps everything it gets.
type recorder struct {
	mu    sync.Mutex
	notes []notification
	feed  map[string][]notify.FeedItem
}

func newRecorder() *recorder {
	return &recorder{feed: make(map[string][]notify.FeedItem)}
}

func (r *recorder) Notify(_ context.Context, recipients []string, msg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, to := range recipients {
		r.notes = append(r.notes, notification{to: to, text: msg})
	}
	return nil
}

func (r *recorder) Publish(_ context.Context, code string, item notify.FeedItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.feed[code] = append(r.feed[code], item)
	return nil
}

func (r *recorder) notesFor(id string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, n := range r.notes {
		if n.to == id {
			out = append(out, n.text)
		}
	}
	return out
}

func (r *recorder) feedOf(code string) []notify.FeedItem {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.FeedItem(nil), r.feed[code]...)
}

// ended reports whether the feed of code reached its end item.
func (r *recorder) ended(code string) bool {
	items := r.feedOf(code)
	return len(items) > 0 && items[len(items)-1].Kind == notify.FeedEnd
}

func startService(rec *recorder, opts ...service.Option) *service.Service {
	base := []service.Option{
		service.WithSeed(42),
		service.WithEventDelay(0),
		service.WithWorkerCount(2),
		service.WithNotifier(rec),
		service.WithLogger(logger.NewNop()),
	}
	svc := service.New(append(base, opts...)...)
	if err := svc.Start(context.Background()); err != nil {
		panic(err)
	}
	return svc
}

func eventually(cond func() bool) bool {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}
