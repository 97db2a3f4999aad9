// Package notifytest provides a recording notify.Sink for tests.
package notifytest

import (
	"sync"

	"github.com/rescale/svctray/internal/notify"
)

// Recorder collects every message it is asked to show.
type Recorder struct {
	mu       sync.Mutex
	messages []notify.Message
}

func (r *Recorder) Notify(m notify.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, m)
}

// Messages returns a copy of the recorded messages.
func (r *Recorder) Messages() []notify.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Message(nil), r.messages...)
}

// Len returns the number of recorded messages.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.messages)
}
