// Package notify sends best-effort email notifications. Dispatch never
// blocks the caller and failures are only logged.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Message is one outgoing notification.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers a message synchronously.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Notifier accepts messages for background delivery.
type Notifier interface {
	Dispatch(msg Message)
}

// Async hands each message to a goroutine that calls the Sender.
type Async struct {
	sender  Sender
	log     logrus.FieldLogger
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewAsync(sender Sender, log logrus.FieldLogger, timeout time.Duration) *Async {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Async{sender: sender, log: log, timeout: timeout}
}

func (a *Async) Dispatch(msg Message) {
	if msg.To == "" {
		return
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()

		entry := a.log.WithFields(logrus.Fields{"to": msg.To, "subject": msg.Subject})
		if err := a.sender.Send(ctx, msg); err != nil {
			entry.WithError(err).Warn("notification failed")
			return
		}
		entry.Debug("notification sent")
	}()
}

// Wait blocks until every dispatched message has been attempted.
func (a *Async) Wait() {
	a.wg.Wait()
}

// LogSender writes messages to the log instead of sending them. It is
// used when no SMTP credentials are configured.
type LogSender struct {
	Log logrus.FieldLogger
}

func (s LogSender) Send(_ context.Context, msg Message) error {
	s.Log.WithFields(logrus.Fields{"to": msg.To, "subject": msg.Subject}).Info("email disabled, notification dropped")
	return nil
}

// Recorder keeps dispatched messages in memory.
type Recorder struct {
	mu   sync.Mutex
	msgs []Message
}

func (r *Recorder) Dispatch(msg Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func (r *Recorder) Send(_ context.Context, msg Message) error {
	r.Dispatch(msg)
	return nil
}

// Messages returns a copy of everything recorded so far.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.msgs...)
}
