package notify

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type senderFunc func(ctx context.Context, msg Message) error

func (f senderFunc) Send(ctx context.Context, msg Message) error { return f(ctx, msg) }

func TestAsyncDispatchDoesNotBlock(t *testing.T) {
	release := make(chan struct{})
	var sent atomic.Int32
	sender := senderFunc(func(ctx context.Context, msg Message) error {
		<-release
		sent.Add(1)
		return nil
	})
	log, _ := test.NewNullLogger()
	a := NewAsync(sender, log, time.Second)

	done := make(chan struct{})
	go func() {
		a.Dispatch(Message{To: "a@example.com", Subject: "hi"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Dispatch blocked on the sender")
	}

	close(release)
	a.Wait()
	assert.Equal(t, int32(1), sent.Load())
}

func TestAsyncLogsFailures(t *testing.T) {
	log, hook := test.NewNullLogger()
	a := NewAsync(senderFunc(func(context.Context, Message) error {
		return errors.New("smtp down")
	}), log, time.Second)

	a.Dispatch(Message{To: "a@example.com", Subject: "hi"})
	a.Dispatch(Message{Subject: "no recipient"})
	a.Wait()

	require.Len(t, hook.AllEntries(), 1)
	entry := hook.LastEntry()
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "a@example.com", entry.Data["to"])
}

func TestTemplatesEscapeInput(t *testing.T) {
	msg, err := RequestCreated("c@example.com", "<b>Eve</b>", BookingDetails{
		ID:          42,
		Pickup:      "Pune",
		Dropoff:     "Mumbai",
		MovingDate:  time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		ServiceType: "home",
	}, "http://localhost:5173")
	require.NoError(t, err)

	assert.Equal(t, "c@example.com", msg.To)
	assert.Contains(t, msg.HTML, "#42")
	assert.Contains(t, msg.HTML, "Wed, 01 Apr 2026")
	assert.Contains(t, msg.HTML, "&lt;b&gt;Eve&lt;/b&gt;")
	assert.Contains(t, msg.HTML, "http://localhost:5173/orders")

	msg, err = Welcome("a@example.com", "Asha", "admin", true, "http://x")
	require.NoError(t, err)
	assert.Contains(t, msg.HTML, "review your registration")

	msg, err = RequestCancelled("c@example.com", "Asha", BookingDetails{ID: 7}, "http://x")
	require.NoError(t, err)
	assert.Contains(t, msg.HTML, "#7")
}
