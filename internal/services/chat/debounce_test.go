package chat

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fireRecorder struct {
	mu    sync.Mutex
	fired []string
}

func (r *fireRecorder) record(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fired = append(r.fired, text)
}

func (r *fireRecorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.fired...)
}

func TestDebouncer_CoalescesRapidTriggers(t *testing.T) {
	recorder := &fireRecorder{}
	d := newDebouncer(20*time.Millisecond, recorder.record)
	defer d.Stop()

	d.Trigger("a")
	d.Trigger("ab")
	d.Trigger("abc")

	assert.Eventually(t, func() bool {
		return len(recorder.snapshot()) == 1
	}, time.Second, 5*time.Millisecond)

	fired := recorder.snapshot()
	require.Len(t, fired, 1)
	assert.Equal(t, "abc", fired[0])
}

func TestDebouncer_FiresAgainAfterQuietPeriod(t *testing.T) {
	recorder := &fireRecorder{}
	d := newDebouncer(10*time.Millisecond, recorder.record)
	defer d.Stop()

	d.Trigger("first")
	assert.Eventually(t, func() bool {
		return len(recorder.snapshot()) == 1
	}, time.Second, 5*time.Millisecond)

	d.Trigger("second")
	assert.Eventually(t, func() bool {
		return len(recorder.snapshot()) == 2
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, []string{"first", "second"}, recorder.snapshot())
}

func TestDebouncer_StopCancelsPendingFire(t *testing.T) {
	recorder := &fireRecorder{}
	d := newDebouncer(50*time.Millisecond, recorder.record)

	d.Trigger("pending")
	d.Stop()

	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, recorder.snapshot())
}

func TestDebouncer_TriggerAfterStopIsIgnored(t *testing.T) {
	recorder := &fireRecorder{}
	d := newDebouncer(time.Millisecond, recorder.record)

	d.Stop()
	d.Trigger("ignored")

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, recorder.snapshot())
}

func TestDebouncer_ZeroDelayDefaults(t *testing.T) {
	d := newDebouncer(0, func(string) {})
	defer d.Stop()

	assert.Equal(t, DefaultDebounce, d.delay)
}
