package phone

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pccr10001/ringline/internal/hardware"
	"github.com/pccr10001/ringline/internal/model"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type harness struct {
	t        *testing.T
	ctrl     *Controller
	bridge   *Bridge
	sim      *hardware.Sim
	sessions *fakeSessions
	sender   *recordingSender
	config   *fakeConfig
	journal  *memJournal

	cancel context.CancelFunc
	done   chan error
}

// newHarness runs the control loop in its own goroutine.
func newHarness(t *testing.T, unit time.Duration) *harness {
	t.Helper()
	h := newStepHarness(t, unit)
	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() { h.done <- h.ctrl.Run(ctx) }()
	return h
}

// newStepHarness leaves the loop to the test: sync handles everything posted
// so far on the test goroutine.
func newStepHarness(t *testing.T, unit time.Duration) *harness {
	t.Helper()
	h := &harness{
		t:        t,
		bridge:   NewBridge(),
		sim:      hardware.NewSim(),
		sessions: &fakeSessions{},
		sender:   &recordingSender{},
		config:   newFakeConfig(),
		journal:  &memJournal{},
		done:     make(chan error, 1),
	}
	h.ctrl = NewController(h.sim, h.bridge, h.sessions, h.sender, h.config, h.journal,
		Options{RingUnit: unit, PollSlice: time.Millisecond})
	t.Cleanup(h.stop)
	return h
}

func (h *harness) stop() {
	if h.cancel == nil {
		h.ctrl.bg.Wait()
		return
	}
	h.cancel()
	h.cancel = nil
	select {
	case <-h.done:
	case <-time.After(2 * time.Second):
		h.t.Fatal("control loop did not stop")
	}
}

func (h *harness) command(cmd string) {
	h.bridge.Post(CommandEvent(cmd, "remote"))
}

func (h *harness) trigger(tr Trigger) {
	h.bridge.Post(TriggerEvent(tr, "sensor"))
}

func (h *harness) sync() {
	for h.bridge.Len() > 0 {
		for _, ev := range h.bridge.Drain() {
			h.ctrl.handle(ev)
		}
	}
}

func (h *harness) waitSent(msgs ...string) {
	h.t.Helper()
	require.Eventually(h.t, func() bool {
		sent := h.sender.Sent()
		if len(sent) != len(msgs) {
			return false
		}
		for i := range sent {
			if sent[i] != msgs[i] {
				return false
			}
		}
		return true
	}, 2*time.Second, time.Millisecond, "sent %v", h.sender.Sent())
}

func (h *harness) waitState(s State) {
	h.t.Helper()
	require.Eventually(h.t, func() bool { return h.ctrl.State() == s }, 2*time.Second, time.Millisecond)
}

func shortRing(h *harness, count int) {
	h.config.Set(model.RingConfig{
		AutoRingMinSpan: 1, AutoRingMaxSpan: 1,
		RingOnTime: 1, RingOffTime: 1, RingCount: count,
		Messages: true,
	})
}

func TestControllerStartsOnHook(t *testing.T) {
	h := newHarness(t, time.Millisecond)

	require.Eventually(t, func() bool {
		on, off := h.sim.Indicators()
		return on && !off
	}, time.Second, time.Millisecond)
	require.Equal(t, StateOnHook, h.ctrl.State())
	require.False(t, h.ctrl.Debug())
}

func TestControllerPickUpAndHangUp(t *testing.T) {
	h := newHarness(t, time.Millisecond)

	h.trigger(TriggerPickUp)
	h.waitSent("STATUS:OFF_HOOK")
	require.Equal(t, StateOffHook, h.ctrl.State())
	on, off := h.sim.Indicators()
	require.False(t, on)
	require.True(t, off)
	require.Eventually(t, func() bool {
		_, _, playStarts, _ := h.sessions.counts()
		return playStarts == 1 && h.sessions.RecordingActive()
	}, time.Second, time.Millisecond)

	h.trigger(TriggerHangUp)
	h.waitSent("STATUS:OFF_HOOK", "STATUS:ON_HOOK")
	require.Equal(t, StateOnHook, h.ctrl.State())
	require.Eventually(t, func() bool {
		return !h.sessions.RecordingActive() && !h.sessions.PlaybackActive()
	}, time.Second, time.Millisecond)

	entries := h.journal.Entries()
	require.Len(t, entries, 2)
	require.Equal(t, journalEntry{"pick_up", "onHook", "offHook", "sensor"}, entries[0])
	require.Equal(t, journalEntry{"hang_up", "offHook", "onHook", "sensor"}, entries[1])
}

func TestControllerIgnoresInvalidTriggers(t *testing.T) {
	h := newStepHarness(t, time.Millisecond)

	h.trigger(TriggerHangUp)
	h.trigger(TriggerAnswerCall)
	h.trigger(TriggerMissCall)
	h.sync()

	require.Equal(t, StateOnHook, h.ctrl.State())
	require.Empty(t, h.journal.Entries())
	require.Empty(t, h.sender.Sent())
}

func TestControllerRingMissed(t *testing.T) {
	h := newHarness(t, 5*time.Millisecond)
	shortRing(h, 2)

	h.command(CmdRing)
	h.waitSent("STATUS:RINGING", "STATUS:ON_HOOK")

	require.Equal(t, StateOnHook, h.ctrl.State())
	require.False(t, h.sim.Relay())
	ons, _ := h.sim.RelayCycles()
	require.Equal(t, 2, ons)

	entries := h.journal.Entries()
	require.Len(t, entries, 2)
	require.Equal(t, "incoming_call", entries[0].trigger)
	require.Equal(t, "remote", entries[0].source)
	require.Equal(t, "miss_call", entries[1].trigger)
	require.Equal(t, "ringer", entries[1].source)
}

func TestControllerRingOnlyOnce(t *testing.T) {
	h := newHarness(t, 20*time.Millisecond)
	shortRing(h, 2)

	h.command(CmdRing)
	h.command(CmdRing)
	h.waitState(StateRinging)
	h.waitState(StateOnHook)

	require.Equal(t, 1, h.sender.Count("STATUS:RINGING"))
	incoming := 0
	for _, e := range h.journal.Entries() {
		if e.trigger == "incoming_call" {
			incoming++
		}
	}
	require.Equal(t, 1, incoming)
}

func TestControllerRingRejectedWhileOffHook(t *testing.T) {
	h := newStepHarness(t, time.Millisecond)

	h.trigger(TriggerPickUp)
	h.command(CmdRing)
	h.sync()

	require.Equal(t, StateOffHook, h.ctrl.State())
	require.Zero(t, h.sender.Count("STATUS:RINGING"))
	ons, _ := h.sim.RelayCycles()
	require.Zero(t, ons)
}

func TestControllerRingAnswered(t *testing.T) {
	h := newHarness(t, 50*time.Millisecond)
	shortRing(h, 4)

	h.command(CmdRing)
	require.Eventually(t, h.sim.Relay, time.Second, time.Millisecond)
	on, off := h.sim.Indicators()
	require.False(t, on)
	require.False(t, off)

	h.sim.SetStatus(hardware.StatusOffHook)
	h.waitSent("STATUS:RINGING", "STATUS:OFF_HOOK")

	require.Equal(t, StateOffHook, h.ctrl.State())
	require.False(t, h.sim.Relay())
	require.Eventually(t, h.sessions.RecordingActive, time.Second, time.Millisecond)
	entries := h.journal.Entries()
	require.Equal(t, "answer_call", entries[len(entries)-1].trigger)
}

func TestControllerShutdownWhileRinging(t *testing.T) {
	h := newHarness(t, time.Second)
	shortRing(h, 4)

	h.command(CmdRing)
	require.Eventually(t, h.sim.Relay, time.Second, time.Millisecond)

	h.cancel()
	select {
	case err := <-h.done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("control loop did not stop")
	}
	h.cancel = nil
	require.False(t, h.sim.Relay())
}

func TestControllerDebugSkipsSessions(t *testing.T) {
	h := newStepHarness(t, time.Millisecond)

	h.command(CmdDebugOn)
	h.trigger(TriggerPickUp)
	h.sync()
	require.True(t, h.ctrl.Debug())
	require.Contains(t, h.sender.Sent(), "STATUS:DEBUG:ON")
	recStarts, _, playStarts, _ := h.sessions.counts()
	require.Zero(t, recStarts)
	require.Zero(t, playStarts)

	h.command(CmdStartRecording)
	h.sync()
	require.True(t, h.sessions.RecordingActive())
	require.Contains(t, h.sender.Sent(), "STATUS:DEBUG:START_RECORDING")

	h.trigger(TriggerHangUp)
	h.sync()
	require.Equal(t, StateOnHook, h.ctrl.State())
	_, recStops, _, _ := h.sessions.counts()
	require.Zero(t, recStops)
	require.True(t, h.sessions.RecordingActive())

	h.command(CmdDebugOff)
	h.sync()
	require.False(t, h.ctrl.Debug())
	require.Contains(t, h.sender.Sent(), "STATUS:DEBUG:OFF")
}

func TestControllerRecordingCommands(t *testing.T) {
	h := newStepHarness(t, time.Millisecond)

	h.command(CmdStartRecording)
	h.command(CmdStopRecording)
	h.sync()
	recStarts, recStops, _, _ := h.sessions.counts()
	require.Zero(t, recStarts, "recording needs an off-hook line")
	require.Zero(t, recStops)

	h.trigger(TriggerPickUp)
	h.command(CmdStopRecording)
	h.sync()
	require.Contains(t, h.sender.Sent(), "STATUS:DEBUG:STOP_RECORDING")
	require.False(t, h.sessions.RecordingActive())

	h.command(CmdStopRecording)
	h.sync()
	require.Equal(t, 1, h.sender.Count("STATUS:DEBUG:STOP_RECORDING"))
}

func TestControllerRecordingFailureKeepsState(t *testing.T) {
	h := newStepHarness(t, time.Millisecond)
	h.sessions.mu.Lock()
	h.sessions.recordStartErr = errors.New("no such device")
	h.sessions.mu.Unlock()

	h.trigger(TriggerPickUp)
	h.sync()

	require.Equal(t, StateOffHook, h.ctrl.State())
	require.False(t, h.sessions.RecordingActive())
}

func TestControllerUpdateConfig(t *testing.T) {
	h := newHarness(t, time.Millisecond)

	h.command(CmdUpdateConfig)

	h.waitSent(StatusConfigUpdated)
	require.Eventually(t, func() bool { return h.config.Refreshes() == 1 }, time.Second, time.Millisecond)
}

func TestControllerSendStatus(t *testing.T) {
	h := newHarness(t, time.Millisecond)

	h.command(CmdSendStatus)
	h.trigger(TriggerPickUp)
	h.command(CmdSendStatus)

	h.waitSent("STATUS:ON_HOOK", "STATUS:OFF_HOOK", "STATUS:OFF_HOOK")
}

func TestControllerStartPlaybackCommand(t *testing.T) {
	h := newStepHarness(t, time.Millisecond)

	h.command(CmdStartPlayback + ":abc")
	h.sync()
	require.Empty(t, h.sessions.played(), "playback needs an off-hook line")

	h.trigger(TriggerPickUp)
	h.command(CmdStartPlayback + ":abc")
	h.command(CmdStartPlayback + ":")
	h.command(CmdStartPlayback + ":a:b")
	h.command(CmdStartPlayback)
	h.sync()

	require.Eventually(t, func() bool { return len(h.sessions.played()) == 1 }, time.Second, time.Millisecond)
	require.Equal(t, []string{"abc"}, h.sessions.played())
	require.Equal(t, 1, h.sender.Count("STATUS:DEBUG:START_PLAYBACK:abc"))
}

func TestControllerStopPlaybackCommand(t *testing.T) {
	h := newStepHarness(t, time.Millisecond)

	h.command(CmdStopPlayback)
	h.sync()
	require.Zero(t, h.sender.Count("STATUS:DEBUG:STOP_PLAYBACK"))

	h.trigger(TriggerPickUp)
	h.sync()
	require.Eventually(t, h.sessions.PlaybackActive, time.Second, time.Millisecond)
	h.command(CmdStopPlayback)
	h.sync()

	require.Equal(t, 1, h.sender.Count("STATUS:DEBUG:STOP_PLAYBACK"))
	require.False(t, h.sessions.PlaybackActive())
}

func TestControllerIgnoresUnknownCommands(t *testing.T) {
	h := newStepHarness(t, time.Millisecond)

	h.command("COMMAND:SELF_DESTRUCT")
	h.command("hello")
	h.sync()

	require.Empty(t, h.sender.Sent())
	require.Equal(t, StateOnHook, h.ctrl.State())
}

func TestControllerWithSensor(t *testing.T) {
	h := newHarness(t, time.Millisecond)
	sensor := newTestSensor(h.sim, h.ctrl, h.ctrl)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sensor.Run(ctx)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	h.sim.Hook(hardware.StatusOffHook)
	h.waitState(StateOffHook)

	h.sim.Hook(hardware.StatusOnHook)
	h.waitState(StateOnHook)

	for _, e := range h.journal.Entries() {
		require.Equal(t, "sensor", e.source)
	}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		raw, name, arg string
	}{
		{"COMMAND:RING", CmdRing, ""},
		{"COMMAND:START_PLAYBACK:abc-123", CmdStartPlayback, "abc-123"},
		{"COMMAND:START_PLAYBACK", CmdStartPlayback, ""},
		{"COMMAND:START_PLAYBACK:a:b", CmdStartPlayback, "a:b"},
		{"COMMAND:START_PLAYBACKX", "COMMAND:START_PLAYBACKX", ""},
		{"COMMAND:RING:extra", "COMMAND:RING:extra", ""},
	}
	for _, tc := range tests {
		name, arg := parseCommand(tc.raw)
		require.Equal(t, tc.name, name, tc.raw)
		require.Equal(t, tc.arg, arg, tc.raw)
	}
}
