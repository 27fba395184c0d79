package phone

import (
	"context"
	"sync"

	"github.com/pccr10001/ringline/internal/model"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []string
}

func (s *recordingSender) Send(msg string) {
	s.mu.Lock()
	s.sent = append(s.sent, msg)
	s.mu.Unlock()
}

func (s *recordingSender) Sent() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sent...)
}

func (s *recordingSender) Count(msg string) int {
	n := 0
	for _, m := range s.Sent() {
		if m == msg {
			n++
		}
	}
	return n
}

type fakeSessions struct {
	mu             sync.Mutex
	recording      bool
	playing        bool
	recordStarts   int
	recordStops    int
	playbackStarts int
	playbackStops  int
	playedMessages []string
	recordStartErr error
}

func (f *fakeSessions) StartRecording() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recordStarts++
	if f.recordStartErr != nil {
		return f.recordStartErr
	}
	f.recording = true
	return nil
}

func (f *fakeSessions) StopRecording() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recordStops++
	was := f.recording
	f.recording = false
	return was
}

func (f *fakeSessions) RecordingActive() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.recording
}

func (f *fakeSessions) StartPlayback(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playbackStarts++
	f.playing = true
	return nil
}

func (f *fakeSessions) PlayMessage(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playedMessages = append(f.playedMessages, id)
	f.playing = true
	return nil
}

func (f *fakeSessions) StopPlayback() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playbackStops++
	was := f.playing
	f.playing = false
	return was
}

func (f *fakeSessions) PlaybackActive() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.playing
}

func (f *fakeSessions) counts() (recStarts, recStops, playStarts, playStops int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.recordStarts, f.recordStops, f.playbackStarts, f.playbackStops
}

func (f *fakeSessions) played() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.playedMessages...)
}

type fakeConfig struct {
	mu        sync.Mutex
	cfg       model.RingConfig
	refreshes int
}

func newFakeConfig() *fakeConfig {
	return &fakeConfig{cfg: model.DefaultRingConfig()}
}

func (f *fakeConfig) Get() model.RingConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cfg
}

func (f *fakeConfig) Set(cfg model.RingConfig) {
	f.mu.Lock()
	f.cfg = cfg
	f.mu.Unlock()
}

func (f *fakeConfig) Refresh(context.Context) error {
	f.mu.Lock()
	f.refreshes++
	f.mu.Unlock()
	return nil
}

func (f *fakeConfig) Refreshes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshes
}

type fixedState struct {
	mu    sync.Mutex
	state State
	debug bool
}

func (f *fixedState) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fixedState) Debug() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.debug
}

func (f *fixedState) Set(s State) {
	f.mu.Lock()
	f.state = s
	f.mu.Unlock()
}

type journalEntry struct {
	trigger, from, to, source string
}

type memJournal struct {
	mu      sync.Mutex
	entries []journalEntry
}

func (j *memJournal) Record(trigger, from, to, source string) {
	j.mu.Lock()
	j.entries = append(j.entries, journalEntry{trigger, from, to, source})
	j.mu.Unlock()
}

func (j *memJournal) Entries() []journalEntry {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]journalEntry(nil), j.entries...)
}
