// Package audio owns the recording and playback subprocesses of a call.
package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pccr10001/ringline/internal/metrics"
	"github.com/pccr10001/ringline/internal/model"
	"github.com/pccr10001/ringline/pkg/logger"
)

var (
	ErrMessagesDisabled = errors.New("messages are disabled")
	ErrEmptyCatalog     = errors.New("message catalog is empty")
)

// Catalog is the slice of the controller service the sessions need.
type Catalog interface {
	ListMessages(ctx context.Context) ([]model.Message, error)
	FetchMessage(ctx context.Context, id string) ([]byte, error)
	UploadRecord(ctx context.Context, path string) (model.Record, error)
}

type ConfigSource interface {
	Get() model.RingConfig
}

type Options struct {
	Device    string
	RecordCmd string
	PlayCmd   string
	WorkDir   string
	Launcher  Launcher
	Selector  *Selector
	// FinalizeWait bounds how long an upload waits for the recorder to exit.
	FinalizeWait  time.Duration
	UploadTimeout time.Duration
	Now           func() time.Time
}

type RecordingSession struct {
	ID        string
	Filename  string
	StartedAt time.Time
	proc      Process
}

type PlaybackSession struct {
	MessageID string
	Filename  string
	proc      Process
}

// Manager tracks at most one recording and one playback session. Starting
// a session supersedes the tracked session of the same kind.
type Manager struct {
	opts    Options
	catalog Catalog
	config  ConfigSource

	mu        sync.Mutex
	recording *RecordingSession
	playback  *PlaybackSession
	// playGen invalidates playback starts that are still fetching when a
	// newer start or a stop arrives.
	playGen uint64

	uploads sync.WaitGroup
}

func NewManager(opts Options, catalog Catalog, config ConfigSource) *Manager {
	if opts.Device == "" {
		opts.Device = "plughw:0"
	}
	if opts.RecordCmd == "" {
		opts.RecordCmd = "arecord"
	}
	if opts.PlayCmd == "" {
		opts.PlayCmd = "aplay"
	}
	if opts.WorkDir == "" {
		opts.WorkDir = "."
	}
	if opts.Launcher == nil {
		opts.Launcher = ExecLauncher{}
	}
	if opts.Selector == nil {
		opts.Selector = NewSelector(nil)
	}
	if opts.FinalizeWait <= 0 {
		opts.FinalizeWait = 5 * time.Second
	}
	if opts.UploadTimeout <= 0 {
		opts.UploadTimeout = 2 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Manager{opts: opts, catalog: catalog, config: config}
}

func (m *Manager) StartRecording() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.recording != nil {
		logger.Log.Infof("Superseding recording %s", m.recording.ID)
		m.stopRecordingLocked()
	}

	now := m.opts.Now()
	id := uuid.NewString()
	filename := filepath.Join(m.opts.WorkDir, fmt.Sprintf("recorded_%d_%s.wav", now.Unix(), id[:8]))

	logger.Log.Infof("Starting recording %s to %s", id, filename)
	proc, err := m.opts.Launcher.Start(m.opts.RecordCmd, recordArgs(m.opts.Device, filename)...)
	if err != nil {
		logger.Log.Errorf("Failed to launch %s: %v", m.opts.RecordCmd, err)
		return fmt.Errorf("start recording: %w", err)
	}

	m.recording = &RecordingSession{ID: id, Filename: filename, StartedAt: now, proc: proc}
	return nil
}

// StopRecording terminates the recorder and uploads the file in the
// background. It reports whether a session was active.
func (m *Manager) StopRecording() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recording == nil {
		return false
	}
	m.stopRecordingLocked()
	return true
}

func (m *Manager) stopRecordingLocked() {
	sess := m.recording
	m.recording = nil

	logger.Log.Infof("Stopping recording %s", sess.ID)
	if err := sess.proc.Terminate(); err != nil {
		logger.Log.Warnf("Failed to signal recorder (pid %d): %v", sess.proc.Pid(), err)
	}

	m.uploads.Add(1)
	go m.finishRecording(sess)
}

// finishRecording uploads the file and always removes it afterwards.
func (m *Manager) finishRecording(sess *RecordingSession) {
	defer m.uploads.Done()
	defer func() {
		if err := os.Remove(sess.Filename); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Log.Warnf("Failed to delete %s: %v", sess.Filename, err)
			return
		}
		logger.Log.Infof("Deleted file: %s", sess.Filename)
	}()

	timer := time.NewTimer(m.opts.FinalizeWait)
	select {
	case <-sess.proc.Done():
		timer.Stop()
	case <-timer.C:
		logger.Log.Warnf("Recorder for %s still running after %v, uploading anyway", sess.ID, m.opts.FinalizeWait)
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.opts.UploadTimeout)
	defer cancel()

	rec, err := m.catalog.UploadRecord(ctx, sess.Filename)
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("failed").Inc()
		logger.Log.Errorf("Failed to upload recording %s: %v", sess.Filename, err)
		return
	}
	metrics.UploadsTotal.WithLabelValues("ok").Inc()
	logger.Log.Infof("Upload successful: record %s (%d ms)", rec.ID, rec.Length)
}

func (m *Manager) RecordingActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recording != nil
}

// Recording returns a copy of the live recording session, if any.
func (m *Manager) Recording() (RecordingSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recording == nil {
		return RecordingSession{}, false
	}
	return *m.recording, true
}

// StartPlayback plays the next message from the catalog according to the
// messages/randomMessages config.
func (m *Manager) StartPlayback(ctx context.Context) error {
	cfg := m.config.Get()
	if !cfg.Messages {
		logger.Log.Info("Messages are disabled, can not play message")
		return ErrMessagesDisabled
	}

	gen := m.nextPlayGen()

	list, err := m.catalog.ListMessages(ctx)
	if err != nil {
		logger.Log.Errorf("Failed to get message list: %v", err)
		return fmt.Errorf("list messages: %w", err)
	}
	idx, err := m.opts.Selector.Next(len(list), cfg.RandomMessages)
	if err != nil {
		logger.Log.Warn("No messages available for playback")
		return err
	}

	return m.play(ctx, gen, list[idx].ID)
}

// PlayMessage plays one specific message regardless of the messages flag.
func (m *Manager) PlayMessage(ctx context.Context, id string) error {
	return m.play(ctx, m.nextPlayGen(), id)
}

func (m *Manager) play(ctx context.Context, gen uint64, id string) error {
	logger.Log.Infof("Playing message with ID: %s", id)

	payload, err := m.catalog.FetchMessage(ctx, id)
	if err != nil {
		logger.Log.Errorf("Failed to get message %s: %v", id, err)
		return fmt.Errorf("fetch message %s: %w", id, err)
	}

	filename := filepath.Join(m.opts.WorkDir, fmt.Sprintf("message_%s_%d.wav", safeName(id), gen))
	if err := os.WriteFile(filename, payload, 0o644); err != nil {
		logger.Log.Errorf("Failed to write %s: %v", filename, err)
		return fmt.Errorf("write message %s: %w", id, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.playGen {
		logger.Log.Infof("Playback of %s was superseded before it started", id)
		removeQuiet(filename)
		return nil
	}
	if m.playback != nil {
		logger.Log.Infof("Superseding playback of %s", m.playback.MessageID)
		m.stopPlaybackLocked()
	}

	proc, err := m.opts.Launcher.Start(m.opts.PlayCmd, playArgs(m.opts.Device, filename)...)
	if err != nil {
		removeQuiet(filename)
		logger.Log.Errorf("Failed to launch %s: %v", m.opts.PlayCmd, err)
		return fmt.Errorf("start playback: %w", err)
	}

	m.playback = &PlaybackSession{MessageID: id, Filename: filename, proc: proc}
	return nil
}

// StopPlayback terminates the player and cancels any start still in flight.
// It reports whether a player was active.
func (m *Manager) StopPlayback() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.playGen++
	if m.playback == nil {
		return false
	}
	m.stopPlaybackLocked()
	return true
}

func (m *Manager) stopPlaybackLocked() {
	sess := m.playback
	m.playback = nil

	logger.Log.Infof("Stopping playback of %s", sess.MessageID)
	if err := sess.proc.Terminate(); err != nil {
		logger.Log.Warnf("Failed to signal player (pid %d): %v", sess.proc.Pid(), err)
	}
	removeQuiet(sess.Filename)
}

func (m *Manager) PlaybackActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playback != nil
}

func (m *Manager) Playback() (PlaybackSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.playback == nil {
		return PlaybackSession{}, false
	}
	return *m.playback, true
}

func (m *Manager) nextPlayGen() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playGen++
	return m.playGen
}

// Close stops both sessions and waits for pending uploads.
func (m *Manager) Close() {
	m.StopPlayback()
	m.StopRecording()
	m.uploads.Wait()
}

func safeName(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, id)
}

func removeQuiet(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Log.Warnf("Failed to delete %s: %v", path, err)
	}
}
