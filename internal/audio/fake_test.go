package audio

import (
	"context"
	"errors"
	"os"
	"sync"

	"github.com/pccr10001/ringline/internal/model"
)

type fakeProcess struct {
	pid        int
	mu         sync.Mutex
	terminated bool
	done       chan struct{}
}

func (p *fakeProcess) Pid() int { return p.pid }

func (p *fakeProcess) Terminate() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.terminated {
		p.terminated = true
		close(p.done)
	}
	return nil
}

func (p *fakeProcess) Done() <-chan struct{} { return p.done }

func (p *fakeProcess) Terminated() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.terminated
}

type launch struct {
	name string
	args []string
	proc *fakeProcess
}

type fakeLauncher struct {
	mu       sync.Mutex
	launches []launch
	err      error
}

func (l *fakeLauncher) Start(name string, args ...string) (Process, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	p := &fakeProcess{pid: 1000 + len(l.launches), done: make(chan struct{})}
	l.launches = append(l.launches, launch{name: name, args: args, proc: p})
	// The recorder would create its output file.
	if name == "arecord" {
		_ = os.WriteFile(args[len(args)-1], []byte("pcm"), 0o644)
	}
	return p, nil
}

func (l *fakeLauncher) Launches() []launch {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]launch(nil), l.launches...)
}

type fakeCatalog struct {
	mu       sync.Mutex
	messages []model.Message
	payloads map[string][]byte
	listErr  error
	uploaded []string
	upErr    error
	// gate, when set, blocks FetchMessage until closed.
	gate chan struct{}
	// fetching, when set, is closed as FetchMessage starts.
	fetching chan struct{}
}

func (c *fakeCatalog) ListMessages(context.Context) ([]model.Message, error) {
	return c.messages, c.listErr
}

func (c *fakeCatalog) FetchMessage(ctx context.Context, id string) ([]byte, error) {
	if c.fetching != nil {
		close(c.fetching)
	}
	if c.gate != nil {
		<-c.gate
	}
	p, ok := c.payloads[id]
	if !ok {
		return nil, errors.New("404")
	}
	return p, nil
}

func (c *fakeCatalog) UploadRecord(_ context.Context, path string) (model.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.uploaded = append(c.uploaded, path)
	if c.upErr != nil {
		return model.Record{}, c.upErr
	}
	return model.Record{ID: "r", Length: 3}, nil
}

func (c *fakeCatalog) Uploaded() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.uploaded...)
}

type staticConfig model.RingConfig

func (s staticConfig) Get() model.RingConfig { return model.RingConfig(s) }
