package remote

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pccr10001/ringline/internal/metrics"
	"github.com/pccr10001/ringline/pkg/logger"
	"golang.org/x/sync/errgroup"
)

const outboundQueueSize = 64

// Channel keeps the command/status websocket to the controller service open.
// Connection failures are retried forever after a fixed delay.
type Channel struct {
	url    string
	delay  time.Duration
	dialer *websocket.Dialer

	// OnCommand receives every inbound text frame, trimmed. It must not block.
	OnCommand func(cmd string)
	// OnConnect runs after each successful dial, while the loops are live.
	OnConnect func(ctx context.Context)

	out       chan string
	connected atomic.Bool
}

func NewChannel(url string, delay time.Duration) *Channel {
	if delay <= 0 {
		delay = 5 * time.Second
	}
	return &Channel{
		url:    url,
		delay:  delay,
		dialer: websocket.DefaultDialer,
		out:    make(chan string, outboundQueueSize),
	}
}

func (c *Channel) Connected() bool {
	return c.connected.Load()
}

// Send queues msg for the writer. It never blocks; messages are dropped
// while disconnected or when the queue is full.
func (c *Channel) Send(msg string) {
	if !c.connected.Load() {
		logger.Log.Debugf("Not connected, dropping message: %s", msg)
		return
	}
	select {
	case c.out <- msg:
	default:
		logger.Log.Warnf("Outbound queue full, dropping message: %s", msg)
	}
}

// Run blocks until ctx is cancelled.
func (c *Channel) Run(ctx context.Context) error {
	for {
		logger.Log.Infof("Connecting to %s...", c.url)
		err := c.session(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		metrics.RemoteReconnectsTotal.Inc()
		logger.Log.Warnf("Connection failed: %v. Retrying in %v...", err, c.delay)

		timer := time.NewTimer(c.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (c *Channel) session(ctx context.Context) error {
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.url, err)
	}
	logger.Log.Infof("Connected to %s", c.url)

	c.dropStale()
	c.connected.Store(true)
	defer c.connected.Store(false)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.readLoop(conn)
	})
	g.Go(func() error {
		c.writeLoop(gctx, conn)
		return nil
	})
	g.Go(func() error {
		// Unblocks the reader on shutdown or after it failed.
		<-gctx.Done()
		_ = conn.Close()
		return nil
	})

	if c.OnConnect != nil {
		c.OnConnect(gctx)
	}

	return g.Wait()
}

func (c *Channel) readLoop(conn *websocket.Conn) error {
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("connection closed or error encountered: %w", err)
		}
		if msgType != websocket.TextMessage {
			continue
		}

		cmd := strings.TrimSpace(string(data))
		logger.Log.Infof("Received message: %s", cmd)
		if c.OnCommand != nil {
			c.OnCommand(cmd)
		}
	}
}

func (c *Channel) writeLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-c.out:
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				logger.Log.Warnf("Failed to send message %q: %v", msg, err)
				continue
			}
			logger.Log.Debugf("Sent message: %s", msg)
		}
	}
}

// dropStale discards messages queued for a connection that is gone.
func (c *Channel) dropStale() {
	for {
		select {
		case <-c.out:
		default:
			return
		}
	}
}
