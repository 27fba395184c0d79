package phone

import (
	"context"
	"strings"

	"github.com/pccr10001/ringline/internal/metrics"
	"github.com/pccr10001/ringline/pkg/logger"
)

const (
	CmdRing           = "COMMAND:RING"
	CmdUpdateConfig   = "COMMAND:UPDATE_CONFIG"
	CmdSendStatus     = "COMMAND:SEND_STATUS"
	CmdStartPlayback  = "COMMAND:START_PLAYBACK"
	CmdStopPlayback   = "COMMAND:STOP_PLAYBACK"
	CmdDebugOn        = "COMMAND:DEBUG_ON"
	CmdDebugOff       = "COMMAND:DEBUG_OFF"
	CmdStartRecording = "COMMAND:START_RECORDING"
	CmdStopRecording  = "COMMAND:STOP_RECORDING"
)

const (
	StatusConfigUpdated = "STATUS:CONFIG_UPDATED"
	statusDebugPrefix   = "STATUS:DEBUG:"
)

type command struct {
	name   string
	arg    string
	source string
}

type commandHandler func(c *Controller, cmd command) bool

var commandTable = map[string]commandHandler{
	CmdRing:           (*Controller).cmdRing,
	CmdUpdateConfig:   (*Controller).cmdUpdateConfig,
	CmdSendStatus:     (*Controller).cmdSendStatus,
	CmdStartPlayback:  (*Controller).cmdStartPlayback,
	CmdStopPlayback:   (*Controller).cmdStopPlayback,
	CmdDebugOn:        (*Controller).cmdDebugOn,
	CmdDebugOff:       (*Controller).cmdDebugOff,
	CmdStartRecording: (*Controller).cmdStartRecording,
	CmdStopRecording:  (*Controller).cmdStopRecording,
}

// parseCommand splits "COMMAND:START_PLAYBACK:<id>" into name and argument.
// Every other command must match exactly.
func parseCommand(raw string) (name, arg string) {
	if raw == CmdStartPlayback || strings.HasPrefix(raw, CmdStartPlayback+":") {
		return CmdStartPlayback, strings.TrimPrefix(strings.TrimPrefix(raw, CmdStartPlayback), ":")
	}
	return raw, ""
}

func (c *Controller) dispatch(raw, source string) {
	name, arg := parseCommand(raw)
	handler, ok := commandTable[name]
	if !ok {
		metrics.CommandsTotal.WithLabelValues("unknown", "unknown").Inc()
		logger.Log.Warnf("Unknown command: %s", raw)
		return
	}

	result := "accepted"
	if !handler(c, command{name: name, arg: arg, source: source}) {
		result = "rejected"
	}
	metrics.CommandsTotal.WithLabelValues(strings.TrimPrefix(name, "COMMAND:"), result).Inc()
}

func (c *Controller) cmdRing(cmd command) bool {
	if c.state != StateOnHook {
		logger.Log.Info("Can not ring, since we are already off-hook.")
		return false
	}
	return c.fire(TriggerIncomingCall, cmd.source)
}

func (c *Controller) cmdUpdateConfig(command) bool {
	logger.Log.Info("Received config update command")
	c.status.Send(StatusConfigUpdated)
	c.background(func(ctx context.Context) {
		_ = c.config.Refresh(ctx)
	})
	return true
}

func (c *Controller) cmdSendStatus(command) bool {
	c.status.Send(c.state.Status())
	return true
}

func (c *Controller) cmdStartPlayback(cmd command) bool {
	if c.state != StateOffHook {
		logger.Log.Info("Can not play message, since we are not off-hook.")
		return false
	}
	id := cmd.arg
	if id == "" || strings.Contains(id, ":") {
		logger.Log.Warnf("Invalid message format: %s:%s", cmd.name, cmd.arg)
		return false
	}

	c.status.Send(statusDebugPrefix + "START_PLAYBACK:" + id)
	c.background(func(ctx context.Context) {
		_ = c.sessions.PlayMessage(ctx, id)
	})
	return true
}

func (c *Controller) cmdStopPlayback(command) bool {
	if c.state != StateOffHook || !c.sessions.PlaybackActive() {
		logger.Log.Info("Can not stop playback, nothing is playing.")
		return false
	}
	c.status.Send(statusDebugPrefix + "STOP_PLAYBACK")
	c.sessions.StopPlayback()
	return true
}

func (c *Controller) cmdDebugOn(command) bool {
	c.status.Send(statusDebugPrefix + "ON")
	c.debug.Store(true)
	logger.Log.Info("Debug mode enabled, sessions are manual only")
	return true
}

func (c *Controller) cmdDebugOff(command) bool {
	c.status.Send(statusDebugPrefix + "OFF")
	c.debug.Store(false)
	logger.Log.Info("Debug mode disabled")
	return true
}

func (c *Controller) cmdStartRecording(command) bool {
	if c.state != StateOffHook {
		logger.Log.Info("Can not start recording, since we are not off-hook.")
		return false
	}
	c.status.Send(statusDebugPrefix + "START_RECORDING")
	if err := c.sessions.StartRecording(); err != nil {
		logger.Log.Errorf("Recording not started: %v", err)
	}
	return true
}

func (c *Controller) cmdStopRecording(command) bool {
	if c.state != StateOffHook || !c.sessions.RecordingActive() {
		logger.Log.Info("Can not stop recording, nothing is recording.")
		return false
	}
	c.status.Send(statusDebugPrefix + "STOP_RECORDING")
	c.sessions.StopRecording()
	return true
}
