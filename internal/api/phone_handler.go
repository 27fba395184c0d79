package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pccr10001/ringline/internal/model"
	"github.com/pccr10001/ringline/internal/phone"
	"github.com/pccr10001/ringline/pkg/logger"
)

type PhoneView interface {
	phone.StateReader
	phone.Poster
}

type SessionView interface {
	RecordingActive() bool
	PlaybackActive() bool
}

type ConfigView interface {
	Get() model.RingConfig
}

type JournalView interface {
	Recent(limit int) ([]model.CallEvent, error)
	CallCounts() (answered, missed int64, err error)
}

type PhoneHandler struct {
	phone    PhoneView
	sessions SessionView
	config   ConfigView
	journal  JournalView
}

type statusResponse struct {
	State     string           `json:"state"`
	Status    string           `json:"status"`
	Debug     bool             `json:"debug"`
	Recording bool             `json:"recording"`
	Playback  bool             `json:"playback"`
	Config    model.RingConfig `json:"config"`
	Answered  int64            `json:"answered"`
	Missed    int64            `json:"missed"`
}

type commandRequest struct {
	Command string `json:"command" binding:"required"`
}

func NewPhoneHandler(p PhoneView, sessions SessionView, config ConfigView, journal JournalView) *PhoneHandler {
	return &PhoneHandler{phone: p, sessions: sessions, config: config, journal: journal}
}

func (h *PhoneHandler) GetStatus(c *gin.Context) {
	answered, missed, err := h.journal.CallCounts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	state := h.phone.State()
	c.JSON(http.StatusOK, statusResponse{
		State:     state.String(),
		Status:    state.Status(),
		Debug:     h.phone.Debug(),
		Recording: h.sessions.RecordingActive(),
		Playback:  h.sessions.PlaybackActive(),
		Config:    h.config.Get(),
		Answered:  answered,
		Missed:    missed,
	})
}

func (h *PhoneHandler) ListEvents(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 1000 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 1000"})
			return
		}
		limit = n
	}

	events, err := h.journal.Recent(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, events)
}

// Ring queues a RING command; the control loop decides whether it applies.
func (h *PhoneHandler) Ring(c *gin.Context) {
	h.phone.Post(phone.CommandEvent(phone.CmdRing, "api"))
	c.JSON(http.StatusAccepted, gin.H{"queued": phone.CmdRing})
}

func (h *PhoneHandler) PostCommand(c *gin.Context) {
	var req commandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !strings.HasPrefix(req.Command, "COMMAND:") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "command must start with COMMAND:"})
		return
	}

	logger.Log.Infof("Local API queued %s", req.Command)
	h.phone.Post(phone.CommandEvent(req.Command, "api"))
	c.JSON(http.StatusAccepted, gin.H{"queued": req.Command})
}
