package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// CallEvent is one accepted call-state transition, kept as a local journal.
type CallEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Trigger   string    `gorm:"index;not null" json:"trigger"`
	FromState string    `gorm:"not null" json:"from_state"`
	ToState   string    `gorm:"index;not null" json:"to_state"`
	Source    string    `json:"source"` // sensor, ringer, autoring, remote, api
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// RingConfig is the remote-owned behaviour config served by GET /config.
type RingConfig struct {
	AutoRing        bool `json:"autoRing"`
	AutoRingMinSpan int  `json:"autoRingMinSpan"` // minutes
	AutoRingMaxSpan int  `json:"autoRingMaxSpan"` // minutes
	RingOnTime      int  `json:"ringOnTime"`      // seconds
	RingOffTime     int  `json:"ringOffTime"`     // seconds
	RingCount       int  `json:"ringCount"`
	Messages        bool `json:"messages"`
	RandomMessages  bool `json:"randomMessages"`
}

func DefaultRingConfig() RingConfig {
	return RingConfig{
		AutoRing:        false,
		AutoRingMinSpan: 60,
		AutoRingMaxSpan: 600,
		RingOnTime:      1,
		RingOffTime:     1,
		RingCount:       4,
		Messages:        true,
		RandomMessages:  true,
	}
}

// sqlBool accepts both JSON booleans and the 0/1 integers SQLite hands back
// for BOOLEAN columns.
type sqlBool bool

func (b *sqlBool) UnmarshalJSON(data []byte) error {
	switch strings.TrimSpace(string(data)) {
	case "true", "1":
		*b = true
	case "false", "0", "null":
		*b = false
	default:
		return fmt.Errorf("invalid boolean %s", data)
	}
	return nil
}

func (c *RingConfig) UnmarshalJSON(data []byte) error {
	type plain RingConfig
	aux := struct {
		*plain
		AutoRing       sqlBool `json:"autoRing"`
		Messages       sqlBool `json:"messages"`
		RandomMessages sqlBool `json:"randomMessages"`
	}{
		plain:          (*plain)(c),
		AutoRing:       sqlBool(c.AutoRing),
		Messages:       sqlBool(c.Messages),
		RandomMessages: sqlBool(c.RandomMessages),
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	c.AutoRing = bool(aux.AutoRing)
	c.Messages = bool(aux.Messages)
	c.RandomMessages = bool(aux.RandomMessages)
	return nil
}

func (c RingConfig) Validate() error {
	var errs []error
	if c.AutoRingMinSpan < 1 {
		errs = append(errs, fmt.Errorf("autoRingMinSpan must be positive, got %d", c.AutoRingMinSpan))
	}
	if c.AutoRingMaxSpan < 1 {
		errs = append(errs, fmt.Errorf("autoRingMaxSpan must be positive, got %d", c.AutoRingMaxSpan))
	}
	if c.AutoRingMinSpan > c.AutoRingMaxSpan {
		errs = append(errs, fmt.Errorf("autoRingMinSpan (%d) exceeds autoRingMaxSpan (%d)", c.AutoRingMinSpan, c.AutoRingMaxSpan))
	}
	if c.RingOnTime < 1 {
		errs = append(errs, fmt.Errorf("ringOnTime must be positive, got %d", c.RingOnTime))
	}
	if c.RingOffTime < 1 {
		errs = append(errs, fmt.Errorf("ringOffTime must be positive, got %d", c.RingOffTime))
	}
	if c.RingCount < 1 {
		errs = append(errs, fmt.Errorf("ringCount must be positive, got %d", c.RingCount))
	}
	return errors.Join(errs...)
}

// Message is one entry of GET /messages.
type Message struct {
	ID              string `json:"id"`
	RecordTimestamp int64  `json:"recordTimestamp"`
	Length          int64  `json:"length"`
}

// Record is the reply of POST /records.
type Record struct {
	ID              string `json:"id"`
	RecordTimestamp int64  `json:"recordTimestamp"`
	Length          int64  `json:"length"`
}
