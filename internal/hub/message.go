package hub

import (
	"time"

	"github.com/chzchzchz/padmap/internal/store"
)

// Message is sent from server to client.
type Message struct {
	Type      string                    `json:"type"`
	Timestamp int64                     `json:"timestamp"`
	Configs   []store.ControllerMapping `json:"configs,omitempty"`
	Error     string                    `json:"error,omitempty"`
}

// NewConfigsMessage reports the current contents of the mapping store.
func NewConfigsMessage(configs []store.ControllerMapping, err error) *Message {
	msg := &Message{
		Type:      "configs",
		Timestamp: time.Now().UnixMilli(),
		Configs:   configs,
	}
	if err != nil {
		msg.Error = err.Error()
	}
	return msg
}
