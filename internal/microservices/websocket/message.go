package websocket

import (
	"encoding/json"
	"time"

	"lendinghub/internal/microservices/http-api/models"
)

type MessageType string

const (
	TypeHello        MessageType = "hello"        // sent once after upgrade
	TypeNotification MessageType = "notification" // pushed notification
	TypeError        MessageType = "error"
)

// Message is the server-to-client frame.
type Message struct {
	Type MessageType `json:"type"`
	Data interface{} `json:"data"`
}

type HelloData struct {
	Message string `json:"message"`
}

type ErrorData struct {
	Message string `json:"message"`
}

type NotificationData struct {
	ID               int64                   `json:"id"`
	Message          string                  `json:"message"`
	IsRead           bool                    `json:"is_read"`
	CreatedAt        string                  `json:"created_at"`
	NotificationType models.NotificationType `json:"notification_type,omitempty"`
}

func NewHelloMessage() *Message {
	return &Message{Type: TypeHello, Data: HelloData{Message: "connected"}}
}

func NewErrorMessage(text string) *Message {
	return &Message{Type: TypeError, Data: ErrorData{Message: text}}
}

func NewNotificationMessage(n *models.Notification) *Message {
	return &Message{
		Type: TypeNotification,
		Data: NotificationData{
			ID:               n.ID,
			Message:          n.Message,
			IsRead:           n.IsRead,
			CreatedAt:        n.CreatedAt.UTC().Format(time.RFC3339Nano),
			NotificationType: n.Type,
		},
	}
}

func (m *Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
