package models

import "time"

// ChatSender identifies who authored a chat message.
type ChatSender string

const (
	SenderUser      ChatSender = "user"
	SenderAssistant ChatSender = "assistant"
)

// ChatMessage is one persisted turn of the diet-advice conversation.
// Display order is by Timestamp ascending.
type ChatMessage struct {
	ID        string     `json:"id" badgerhold:"key"`
	Content   string     `json:"content"`
	Sender    ChatSender `json:"sender"`
	Timestamp time.Time  `json:"timestamp" badgerhold:"index"`
}
