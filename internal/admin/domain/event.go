package domain

import "encoding/json"

// websocket event name
const (
	// EventReceiveMessage 新訊息
	EventReceiveMessage = "receive_message"
	// EventMessagesRead 整個 conversation 已讀
	EventMessagesRead = "messages_read"
	// EventUserStatus 使用者上線/離線
	EventUserStatus = "user_status"
)

// EventEnvelope websocket frame
// data 留 raw，由各事件自己解；未認識的 event 原樣略過
type EventEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// ReceiveMessageEvent receive_message data
type ReceiveMessageEvent struct {
	ConversationID string `json:"conversation_id"`
	ID             string `json:"id"`
	SenderType     string `json:"sender_type"`
	MessageText    string `json:"message_text"`
	CreatedAt      int64  `json:"created_at"`
	TempID         string `json:"tempId,omitempty"`
	FileURL        string `json:"file_url,omitempty"`
	Status         string `json:"status,omitempty"`
}

// MessagesReadEvent messages_read data
type MessagesReadEvent struct {
	ConversationID string `json:"conversation_id"`
}

// UserStatusEvent user_status data
type UserStatusEvent struct {
	ConversationID string `json:"conversation_id"`
	Status         string `json:"status"` // online / offline
}
