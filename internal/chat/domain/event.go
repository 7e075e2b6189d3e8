package domain

// Event websocket event name
type Event string

const (
	// EventReceiveMessage 新訊息
	EventReceiveMessage Event = "receive_message"
	// EventMessagesRead 整個 conversation 已讀
	EventMessagesRead Event = "messages_read"
	// EventUserStatus 使用者上線/離線
	EventUserStatus Event = "user_status"
)

// Envelope websocket frame
type Envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// ReceiveMessagePayload receive_message data
type ReceiveMessagePayload struct {
	ConversationID string `json:"conversation_id"`
	ID             string `json:"id"`
	SenderType     string `json:"sender_type"`
	MessageText    string `json:"message_text"`
	CreatedAt      int64  `json:"created_at"`
	TempID         string `json:"tempId,omitempty"` // 原樣帶回，讓發送端對回自己的樂觀訊息
	FileURL        string `json:"file_url,omitempty"`
	Status         string `json:"status,omitempty"`
}

// MessagesReadPayload messages_read data
type MessagesReadPayload struct {
	ConversationID string `json:"conversation_id"`
}

// UserStatusPayload user_status data
type UserStatusPayload struct {
	ConversationID string `json:"conversation_id"`
	Status         string `json:"status"` // online / offline
}

// WSUserRequest 使用者端 socket 傳入的訊息
type WSUserRequest struct {
	MessageText string `json:"message_text"`
	MessageType string `json:"message_type"`
	FileURL     string `json:"file_url,omitempty"`
}
