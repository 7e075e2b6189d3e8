package domain

// SenderType definition message author side
type SenderType string

const (
	//SenderAdmin message authored by support side
	SenderAdmin SenderType = "admin"
	//SenderUser message authored by end user
	SenderUser SenderType = "user"
)

// MessageStatus delivery state for admin-authored messages
type MessageStatus string

const (
	//MessageSent message stored, not yet delivered
	MessageSent MessageStatus = "sent"
	//MessageDelivered message pushed to the user socket
	MessageDelivered MessageStatus = "delivered"
	//MessageRead message read by the user
	MessageRead MessageStatus = "read"
)

// ChatMessage 表示一則聊天訊息
type ChatMessage struct {
	ID             string        `bson:"id" json:"id"` // UUID
	ConversationID string        `bson:"conversation_id" json:"conversation_id"`
	SenderType     SenderType    `bson:"sender_type" json:"sender_type"`
	Content        string        `bson:"message_text" json:"message_text"`
	MessageType    string        `bson:"message_type" json:"message_type"` // text / file
	FileURL        string        `bson:"file_url,omitempty" json:"file_url,omitempty"`
	Status         MessageStatus `bson:"status,omitempty" json:"status,omitempty"` // user 訊息不帶 status
	CreatedAt      int64         `bson:"created_at" json:"created_at"`
}
