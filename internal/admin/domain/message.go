package domain

// SenderType message author side
type SenderType string

const (
	//SenderAdmin support 端
	SenderAdmin SenderType = "admin"
	//SenderUser 使用者端
	SenderUser SenderType = "user"
)

// MessageStatus delivery state，只有 admin 發出的訊息有意義
type MessageStatus string

const (
	//MessageSent stored, not yet delivered
	MessageSent MessageStatus = "sent"
	//MessageDelivered pushed to the user
	MessageDelivered MessageStatus = "delivered"
	//MessageRead read by the user
	MessageRead MessageStatus = "read"
)

// Message thread 內的一則訊息
// 樂觀送出時 ID 先放 client 產生的暫時 id (Temp=true)，
// server 回覆後原地換成正式 id，不會產生第二筆
type Message struct {
	ID      string
	Temp    bool
	Text    string
	Sender  SenderType
	SentAt  int64
	Status  MessageStatus
	FileURL string
}

// MessageRecord thread API 回傳的一筆訊息
type MessageRecord struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id"`
	SenderType     string `json:"sender_type"`
	MessageText    string `json:"message_text"`
	MessageType    string `json:"message_type"`
	FileURL        string `json:"file_url,omitempty"`
	Status         string `json:"status,omitempty"`
	CreatedAt      int64  `json:"created_at"`
}

// MessageFromRecord map REST record into message
func MessageFromRecord(rec MessageRecord) Message {
	return Message{
		ID:      rec.ID,
		Text:    rec.MessageText,
		Sender:  SenderType(rec.SenderType),
		SentAt:  rec.CreatedAt,
		Status:  MessageStatus(rec.Status),
		FileURL: rec.FileURL,
	}
}
