package domain

// ConversationStatus definition conversation handle state
type ConversationStatus string

const (
	//StatusActive admin 已回覆，處理中
	StatusActive ConversationStatus = "active"
	//StatusWaiting 使用者留言等待回覆
	StatusWaiting ConversationStatus = "waiting"
	//StatusResolved admin 標記為已解決
	StatusResolved ConversationStatus = "resolved"
)

// Conversation 表示一位使用者與客服端的對話
type Conversation struct {
	ID              string             `bson:"_id,omitempty" json:"id"`
	UserName        string             `bson:"user_name" json:"user_name"`
	UserEmail       string             `bson:"user_email" json:"user_email"`
	Status          ConversationStatus `bson:"status" json:"status"`
	LastMessageText string             `bson:"last_message_text" json:"last_message_text"`
	LastMessageTime int64              `bson:"last_message_time" json:"last_message_time"`
	UnreadCount     int                `bson:"unread_count" json:"unread_count"` // admin 端未讀數
	CreatedAt       int64              `bson:"created_at" json:"created_at"`
	UpdatedAt       int64              `bson:"updated_at" json:"updated_at"`
}

// ConversationView list API 回傳的 conversation，補上 presence
type ConversationView struct {
	Conversation
	IsOnline bool `json:"is_online"`
}
