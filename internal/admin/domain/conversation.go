package domain

import "strings"

// ConversationStatus conversation handle state (server 指定)
type ConversationStatus string

const (
	//StatusActive 處理中
	StatusActive ConversationStatus = "active"
	//StatusWaiting 等待回覆
	StatusWaiting ConversationStatus = "waiting"
	//StatusResolved 已解決 (admin 動作才會在本地設定)
	StatusResolved ConversationStatus = "resolved"
)

// ConversationSummary 列表用的 conversation 摘要
type ConversationSummary struct {
	ID               string
	CounterpartName  string
	CounterpartEmail string
	LastMessageText  string
	LastMessageTime  int64
	UnreadCount      int
	Status           ConversationStatus
	IsOnline         bool
	UpdatedAt        int64
}

// Key 去重鍵：email (不分大小寫)，沒有 email 時用 id
func (s ConversationSummary) Key() string {
	if s.CounterpartEmail != "" {
		return strings.ToLower(s.CounterpartEmail)
	}
	return s.ID
}

// Matches 名稱或 email 的子字串比對，不分大小寫
func (s ConversationSummary) Matches(query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(s.CounterpartName), q) ||
		strings.Contains(strings.ToLower(s.CounterpartEmail), q)
}

// ConversationRecord list API 回傳的一筆 conversation
type ConversationRecord struct {
	ID              string `json:"id"`
	UserName        string `json:"user_name"`
	UserEmail       string `json:"user_email"`
	Status          string `json:"status"`
	LastMessageText string `json:"last_message_text"`
	LastMessageTime int64  `json:"last_message_time"`
	UnreadCount     int    `json:"unread_count"`
	IsOnline        bool   `json:"is_online"`
	CreatedAt       int64  `json:"created_at"`
	UpdatedAt       int64  `json:"updated_at"`
}

// SummaryFromRecord map REST record into summary
func SummaryFromRecord(rec ConversationRecord) ConversationSummary {
	return ConversationSummary{
		ID:               rec.ID,
		CounterpartName:  rec.UserName,
		CounterpartEmail: rec.UserEmail,
		LastMessageText:  rec.LastMessageText,
		LastMessageTime:  rec.LastMessageTime,
		UnreadCount:      rec.UnreadCount,
		Status:           ConversationStatus(rec.Status),
		IsOnline:         rec.IsOnline,
		UpdatedAt:        rec.UpdatedAt,
	}
}
