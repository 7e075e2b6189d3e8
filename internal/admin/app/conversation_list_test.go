package app

import (
	"testing"

	"support_chat_service/internal/admin/domain"

	"github.com/stretchr/testify/assert"
)

func record(id, name, email string, unread int, updatedAt int64) domain.ConversationRecord {
	return domain.ConversationRecord{
		ID:          id,
		UserName:    name,
		UserEmail:   email,
		UnreadCount: unread,
		Status:      "active",
		UpdatedAt:   updatedAt,
	}
}

// 測試載入時同一 counterpart 去重，留 updated_at 最大的一筆
func TestConversationList_Load_Dedup(t *testing.T) {
	l := NewConversationList()
	l.Load([]domain.ConversationRecord{
		record("conv-1", "Ali", "ali@example.com", 2, 100),
		record("conv-2", "Ali", "ALI@example.com", 0, 200), // 同 email 不同大小寫
		record("conv-3", "Fatima", "fatima@example.com", 1, 150),
	})

	assert.Equal(t, 2, l.Len())
	items := l.Snapshot()
	// 由新到舊
	assert.Equal(t, "conv-2", items[0].ID)
	assert.Equal(t, "conv-3", items[1].ID)
}

// 測試沒有 email 的 conversation 用 id 當鍵，不會被吃掉
func TestConversationList_Load_NoEmail(t *testing.T) {
	l := NewConversationList()
	l.Load([]domain.ConversationRecord{
		record("conv-1", "guest", "", 0, 100),
		record("conv-2", "guest", "", 0, 200),
	})
	assert.Equal(t, 2, l.Len())
}

// 測試新訊息把 conversation 移到最前並更新摘要
func TestConversationList_ApplyReceiveMessage_MoveToFront(t *testing.T) {
	l := NewConversationList()
	l.Load([]domain.ConversationRecord{
		record("conv-1", "Ali", "ali@example.com", 0, 300),
		record("conv-2", "Fatima", "fatima@example.com", 0, 200),
		record("conv-3", "Omar", "omar@example.com", 0, 100),
	})

	ok := l.ApplyReceiveMessage(domain.ReceiveMessageEvent{
		ConversationID: "conv-3",
		ID:             "m1",
		SenderType:     "user",
		MessageText:    "need help",
		CreatedAt:      400,
	})

	assert.True(t, ok)
	items := l.Snapshot()
	assert.Equal(t, []string{"conv-3", "conv-1", "conv-2"}, []string{items[0].ID, items[1].ID, items[2].ID})
	assert.Equal(t, "need help", items[0].LastMessageText)
	assert.Equal(t, 1, items[0].UnreadCount)
}

// 測試未知 conversation 回傳 false，由呼叫端整頁重抓
func TestConversationList_ApplyReceiveMessage_Unknown(t *testing.T) {
	l := NewConversationList()
	l.Load([]domain.ConversationRecord{record("conv-1", "Ali", "ali@example.com", 0, 100)})

	ok := l.ApplyReceiveMessage(domain.ReceiveMessageEvent{ConversationID: "conv-new", ID: "m1", SenderType: "user"})
	assert.False(t, ok)
	assert.Equal(t, 1, l.Len())
}

// 測試 active conversation 與 admin 訊息都不累計未讀
func TestConversationList_UnreadRules(t *testing.T) {
	l := NewConversationList()
	l.Load([]domain.ConversationRecord{
		record("conv-1", "Ali", "ali@example.com", 0, 200),
		record("conv-2", "Fatima", "fatima@example.com", 0, 100),
	})
	assert.True(t, l.Select("conv-1"))

	// active conversation 的使用者訊息：未讀不變
	l.ApplyReceiveMessage(domain.ReceiveMessageEvent{ConversationID: "conv-1", ID: "m1", SenderType: "user", CreatedAt: 300})
	got, _ := l.Get("conv-1")
	assert.Equal(t, 0, got.UnreadCount)

	// 非 active 的使用者訊息：+1
	l.ApplyReceiveMessage(domain.ReceiveMessageEvent{ConversationID: "conv-2", ID: "m2", SenderType: "user", CreatedAt: 301})
	got, _ = l.Get("conv-2")
	assert.Equal(t, 1, got.UnreadCount)

	// 非 active 的 admin 訊息 (別的 admin tab)：未讀不變
	l.ApplyReceiveMessage(domain.ReceiveMessageEvent{ConversationID: "conv-2", ID: "m3", SenderType: "admin", CreatedAt: 302})
	got, _ = l.Get("conv-2")
	assert.Equal(t, 1, got.UnreadCount)
}

// 測試 Select 會清未讀
func TestConversationList_Select_ClearsUnread(t *testing.T) {
	l := NewConversationList()
	l.Load([]domain.ConversationRecord{record("conv-1", "Ali", "ali@example.com", 5, 100)})

	assert.True(t, l.Select("conv-1"))
	got, _ := l.Get("conv-1")
	assert.Equal(t, 0, got.UnreadCount)
	assert.Equal(t, "conv-1", l.ActiveID())

	assert.False(t, l.Select("conv-x"))
}

// 測試整頁重抓不回退本地累計的未讀與 presence
func TestConversationList_Refresh_KeepsLocalUnread(t *testing.T) {
	l := NewConversationList()
	l.Load([]domain.ConversationRecord{
		record("conv-1", "Ali", "ali@example.com", 0, 200),
		record("conv-2", "Fatima", "fatima@example.com", 0, 100),
	})
	l.ApplyUserStatus("conv-2", true)
	// 本地事件累計了 2 則未讀
	l.ApplyReceiveMessage(domain.ReceiveMessageEvent{ConversationID: "conv-2", ID: "m1", SenderType: "user", CreatedAt: 300})
	l.ApplyReceiveMessage(domain.ReceiveMessageEvent{ConversationID: "conv-2", ID: "m2", SenderType: "user", CreatedAt: 301})

	// server 端 unread 還是舊的
	l.Refresh([]domain.ConversationRecord{
		record("conv-1", "Ali", "ali@example.com", 0, 200),
		record("conv-2", "Fatima", "fatima@example.com", 1, 301),
		record("conv-3", "Omar", "omar@example.com", 3, 250),
	})

	assert.Equal(t, 3, l.Len())
	got, _ := l.Get("conv-2")
	assert.Equal(t, 2, got.UnreadCount)
	assert.True(t, got.IsOnline)
	// 新 conversation 用 server 值
	got, _ = l.Get("conv-3")
	assert.Equal(t, 3, got.UnreadCount)
}

// 測試重抓後 active conversation 未讀強制為 0
func TestConversationList_Refresh_ActiveStaysRead(t *testing.T) {
	l := NewConversationList()
	l.Load([]domain.ConversationRecord{record("conv-1", "Ali", "ali@example.com", 0, 100)})
	l.Select("conv-1")

	l.Refresh([]domain.ConversationRecord{record("conv-1", "Ali", "ali@example.com", 4, 200)})

	got, _ := l.Get("conv-1")
	assert.Equal(t, 0, got.UnreadCount)
	assert.Equal(t, "conv-1", l.ActiveID())
}

// 測試 messages_read 事件把未讀歸零但不動排序
func TestConversationList_ApplyMessagesRead(t *testing.T) {
	l := NewConversationList()
	l.Load([]domain.ConversationRecord{
		record("conv-1", "Ali", "ali@example.com", 0, 200),
		record("conv-2", "Fatima", "fatima@example.com", 3, 100),
	})

	l.ApplyMessagesRead("conv-2")
	got, _ := l.Get("conv-2")
	assert.Equal(t, 0, got.UnreadCount)
	assert.Equal(t, "conv-1", l.Snapshot()[0].ID)
}

// 測試 user_status 更新 presence 但不動排序
func TestConversationList_ApplyUserStatus(t *testing.T) {
	l := NewConversationList()
	l.Load([]domain.ConversationRecord{
		record("conv-1", "Ali", "ali@example.com", 0, 200),
		record("conv-2", "Fatima", "fatima@example.com", 0, 100),
	})

	l.ApplyUserStatus("conv-2", true)
	items := l.Snapshot()
	assert.Equal(t, "conv-1", items[0].ID)
	assert.True(t, items[1].IsOnline)

	l.ApplyUserStatus("conv-2", false)
	got, _ := l.Get("conv-2")
	assert.False(t, got.IsOnline)
}

// 測試搜尋比對名稱與 email，不分大小寫
func TestConversationList_Filter(t *testing.T) {
	l := NewConversationList()
	l.Load([]domain.ConversationRecord{
		record("conv-1", "Ali Hassan", "ali@example.com", 0, 200),
		record("conv-2", "Fatima", "fatima@other.org", 0, 100),
	})

	assert.Len(t, l.Filter("HASSAN"), 1)
	assert.Len(t, l.Filter("example.com"), 1)
	assert.Len(t, l.Filter(""), 2)
	assert.Len(t, l.Filter("nobody"), 0)
	// filter 不改動底層
	assert.Equal(t, 2, l.Len())
}

// 測試 Resolve 只改本地狀態
func TestConversationList_Resolve(t *testing.T) {
	l := NewConversationList()
	l.Load([]domain.ConversationRecord{record("conv-1", "Ali", "ali@example.com", 0, 100)})

	assert.True(t, l.Resolve("conv-1"))
	got, _ := l.Get("conv-1")
	assert.Equal(t, domain.StatusResolved, got.Status)

	assert.False(t, l.Resolve("conv-x"))
}
