package app

import (
	"sort"

	"support_chat_service/internal/admin/domain"
)

// ConversationList 一個 counterpart 只留一筆摘要，最近更新排最前
// 只能在 sync loop 的 goroutine 內操作，不做鎖
type ConversationList struct {
	items    []domain.ConversationSummary
	index    map[string]int // conversation id → position
	activeID string
}

// NewConversationList create ConversationList
func NewConversationList() *ConversationList {
	return &ConversationList{
		index: make(map[string]int),
	}
}

// Load 初始載入：去重、排序、覆蓋現有內容
func (l *ConversationList) Load(records []domain.ConversationRecord) {
	l.items = dedupRecords(records)
	l.reindex()
	if _, ok := l.index[l.activeID]; !ok {
		l.activeID = ""
	}
}

// Refresh 整頁重抓後合併：已知 conversation 本地累計的未讀不回退
func (l *ConversationList) Refresh(records []domain.ConversationRecord) {
	fresh := dedupRecords(records)
	for i := range fresh {
		pos, known := l.index[fresh[i].ID]
		if !known {
			continue
		}
		local := l.items[pos]
		if local.UnreadCount > fresh[i].UnreadCount {
			fresh[i].UnreadCount = local.UnreadCount
		}
		// presence 以本地最後收到的事件為準
		fresh[i].IsOnline = local.IsOnline
	}
	l.items = fresh
	l.reindex()
	if pos, ok := l.index[l.activeID]; ok {
		// active conversation 的未讀永遠是 0
		l.items[pos].UnreadCount = 0
	} else {
		l.activeID = ""
	}
}

// ApplyReceiveMessage 更新摘要並移到最前
// 回傳 false 表示 conversation 不在列表裡，呼叫端要整頁重抓
func (l *ConversationList) ApplyReceiveMessage(ev domain.ReceiveMessageEvent) bool {
	pos, ok := l.index[ev.ConversationID]
	if !ok {
		return false
	}

	s := l.items[pos]
	s.LastMessageText = ev.MessageText
	s.LastMessageTime = ev.CreatedAt
	if ev.CreatedAt > s.UpdatedAt {
		s.UpdatedAt = ev.CreatedAt
	}
	// 只有「非 active conversation 的使用者訊息」累計未讀
	if ev.ConversationID != l.activeID && domain.SenderType(ev.SenderType) == domain.SenderUser {
		s.UnreadCount++
	}

	// 移到最前，其餘順序不動
	copy(l.items[1:pos+1], l.items[0:pos])
	l.items[0] = s
	l.reindex()
	return true
}

// ApplyMessagesRead 已讀事件 (可能來自別的 admin session)，未讀歸零，不動排序
func (l *ConversationList) ApplyMessagesRead(convID string) {
	pos, ok := l.index[convID]
	if !ok {
		return
	}
	l.items[pos].UnreadCount = 0
}

// ApplyUserStatus presence 更新，不影響排序
func (l *ConversationList) ApplyUserStatus(convID string, online bool) {
	pos, ok := l.index[convID]
	if !ok {
		return
	}
	l.items[pos].IsOnline = online
}

// Select 設為 active 並清空未讀
func (l *ConversationList) Select(convID string) bool {
	pos, ok := l.index[convID]
	if !ok {
		return false
	}
	l.activeID = convID
	l.items[pos].UnreadCount = 0
	return true
}

// Resolve admin 動作：本地標記為 resolved
func (l *ConversationList) Resolve(convID string) bool {
	pos, ok := l.index[convID]
	if !ok {
		return false
	}
	l.items[pos].Status = domain.StatusResolved
	return true
}

// ActiveID current active conversation id, 空字串表示沒有
func (l *ConversationList) ActiveID() string {
	return l.activeID
}

// Get find summary by conversation id
func (l *ConversationList) Get(convID string) (domain.ConversationSummary, bool) {
	pos, ok := l.index[convID]
	if !ok {
		return domain.ConversationSummary{}, false
	}
	return l.items[pos], true
}

// Len count of summaries
func (l *ConversationList) Len() int {
	return len(l.items)
}

// Snapshot copy of the ordered list
func (l *ConversationList) Snapshot() []domain.ConversationSummary {
	out := make([]domain.ConversationSummary, len(l.items))
	copy(out, l.items)
	return out
}

// Filter 搜尋用 view，不改動底層列表
func (l *ConversationList) Filter(query string) []domain.ConversationSummary {
	out := make([]domain.ConversationSummary, 0, len(l.items))
	for _, s := range l.items {
		if s.Matches(query) {
			out = append(out, s)
		}
	}
	return out
}

func (l *ConversationList) reindex() {
	l.index = make(map[string]int, len(l.items))
	for i, s := range l.items {
		l.index[s.ID] = i
	}
}

// dedupRecords 同一 counterpart (email 不分大小寫，否則 id) 只留 updated_at 最大的一筆
func dedupRecords(records []domain.ConversationRecord) []domain.ConversationSummary {
	byKey := make(map[string]domain.ConversationSummary, len(records))
	for _, rec := range records {
		s := domain.SummaryFromRecord(rec)
		exist, ok := byKey[s.Key()]
		if !ok || s.UpdatedAt > exist.UpdatedAt {
			byKey[s.Key()] = s
		}
	}

	out := make([]domain.ConversationSummary, 0, len(byKey))
	for _, s := range byKey {
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt > out[j].UpdatedAt
	})
	return out
}
