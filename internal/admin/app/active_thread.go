package app

import (
	"time"

	"support_chat_service/internal/admin/domain"

	"github.com/google/uuid"
)

// ActiveThread 目前選取 conversation 的訊息列表
// 只能在 sync loop 的 goroutine 內操作
// loadSeq 擋掉過期的載入結果：切換 conversation 後，
// 舊 fetch 回來時 seq 已不同，直接丟棄
type ActiveThread struct {
	conversationID string
	loadSeq        int
	loading        bool
	messages       []domain.Message
	index          map[string]int // message id (含 temp id) → position
}

// NewActiveThread create ActiveThread
func NewActiveThread() *ActiveThread {
	return &ActiveThread{
		index: make(map[string]int),
	}
}

// BeginLoad 切換 conversation，清空 thread 並回傳本次載入的 seq
func (t *ActiveThread) BeginLoad(convID string) int {
	t.conversationID = convID
	t.loadSeq++
	t.loading = true
	t.messages = nil
	t.index = make(map[string]int)
	return t.loadSeq
}

// CompleteLoad 套用載入結果；seq 過期回傳 false 並丟棄
func (t *ActiveThread) CompleteLoad(seq int, records []domain.MessageRecord) bool {
	if seq != t.loadSeq {
		return false
	}
	t.loading = false
	t.messages = make([]domain.Message, 0, len(records))
	t.index = make(map[string]int, len(records))
	for _, rec := range records {
		if _, dup := t.index[rec.ID]; dup {
			continue
		}
		t.index[rec.ID] = len(t.messages)
		t.messages = append(t.messages, domain.MessageFromRecord(rec))
	}
	return true
}

// FailLoad 載入失敗；seq 過期回傳 false
func (t *ActiveThread) FailLoad(seq int) bool {
	if seq != t.loadSeq {
		return false
	}
	t.loading = false
	return true
}

// AppendOptimistic 樂觀送出：先用暫時 id 入列，等 server 回覆
func (t *ActiveThread) AppendOptimistic(text string) domain.Message {
	msg := domain.Message{
		ID:     uuid.New().String(),
		Temp:   true,
		Text:   text,
		Sender: domain.SenderAdmin,
		SentAt: time.Now().Unix(),
		Status: domain.MessageSent,
	}
	t.index[msg.ID] = len(t.messages)
	t.messages = append(t.messages, msg)
	return msg
}

// ResolveSend server 回覆後原地換成正式 id
// 事件先一步用 tempId 對回時，暫時項已不存在，移除重複即可
func (t *ActiveThread) ResolveSend(tempID, serverID string, status domain.MessageStatus) bool {
	pos, ok := t.index[tempID]
	if !ok {
		return false
	}
	if existing, dup := t.index[serverID]; dup && existing != pos {
		// 正式 id 已經在 thread 裡（socket 事件先到），刪掉暫時項
		t.removeAt(pos)
		return true
	}
	delete(t.index, tempID)
	t.messages[pos].ID = serverID
	t.messages[pos].Temp = false
	if status != "" {
		t.messages[pos].Status = status
	}
	t.index[serverID] = pos
	return true
}

// FailSend 送出失敗，回滾樂觀項
func (t *ActiveThread) FailSend(tempID string) bool {
	pos, ok := t.index[tempID]
	if !ok {
		return false
	}
	t.removeAt(pos)
	return true
}

// ApplyReceiveMessage 套用 active conversation 的新訊息事件
// 回傳 true 表示 thread 有變動
func (t *ActiveThread) ApplyReceiveMessage(ev domain.ReceiveMessageEvent) bool {
	if ev.ConversationID != t.conversationID {
		return false
	}

	// 帶 tempId 的是自己樂觀送出的回音，原地對回
	if ev.TempID != "" {
		if _, ok := t.index[ev.TempID]; ok {
			status := domain.MessageStatus(ev.Status)
			if status == "" {
				status = domain.MessageDelivered
			}
			return t.ResolveSend(ev.TempID, ev.ID, status)
		}
	}

	// 重複事件 (多 socket / replay) 直接丟
	if _, dup := t.index[ev.ID]; dup {
		return false
	}

	msg := domain.Message{
		ID:      ev.ID,
		Text:    ev.MessageText,
		Sender:  domain.SenderType(ev.SenderType),
		SentAt:  ev.CreatedAt,
		Status:  domain.MessageStatus(ev.Status),
		FileURL: ev.FileURL,
	}
	t.index[msg.ID] = len(t.messages)
	t.messages = append(t.messages, msg)
	return true
}

// MarkAllRead messages_read 事件：admin 發出的訊息全部標記已讀
func (t *ActiveThread) MarkAllRead() {
	for i := range t.messages {
		if t.messages[i].Sender == domain.SenderAdmin {
			t.messages[i].Status = domain.MessageRead
		}
	}
}

// ConversationID current conversation, 空字串表示未選取
func (t *ActiveThread) ConversationID() string {
	return t.conversationID
}

// IsLoading fetch in flight
func (t *ActiveThread) IsLoading() bool {
	return t.loading
}

// Len count of messages
func (t *ActiveThread) Len() int {
	return len(t.messages)
}

// Messages copy of the thread
func (t *ActiveThread) Messages() []domain.Message {
	out := make([]domain.Message, len(t.messages))
	copy(out, t.messages)
	return out
}

func (t *ActiveThread) removeAt(pos int) {
	delete(t.index, t.messages[pos].ID)
	t.messages = append(t.messages[:pos], t.messages[pos+1:]...)
	// 位置後移的項目重建 index
	for i := pos; i < len(t.messages); i++ {
		t.index[t.messages[i].ID] = i
	}
}
