package app

import (
	"context"
	"encoding/json"

	"support_chat_service/internal/admin/domain"
	"support_chat_service/internal/admin/repository"
	"support_chat_service/pkg/logger"

	"go.uber.org/zap"
)

// EventSource socket feed 的介面，測試時可用假事件來源
type EventSource interface {
	Start(ctx context.Context)
	Close()
	Events() <-chan SocketEvent
}

// UpdateKind 通知前端的變化種類
type UpdateKind int

const (
	// UpdateList conversation 列表有變動
	UpdateList UpdateKind = iota
	// UpdateThread active thread 有變動
	UpdateThread
	// UpdateConnectivity 連線狀態改變
	UpdateConnectivity
	// UpdateSendFailed 樂觀送出已回滾
	UpdateSendFailed
)

// Update 推給前端的變化通知
type Update struct {
	Kind           UpdateKind
	ConversationID string
	Connected      bool
	Err            error
}

// Snapshot 某一時刻的完整同步狀態 (copy)
type Snapshot struct {
	Conversations []domain.ConversationSummary
	ActiveID      string
	Messages      []domain.Message
	ThreadLoading bool
	Connected     bool
}

// AdminSyncUseCase 把 REST 與 socket 兩個來源收斂成一份狀態
// 所有變動都在 Run 的 goroutine 內套用：socket 事件、REST 完成
// 與操作指令都是丟進同一條迴圈的訊息，狀態不需要鎖
type AdminSyncUseCase struct {
	api       repository.ChatAPI
	feed      EventSource
	adminID   string
	pageLimit int

	list       *ConversationList
	thread     *ActiveThread
	connected  bool
	refreshing bool

	actions chan func()
	updates chan Update
}

// NewAdminSyncUseCase init admin sync use case
func NewAdminSyncUseCase(api repository.ChatAPI, feed EventSource, adminID string, pageLimit int) *AdminSyncUseCase {
	if pageLimit <= 0 {
		pageLimit = 50
	}
	return &AdminSyncUseCase{
		api:       api,
		feed:      feed,
		adminID:   adminID,
		pageLimit: pageLimit,
		list:      NewConversationList(),
		thread:    NewActiveThread(),
		actions:   make(chan func(), 64),
		updates:   make(chan Update, 128),
	}
}

// Updates 變化通知，滿了會丟棄 (只影響重繪，不影響狀態)
func (u *AdminSyncUseCase) Updates() <-chan Update {
	return u.updates
}

// Run 初始載入後進入事件迴圈，ctx 結束才返回
// 初始載入失敗直接回傳錯誤，不自動重試
func (u *AdminSyncUseCase) Run(ctx context.Context) error {
	records, err := u.api.ListConversations(ctx, u.pageLimit)
	if err != nil {
		return err
	}
	u.list.Load(records)
	u.notify(Update{Kind: UpdateList})

	// 預設選第一筆
	if u.list.ActiveID() == "" && u.list.Len() > 0 {
		u.selectConversation(ctx, u.list.Snapshot()[0].ID)
	}

	u.feed.Start(ctx)
	defer u.feed.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-u.actions:
			fn()
		case ev := <-u.feed.Events():
			u.handleSocketEvent(ctx, ev)
		}
	}
}

// Select 操作指令：切換 active conversation
func (u *AdminSyncUseCase) Select(ctx context.Context, convID string) {
	u.do(func() { u.selectConversation(ctx, convID) })
}

// Send 操作指令：送出訊息到 active conversation
func (u *AdminSyncUseCase) Send(ctx context.Context, text string) {
	u.do(func() { u.send(ctx, text) })
}

// Resolve 操作指令：標記 conversation 已解決
func (u *AdminSyncUseCase) Resolve(ctx context.Context, convID string) {
	u.do(func() {
		if !u.list.Resolve(convID) {
			return
		}
		u.notify(Update{Kind: UpdateList})
		go func() {
			if err := u.api.UpdateStatus(ctx, convID, string(domain.StatusResolved)); err != nil {
				logger.Log.Errorf("update status err:", err)
			}
		}()
	})
}

// Snapshot 同步取得目前狀態，需在 Run 啟動後呼叫
func (u *AdminSyncUseCase) Snapshot() Snapshot {
	reply := make(chan Snapshot, 1)
	u.do(func() {
		reply <- Snapshot{
			Conversations: u.list.Snapshot(),
			ActiveID:      u.list.ActiveID(),
			Messages:      u.thread.Messages(),
			ThreadLoading: u.thread.IsLoading(),
			Connected:     u.connected,
		}
	})
	return <-reply
}

// Filter 搜尋 view，不改動列表本身
func (u *AdminSyncUseCase) Filter(query string) []domain.ConversationSummary {
	reply := make(chan []domain.ConversationSummary, 1)
	u.do(func() { reply <- u.list.Filter(query) })
	return <-reply
}

// do 把變動丟進事件迴圈
func (u *AdminSyncUseCase) do(fn func()) {
	u.actions <- fn
}

func (u *AdminSyncUseCase) selectConversation(ctx context.Context, convID string) {
	if !u.list.Select(convID) {
		return
	}
	u.notify(Update{Kind: UpdateList})

	seq := u.thread.BeginLoad(convID)
	u.notify(Update{Kind: UpdateThread, ConversationID: convID})
	go u.loadThread(ctx, convID, seq)
}

// loadThread REST 抓整個 thread，結果送回迴圈套用
// seq 擋掉使用者已經切到別的 conversation 的過期結果
func (u *AdminSyncUseCase) loadThread(ctx context.Context, convID string, seq int) {
	records, err := u.api.GetMessages(ctx, convID)
	u.do(func() {
		if err != nil {
			if u.thread.FailLoad(seq) {
				logger.Log.Errorf("load thread err:", err, zap.String("conversationID", convID))
				u.notify(Update{Kind: UpdateThread, ConversationID: convID, Err: err})
			}
			return
		}
		if !u.thread.CompleteLoad(seq, records) {
			return
		}
		u.notify(Update{Kind: UpdateThread, ConversationID: convID})

		// 已讀回報 fire-and-forget，失敗只記 log
		go func() {
			if err := u.api.MarkRead(ctx, convID); err != nil {
				logger.Log.Errorf("mark read err:", err)
			}
		}()
	})
}

func (u *AdminSyncUseCase) send(ctx context.Context, text string) {
	convID := u.list.ActiveID()
	if convID == "" || text == "" {
		return
	}

	msg := u.thread.AppendOptimistic(text)
	u.notify(Update{Kind: UpdateThread, ConversationID: convID})
	go u.sendMessage(ctx, convID, msg)
}

func (u *AdminSyncUseCase) sendMessage(ctx context.Context, convID string, msg domain.Message) {
	res, err := u.api.SendMessage(ctx, repository.SendMessageRequest{
		ConversationID: convID,
		Text:           msg.Text,
		SenderID:       u.adminID,
		SenderType:     string(domain.SenderAdmin),
		MessageType:    "text",
		TempID:         msg.ID,
	})
	u.do(func() {
		if err != nil {
			// 回滾樂觀項並讓操作端知道
			if u.thread.ConversationID() == convID {
				u.thread.FailSend(msg.ID)
			}
			logger.Log.Errorf("send message err:", err, zap.String("conversationID", convID))
			u.notify(Update{Kind: UpdateSendFailed, ConversationID: convID, Err: err})
			return
		}

		if u.thread.ConversationID() == convID {
			if u.thread.ResolveSend(msg.ID, res.ID, domain.MessageStatus(res.Status)) {
				u.notify(Update{Kind: UpdateThread, ConversationID: convID})
			}
		}
		// 自己的回覆也要更新列表摘要與排序
		u.list.ApplyReceiveMessage(domain.ReceiveMessageEvent{
			ConversationID: convID,
			ID:             res.ID,
			SenderType:     string(domain.SenderAdmin),
			MessageText:    msg.Text,
			CreatedAt:      res.CreatedAt,
		})
		u.notify(Update{Kind: UpdateList})
	})
}

func (u *AdminSyncUseCase) handleSocketEvent(ctx context.Context, ev SocketEvent) {
	switch ev.Kind {
	case SocketConnected:
		u.connected = true
		u.notify(Update{Kind: UpdateConnectivity, Connected: true})
		// 斷線期間可能漏事件，重抓一次列表
		u.refreshList(ctx)
	case SocketDisconnected:
		u.connected = false
		u.notify(Update{Kind: UpdateConnectivity, Connected: false})
	case SocketEnvelope:
		u.handleEnvelope(ctx, ev.Envelope)
	}
}

func (u *AdminSyncUseCase) handleEnvelope(ctx context.Context, env domain.EventEnvelope) {
	switch env.Event {
	case domain.EventReceiveMessage:
		var e domain.ReceiveMessageEvent
		if err := json.Unmarshal(env.Data, &e); err != nil {
			logger.Log.Errorf("receive_message payload err:", err)
			return
		}
		if u.list.ApplyReceiveMessage(e) {
			u.notify(Update{Kind: UpdateList})
		} else {
			// 本 session 沒看過的 conversation，整頁重抓而不是拼湊半筆
			u.refreshList(ctx)
		}
		if e.ConversationID == u.list.ActiveID() {
			if u.thread.ApplyReceiveMessage(e) {
				u.notify(Update{Kind: UpdateThread, ConversationID: e.ConversationID})
			}
		}

	case domain.EventMessagesRead:
		var e domain.MessagesReadEvent
		if err := json.Unmarshal(env.Data, &e); err != nil {
			logger.Log.Errorf("messages_read payload err:", err)
			return
		}
		// 別的 admin session 讀過的也要歸零
		u.list.ApplyMessagesRead(e.ConversationID)
		u.notify(Update{Kind: UpdateList})
		if e.ConversationID == u.list.ActiveID() {
			u.thread.MarkAllRead()
			u.notify(Update{Kind: UpdateThread, ConversationID: e.ConversationID})
		}

	case domain.EventUserStatus:
		var e domain.UserStatusEvent
		if err := json.Unmarshal(env.Data, &e); err != nil {
			logger.Log.Errorf("user_status payload err:", err)
			return
		}
		u.list.ApplyUserStatus(e.ConversationID, e.Status == "online")
		u.notify(Update{Kind: UpdateList})

	default:
		// 未認識的事件略過，保持向前相容
	}
}

// refreshList 整頁重抓；同時間只跑一個
func (u *AdminSyncUseCase) refreshList(ctx context.Context) {
	if u.refreshing {
		return
	}
	u.refreshing = true
	go func() {
		records, err := u.api.ListConversations(ctx, u.pageLimit)
		u.do(func() {
			u.refreshing = false
			if err != nil {
				logger.Log.Errorf("refresh conversations err:", err)
				return
			}
			u.list.Refresh(records)
			u.notify(Update{Kind: UpdateList})
		})
	}()
}

// notify non-blocking：updates 滿了就丟，只影響重繪
func (u *AdminSyncUseCase) notify(up Update) {
	select {
	case u.updates <- up:
	default:
	}
}
