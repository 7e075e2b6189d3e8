package app

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"support_chat_service/internal/chat/domain"
	"support_chat_service/internal/chat/repository"
	"support_chat_service/pkg/logger"
	"support_chat_service/pkg/middlewares"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

const pingInterval = 5 * time.Minute

// ChatWebsocketHandler 可包含所有需要的 UseCase
type ChatWebsocketHandler struct {
	convUC      *ConversationUseCase
	messageUC   *SendMessageUseCase
	presence    repository.PresenceRepository
	pubSub      repository.EventPubSub
	presenceTTL time.Duration
}

// NewChatWebsocketHandler create ChatWebsocketHandler
func NewChatWebsocketHandler(
	convUC *ConversationUseCase,
	messageUC *SendMessageUseCase,
	presence repository.PresenceRepository,
	pubSub repository.EventPubSub,
	presenceTTL time.Duration,
) *ChatWebsocketHandler {
	if presenceTTL <= 0 {
		presenceTTL = 2 * time.Minute
	}
	return &ChatWebsocketHandler{
		convUC:      convUC,
		messageUC:   messageUC,
		presence:    presence,
		pubSub:      pubSub,
		presenceTTL: presenceTTL,
	}
}

// wsConn 單一 socket 的寫入鎖
// pubsub goroutine 與 ping goroutine 會同時寫，gofiber conn 不允許並發寫
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (w *wsConn) writeJSON(v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteMessage(websocket.TextMessage, b)
}

func (w *wsConn) ping() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteMessage(websocket.PingMessage, []byte("ping"))
}

// HandleAdminConnection admin event feed 的進入點
// server 推送 envelope，讀取端只處理 close
func (h *ChatWebsocketHandler) HandleAdminConnection(ctx context.Context, conn *websocket.Conn) {
	tokenMember := conn.Locals(middlewares.TokenMemberID)
	adminID, _ := tokenMember.(string)
	logger.Log.Info("admin websocket connected", zap.String("adminID", adminID))

	ticker := time.NewTicker(pingInterval)
	ctxClose, cancel := context.WithCancel(context.Background())
	wc := &wsConn{conn: conn}

	defer func() {
		ticker.Stop()
		logger.Log.Info("admin websocket close", zap.String("adminID", adminID))
		conn.Close()
		cancel()
	}()

	//client發出close
	//fiber會自動處理(在read msg 回傳err),故需要SetCloseHandler另外接出
	conn.SetCloseHandler(func(code int, text string) error {
		logger.Log.Infof("WebSocket closed:", conn.RemoteAddr())
		return nil
	})

	//server發出ping之後client連線正常會回pong
	conn.SetPongHandler(func(appData string) error {
		return nil
	})

	// 訂閱 admin feed
	h.pubSub.Subscribe(ctxClose, repository.AdminChannel, func(env domain.Envelope) {
		if err := wc.writeJSON(env); err != nil {
			logger.Log.Errorf("admin feed write err:", err)
		}
	})

	// 定期發送 Ping
	go func() {
		for {
			select {
			case <-ticker.C:
				if err := wc.ping(); err != nil {
					logger.Log.Errorf("Ping error:", err)
					return
				}
			case <-ctxClose.Done():
				return
			}
		}
	}()

	for {
		// admin feed 為單向推送，讀取只為偵測斷線
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Log.Infof("Connection closed:", err)
			} else {
				logger.Log.Errorf("websocket read error:", err)
			}
			return
		}
	}
}

// HandleUserConnection 使用者端 socket 的進入點
// 接入即建立/找回 conversation，進出線驅動 presence 事件
func (h *ChatWebsocketHandler) HandleUserConnection(ctx context.Context, conn *websocket.Conn) {
	convID := conn.Params("conversationID")
	name := conn.Query("name")
	email := conn.Query("email")

	conv, err := h.convUC.EnsureConversation(ctx, convID, name, email)
	if err != nil {
		logger.Log.Errorf("ensure conversation err:", err)
		conn.Close()
		return
	}
	convID = conv.ID
	logger.Log.Info("user websocket connected", zap.String("conversationID", convID))

	ticker := time.NewTicker(h.presenceTTL / 2)
	ctxClose, cancel := context.WithCancel(context.Background())
	wc := &wsConn{conn: conn}

	h.setPresence(convID, true)

	defer func() {
		ticker.Stop()
		h.setPresence(convID, false)
		logger.Log.Info("user websocket close", zap.String("conversationID", convID))
		conn.Close()
		cancel()
	}()

	conn.SetCloseHandler(func(code int, text string) error {
		logger.Log.Infof("WebSocket closed:", conn.RemoteAddr())
		return nil
	})
	conn.SetPongHandler(func(appData string) error {
		return nil
	})

	// 訂閱自己 conversation 的事件 (admin 回覆、已讀)
	h.pubSub.Subscribe(ctxClose, repository.ConversationChannel(convID), func(env domain.Envelope) {
		if err := wc.writeJSON(env); err != nil {
			logger.Log.Errorf("user feed write err:", err)
		}
	})

	// 定期刷新 presence TTL 並發送 Ping
	go func() {
		for {
			select {
			case <-ticker.C:
				if h.presence != nil {
					if err := h.presence.SetOnline(context.Background(), convID, h.presenceTTL); err != nil {
						logger.Log.Errorf("presence refresh err:", err)
					}
				}
				if err := wc.ping(); err != nil {
					return
				}
			case <-ctxClose.Done():
				return
			}
		}
	}()

	for {
		mt, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Log.Infof("Connection closed:", err)
			} else {
				logger.Log.Errorf("websocket read error:", err)
			}
			return
		}
		if mt != websocket.TextMessage {
			continue
		}
		h.execUserMessage(ctx, convID, message)
	}
}

// execUserMessage 使用者傳入訊息 → 落地並 fanout
func (h *ChatWebsocketHandler) execUserMessage(ctx context.Context, convID string, msg []byte) {
	var req domain.WSUserRequest
	if err := json.Unmarshal(msg, &req); err != nil {
		logger.Log.Errorf("json unmarshal error:", err)
		return
	}
	if req.MessageText == "" && req.FileURL == "" {
		return
	}

	if _, err := h.messageUC.Execute(ctx, SendCommand{
		ConversationID: convID,
		SenderType:     domain.SenderUser,
		Text:           req.MessageText,
		MessageType:    req.MessageType,
		FileURL:        req.FileURL,
	}); err != nil {
		logger.Log.Errorf("user send err:", err)
	}
}

// setPresence 進出線時更新 presence 並廣播 user_status
func (h *ChatWebsocketHandler) setPresence(convID string, online bool) {
	ctx := context.Background()
	status := "offline"
	if h.presence != nil {
		var err error
		if online {
			err = h.presence.SetOnline(ctx, convID, h.presenceTTL)
			status = "online"
		} else {
			err = h.presence.SetOffline(ctx, convID)
		}
		if err != nil {
			logger.Log.Errorf("presence update err:", err)
		}
	} else if online {
		status = "online"
	}

	env := domain.Envelope{
		Event: string(domain.EventUserStatus),
		Data:  domain.UserStatusPayload{ConversationID: convID, Status: status},
	}
	if err := h.pubSub.Publish(repository.AdminChannel, env); err != nil {
		logger.Log.Errorf("publish user_status err:", err)
	}
}
