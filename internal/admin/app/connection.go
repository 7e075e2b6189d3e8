package app

import (
	"context"
	"encoding/json"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"support_chat_service/internal/admin/domain"
	"support_chat_service/pkg/logger"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// SocketEventKind 分流後的事件種類
type SocketEventKind int

const (
	// SocketConnected 連線建立
	SocketConnected SocketEventKind = iota
	// SocketDisconnected 連線中斷
	SocketDisconnected
	// SocketEnvelope 收到一個 event frame
	SocketEnvelope
)

// SocketEvent 推給 sync loop 的事件
type SocketEvent struct {
	Kind     SocketEventKind
	Envelope domain.EventEnvelope
}

// ConnectionManager 整個 admin session 只有一條 socket
// 斷線後指數退避重連；Close 後整個 manager 結束
type ConnectionManager struct {
	wsURL string
	token string

	dialer *websocket.Dialer
	events chan SocketEvent

	mu        sync.Mutex
	conn      *websocket.Conn
	cancel    context.CancelFunc
	connected atomic.Bool
}

// NewConnectionManager create ConnectionManager
func NewConnectionManager(wsURL, token string) *ConnectionManager {
	return &ConnectionManager{
		wsURL:  wsURL,
		token:  token,
		dialer: websocket.DefaultDialer,
		events: make(chan SocketEvent, 64),
	}
}

// Events socket 事件輸出，由 sync loop 消費
func (m *ConnectionManager) Events() <-chan SocketEvent {
	return m.events
}

// IsConnected connectivity snapshot
func (m *ConnectionManager) IsConnected() bool {
	return m.connected.Load()
}

// Start 開始連線。先關掉既有連線，防止快速重啟造成重複 socket
func (m *ConnectionManager) Start(ctx context.Context) {
	m.Close()

	runCtx, cancel := context.WithCancel(ctx)
	m.mu.Lock()
	m.cancel = cancel
	m.mu.Unlock()

	go m.run(runCtx)
}

// Close 冪等：中斷重連迴圈並關閉連線
func (m *ConnectionManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	if m.conn != nil {
		m.conn.Close()
		m.conn = nil
	}
	m.connected.Store(false)
}

func (m *ConnectionManager) run(ctx context.Context) {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 0 // 不放棄重連

	for {
		if ctx.Err() != nil {
			return
		}

		conn, _, err := m.dialer.DialContext(ctx, m.dialURL(), nil)
		if err != nil {
			logger.Log.Errorf("websocket dial err:", err, zap.String("url", m.wsURL))
			if !m.waitRetry(ctx, bo.NextBackOff()) {
				return
			}
			continue
		}

		bo.Reset()
		m.mu.Lock()
		m.conn = conn
		m.mu.Unlock()
		m.connected.Store(true)
		m.emit(SocketEvent{Kind: SocketConnected})
		logger.Log.Info("websocket connected", zap.String("url", m.wsURL))

		m.readLoop(ctx, conn)

		m.connected.Store(false)
		m.emit(SocketEvent{Kind: SocketDisconnected})
		conn.Close()

		if ctx.Err() != nil {
			return
		}
		if !m.waitRetry(ctx, bo.NextBackOff()) {
			return
		}
	}
}

// readLoop 逐 frame 解析 envelope；壞 frame 記 log 後丟棄，連線不中斷
func (m *ConnectionManager) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				logger.Log.Errorf("websocket read err:", err)
			}
			return
		}

		var env domain.EventEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			logger.Log.Errorf("malformed frame dropped:", err)
			continue
		}
		if env.Event == "" {
			logger.Log.Warn("frame without event name dropped")
			continue
		}
		m.emit(SocketEvent{Kind: SocketEnvelope, Envelope: env})
	}
}

// emit non-blocking：消費端塞住時丟棄並記 log，不能卡死 read loop
func (m *ConnectionManager) emit(ev SocketEvent) {
	select {
	case m.events <- ev:
	default:
		logger.Log.Warn("socket event dropped, consumer too slow",
			zap.String("event", ev.Envelope.Event))
	}
}

func (m *ConnectionManager) waitRetry(ctx context.Context, wait time.Duration) bool {
	select {
	case <-time.After(wait):
		return true
	case <-ctx.Done():
		return false
	}
}

// dialURL token 用 query 帶上 (websocket upgrade 無法帶 header)；沒有 token 就不帶
func (m *ConnectionManager) dialURL() string {
	if m.token == "" {
		return m.wsURL
	}
	u, err := url.Parse(m.wsURL)
	if err != nil {
		return m.wsURL
	}
	q := u.Query()
	q.Set("auth", m.token)
	u.RawQuery = q.Encode()
	return u.String()
}
