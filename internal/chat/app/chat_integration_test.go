package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"testing"
	"time"

	"support_chat_service/internal/chat/domain"
	"support_chat_service/internal/chat/repository"
	"support_chat_service/pkg/database"
	"support_chat_service/pkg/logger"
	"support_chat_service/pkg/middlewares"
	testtool "support_chat_service/pkg/test_tool"
	"support_chat_service/pkg/token"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const testAPIBase = "http://127.0.0.1:8084"

// **測試用的容器**
var mongoContainer testcontainers.Container
var redisContainer testcontainers.Container
var chatApp *fiber.App
var adminToken string

// **TestMain 初始化測試環境**
func TestMain(m *testing.M) {
	ctx := context.Background()
	logger.SetNewNop()
	var err error

	// **啟動 MongoDB**
	mongoContainer, mongoHost, mongoPort, err := testtool.SetupContainer(ctx, testcontainers.ContainerRequest{
		Image:        "mongo:latest",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForListeningPort("27017/tcp"),
	})
	if err != nil {
		log.Fatalf("❌ Failed to start MongoDB container: %v", err)
	}
	fmt.Printf("✅ MongoDB running at %s:%s\n", mongoHost, mongoPort)

	// **啟動 Redis**
	redisContainer, redisHost, redisPort, err := testtool.SetupContainer(ctx, testcontainers.ContainerRequest{
		Image:        "redis:latest",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp"),
	})
	if err != nil {
		log.Fatalf("❌ Failed to start Redis container: %v", err)
	}
	fmt.Printf("✅ Redis running at %s:%s\n", redisHost, redisPort)

	// **初始化 MongoDB**
	mongo, err := database.NewMongoDB(ctx, database.Connection{
		ConnectStr:    fmt.Sprintf("mongodb://%s:%s", mongoHost, mongoPort),
		RetryCount:    5,
		RetryInterval: 5,
	}, "test_support_chat")
	if err != nil {
		log.Fatalf("❌ Failed to connect to MongoDB: %v", err)
	}
	defer mongo.Close(ctx)

	// **初始化 Redis**
	redisClient := redis.NewClient(&redis.Options{
		Addr: fmt.Sprintf("%s:%s", redisHost, redisPort),
		DB:   0,
	})

	// **初始化 Repository**
	convRepo := repository.NewMongoConversationRepository(mongo.Database)
	msgRepo := repository.NewMongoChatMessageRepository(mongo.Database)
	presence := repository.NewRedisPresenceRepository(redisClient)
	pubSub := repository.NewRedisPubSub(redisClient)

	// **初始化 UseCases**
	convUC := NewConversationUseCase(convRepo, msgRepo, presence)
	sendMessageUC := NewSendMessageUseCase(convRepo, msgRepo, pubSub)

	// **啟動 Fiber Server** (路由結構與 internal/chat/router 相同)
	httpHandler := NewChatHTTPHandler(convUC, sendMessageUC)
	wsHandler := NewChatWebsocketHandler(convUC, sendMessageUC, presence, pubSub, time.Minute)

	chatApp = fiber.New()
	api := chatApp.Group("/api", middlewares.JWTMiddleware())
	api.Get("/conversations", httpHandler.ListConversations)
	api.Patch("/conversations/:conversationID/status", httpHandler.UpdateStatus)
	api.Get("/messages/:conversationID/messages", httpHandler.GetMessages)
	api.Post("/messages", httpHandler.SendMessage)
	api.Post("/messages/:conversationID/read", httpHandler.MarkRead)
	chatApp.Get("/ws/chat/admin", middlewares.JWTMiddleware(), websocket.New(func(c *websocket.Conn) {
		wsHandler.HandleAdminConnection(context.Background(), c)
	}))
	chatApp.Get("/ws/chat/user/:conversationID?", websocket.New(func(c *websocket.Conn) {
		wsHandler.HandleUserConnection(context.Background(), c)
	}))

	go func() {
		if err := chatApp.Listen(":8084"); err != nil {
			log.Fatalf("❌ Failed to start chat server: %v", err)
		}
	}()

	adminToken, err = token.GenerateJWT("admin-1", string(token.RoleAdmin), "chat_service_test")
	if err != nil {
		log.Fatalf("generate admin token err: %v", err)
	}

	// **等待 Server 啟動**
	time.Sleep(5 * time.Second)

	// **執行測試**
	code := m.Run()

	// **清理測試環境**
	_ = mongoContainer.Terminate(ctx)
	_ = redisContainer.Terminate(ctx)
	chatApp.Shutdown()

	os.Exit(code)
}

// dialAdminFeed 連上 admin event feed
func dialAdminFeed(t *testing.T) *gws.Conn {
	t.Helper()
	conn, _, err := gws.DefaultDialer.Dial("ws://127.0.0.1:8084/ws/chat/admin?auth="+adminToken, nil)
	assert.NoError(t, err, "admin websocket 連線失敗")
	return conn
}

// dialUserSocket 連上使用者端 socket，回傳 conversation id (從 user_status 事件拿不到，由 admin feed 觀察)
func dialUserSocket(t *testing.T, name, email string) *gws.Conn {
	t.Helper()
	url := fmt.Sprintf("ws://127.0.0.1:8084/ws/chat/user?name=%s&email=%s", name, email)
	conn, _, err := gws.DefaultDialer.Dial(url, nil)
	assert.NoError(t, err, "user websocket 連線失敗")
	return conn
}

// readEvent 讀 feed 直到出現指定事件
func readEvent(t *testing.T, conn *gws.Conn, event string) domain.Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	for {
		var env domain.Envelope
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("等不到 %s 事件: %v", event, err)
		}
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		if env.Event == event {
			return env
		}
	}
}

// waitUserOnline 等到 user_status online 事件，回傳 conversation id
// (前一個測試的 socket 關閉時會先冒出 offline 事件，要跳過)
func waitUserOnline(t *testing.T, adminConn *gws.Conn) string {
	t.Helper()
	for {
		env := readEvent(t, adminConn, string(domain.EventUserStatus))
		var payload domain.UserStatusPayload
		decodeEventData(t, env, &payload)
		if payload.Status == "online" {
			return payload.ConversationID
		}
	}
}

func decodeEventData(t *testing.T, env domain.Envelope, out interface{}) {
	t.Helper()
	data, err := json.Marshal(env.Data)
	assert.NoError(t, err)
	assert.NoError(t, json.Unmarshal(data, out))
}

// apiRequest admin REST 請求
func apiRequest(t *testing.T, method, path string, body interface{}, out interface{}) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		assert.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, testAPIBase+path, reader)
	assert.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	assert.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		assert.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

// ✅ 1️⃣ 使用者接入 → admin feed 收到 user_status online
func TestUserConnectPublishesStatus(t *testing.T) {
	adminConn := dialAdminFeed(t)
	defer adminConn.Close()

	userConn := dialUserSocket(t, "Ali", "ali@example.com")
	defer userConn.Close()

	convID := waitUserOnline(t, adminConn)
	assert.NotEmpty(t, convID)
}

// ✅ 2️⃣ 使用者留言 → admin feed 收到 receive_message，列表未讀 +1
func TestUserMessageReachesAdminFeed(t *testing.T) {
	adminConn := dialAdminFeed(t)
	defer adminConn.Close()

	userConn := dialUserSocket(t, "Fatima", "fatima@example.com")
	defer userConn.Close()

	convID := waitUserOnline(t, adminConn)

	err := userConn.WriteMessage(gws.TextMessage, []byte(`{"message_text":"i have a question"}`))
	assert.NoError(t, err, "user 發送訊息失敗")

	env := readEvent(t, adminConn, string(domain.EventReceiveMessage))
	var mp domain.ReceiveMessagePayload
	decodeEventData(t, env, &mp)
	assert.Equal(t, convID, mp.ConversationID)
	assert.Equal(t, "user", mp.SenderType)
	assert.Equal(t, "i have a question", mp.MessageText)

	// 列表上未讀已累計
	var listResp struct {
		Conversations []domain.ConversationView `json:"conversations"`
	}
	code := apiRequest(t, http.MethodGet, "/api/conversations?limit=50", nil, &listResp)
	assert.Equal(t, http.StatusOK, code)

	found := false
	for _, c := range listResp.Conversations {
		if c.ID == convID {
			found = true
			assert.Equal(t, 1, c.UnreadCount)
			assert.Equal(t, domain.StatusWaiting, c.Status)
			assert.True(t, c.IsOnline)
		}
	}
	assert.True(t, found, "列表找不到 conversation")
}

// ✅ 3️⃣ admin REST 回覆 → 兩端都收到 receive_message，tempId 原樣帶回
func TestAdminReplyFansOut(t *testing.T) {
	adminConn := dialAdminFeed(t)
	defer adminConn.Close()

	userConn := dialUserSocket(t, "Omar", "omar@example.com")
	defer userConn.Close()

	convID := waitUserOnline(t, adminConn)

	var sendResp struct {
		ID        string `json:"id"`
		TempID    string `json:"tempId"`
		CreatedAt int64  `json:"created_at"`
	}
	code := apiRequest(t, http.MethodPost, "/api/messages", map[string]string{
		"conversationId": convID,
		"text":           "how can I help?",
		"senderId":       "admin-1",
		"senderType":     "admin",
		"tempId":         "temp-42",
	}, &sendResp)
	assert.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, sendResp.ID)
	assert.Equal(t, "temp-42", sendResp.TempID)

	// admin feed 的回音帶 tempId，發送端靠它對回樂觀訊息
	env := readEvent(t, adminConn, string(domain.EventReceiveMessage))
	var mp domain.ReceiveMessagePayload
	decodeEventData(t, env, &mp)
	assert.Equal(t, sendResp.ID, mp.ID)
	assert.Equal(t, "temp-42", mp.TempID)
	assert.Equal(t, "admin", mp.SenderType)

	// 使用者端也收到
	userEnv := readEvent(t, userConn, string(domain.EventReceiveMessage))
	var up domain.ReceiveMessagePayload
	decodeEventData(t, userEnv, &up)
	assert.Equal(t, "how can I help?", up.MessageText)
}

// ✅ 4️⃣ 已讀回報 → messages_read 廣播、未讀歸零、thread 訊息轉 read
func TestMarkReadFlow(t *testing.T) {
	adminConn := dialAdminFeed(t)
	defer adminConn.Close()

	userConn := dialUserSocket(t, "Zainab", "zainab@example.com")
	defer userConn.Close()

	convID := waitUserOnline(t, adminConn)

	assert.NoError(t, userConn.WriteMessage(gws.TextMessage, []byte(`{"message_text":"salam"}`)))
	readEvent(t, adminConn, string(domain.EventReceiveMessage))

	var markResp struct {
		Success bool `json:"success"`
	}
	code := apiRequest(t, http.MethodPost, "/api/messages/"+convID+"/read", nil, &markResp)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, markResp.Success)

	env := readEvent(t, adminConn, string(domain.EventMessagesRead))
	var rp domain.MessagesReadPayload
	decodeEventData(t, env, &rp)
	assert.Equal(t, convID, rp.ConversationID)

	// thread 內訊息已是 read
	var threadResp struct {
		Messages []domain.ChatMessage `json:"messages"`
	}
	code = apiRequest(t, http.MethodGet, "/api/messages/"+convID+"/messages", nil, &threadResp)
	assert.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, threadResp.Messages)
	for _, msg := range threadResp.Messages {
		assert.Equal(t, domain.MessageRead, msg.Status)
	}
}

// ✅ 5️⃣ 標記 resolved → 列表反映新狀態
func TestUpdateStatusFlow(t *testing.T) {
	adminConn := dialAdminFeed(t)
	defer adminConn.Close()

	userConn := dialUserSocket(t, "Yusuf", "yusuf@example.com")
	defer userConn.Close()

	convID := waitUserOnline(t, adminConn)

	code := apiRequest(t, http.MethodPatch, "/api/conversations/"+convID+"/status", map[string]string{"status": "resolved"}, nil)
	assert.Equal(t, http.StatusOK, code)

	var listResp struct {
		Conversations []domain.ConversationView `json:"conversations"`
	}
	apiRequest(t, http.MethodGet, "/api/conversations", nil, &listResp)
	for _, c := range listResp.Conversations {
		if c.ID == convID {
			assert.Equal(t, domain.StatusResolved, c.Status)
		}
	}
}

// ✅ 6️⃣ 沒有 token 連 admin feed 會被拒絕
func TestAdminFeedRequiresToken(t *testing.T) {
	_, resp, err := gws.DefaultDialer.Dial("ws://127.0.0.1:8084/ws/chat/admin", nil)
	assert.Error(t, err)
	if resp != nil {
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}
}
