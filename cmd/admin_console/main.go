package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"support_chat_service/internal/admin/app"
	"support_chat_service/internal/admin/repository"
	"support_chat_service/pkg/config"
	"support_chat_service/pkg/logger"
	"support_chat_service/pkg/token"
)

// admin console：接上 chat service 的 REST + websocket，
// 把同步後的狀態即時印到 stdout，指令從 stdin 讀
func main() {
	logger.Log = logger.Initialize(config.EnvConfig.AdminConsole, config.EnvConfig.AdminConsoleLogPath)
	cfg := config.LoadConfig[config.AdminConsole](config.EnvConfig.AdminConsole, config.EnvConfig.AdminConsoleYAMLPath)

	// 本地開發直接簽一顆 token (跟 chat service 共用 secret)
	jwt, err := token.GenerateJWT(cfg.AdminID, string(token.RoleAdmin), "admin_console")
	if err != nil {
		log.Fatalf("generate token err: %v", err)
	}

	api := repository.NewAPIClient(cfg.APIBase, repository.Session{Token: jwt, AdminID: cfg.AdminID})
	feed := app.NewConnectionManager(cfg.WSURL, jwt)
	sync := app.NewAdminSyncUseCase(api, feed, cfg.AdminID, cfg.PageLimit)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go printUpdates(ctx, sync)
	go readCommands(ctx, cancel, sync)

	log.Printf("Admin console connected to %s", cfg.APIBase)
	if err := sync.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("sync loop err: %v", err)
	}
}

// printUpdates follow mode：每次變化重印摘要
func printUpdates(ctx context.Context, sync *app.AdminSyncUseCase) {
	for {
		select {
		case <-ctx.Done():
			return
		case up := <-sync.Updates():
			switch up.Kind {
			case app.UpdateList:
				printList(sync.Snapshot())
			case app.UpdateThread:
				printThread(sync.Snapshot())
			case app.UpdateConnectivity:
				if up.Connected {
					fmt.Println("-- connected --")
				} else {
					fmt.Println("-- disconnected, retrying --")
				}
			case app.UpdateSendFailed:
				fmt.Printf("!! send failed: %v\n", up.Err)
			}
		}
	}
}

func printList(snap app.Snapshot) {
	fmt.Println("== conversations ==")
	for i, c := range snap.Conversations {
		marker := "  "
		if c.ID == snap.ActiveID {
			marker = "> "
		}
		online := " "
		if c.IsOnline {
			online = "*"
		}
		fmt.Printf("%s[%d]%s %s (%s) unread:%d %s | %s\n",
			marker, i, online, c.CounterpartName, c.Status, c.UnreadCount, c.CounterpartEmail, c.LastMessageText)
	}
}

func printThread(snap app.Snapshot) {
	if snap.ThreadLoading {
		fmt.Println("-- loading thread --")
		return
	}
	fmt.Printf("== thread %s ==\n", snap.ActiveID)
	for _, m := range snap.Messages {
		tag := string(m.Sender)
		if m.Temp {
			tag += "(sending)"
		} else if m.Status != "" {
			tag += "(" + string(m.Status) + ")"
		}
		fmt.Printf("  %s: %s\n", tag, m.Text)
	}
}

// readCommands stdin 指令：
//
//	select <n>   切換到列表第 n 筆
//	send <text>  送訊息到 active conversation
//	resolve      把 active conversation 標記為已解決
//	filter <q>   搜尋名稱/email
//	quit
func readCommands(ctx context.Context, cancel context.CancelFunc, sync *app.AdminSyncUseCase) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		cmd, arg, _ := strings.Cut(line, " ")
		switch cmd {
		case "select":
			var n int
			if _, err := fmt.Sscanf(arg, "%d", &n); err != nil {
				fmt.Println("usage: select <n>")
				continue
			}
			snap := sync.Snapshot()
			if n < 0 || n >= len(snap.Conversations) {
				fmt.Println("no such conversation")
				continue
			}
			sync.Select(ctx, snap.Conversations[n].ID)
		case "send":
			if arg == "" {
				fmt.Println("usage: send <text>")
				continue
			}
			sync.Send(ctx, arg)
		case "resolve":
			snap := sync.Snapshot()
			if snap.ActiveID == "" {
				fmt.Println("no active conversation")
				continue
			}
			sync.Resolve(ctx, snap.ActiveID)
		case "filter":
			for _, c := range sync.Filter(arg) {
				fmt.Printf("  %s %s (%s)\n", c.ID, c.CounterpartName, c.CounterpartEmail)
			}
		case "quit", "exit":
			cancel()
			return
		case "":
		default:
			fmt.Println("commands: select <n> | send <text> | resolve | filter <q> | quit")
		}
	}
	cancel()
}
