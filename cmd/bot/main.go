package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"

	"nuncle.ai/internal/protocol"
)

// A player bot: walks around near its start point, chats now and then and
// prints every broadcast it hears.
func main() {
	var (
		url      = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name     = flag.String("name", "bot", "player name")
		token    = flag.String("token", "", "operator token (optional)")
		every    = flag.Duration("every", 5*time.Second, "how often to move")
		chatEach = flag.Int("chat_each", 4, "chat every N moves (0 disables)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		Name:            *name,
		Token:           *token,
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	// Reader.
	agentName := make(chan string, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				logger.Printf("read: %v", err)
				return
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil {
				continue
			}
			switch base.Type {
			case protocol.TypeWelcome:
				var w protocol.WelcomeMsg
				if err := json.Unmarshal(msg, &w); err != nil {
					continue
				}
				logger.Printf("WELCOME player_id=%s agent=%s tick_rate=%d operator=%v", w.PlayerID, w.Agent, w.TickRateHz, w.Operator)
				agentName <- w.Agent
			case protocol.TypeBroadcast:
				var b protocol.BroadcastMsg
				if err := json.Unmarshal(msg, &b); err != nil {
					continue
				}
				logger.Printf("%s tick=%d <%s> %s", b.Kind, b.Tick, b.From, b.Text)
			case protocol.TypeError:
				var e protocol.ErrorMsg
				if err := json.Unmarshal(msg, &e); err != nil {
					continue
				}
				logger.Printf("ERROR %s: %s", e.Code, e.Message)
			}
		}
	}()

	var agent string
	select {
	case agent = <-agentName:
	case <-done:
		return
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	pos := [3]float64{0.5, 64, 0.5}
	ticker := time.NewTicker(*every)
	defer ticker.Stop()
	for n := 1; ; n++ {
		select {
		case <-stop:
			return
		case <-done:
			return
		case <-ticker.C:
		}

		pos[0] += float64(r.Intn(15) - 7)
		pos[2] += float64(r.Intn(15) - 7)
		if err := conn.WriteJSON(protocol.MoveMsg{Type: protocol.TypeMove, ProtocolVersion: protocol.Version, Pos: pos}); err != nil {
			logger.Printf("move: %v", err)
			return
		}
		if *chatEach > 0 && n%*chatEach == 0 {
			text := fmt.Sprintf("hey %s, I'm at %.0f %.0f %.0f", agent, pos[0], pos[1], pos[2])
			if err := conn.WriteJSON(protocol.ChatMsg{Type: protocol.TypeChat, ProtocolVersion: protocol.Version, Text: text}); err != nil {
				logger.Printf("chat: %v", err)
				return
			}
		}
	}
}
