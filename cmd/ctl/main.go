package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"nuncle.ai/internal/config"
	"nuncle.ai/internal/protocol"
)

// ctl joins as a short-lived player, sends one command line and prints the
// RESULT text. Usage: ctl [flags] nuncle goto 10 64 -3
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}
	var (
		url     = flag.String("url", "ws://localhost"+cfg.Addr+"/v1/ws", "ws url")
		name    = flag.String("name", "ctl", "player name to join as")
		token   = flag.String("token", cfg.OperatorToken, "operator token (default $NUNCLE_OPERATOR_TOKEN)")
		timeout = flag.Duration("timeout", 10*time.Second, "how long to wait for the result")
	)
	flag.Parse()

	line := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if line == "" {
		fmt.Fprintln(os.Stderr, "usage: ctl [flags] <command line>")
		os.Exit(2)
	}

	res, err := run(*url, *name, *token, line, *timeout)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ctl:", err)
		os.Exit(1)
	}
	fmt.Println(res.Text)
	if res.Code != "OK" {
		fmt.Fprintf(os.Stderr, "code=%s tick=%d\n", res.Code, res.Tick)
		os.Exit(1)
	}
}

func run(url, name, token, line string, timeout time.Duration) (protocol.ResultMsg, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return protocol.ResultMsg{}, fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(timeout))

	if err := conn.WriteJSON(protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		Name:            name,
		Token:           token,
	}); err != nil {
		return protocol.ResultMsg{}, fmt.Errorf("send HELLO: %w", err)
	}

	const id = "ctl-1"
	sent := false
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return protocol.ResultMsg{}, fmt.Errorf("read: %w", err)
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeWelcome:
			if sent {
				continue
			}
			if err := conn.WriteJSON(protocol.CommandMsg{
				Type:            protocol.TypeCommand,
				ProtocolVersion: protocol.Version,
				ID:              id,
				Line:            line,
			}); err != nil {
				return protocol.ResultMsg{}, fmt.Errorf("send COMMAND: %w", err)
			}
			sent = true
		case protocol.TypeResult:
			var r protocol.ResultMsg
			if err := json.Unmarshal(msg, &r); err != nil {
				return protocol.ResultMsg{}, err
			}
			if r.ID == id {
				return r, nil
			}
		case protocol.TypeError:
			var e protocol.ErrorMsg
			if err := json.Unmarshal(msg, &e); err != nil {
				return protocol.ResultMsg{}, err
			}
			return protocol.ResultMsg{}, fmt.Errorf("%s: %s", e.Code, e.Message)
		}
	}
}
