package ws

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"nuncle.ai/internal/command"
	"nuncle.ai/internal/protocol"
	"nuncle.ai/internal/sim/agent"
	"nuncle.ai/internal/sim/geom"
	"nuncle.ai/internal/sim/host"
	"nuncle.ai/internal/sim/worldsim"
)

// Host is the part of *host.Host the server needs.
type Host interface {
	AgentName() string
	TickRateHz() int
	Tick() uint64
	Join(ctx context.Context, name string, pos *geom.Vec3) (agent.EntityRef, error)
	Leave(ctx context.Context, name string) error
	Move(ctx context.Context, name string, to geom.Vec3) error
	Chat(ctx context.Context, from, text string) error
	Exec(ctx context.Context, s command.Sender, line string) (host.Result, error)
	OnBroadcast(fn func(host.Broadcast)) (cancel func())
}

type Options struct {
	// OperatorToken grants operator level to clients that present it in
	// HELLO. Empty means nobody connecting over the socket is an operator.
	OperatorToken string
	Logger        *log.Logger
	// OutQueue bounds each connection's outgoing buffer.
	OutQueue int
}

type Server struct {
	host     Host
	log      *log.Logger
	opToken  string
	outQueue int

	upgrader websocket.Upgrader
}

func NewServer(h Host, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	q := opts.OutQueue
	if q <= 0 {
		q = 64
	}
	return &Server{
		host:     h,
		log:      logger,
		opToken:  opts.OperatorToken,
		outQueue: q,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

type session struct {
	sender command.Sender
	out    chan []byte
	unsub  func()
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		sess, ok := s.handshake(ctx, conn)
		if !ok {
			return
		}

		defer sess.unsub()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b := <-sess.out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			s.dispatch(ctx, sess, msg)
		}

		// Cleanup. The request context is gone by now.
		leaveCtx, leaveCancel := context.WithTimeout(context.Background(), time.Second)
		defer leaveCancel()
		if err := s.host.Leave(leaveCtx, sess.sender.Name); err != nil {
			s.log.Printf("leave %s: %v", sess.sender.Name, err)
		}
	}
}

func (s *Server) dispatch(ctx context.Context, sess *session, msg []byte) {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		s.reject(ctx, sess, "malformed json")
		return
	}
	if base.ProtocolVersion != protocol.Version {
		s.reject(ctx, sess, "bad protocol_version")
		return
	}
	switch base.Type {
	case protocol.TypeCommand, protocol.TypeChat, protocol.TypeMove:
	default:
		s.reject(ctx, sess, "unexpected message type "+base.Type)
		return
	}
	if err := protocol.Validate(base.Type, msg); err != nil {
		s.reject(ctx, sess, err.Error())
		return
	}

	switch base.Type {
	case protocol.TypeCommand:
		var cmd protocol.CommandMsg
		if err := json.Unmarshal(msg, &cmd); err != nil {
			s.reject(ctx, sess, err.Error())
			return
		}
		res, err := s.host.Exec(ctx, sess.sender, cmd.Line)
		if err != nil {
			if ctx.Err() == nil {
				s.send(ctx, sess, errorMsg(protocol.ErrBusy, err.Error()))
			}
			return
		}
		s.send(ctx, sess, protocol.ResultMsg{
			Type:            protocol.TypeResult,
			ProtocolVersion: protocol.Version,
			ID:              cmd.ID,
			Code:            string(res.Code),
			Text:            res.Text,
			Tick:            res.Tick,
		})
	case protocol.TypeChat:
		var chat protocol.ChatMsg
		if err := json.Unmarshal(msg, &chat); err != nil {
			s.reject(ctx, sess, err.Error())
			return
		}
		if err := s.host.Chat(ctx, sess.sender.Name, chat.Text); err != nil && ctx.Err() == nil {
			s.send(ctx, sess, errorMsg(protocol.ErrBusy, err.Error()))
		}
	case protocol.TypeMove:
		var mv protocol.MoveMsg
		if err := json.Unmarshal(msg, &mv); err != nil {
			s.reject(ctx, sess, err.Error())
			return
		}
		to := geom.Vec3{X: mv.Pos[0], Y: mv.Pos[1], Z: mv.Pos[2]}
		if err := s.host.Move(ctx, sess.sender.Name, to); err != nil && ctx.Err() == nil {
			s.send(ctx, sess, errorMsg(protocol.ErrBusy, err.Error()))
		}
	}
}

func (s *Server) handshake(ctx context.Context, conn *websocket.Conn) (*session, bool) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil, false
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		closeWith(conn, "expected HELLO")
		return nil, false
	}
	if base.ProtocolVersion != protocol.Version {
		closeWith(conn, "bad protocol_version")
		return nil, false
	}
	if err := protocol.Validate(protocol.TypeHello, msg); err != nil {
		_ = writeJSON(conn, errorMsg(protocol.ErrProtoBadRequest, err.Error()))
		closeWith(conn, "bad HELLO")
		return nil, false
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		closeWith(conn, "bad HELLO")
		return nil, false
	}
	if strings.EqualFold(hello.Name, s.host.AgentName()) {
		_ = writeJSON(conn, errorMsg(protocol.ErrNameTaken, "name is used by the agent"))
		closeWith(conn, "name taken")
		return nil, false
	}

	var pos *geom.Vec3
	if hello.Pos != nil {
		pos = &geom.Vec3{X: hello.Pos[0], Y: hello.Pos[1], Z: hello.Pos[2]}
	}
	ref, err := s.host.Join(ctx, hello.Name, pos)
	if err != nil {
		code := protocol.ErrInternal
		if errors.Is(err, worldsim.ErrPlayerExists) {
			code = protocol.ErrNameTaken
		}
		_ = writeJSON(conn, errorMsg(code, err.Error()))
		closeWith(conn, "join failed")
		return nil, false
	}

	level := 0
	if s.isOperator(hello.Token) {
		level = command.OperatorLevel
	}
	sess := &session{
		sender: command.Sender{Name: hello.Name, Level: level},
		out:    make(chan []byte, s.outQueue),
	}
	s.log.Printf("hello name=%s operator=%v", hello.Name, level >= command.OperatorLevel)
	// Subscribe before WELCOME so the client never misses a broadcast.
	sess.unsub = s.host.OnBroadcast(func(b host.Broadcast) {
		sendLatest(sess.out, mustJSON(protocol.BroadcastMsg{
			Type:            protocol.TypeBroadcast,
			ProtocolVersion: protocol.Version,
			Kind:            string(b.Kind),
			From:            b.From,
			Text:            b.Text,
			Tick:            b.Tick,
		}))
	})

	if err := writeJSON(conn, protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		PlayerID:        string(ref),
		Name:            hello.Name,
		Operator:        level >= command.OperatorLevel,
		Agent:           s.host.AgentName(),
		TickRateHz:      s.host.TickRateHz(),
		Tick:            s.host.Tick(),
	}); err != nil {
		sess.unsub()
		_ = s.host.Leave(ctx, hello.Name)
		return nil, false
	}
	return sess, true
}

func (s *Server) isOperator(token string) bool {
	if s.opToken == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.opToken)) == 1
}

func (s *Server) reject(ctx context.Context, sess *session, reason string) {
	s.send(ctx, sess, errorMsg(protocol.ErrProtoBadRequest, reason))
}

// send queues a reply. Replies wait for room; broadcasts use sendLatest.
func (s *Server) send(ctx context.Context, sess *session, v any) {
	select {
	case sess.out <- mustJSON(v):
	case <-ctx.Done():
	}
}

func errorMsg(code, message string) protocol.ErrorMsg {
	return protocol.ErrorMsg{
		Type:            protocol.TypeError,
		ProtocolVersion: protocol.Version,
		Code:            code,
		Message:         message,
	}
}

func closeWith(conn *websocket.Conn, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason), time.Now().Add(time.Second))
}

func mustJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}

// sendLatest never blocks: when ch is full the oldest message is dropped.
func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}
