package brain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"nuncle.ai/internal/command"
	"nuncle.ai/internal/protocol"
	"nuncle.ai/internal/sim/agent"
	"nuncle.ai/internal/sim/host"
)

var ErrNotConnected = errors.New("not connected")

type RemoteConfig struct {
	WorldWSURL string
	// Name is the player the remote joins as. Token must be the operator
	// token for anything but nunclewhere to succeed.
	Name   string
	Token  string
	Logger *log.Logger
}

// Remote is an Executor that runs commands on a server over its websocket
// protocol. It reconnects with backoff until Close.
type Remote struct {
	cfg RemoteConfig
	log *log.Logger

	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
	started atomic.Bool

	writeMu sync.Mutex

	mu      sync.Mutex
	conn    *websocket.Conn
	welcome *protocol.WelcomeMsg
	lastErr string
	seq     uint64
	pending map[string]chan protocol.ResultMsg
}

var _ Executor = (*Remote)(nil)

func NewRemote(cfg RemoteConfig) *Remote {
	if cfg.Name == "" {
		cfg.Name = "brain"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Remote{
		cfg:     cfg,
		log:     logger,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		pending: map[string]chan protocol.ResultMsg{},
	}
}

func (r *Remote) Start() {
	if r.started.CompareAndSwap(false, true) {
		go r.run()
	}
}

func (r *Remote) Close() {
	r.once.Do(func() {
		close(r.stop)
		r.mu.Lock()
		if r.conn != nil {
			_ = r.conn.Close()
		}
		r.mu.Unlock()
	})
	if r.started.Load() {
		<-r.done
	}
}

// Connected reports whether a WELCOME has been received on the current
// connection, and the last connection error otherwise.
func (r *Remote) Connected() (bool, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.welcome != nil, r.lastErr
}

// Exec sends line as a COMMAND and waits for its RESULT. The sender is
// always the remote's own player; s is ignored.
func (r *Remote) Exec(ctx context.Context, _ command.Sender, line string) (host.Result, error) {
	r.mu.Lock()
	conn := r.conn
	if conn == nil || r.welcome == nil {
		r.mu.Unlock()
		return host.Result{}, ErrNotConnected
	}
	r.seq++
	id := "B_" + strconv.FormatUint(r.seq, 10)
	ch := make(chan protocol.ResultMsg, 1)
	r.pending[id] = ch
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		delete(r.pending, id)
		r.mu.Unlock()
	}()

	b, _ := json.Marshal(protocol.CommandMsg{
		Type:            protocol.TypeCommand,
		ProtocolVersion: protocol.Version,
		ID:              id,
		Line:            line,
	})
	r.writeMu.Lock()
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	err := conn.WriteMessage(websocket.TextMessage, b)
	r.writeMu.Unlock()
	if err != nil {
		return host.Result{}, err
	}

	select {
	case res, ok := <-ch:
		if !ok {
			return host.Result{}, ErrNotConnected
		}
		return host.Result{
			Reply: command.Reply{Code: agent.Code(res.Code), Text: res.Text},
			Tick:  res.Tick,
		}, nil
	case <-ctx.Done():
		return host.Result{}, ctx.Err()
	}
}

func (r *Remote) run() {
	defer close(r.done)

	backoff := 200 * time.Millisecond
	for {
		select {
		case <-r.stop:
			return
		default:
		}

		err := r.connectAndReadLoop()
		r.disconnect(err)
		if err == nil {
			return
		}
		select {
		case <-r.stop:
			return
		case <-time.After(backoff):
		}
		if backoff < 5*time.Second {
			backoff = min(backoff*2, 5*time.Second)
		}
	}
}

// disconnect fails every waiting Exec.
func (r *Remote) disconnect(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conn = nil
	r.welcome = nil
	if err != nil {
		r.lastErr = err.Error()
	}
	for id, ch := range r.pending {
		close(ch)
		delete(r.pending, id)
	}
}

func (r *Remote) connectAndReadLoop() error {
	d := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, resp, err := d.Dial(r.cfg.WorldWSURL, http.Header{})
	if err != nil {
		return err
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteJSON(protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		Name:            r.cfg.Name,
		Token:           r.cfg.Token,
	}); err != nil {
		_ = conn.Close()
		return err
	}

	r.mu.Lock()
	r.conn = conn
	r.mu.Unlock()

	for {
		select {
		case <-r.stop:
			_ = conn.Close()
			return nil
		default:
		}

		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			_ = conn.Close()
			select {
			case <-r.stop:
				return nil
			default:
			}
			return err
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
			r.mu.Lock()
			r.welcome = &w
			r.lastErr = ""
			r.mu.Unlock()
			r.log.Printf("connected player_id=%s agent=%s operator=%v", w.PlayerID, w.Agent, w.Operator)
		case protocol.TypeResult:
			var res protocol.ResultMsg
			if err := json.Unmarshal(msg, &res); err != nil {
				continue
			}
			r.mu.Lock()
			ch := r.pending[res.ID]
			delete(r.pending, res.ID)
			r.mu.Unlock()
			if ch != nil {
				ch <- res
			}
		case protocol.TypeError:
			var e protocol.ErrorMsg
			if err := json.Unmarshal(msg, &e); err != nil {
				continue
			}
			r.log.Printf("server error %s: %s", e.Code, e.Message)
			if e.Code == protocol.ErrNameTaken {
				_ = conn.Close()
				return fmt.Errorf("%s: %s", e.Code, e.Message)
			}
		}
	}
}
