// Package discord mirrors host broadcasts into a Discord channel.
package discord

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"

	"nuncle.ai/internal/sim/agent"
	"nuncle.ai/internal/sim/host"
)

// Discord rejects messages longer than this.
const maxMessageLen = 2000

const defaultQueue = 256

// Poster sends one message to a channel.
type Poster interface {
	Post(channelID, content string) error
}

type sessionPoster struct{ s *discordgo.Session }

func (p sessionPoster) Post(channelID, content string) error {
	_, err := p.s.ChannelMessageSend(channelID, content)
	return err
}

// Relay queues broadcasts and posts them from its own goroutine. A full
// queue drops the message instead of blocking the host loop.
type Relay struct {
	post    Poster
	channel string
	log     *log.Logger

	queue chan string
	done  chan struct{}

	closeOnce sync.Once
	closeFn   func() error

	dropped atomic.Uint64
	failed  atomic.Uint64
}

func New(p Poster, channelID string, logger *log.Logger) *Relay {
	if logger == nil {
		logger = log.Default()
	}
	return &Relay{
		post:    p,
		channel: channelID,
		log:     logger,
		queue:   make(chan string, defaultQueue),
		done:    make(chan struct{}),
	}
}

// Open connects a bot session and returns a relay posting through it.
func Open(token, channelID string, logger *log.Logger) (*Relay, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord: create session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuildMessages
	if err := s.Open(); err != nil {
		return nil, fmt.Errorf("discord: open session: %w", err)
	}
	r := New(sessionPoster{s: s}, channelID, logger)
	r.closeFn = s.Close
	return r, nil
}

// Enqueue formats b and queues it. Safe to call from any goroutine.
func (r *Relay) Enqueue(b host.Broadcast) {
	msg := Format(b)
	if msg == "" {
		return
	}
	select {
	case <-r.done:
		return
	default:
	}
	select {
	case r.queue <- msg:
	default:
		r.dropped.Add(1)
	}
}

// Run posts queued messages until ctx is done or the relay is closed.
func (r *Relay) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-r.done:
			return nil
		case msg := <-r.queue:
			if err := r.post.Post(r.channel, msg); err != nil {
				r.failed.Add(1)
				r.log.Printf("discord post: %v", err)
			}
		}
	}
}

// Stats returns dropped (queue full) and failed (post error) counts.
func (r *Relay) Stats() (dropped, failed uint64) {
	return r.dropped.Load(), r.failed.Load()
}

func (r *Relay) Close() error {
	var err error
	r.closeOnce.Do(func() {
		close(r.done)
		if r.closeFn != nil {
			err = r.closeFn()
		}
	})
	return err
}

// Format renders a broadcast as a Discord message. Empty text yields "".
func Format(b host.Broadcast) string {
	if b.Text == "" {
		return ""
	}
	var s string
	switch b.Kind {
	case agent.MessageAnnounce:
		s = "**" + b.Text + "**"
	case agent.MessageJoin, agent.MessageLeave:
		s = "**" + b.From + "**" + strings.TrimPrefix(b.Text, b.From)
	default:
		s = "<" + b.From + "> " + b.Text
	}
	if len(s) > maxMessageLen {
		n := maxMessageLen - 3
		for n > 0 && !utf8.RuneStart(s[n]) {
			n--
		}
		s = s[:n] + "..."
	}
	return s
}
