// Package brain exposes the agent to an LLM as MCP tools. Every tool turns
// into a command line executed through the host as an operator.
package brain

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"nuncle.ai/internal/command"
	"nuncle.ai/internal/sim/host"
)

const (
	serverName    = "nuncle"
	serverVersion = "1.0.0"
)

// Sender is who brain commands are attributed to in the audit log.
var Sender = command.Sender{Name: "brain", Level: command.OperatorLevel}

// Executor runs one command line. *host.Host implements it.
type Executor interface {
	Exec(ctx context.Context, s command.Sender, line string) (host.Result, error)
}

type CommandInput struct {
	Line string `json:"line" jsonschema:"command line, for example 'nuncle goto 10 64 -3' or 'wander'"`
}

type GoToInput struct {
	X float64 `json:"x" jsonschema:"block x"`
	Y float64 `json:"y" jsonschema:"block y"`
	Z float64 `json:"z" jsonschema:"block z"`
}

type SayInput struct {
	Text string `json:"text" jsonschema:"chat message to broadcast"`
}

type ObserveInput struct {
	Inventory bool `json:"inventory,omitempty" jsonschema:"list the full inventory instead of the surroundings"`
}

type EmptyInput struct{}

// Output is the result of any brain tool.
type Output struct {
	Code string `json:"code" jsonschema:"OK or an E_ error code"`
	Text string `json:"text" jsonschema:"human readable result"`
	Tick uint64 `json:"tick" jsonschema:"host tick the command was applied on"`
}

// Brain builds MCP servers bound to one executor.
type Brain struct {
	exec Executor
	log  *log.Logger
}

func New(exec Executor, logger *log.Logger) *Brain {
	if logger == nil {
		logger = log.Default()
	}
	return &Brain{exec: exec, log: logger}
}

// Server returns an MCP server with every tool registered.
func (b *Brain) Server() *mcp.Server {
	srv := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "nuncle_command",
		Description: "Runs a raw nuncle command line. The 'nuncle' prefix is optional.",
	}, b.handleCommand)
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "nuncle_observe",
		Description: "Describes the agent's surroundings: nearby players, mobs, items, blocks, time and weather.",
	}, b.handleObserve)
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "nuncle_status",
		Description: "Reports health, position, mode and boundary of the agent.",
	}, b.handleStatus)
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "nuncle_goto",
		Description: "Walks the agent to a block position.",
	}, b.handleGoTo)
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "nuncle_say",
		Description: "Says something in chat as the agent.",
	}, b.handleSay)
	return srv
}

// Handler serves the tools over streamable HTTP.
func (b *Brain) Handler() http.Handler {
	srv := b.Server()
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return srv }, nil)
}

func (b *Brain) run(ctx context.Context, line string) (*mcp.CallToolResult, Output, error) {
	res, err := b.exec.Exec(ctx, Sender, line)
	if err != nil {
		return nil, Output{}, fmt.Errorf("exec %q: %w", line, err)
	}
	out := Output{Code: string(res.Code), Text: res.Text, Tick: res.Tick}
	if !res.OK() {
		b.log.Printf("tool line=%q code=%s", line, res.Code)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: res.Text}},
	}, out, nil
}

// normalize adds the nuncle root to bare subcommands.
func normalize(line string) string {
	line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "/"))
	root, _, _ := strings.Cut(line, " ")
	if root == "nuncle" || root == "nunclewhere" {
		return line
	}
	return strings.TrimSpace("nuncle " + line)
}

func (b *Brain) handleCommand(ctx context.Context, _ *mcp.CallToolRequest, in CommandInput) (*mcp.CallToolResult, Output, error) {
	if strings.TrimSpace(in.Line) == "" {
		return nil, Output{}, fmt.Errorf("line is required")
	}
	return b.run(ctx, normalize(in.Line))
}

func (b *Brain) handleObserve(ctx context.Context, _ *mcp.CallToolRequest, in ObserveInput) (*mcp.CallToolResult, Output, error) {
	if in.Inventory {
		return b.run(ctx, "nuncle observe inventory")
	}
	return b.run(ctx, "nuncle observe")
}

func (b *Brain) handleStatus(ctx context.Context, _ *mcp.CallToolRequest, _ EmptyInput) (*mcp.CallToolResult, Output, error) {
	return b.run(ctx, "nuncle status")
}

func (b *Brain) handleGoTo(ctx context.Context, _ *mcp.CallToolRequest, in GoToInput) (*mcp.CallToolResult, Output, error) {
	return b.run(ctx, "nuncle goto "+num(in.X)+" "+num(in.Y)+" "+num(in.Z))
}

func (b *Brain) handleSay(ctx context.Context, _ *mcp.CallToolRequest, in SayInput) (*mcp.CallToolResult, Output, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, Output{}, fmt.Errorf("text is required")
	}
	return b.run(ctx, "nuncle chat "+text)
}

func num(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
