// Package mcp exposes a single TODO loop as Model Context Protocol tools.
//
// The server owns one session (see package session) for its whole lifetime.
// Each tool call feeds that session one line and returns the chunk it
// produced as text content:
//
//   - todo_add {text}: adds an item
//   - todo_list: re-displays the list
//   - todo_quit: ends the loop; later calls report an error
//
// Which tools are registered is controlled by glob patterns (see Toolset).
package mcp

import (
	"context"
	"fmt"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/m4xw311/todoloop/errors"
	"github.com/m4xw311/todoloop/log"
	"github.com/m4xw311/todoloop/session"
	"github.com/m4xw311/todoloop/todo"
)

// Version is reported in the server implementation info.
var Version = "dev"

// Tool names.
const (
	ToolAdd  = "todo_add"
	ToolList = "todo_list"
	ToolQuit = "todo_quit"
)

// AddArgs are the arguments of todo_add.
type AddArgs struct {
	Text string `json:"text" jsonschema:"the text of the new TODO item"`
}

type noArgs struct{}

// Server is an MCP server bound to one running TODO loop.
type Server struct {
	server  *mcpsdk.Server
	session *session.Session
	tools   []string
}

// NewServer starts a loop and registers the tools matched by patterns.
func NewServer(ctx context.Context, patterns []string, replyTimeout time.Duration) (*Server, error) {
	toolset, err := NewToolset(patterns)
	if err != nil {
		return nil, err
	}

	sess, _, err := session.Start(ctx, "", replyTimeout)
	if err != nil {
		return nil, errors.Wrapf(err, "mcp: start todo loop")
	}

	s := &Server{
		server:  mcpsdk.NewServer(&mcpsdk.Implementation{Name: "todoloop", Version: Version}, nil),
		session: sess,
	}

	if toolset.Enabled(ToolAdd) {
		mcpsdk.AddTool(s.server, &mcpsdk.Tool{
			Name:        ToolAdd,
			Description: "Adds an item to the end of the TODO list and returns the updated list.",
		}, s.handleAdd)
		s.tools = append(s.tools, ToolAdd)
	}
	if toolset.Enabled(ToolList) {
		mcpsdk.AddTool(s.server, &mcpsdk.Tool{
			Name:        ToolList,
			Description: "Returns the current TODO list.",
		}, s.handleList)
		s.tools = append(s.tools, ToolList)
	}
	if toolset.Enabled(ToolQuit) {
		mcpsdk.AddTool(s.server, &mcpsdk.Tool{
			Name:        ToolQuit,
			Description: "Ends the TODO session. No tool works afterwards.",
		}, s.handleQuit)
		s.tools = append(s.tools, ToolQuit)
	}

	log.Info().Strs("tools", s.tools).Str("session", sess.ID).Msg("mcp: server ready")
	return s, nil
}

// Tools lists the registered tool names.
func (s *Server) Tools() []string {
	return append([]string(nil), s.tools...)
}

// Run serves over stdin/stdout until the client disconnects or ctx ends.
func (s *Server) Run(ctx context.Context) error {
	defer s.Close()
	return errors.Wrapf(s.server.Run(ctx, mcpsdk.NewStdioTransport()), "mcp: serve")
}

// Connect serves a single client over t and returns immediately.
func (s *Server) Connect(ctx context.Context, t mcpsdk.Transport) (*mcpsdk.ServerSession, error) {
	ss, err := s.server.Connect(ctx, t)
	if err != nil {
		return nil, errors.Wrapf(err, "mcp: connect")
	}
	return ss, nil
}

// Close stops the loop if it is still running.
func (s *Server) Close() {
	s.session.Close()
}

func (s *Server) handleAdd(ctx context.Context, _ *mcpsdk.ServerSession, params *mcpsdk.CallToolParamsFor[AddArgs]) (*mcpsdk.CallToolResultFor[any], error) {
	text := params.Arguments.Text
	// These lines would not add an item: "" re-displays and "quit" stops.
	if _, ok := todo.Parse(text).(todo.Add); !ok {
		return errorResult("todo_add: %q cannot be added as an item", text), nil
	}
	return s.send(ctx, ToolAdd, text), nil
}

func (s *Server) handleList(ctx context.Context, _ *mcpsdk.ServerSession, _ *mcpsdk.CallToolParamsFor[noArgs]) (*mcpsdk.CallToolResultFor[any], error) {
	return s.send(ctx, ToolList, ""), nil
}

func (s *Server) handleQuit(ctx context.Context, _ *mcpsdk.ServerSession, _ *mcpsdk.CallToolParamsFor[noArgs]) (*mcpsdk.CallToolResultFor[any], error) {
	if s.session.Stopped() {
		return errorResult("todo_quit: the TODO session has already ended"), nil
	}
	bye, err := s.session.Quit(ctx)
	if err != nil {
		return errorResult("todo_quit: %v", err), nil
	}
	log.Info().Str("session", s.session.ID).Msg("mcp: todo loop quit")
	return textResult(bye), nil
}

func (s *Server) send(ctx context.Context, tool, line string) *mcpsdk.CallToolResultFor[any] {
	chunk, err := s.session.Send(ctx, line)
	if errors.Is(err, session.ErrStopped) {
		return errorResult("%s: the TODO session has already ended", tool)
	}
	if err != nil {
		log.Error().Err(err).Str("tool", tool).Msg("mcp: tool call failed")
		return errorResult("%s: %v", tool, err)
	}
	log.Debug().Str("tool", tool).Msg("mcp: tool call")
	return textResult(chunk)
}

func textResult(text string) *mcpsdk.CallToolResultFor[any] {
	return &mcpsdk.CallToolResultFor[any]{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: text}},
	}
}

func errorResult(format string, a ...any) *mcpsdk.CallToolResultFor[any] {
	return &mcpsdk.CallToolResultFor[any]{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: fmt.Sprintf(format, a...)}},
		IsError: true,
	}
}
