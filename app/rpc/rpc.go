package rpc

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/m4xw311/todoloop/errors"
	"github.com/m4xw311/todoloop/log"
	"github.com/m4xw311/todoloop/session"
	"github.com/m4xw311/todoloop/todo"
)

// ProtocolVersion is reported by initialize.
const ProtocolVersion = 1

// Version is reported as serverInfo.version.
var Version = "dev"

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

const (
	stopReasonEndTurn = "end_turn"
	stopReasonQuit    = "quit"
)

// Run serves requests read from in until end of input, writing responses to
// out. Every session still open at that point is closed.
func Run(ctx context.Context, in io.Reader, out io.Writer, replyTimeout time.Duration) error {
	log.Info().Msg("rpc: starting server")
	server := &rpcServer{
		ctx:          ctx,
		sessions:     make(map[string]*session.Session),
		replyTimeout: replyTimeout,
		reader:       bufio.NewReader(in),
		writer:       bufio.NewWriter(out),
	}
	defer server.closeSessions()

	// Main read loop
	for {
		payload, err := server.readMessage()
		if err == io.EOF {
			log.Info().Msg("rpc: EOF received, exiting")
			return nil
		}
		if err != nil {
			return errors.Wrapf(err, "rpc: read error")
		}
		if len(payload) == 0 {
			continue
		}

		log.Debug().Bytes("payload", payload).Msg("rpc: received")
		var req jsonrpcRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			log.Warn().Err(err).Msg("rpc: parse error")
			if err := server.writeResponseError(nil, codeParseError, "Parse error", nil); err != nil {
				return err
			}
			continue
		}

		if err := server.dispatch(&req); err != nil {
			return err
		}
	}
}

// ---- JSON-RPC types ----

type jsonrpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type jsonrpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *jsonrpcError   `json:"error,omitempty"`
}

type jsonrpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ---- rpcServer ----

type rpcServer struct {
	ctx          context.Context
	sessions     map[string]*session.Session
	sessionsLock sync.Mutex
	replyTimeout time.Duration

	reader    *bufio.Reader
	writer    *bufio.Writer
	writeLock sync.Mutex
}

// readMessage returns the next line without its terminator. A final line with
// no newline is still returned before io.EOF.
func (s *rpcServer) readMessage() ([]byte, error) {
	line, err := s.reader.ReadBytes('\n')
	if err == io.EOF && len(line) > 0 {
		err = nil
	}
	if err != nil {
		return nil, err
	}
	return bytes.TrimSpace(line), nil
}

func (s *rpcServer) dispatch(req *jsonrpcRequest) error {
	log.Debug().Str("method", req.Method).RawJSON("id", rawID(req.ID)).Msg("rpc: dispatching")

	if len(req.ID) == 0 {
		// Notifications get no response.
		log.Debug().Str("method", req.Method).Msg("rpc: ignoring notification")
		return nil
	}

	if req.JSONRPC != "2.0" {
		return s.writeResponseError(req.ID, codeInvalidRequest, "Invalid Request", "jsonrpc must be \"2.0\"")
	}

	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "session/new":
		return s.handleSessionNew(req)
	case "session/prompt":
		return s.handleSessionPrompt(req)
	case "session/list":
		return s.handleSessionList(req)
	case "":
		return s.writeResponseError(req.ID, codeInvalidRequest, "Invalid Request", "missing method")
	default:
		return s.writeResponseError(req.ID, codeMethodNotFound, "Method not found", req.Method)
	}
}

func (s *rpcServer) writeJSON(obj any) error {
	data, err := json.Marshal(obj)
	if err != nil {
		return errors.Wrapf(err, "failed to serialize JSON-RPC message")
	}
	log.Debug().RawJSON("message", data).Msg("rpc: writing")

	s.writeLock.Lock()
	defer s.writeLock.Unlock()
	if _, err := s.writer.Write(data); err != nil {
		return errors.Wrapf(err, "rpc: write")
	}
	if err := s.writer.WriteByte('\n'); err != nil {
		return errors.Wrapf(err, "rpc: write")
	}
	return errors.Wrapf(s.writer.Flush(), "rpc: flush")
}

func (s *rpcServer) writeResponseOK(id json.RawMessage, result any) error {
	return s.writeJSON(jsonrpcResponse{JSONRPC: "2.0", ID: rawID(id), Result: result})
}

func (s *rpcServer) writeResponseError(id json.RawMessage, code int, msg string, data any) error {
	log.Warn().Int("code", code).Str("error", msg).Interface("data", data).Msg("rpc: error response")
	return s.writeJSON(jsonrpcResponse{
		JSONRPC: "2.0",
		ID:      rawID(id),
		Error:   &jsonrpcError{Code: code, Message: msg, Data: data},
	})
}

// ---- Handlers ----

func (s *rpcServer) handleInitialize(req *jsonrpcRequest) error {
	return s.writeResponseOK(req.ID, map[string]any{
		"protocolVersion": ProtocolVersion,
		"serverInfo": map[string]any{
			"name":    "todoloop",
			"version": Version,
		},
	})
}

func (s *rpcServer) handleSessionNew(req *jsonrpcRequest) error {
	sess, welcome, err := session.Start(s.ctx, session.NewID(), s.replyTimeout)
	if err != nil {
		return s.writeResponseError(req.ID, codeInternalError, "Internal error", err.Error())
	}

	s.sessionsLock.Lock()
	s.sessions[sess.ID] = sess
	s.sessionsLock.Unlock()
	log.Info().Str("session", sess.ID).Msg("rpc: session created")

	return s.writeResponseOK(req.ID, map[string]any{
		"sessionId": sess.ID,
		"output":    welcome,
	})
}

func (s *rpcServer) handleSessionPrompt(req *jsonrpcRequest) error {
	type promptParams struct {
		SessionID string  `json:"sessionId"`
		Line      *string `json:"line"`
	}
	var p promptParams
	if err := json.Unmarshal(paramsOrEmpty(req.Params), &p); err != nil {
		return s.writeResponseError(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}
	if p.Line == nil {
		return s.writeResponseError(req.ID, codeInvalidParams, "Invalid params", "missing line")
	}

	s.sessionsLock.Lock()
	sess, ok := s.sessions[p.SessionID]
	s.sessionsLock.Unlock()
	if !ok {
		return s.writeResponseError(req.ID, codeInvalidParams, "Invalid params", "unknown sessionId")
	}

	output, err := sess.Send(s.ctx, *p.Line)
	if err != nil {
		return s.writeResponseError(req.ID, codeInternalError, "Internal error", err.Error())
	}

	stopReason := stopReasonEndTurn
	if _, quit := todo.Parse(*p.Line).(todo.Quit); quit {
		stopReason = stopReasonQuit
		s.forget(sess)
	}
	return s.writeResponseOK(req.ID, map[string]any{
		"output":     output,
		"stopReason": stopReason,
	})
}

func (s *rpcServer) handleSessionList(req *jsonrpcRequest) error {
	s.sessionsLock.Lock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.sessionsLock.Unlock()
	sort.Strings(ids)

	return s.writeResponseOK(req.ID, map[string]any{"sessions": ids})
}

func (s *rpcServer) forget(sess *session.Session) {
	s.sessionsLock.Lock()
	delete(s.sessions, sess.ID)
	s.sessionsLock.Unlock()
	log.Info().Str("session", sess.ID).Msg("rpc: session quit")
}

func (s *rpcServer) closeSessions() {
	s.sessionsLock.Lock()
	defer s.sessionsLock.Unlock()
	for id, sess := range s.sessions {
		sess.Close()
		delete(s.sessions, id)
	}
}

func rawID(id json.RawMessage) json.RawMessage {
	if len(id) == 0 {
		return json.RawMessage("null")
	}
	return id
}

func paramsOrEmpty(params json.RawMessage) json.RawMessage {
	if len(params) == 0 || string(params) == "null" {
		return json.RawMessage("{}")
	}
	return params
}
