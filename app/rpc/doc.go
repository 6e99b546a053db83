// Package rpc serves the TODO loop over newline-delimited JSON-RPC 2.0 on stdio.
//
// Each session/new request starts an independent loop (see package session);
// session/prompt feeds it one line and answers with the chunk that line
// produced. Nothing but JSON-RPC messages is ever written to the output
// stream; diagnostics go to the logger.
//
// Supported methods:
//   - initialize: returns the protocol version and server info
//   - session/new: starts a loop, returns its id and the startup chunk
//   - session/prompt: {"sessionId", "line"} returns {"output", "stopReason"}
//   - session/list: returns the ids of the live sessions
//
// stopReason is "end_turn" while the loop keeps going and "quit" for the
// farewell; a quit session is forgotten.
package rpc
