// Package app provides the TODO run loop shared by every front end.
//
// An App alternates between blocking for an input line and emitting a rendered
// chunk. It never touches a terminal or a socket itself: input arrives through
// an Input and output leaves through an Output, both supplied by the caller.
// A *linechan.Channel satisfies both, so a driver can inject lines and await
// chunks from another goroutine without sleeps.
//
// # Usage
//
//	in, out := linechan.New(), linechan.New()
//	a := app.New(in, out)
//	go a.Run(ctx)
//
//	welcome, _ := out.Receive(ctx) // "TODOs:\n\n\n> "
//	in.Send("Buy milk")
//	view, _ := out.Receive(ctx)    // "TODOs:\nBuy milk\n\n> "
//	in.Send("quit")
//	bye, _ := out.Receive(ctx)     // "bye!\n"
//
// # Output contract
//
// Run emits exactly one chunk on start and exactly one chunk per input line
// it consumes, in consumption order. The chunk for "quit" is the farewell and
// nothing follows it.
//
// # Lifecycle
//
// An App is idle until Run is called, running while Run is in progress, and
// stopped once Run returns. A stopped App is inert: calling Run again returns
// ErrStopped.
//
// # Subpackages
//
// app/terminal: drives an App from an io.Reader and io.Writer, normally the
// process's stdin and stdout.
//
// app/rpc: serves newline-delimited JSON-RPC over stdio, one App per session.
//
// app/mcp: exposes a single App as Model Context Protocol tools over stdio.
package app
