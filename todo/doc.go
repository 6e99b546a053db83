// Package todo holds the pure pieces of the TODO loop: the command vocabulary
// and its parser, the in-memory item store, and the text renderer.
//
// Nothing here blocks or synchronizes. The run loop in package app owns a
// Store and is the only caller of its methods; Parse and the Render functions
// are deterministic, so equal inputs always produce byte-identical output.
//
// # Commands
//
// Every input line maps to exactly one Command:
//
//   - "quit" (exactly) is Quit
//   - the empty line is ListRequest, which re-displays the list
//   - anything else is Add, with the line verbatim as the item text
//
// Unrecognized is reserved for a larger vocabulary and is not produced today.
//
// # Layout
//
// RenderList writes a "TODOs:" header, one line per item, a blank line and
// the "> " prompt with no trailing newline:
//
//	TODOs:
//	Buy milk
//
//	> _
//
// where _ marks the cursor position.
package todo
