// Package terminal implements the interactive command-line mode for the TODO loop.
//
// The terminal reads lines from an io.Reader (normally os.Stdin) and feeds them
// to an app.App through a line channel; every chunk the App emits is written
// verbatim to an io.Writer (normally os.Stdout) and flushed immediately, so the
// "> " prompt shows up without a trailing newline.
//
// # Usage
//
//	term := terminal.New(os.Stdin, os.Stdout)
//	err := term.Run(ctx)
//
// # Input handling
//
//   - Lines are passed through unchanged apart from the line terminator; both
//     "\n" and "\r\n" endings are accepted
//   - An empty line re-displays the list
//   - "quit" prints "bye!" and ends the session
//   - End of input without "quit" ends the session quietly
package terminal
