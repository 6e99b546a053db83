package todo

// QuitCommand is the line that stops the loop.
const QuitCommand = "quit"

// Command is one parsed input line. The concrete types are Add, ListRequest,
// Quit and Unrecognized.
type Command interface {
	// Kind names the variant for logging.
	Kind() string
	isCommand()
}

// Add appends Text as a new item.
type Add struct {
	Text string
}

// ListRequest re-displays the current list without changing it.
type ListRequest struct{}

// Quit ends the loop.
type Quit struct{}

// Unrecognized carries a line no other variant claims.
type Unrecognized struct {
	Raw string
}

func (Add) Kind() string          { return "add" }
func (ListRequest) Kind() string  { return "list" }
func (Quit) Kind() string         { return "quit" }
func (Unrecognized) Kind() string { return "unrecognized" }

func (Add) isCommand()          {}
func (ListRequest) isCommand()  {}
func (Quit) isCommand()         {}
func (Unrecognized) isCommand() {}

// Parse maps a raw line to its Command. Matching is exact: no whitespace is
// trimmed, so " quit" adds an item.
func Parse(raw string) Command {
	switch raw {
	case QuitCommand:
		return Quit{}
	case "":
		return ListRequest{}
	default:
		return Add{Text: raw}
	}
}
