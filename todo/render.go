package todo

import "strings"

const (
	listHeader = "TODOs:"
	prompt     = "> "
	farewell   = "bye!\n"
)

// RenderList formats items as the list view followed by the input prompt.
func RenderList(items []string) string {
	var b strings.Builder
	b.WriteString(listHeader)
	b.WriteByte('\n')
	b.WriteString(strings.Join(items, "\n"))
	b.WriteString("\n\n")
	b.WriteString(prompt)
	return b.String()
}

// RenderFarewell is the last chunk the loop emits.
func RenderFarewell() string {
	return farewell
}
