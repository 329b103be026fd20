package topics

// Renderer formats topic content for the terminal.
type Renderer interface {
	// Render takes raw content and its file extension and returns the text
	// to print.
	Render(content string, format string) string
}

// PlainRenderer returns content as-is.
type PlainRenderer struct{}

func (r *PlainRenderer) Render(content string, format string) string {
	return content
}
