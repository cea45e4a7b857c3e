package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"
)

// DefaultWidth is used when the output is not a terminal.
const DefaultWidth = 80

// NoToolCallMessage is the only thing a user sees for a turn that resolved
// to no tool call.
const NoToolCallMessage = "No tool call detected."

// ConsoleOptions configures a Console.
type ConsoleOptions struct {
	// Width of the output in cells; zero means DefaultWidth.
	Width int
	// Plain disables colors and markdown rendering.
	Plain bool
}

// Console is the line-based presenter of a chat session. User-visible output
// goes to out; operator logs go elsewhere.
type Console struct {
	out   io.Writer
	width int
	plain bool
}

// NewConsole creates a presenter writing to out.
func NewConsole(out io.Writer, opts ConsoleOptions) *Console {
	width := opts.Width
	if width <= 0 {
		width = DefaultWidth
	}
	return &Console{out: out, width: width, plain: opts.Plain}
}

// NewTerminalConsole creates a presenter for f, sized to the terminal and
// plain when f is not a terminal.
func NewTerminalConsole(f *os.File) *Console {
	opts := ConsoleOptions{Plain: !term.IsTerminal(f.Fd())}
	if !opts.Plain {
		if w, _, err := term.GetSize(f.Fd()); err == nil {
			opts.Width = w
		}
	}
	return NewConsole(f, opts)
}

func (c *Console) render(style lipgloss.Style, s string) string {
	if c.plain {
		return s
	}
	return style.Render(s)
}

// Banner prints the session header.
func (c *Console) Banner(modelName, endpoint string) {
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, c.render(TitleStyle, "mcpbridge")+" "+c.render(DimStyle, "model "+modelName+" · tools "+endpoint))
	if c.plain {
		fmt.Fprintln(c.out, "Type 'exit' or 'quit' to leave.")
	} else {
		fmt.Fprintln(c.out, FormatHints("exit", "Quit", "quit", "Quit", "Ctrl+C", "Quit"))
	}
	fmt.Fprintln(c.out)
}

// Prompt asks for the next line of input.
func (c *Console) Prompt() {
	fmt.Fprint(c.out, c.render(UserStyle, "You: "))
}

// ToolResult shows the raw tool output.
func (c *Console) ToolResult(text string) {
	fmt.Fprintln(c.out, c.render(AssistantStyle, "Result:")+" "+text)
}

// Summary shows the model's one-line summary.
func (c *Console) Summary(text string) {
	body := strings.TrimSpace(text)
	if !c.plain {
		body = RenderMarkdown(body, c.width-4)
	}
	fmt.Fprintln(c.out, c.render(AssistantStyle, "Answer:"))
	fmt.Fprintln(c.out, body)
	fmt.Fprintln(c.out)
}

// NoToolCall tells the user the turn produced no action.
func (c *Console) NoToolCall() {
	fmt.Fprintln(c.out, c.render(DimStyle, NoToolCallMessage))
	fmt.Fprintln(c.out)
}

// Goodbye closes the session output.
func (c *Console) Goodbye(reason string) {
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, c.render(DimStyle, reason))
}

// Status prints a labelled line for the one-shot commands; ok selects the
// label color.
func (c *Console) Status(ok bool, label, detail string) {
	style := ErrorStyle
	if ok {
		style = UserStyle
	}
	fmt.Fprintln(c.out, c.render(style, label)+" "+detail)
}

// Line prints text unstyled.
func (c *Console) Line(text string) {
	fmt.Fprintln(c.out, text)
}

// Warn prints a highlighted note.
func (c *Console) Warn(text string) {
	fmt.Fprintln(c.out, c.render(WarningStyle, text))
}
