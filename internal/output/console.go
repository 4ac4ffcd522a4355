package output

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/maxvaer/pathfuzz/internal/scanner"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

const clearLine = "\r\033[K"

// Console serializes everything written to the terminal: status lines, log
// records and the progress bar. Each write first clears the current line so
// the progress render is overwritten instead of interleaved.
type Console struct {
	mu          sync.Mutex
	w           io.Writer
	interactive bool
	quiet       bool

	found     lipgloss.Style
	forbidden lipgloss.Style
	failed    lipgloss.Style
	info      lipgloss.Style
	notice    lipgloss.Style
	redirect  lipgloss.Style
	header    lipgloss.Style
	progress  lipgloss.Style
}

// NewConsole creates a console on w. Colors are dropped when noColor is set
// or w is not a terminal. In quiet mode only Found and Forbidden results
// and errors are printed.
func NewConsole(w io.Writer, noColor, quiet bool) *Console {
	interactive := false
	if f, ok := w.(*os.File); ok {
		interactive = term.IsTerminal(int(f.Fd()))
	}

	r := lipgloss.NewRenderer(w)
	if noColor || !interactive {
		r.SetColorProfile(termenv.Ascii)
	}

	return &Console{
		w:           w,
		interactive: interactive,
		quiet:       quiet,
		found:       r.NewStyle().Foreground(lipgloss.Color("#00D26A")),
		forbidden:   r.NewStyle().Foreground(lipgloss.Color("#FFD93D")),
		failed:      r.NewStyle().Foreground(lipgloss.Color("#FF3838")),
		info:        r.NewStyle().Foreground(lipgloss.Color("#00D4AA")),
		notice:      r.NewStyle().Foreground(lipgloss.Color("#4D96FF")),
		redirect:    r.NewStyle().Foreground(lipgloss.Color("#C77DFF")),
		header:      r.NewStyle().Foreground(lipgloss.Color("#7D56F4")).Bold(true),
		progress:    r.NewStyle().Foreground(lipgloss.Color("#4DD0E1")),
	}
}

// Interactive reports whether the console is attached to a terminal.
func (c *Console) Interactive() bool {
	return c.interactive
}

// Write implements io.Writer so a slog handler can share the console.
func (c *Console) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.interactive {
		if _, err := io.WriteString(c.w, clearLine); err != nil {
			return 0, err
		}
	}
	return c.w.Write(p)
}

func (c *Console) println(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.interactive {
		io.WriteString(c.w, clearLine)
	}
	io.WriteString(c.w, msg+"\n")
}

// Printf prints a plain line.
func (c *Console) Printf(format string, args ...any) {
	c.println(fmt.Sprintf(format, args...))
}

// Infof prints a highlighted informational line unless quiet.
func (c *Console) Infof(format string, args ...any) {
	if c.quiet {
		return
	}
	c.println(c.info.Render(fmt.Sprintf(format, args...)))
}

// Noticef prints a secondary informational line unless quiet.
func (c *Console) Noticef(format string, args ...any) {
	if c.quiet {
		return
	}
	c.println(c.notice.Render(fmt.Sprintf(format, args...)))
}

// Redirectf prints a redirect chain line unless quiet.
func (c *Console) Redirectf(format string, args ...any) {
	if c.quiet {
		return
	}
	c.println(c.redirect.Render(fmt.Sprintf(format, args...)))
}

// Successf prints a green line unless quiet.
func (c *Console) Successf(format string, args ...any) {
	if c.quiet {
		return
	}
	c.println(c.found.Render(fmt.Sprintf(format, args...)))
}

// Warnf prints a yellow line unless quiet.
func (c *Console) Warnf(format string, args ...any) {
	if c.quiet {
		return
	}
	c.println(c.forbidden.Render(fmt.Sprintf(format, args...)))
}

// Errorf prints a red line, even in quiet mode.
func (c *Console) Errorf(format string, args ...any) {
	c.println(c.failed.Render(fmt.Sprintf(format, args...)))
}

// Banner prints a bold header line unless quiet.
func (c *Console) Banner(text string) {
	if c.quiet {
		return
	}
	c.println(c.header.Render(text))
}

// Result prints the status line of a terminal result.
func (c *Console) Result(res *scanner.Result) {
	ts := time.Now().Format("15:04:05")
	if res.Error != nil {
		c.println(c.failed.Render(fmt.Sprintf("[ %s ] ERROR URL: %s - Error: %v", ts, res.URL, res.Error)))
		return
	}

	line := fmt.Sprintf("[ %s | HTTP %d ]     %s", ts, res.StatusCode, res.URL)
	switch res.Class {
	case scanner.Found:
		c.println(c.found.Render(line))
	case scanner.Forbidden:
		c.println(c.forbidden.Render(line))
	default:
		if c.quiet {
			return
		}
		c.println(c.failed.Render(line))
	}
}

// Render overwrites the current line with a progress render.
func (c *Console) Render(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	io.WriteString(c.w, clearLine+c.progress.Render(line))
}

// Finish writes the last progress render and ends the line.
func (c *Console) Finish(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.interactive {
		io.WriteString(c.w, clearLine)
	}
	io.WriteString(c.w, c.progress.Render(line)+"\n")
}
