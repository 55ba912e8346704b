package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

type style string

const (
	styleReset style = "\033[0m"
	styleError style = "\033[1;31m"
	styleCode  style = "\033[1;37m"
	styleLabel style = "\033[36m"
	styleMuted style = "\033[90m"
)

// colorEnabled controls whether ANSI colors are used.
var colorEnabled = true

// DisableColors disables ANSI color output.
func DisableColors() { colorEnabled = false }

// EnableColors enables ANSI color output.
func EnableColors() { colorEnabled = true }

func paint(s style, text string) string {
	if !colorEnabled || text == "" {
		return text
	}
	return string(s) + text + string(styleReset)
}

// wrapWidth is the column at which details are wrapped.
const wrapWidth = 70

// Format returns the error formatted for terminal display.
func (e *Error) Format() string {
	var b strings.Builder
	section := func(label, text string) {
		if text == "" {
			return
		}
		b.WriteString("  ")
		if label != "" {
			b.WriteString(paint(styleLabel, label) + " ")
		}
		b.WriteString(text)
		b.WriteString("\n\n")
	}

	b.WriteString("\n" + paint(styleError, "ERROR"))
	if e.Code != "" {
		b.WriteString(" " + paint(styleCode, e.Code))
	}
	if e.Category != "" {
		b.WriteString(paint(styleMuted, " ["+string(e.Category)+"]"))
	}
	b.WriteString(": " + e.Message + "\n\n")

	section("", paint(styleLabel, e.Reason))
	if lines := wrapText(e.Detail, wrapWidth); len(lines) > 0 {
		section("", strings.Join(lines, "\n  "))
	}
	if e.Wrapped != nil {
		section(paint(styleMuted, "Caused by:"), e.Wrapped.Error())
	}
	section("Hint:", e.Suggestion)
	if e.Example != "" {
		section("Example:", "\n    "+strings.ReplaceAll(e.Example, "\n", "\n    "))
	}
	if e.DocURL != "" {
		section(paint(styleMuted, "Learn more:"), e.DocURL)
	}
	return b.String()
}

// FormatCompact returns a compact single-line error format.
func (e *Error) FormatCompact() string {
	return e.Error()
}

// FormatJSON returns the error as a JSON object.
func (e *Error) FormatJSON() string {
	out := struct {
		Code       string   `json:"code,omitempty"`
		Category   Category `json:"category"`
		Message    string   `json:"message"`
		Reason     string   `json:"reason,omitempty"`
		Detail     string   `json:"detail,omitempty"`
		Suggestion string   `json:"suggestion,omitempty"`
		Cause      string   `json:"cause,omitempty"`
		DocURL     string   `json:"docUrl,omitempty"`
	}{e.Code, e.Category, e.Message, e.Reason, e.Detail, e.Suggestion, "", e.DocURL}
	if e.Wrapped != nil {
		out.Cause = e.Wrapped.Error()
	}
	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Sprintf(`{"message":%q}`, e.Error())
	}
	return string(data)
}

// wrapText breaks text into lines of at most width columns, splitting on
// spaces. Words longer than width get a line of their own.
func wrapText(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	lines := []string{words[0]}
	for _, w := range words[1:] {
		last := &lines[len(lines)-1]
		if len(*last)+1+len(w) > width {
			lines = append(lines, w)
			continue
		}
		*last += " " + w
	}
	return lines
}

// PrintError prints a formatted error to w. Colors are dropped when w is a
// file that is not a terminal.
func PrintError(w io.Writer, err error) {
	if f, ok := w.(*os.File); ok && colorEnabled && !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()) {
		DisableColors()
		defer EnableColors()
	}
	var e *Error
	if stderrors.As(err, &e) {
		fmt.Fprint(w, e.Format())
		return
	}
	fmt.Fprintf(w, "\n%s: %s\n\n", paint(styleError, "ERROR"), err.Error())
}
