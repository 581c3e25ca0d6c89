package ui

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"

	"ttscraper/internal/downloader"
)

// ASCII logo for the application
const ASCIILogo = `
  ▀█▀ ▀█▀   ▄▀▀ ▄▀▀ █▀▄ ▄▀▄ █▀▄ ██▀ █▀▄
   █   █    ▄██ ▀▄▄ █▀▄ █▀█ █▀  █▄▄ █▀▄
`

// Color functions for terminal output
var (
	Cyan    = color.New(color.FgCyan).SprintFunc()
	Yellow  = color.New(color.FgYellow).SprintFunc()
	Red     = color.New(color.FgRed).SprintFunc()
	Green   = color.New(color.FgGreen).SprintFunc()
	Magenta = color.New(color.FgMagenta).SprintFunc()
	Dim     = color.New(color.Faint).SprintFunc()
)

// DisableColor turns off colored output globally
func DisableColor() {
	color.NoColor = true
}

// PrintLogo prints the ASCII logo with color
func PrintLogo() {
	fmt.Fprint(color.Output, Cyan(ASCIILogo))
}

// PrintError prints an error message in red
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Fprintln(color.Error, Red(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Fprintln(color.Error, Red(msg))
	}
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	fmt.Fprintln(color.Output, Green(msg))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string) {
	fmt.Fprintln(color.Error, Yellow(msg))
}

// PrintHighlight prints a highlighted message in magenta
func PrintHighlight(msg string) {
	fmt.Fprintln(color.Output, Magenta(msg))
}

// PrintInfo prints a label and value pair
func PrintInfo(label string, value string) {
	fmt.Fprintf(color.Output, "%s: %s\n", Cyan(label), Yellow(value))
}

// Terminal prints one line per download outcome:
//
//	[+] 123.mp4
//	[+] 123.mp4 already downloaded.
//	[-] 123.mp4: <error>
type Terminal struct {
	out   io.Writer
	quiet bool
	mu    sync.Mutex
}

// NewTerminal creates a reporter writing to out. Quiet suppresses
// everything but failures.
func NewTerminal(out io.Writer, quiet bool) *Terminal {
	if out == nil {
		out = os.Stdout
	}
	return &Terminal{out: out, quiet: quiet}
}

// Report implements downloader.Reporter
func (t *Terminal) Report(result downloader.TaskResult) {
	line := formatOutcome(result)
	if line == "" || (t.quiet && result.Outcome != downloader.OutcomeFailed) {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.out, line)
}

func formatOutcome(result downloader.TaskResult) string {
	name := result.Task.Item.Filename()
	switch result.Outcome {
	case downloader.OutcomeDownloaded:
		return fmt.Sprintf("[%s] %s", Green("+"), name)
	case downloader.OutcomeSkipped:
		return fmt.Sprintf("[%s] %s already downloaded.", Green("+"), name)
	case downloader.OutcomeFailed:
		return fmt.Sprintf("[%s] %s: %v", Red("-"), name, result.Err)
	default:
		return ""
	}
}

// Summary is the end-of-run tally shown to the user
type Summary struct {
	Handle     string
	Downloaded int
	Skipped    int
	Failed     int
	Batches    int
}

// PrintSummary prints the end-of-run tally
func PrintSummary(out io.Writer, s Summary) {
	fmt.Fprintf(out, "\n%s @%s: %s downloaded, %s already present, %s failed across %d batches\n",
		Magenta("[DONE]"),
		s.Handle,
		Green(s.Downloaded),
		Dim(s.Skipped),
		Red(s.Failed),
		s.Batches,
	)
}
