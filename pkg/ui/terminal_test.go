package ui

import (
	"bytes"
	"errors"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"ttscraper/internal/downloader"
	"ttscraper/pkg/models"
)

func withoutColor(t *testing.T) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })
}

func result(outcome downloader.Outcome, err error) downloader.TaskResult {
	return downloader.TaskResult{
		Task:    downloader.Task{Item: models.Item{ID: "123", Format: "mp4", AuthorHandle: "alice"}},
		Outcome: outcome,
		Err:     err,
	}
}

func TestTerminalOutcomeLines(t *testing.T) {
	withoutColor(t)
	var buf bytes.Buffer
	term := NewTerminal(&buf, false)

	term.Report(result(downloader.OutcomeDownloaded, nil))
	term.Report(result(downloader.OutcomeSkipped, nil))
	term.Report(result(downloader.OutcomeFailed, errors.New("http_status error (code 403): forbidden")))

	assert.Equal(t,
		"[+] 123.mp4\n"+
			"[+] 123.mp4 already downloaded.\n"+
			"[-] 123.mp4: http_status error (code 403): forbidden\n",
		buf.String())
}

func TestTerminalQuiet(t *testing.T) {
	withoutColor(t)
	var buf bytes.Buffer
	term := NewTerminal(&buf, true)

	term.Report(result(downloader.OutcomeDownloaded, nil))
	term.Report(result(downloader.OutcomeSkipped, nil))
	assert.Empty(t, buf.String())

	term.Report(result(downloader.OutcomeFailed, errors.New("boom")))
	assert.Equal(t, "[-] 123.mp4: boom\n", buf.String())
}

func TestPrintSummary(t *testing.T) {
	withoutColor(t)
	var buf bytes.Buffer
	PrintSummary(&buf, Summary{Handle: "alice", Downloaded: 3, Skipped: 2, Failed: 1, Batches: 4})
	assert.Equal(t, "\n[DONE] @alice: 3 downloaded, 2 already present, 1 failed across 4 batches\n", buf.String())
}
