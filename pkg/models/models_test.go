package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsPathElement(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"alice", true},
		{"alice.bob_1", true},
		{"7106662381231234567.mp4", true},
		{"", false},
		{".", false},
		{"..", false},
		{"../escaped", false},
		{"a/b", false},
		{`a\b`, false},
		{"/etc", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsPathElement(tt.in), "%q", tt.in)
	}
}

func TestFieldIssues(t *testing.T) {
	ok := Item{ID: "1", AuthorHandle: "alice", DownloadURL: "https://v/1", Format: "mp4"}
	missing, unsafe := ok.FieldIssues()
	assert.Empty(t, missing)
	assert.Empty(t, unsafe)

	missing, unsafe = Item{ID: "..", AuthorHandle: "a/b", Format: "mp4"}.FieldIssues()
	assert.Equal(t, []string{"video.downloadAddr"}, missing)
	assert.Equal(t, []string{"id", "author.uniqueId"}, unsafe)

	// the download URL is never part of the path
	_, unsafe = Item{ID: "1", AuthorHandle: "alice", DownloadURL: "https://v/../1", Format: "mp4"}.FieldIssues()
	assert.Empty(t, unsafe)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "123.mp4", Item{ID: "123", Format: "mp4"}.Filename())
}
