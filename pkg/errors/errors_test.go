package errors

import (
	stderrors "errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	err := &Error{Type: ErrorTypeHTTPStatus, Message: "unexpected status", Code: 403}
	assert.Equal(t, "http_status error (code 403): unexpected status", err.Error())

	err = New(ErrorTypeFilesystem, io.ErrShortWrite, "write %s", "a.mp4")
	assert.Equal(t, "filesystem error: write a.mp4", err.Error())
}

func TestErrorUnwrap(t *testing.T) {
	err := New(ErrorTypeNetwork, io.ErrUnexpectedEOF, "stream interrupted")
	assert.True(t, stderrors.Is(err, io.ErrUnexpectedEOF))

	var typed *Error
	wrapped := stderrors.Join(stderrors.New("other"), err)
	assert.True(t, stderrors.As(wrapped, &typed))
	assert.Equal(t, ErrorTypeNetwork, typed.Type)
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(ErrorTypeNavigation))
	for _, et := range []ErrorType{ErrorTypeNetwork, ErrorTypeHTTPStatus, ErrorTypeFilesystem, ErrorTypeParsing, ErrorTypeUnknown} {
		assert.False(t, IsFatal(et), string(et))
	}
}

func TestIsAcceptableStatusCode(t *testing.T) {
	tests := []struct {
		code int
		want bool
	}{
		{200, true},
		{206, true},
		{302, false},
		{403, false},
		{404, false},
		{500, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsAcceptableStatusCode(tt.code), "status %d", tt.code)
	}
}
