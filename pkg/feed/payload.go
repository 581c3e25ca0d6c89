package feed

import (
	"encoding/json"
	"fmt"
)

// Source identifies which response shape a batch came from
type Source string

const (
	SourceNone     Source = "none"
	SourceDocument Source = "document"
	SourceAPI      Source = "api"
)

// Payload is a classified feed-bearing response. It is either a
// *DocumentPayload or an *APIPayload.
type Payload interface {
	Source() Source
	URL() string
}

// DocumentPayload is the embedded state of a server-rendered profile page.
// Records keep the order they appear in ItemModule.
type DocumentPayload struct {
	PageURL string
	Users   map[string]json.RawMessage
	Records []Record
}

func (p *DocumentPayload) Source() Source { return SourceDocument }
func (p *DocumentPayload) URL() string    { return p.PageURL }

// APIPayload is one page of the paginated item listing endpoint
type APIPayload struct {
	PageURL string
	Records []json.RawMessage
}

func (p *APIPayload) Source() Source { return SourceAPI }
func (p *APIPayload) URL() string    { return p.PageURL }

// Record is one ItemModule entry together with its key
type Record struct {
	Key string
	Raw json.RawMessage
}

// ClassificationKind names why a feed-bearing response yielded nothing
type ClassificationKind string

const (
	KindBodyUnavailable    ClassificationKind = "body_unavailable"
	KindMissingStateScript ClassificationKind = "missing_state_script"
	KindMalformedJSON      ClassificationKind = "malformed_json"
	KindMissingKey         ClassificationKind = "missing_key"
)

// ClassificationError reports a response that looked feed-bearing but could
// not be parsed. It never aborts a session.
type ClassificationError struct {
	Kind ClassificationKind
	URL  string
	Err  error
}

func (e *ClassificationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("classify %s: %s: %v", e.URL, e.Kind, e.Err)
	}
	return fmt.Sprintf("classify %s: %s", e.URL, e.Kind)
}

func (e *ClassificationError) Unwrap() error {
	return e.Err
}

// DropReason explains why a single record produced no Item
type DropReason string

const (
	DropUnresolvedAuthor DropReason = "unresolved_author"
	DropMissingField     DropReason = "missing_field"
	DropMalformedRecord  DropReason = "malformed_record"
	DropInvalidField     DropReason = "invalid_field"
)

// Drop describes one skipped record
type Drop struct {
	Key    string
	Reason DropReason
	Detail string
}
