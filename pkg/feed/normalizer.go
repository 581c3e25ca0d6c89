package feed

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"ttscraper/pkg/models"
)

// Batch is the set of Items extracted from one response
type Batch struct {
	Source  Source
	URL     string
	Items   []models.Item
	Dropped []Drop
}

// Empty reports whether the batch holds no items
func (b Batch) Empty() bool {
	return len(b.Items) == 0
}

// Normalizer turns network responses into Items
type Normalizer struct {
	apiPrefix     string
	stateScriptID string
}

// NewNormalizer creates a normalizer matching API responses by URL prefix and
// locating embedded page state by script element id
func NewNormalizer(apiPrefix, stateScriptID string) *Normalizer {
	return &Normalizer{
		apiPrefix:     apiPrefix,
		stateScriptID: stateScriptID,
	}
}

// Process classifies resp and normalizes it. A response that is not
// feed-bearing returns an empty batch with SourceNone and no error.
func (n *Normalizer) Process(resp models.Response) (Batch, error) {
	payload, err := n.Classify(resp)
	if err != nil {
		return Batch{Source: n.route(resp), URL: resp.URL}, err
	}
	if payload == nil {
		return Batch{Source: SourceNone, URL: resp.URL}, nil
	}
	return Normalize(payload), nil
}

// route applies the classification rules without reading the body
func (n *Normalizer) route(resp models.Response) Source {
	switch {
	case resp.Kind == models.KindDocument && resp.Status != 302:
		return SourceDocument
	case n.apiPrefix != "" && strings.HasPrefix(resp.URL, n.apiPrefix):
		return SourceAPI
	default:
		return SourceNone
	}
}

// Classify decides which shape resp has and parses it. It returns a nil
// payload and nil error for responses that carry no feed.
func (n *Normalizer) Classify(resp models.Response) (Payload, error) {
	source := n.route(resp)
	if source == SourceNone {
		return nil, nil
	}

	body, err := readBody(resp)
	if err != nil {
		return nil, &ClassificationError{Kind: KindBodyUnavailable, URL: resp.URL, Err: err}
	}

	if source == SourceDocument {
		return n.classifyDocument(resp.URL, body)
	}
	return classifyAPI(resp.URL, body)
}

func readBody(resp models.Response) ([]byte, error) {
	if resp.Body == nil {
		return nil, errors.New("no body available")
	}
	return resp.Body()
}

func (n *Normalizer) classifyDocument(url string, body []byte) (Payload, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &ClassificationError{Kind: KindMissingStateScript, URL: url, Err: err}
	}

	script := doc.Find("script#" + n.stateScriptID).First()
	if script.Length() == 0 {
		return nil, &ClassificationError{Kind: KindMissingStateScript, URL: url}
	}

	var state struct {
		UserModule *struct {
			Users map[string]json.RawMessage `json:"users"`
		} `json:"UserModule"`
		ItemModule json.RawMessage `json:"ItemModule"`
	}
	if err := json.Unmarshal([]byte(script.Text()), &state); err != nil {
		return nil, &ClassificationError{Kind: KindMalformedJSON, URL: url, Err: err}
	}
	if state.UserModule == nil || state.UserModule.Users == nil {
		return nil, &ClassificationError{Kind: KindMissingKey, URL: url, Err: errors.New("UserModule.users")}
	}
	if isNull(state.ItemModule) {
		return nil, &ClassificationError{Kind: KindMissingKey, URL: url, Err: errors.New("ItemModule")}
	}

	records, err := decodeOrderedObject(state.ItemModule)
	if err != nil {
		return nil, &ClassificationError{Kind: KindMalformedJSON, URL: url, Err: fmt.Errorf("ItemModule: %w", err)}
	}

	return &DocumentPayload{
		PageURL: url,
		Users:   state.UserModule.Users,
		Records: records,
	}, nil
}

func classifyAPI(url string, body []byte) (Payload, error) {
	var page struct {
		ItemList json.RawMessage `json:"itemList"`
	}
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, &ClassificationError{Kind: KindMalformedJSON, URL: url, Err: err}
	}
	if isNull(page.ItemList) {
		return nil, &ClassificationError{Kind: KindMissingKey, URL: url, Err: errors.New("itemList")}
	}

	var records []json.RawMessage
	if err := json.Unmarshal(page.ItemList, &records); err != nil {
		return nil, &ClassificationError{Kind: KindMalformedJSON, URL: url, Err: fmt.Errorf("itemList: %w", err)}
	}

	return &APIPayload{PageURL: url, Records: records}, nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// decodeOrderedObject walks a JSON object keeping member order
func decodeOrderedObject(raw json.RawMessage) ([]Record, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	var records []Record
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := tok.(string)

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("record %q: %w", key, err)
		}
		records = append(records, Record{Key: key, Raw: value})
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return records, nil
}

// Normalize projects every record of p into an Item, dropping records that
// cannot be resolved or fail validation
func Normalize(p Payload) Batch {
	batch := Batch{Source: p.Source(), URL: p.URL()}

	switch payload := p.(type) {
	case *DocumentPayload:
		for _, rec := range payload.Records {
			item, drop := projectDocumentRecord(rec, payload.Users)
			batch.add(item, drop)
		}
	case *APIPayload:
		for i, raw := range payload.Records {
			item, drop := projectRecord(strconv.Itoa(i), raw, nil)
			batch.add(item, drop)
		}
	}

	return batch
}

func (b *Batch) add(item models.Item, drop *Drop) {
	if drop != nil {
		b.Dropped = append(b.Dropped, *drop)
		return
	}
	b.Items = append(b.Items, item)
}

type rawAuthor struct {
	UniqueID string `json:"uniqueId"`
}

type rawRecord struct {
	ID          string          `json:"id"`
	Desc        string          `json:"desc"`
	CreateTtime json.RawMessage `json:"createTtime"`
	CreateTime  json.RawMessage `json:"createTime"`
	Author      json.RawMessage `json:"author"`
	Video       struct {
		DownloadAddr string `json:"downloadAddr"`
		Format       string `json:"format"`
	} `json:"video"`
}

// projectDocumentRecord resolves the record's author key against users first
func projectDocumentRecord(rec Record, users map[string]json.RawMessage) (models.Item, *Drop) {
	var ref struct {
		Author json.RawMessage `json:"author"`
	}
	if err := json.Unmarshal(rec.Raw, &ref); err != nil {
		return models.Item{}, &Drop{Key: rec.Key, Reason: DropMalformedRecord, Detail: err.Error()}
	}

	var authorKey string
	if err := json.Unmarshal(ref.Author, &authorKey); err != nil {
		return models.Item{}, &Drop{Key: rec.Key, Reason: DropUnresolvedAuthor, Detail: "author is not a key"}
	}
	author, ok := users[authorKey]
	if !ok {
		return models.Item{}, &Drop{Key: rec.Key, Reason: DropUnresolvedAuthor, Detail: authorKey}
	}

	return projectRecord(rec.Key, rec.Raw, author)
}

// projectRecord maps a raw record onto an Item. When author is non-nil it
// replaces the record's own author field.
func projectRecord(key string, raw json.RawMessage, author json.RawMessage) (models.Item, *Drop) {
	var rec rawRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return models.Item{}, &Drop{Key: key, Reason: DropMalformedRecord, Detail: err.Error()}
	}
	if author == nil {
		author = rec.Author
	}

	var a rawAuthor
	if !isNull(author) {
		if err := json.Unmarshal(author, &a); err != nil {
			return models.Item{}, &Drop{Key: key, Reason: DropMalformedRecord, Detail: "author: " + err.Error()}
		}
	}

	createTime := parseEpoch(rec.CreateTtime)
	if createTime == 0 {
		createTime = parseEpoch(rec.CreateTime)
	}

	item := models.Item{
		ID:           rec.ID,
		Description:  rec.Desc,
		CreateTime:   createTime,
		AuthorHandle: a.UniqueID,
		DownloadURL:  rec.Video.DownloadAddr,
		Format:       rec.Video.Format,
	}
	if rec.ID != "" {
		key = rec.ID
	}
	missing, unsafe := item.FieldIssues()
	switch {
	case len(missing) > 0:
		return models.Item{}, &Drop{Key: key, Reason: DropMissingField, Detail: strings.Join(missing, ",")}
	case len(unsafe) > 0:
		return models.Item{}, &Drop{Key: key, Reason: DropInvalidField, Detail: strings.Join(unsafe, ",")}
	}
	return item, nil
}

// parseEpoch accepts a JSON number or a numeric string
func parseEpoch(raw json.RawMessage) int64 {
	if isNull(raw) {
		return 0
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if v, err := n.Int64(); err == nil {
			return v
		}
		return 0
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			return v
		}
	}
	return 0
}
