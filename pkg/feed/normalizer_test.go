package feed

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"ttscraper/pkg/models"
)

const (
	testAPIPrefix = "https://www.tiktok.com/api/post/item_list/"
	testScriptID  = "SIGI_STATE"
)

func body(s string) func() ([]byte, error) {
	return func() ([]byte, error) { return []byte(s), nil }
}

func page(state string) string {
	return `<!DOCTYPE html><html><head><title>@alice</title></head><body>
<div id="app"></div>
<script id="SIGI_STATE" type="application/json">` + state + `</script>
</body></html>`
}

func documentResponse(html string) models.Response {
	return models.Response{
		URL:    "https://www.tiktok.com/@alice",
		Status: 200,
		Kind:   models.KindDocument,
		Body:   body(html),
	}
}

func apiResponse(json string) models.Response {
	return models.Response{
		URL:    testAPIPrefix + "?secUid=abc&cursor=0",
		Status: 200,
		Kind:   models.KindXHR,
		Body:   body(json),
	}
}

func newTestNormalizer() *Normalizer {
	return NewNormalizer(testAPIPrefix, testScriptID)
}

const twoUserState = `{
  "UserModule": {"users": {
    "alice": {"uniqueId": "alice", "nickname": "Alice"},
    "bob": {"uniqueId": "bob"}
  }},
  "ItemModule": {
    "900": {"id": "900", "desc": "second upload", "createTime": "1650000900", "author": "bob",
            "video": {"downloadAddr": "https://v.example/900", "format": "mp4"}},
    "123": {"id": "123", "desc": "first", "createTtime": 1650000123, "author": "alice",
            "video": {"downloadAddr": "https://v.example/123", "format": "mp4"}},
    "456": {"id": "456", "desc": "", "createTime": 1650000456, "author": "alice",
            "video": {"downloadAddr": "https://v.example/456", "format": "webm"}}
  }
}`

func TestProcessDocumentPayload(t *testing.T) {
	batch, err := newTestNormalizer().Process(documentResponse(page(twoUserState)))
	require.NoError(t, err)

	assert.Equal(t, SourceDocument, batch.Source)
	require.Len(t, batch.Items, 3)
	assert.Empty(t, batch.Dropped)

	// document order, not key order
	assert.Equal(t, []string{"900", "123", "456"}, []string{batch.Items[0].ID, batch.Items[1].ID, batch.Items[2].ID})
	assert.Equal(t, "bob", batch.Items[0].AuthorHandle)
	assert.Equal(t, "alice", batch.Items[1].AuthorHandle)

	first := batch.Items[1]
	assert.Equal(t, "first", first.Description)
	assert.Equal(t, int64(1650000123), first.CreateTime)
	assert.Equal(t, "https://v.example/123", first.DownloadURL)
	assert.Equal(t, "123.mp4", first.Filename())

	assert.Equal(t, int64(1650000900), batch.Items[0].CreateTime)
	assert.Equal(t, "456.webm", batch.Items[2].Filename())
}

func TestProcessDocumentUnresolvedAuthorDropsOnlyThatRecord(t *testing.T) {
	state := `{
	  "UserModule": {"users": {"alice": {"uniqueId": "alice"}}},
	  "ItemModule": {
	    "1": {"id": "1", "author": "alice", "video": {"downloadAddr": "https://v/1", "format": "mp4"}},
	    "2": {"id": "2", "author": "ghost", "video": {"downloadAddr": "https://v/2", "format": "mp4"}}
	  }
	}`
	batch, err := newTestNormalizer().Process(documentResponse(page(state)))
	require.NoError(t, err)

	require.Len(t, batch.Items, 1)
	assert.Equal(t, "1", batch.Items[0].ID)
	require.Len(t, batch.Dropped, 1)
	assert.Equal(t, DropUnresolvedAuthor, batch.Dropped[0].Reason)
	assert.Equal(t, "2", batch.Dropped[0].Key)
}

func TestProcessAPIPayload(t *testing.T) {
	json := `{"cursor": "1650000000000", "hasMore": true, "itemList": [
	  {"id": "7", "desc": "a", "createTime": 1650000007, "author": {"uniqueId": "alice"},
	   "video": {"downloadAddr": "https://v/7", "format": "mp4"}},
	  {"id": "8", "desc": "b", "createTime": 1650000008, "author": {"uniqueId": "alice"},
	   "video": {"downloadAddr": "https://v/8", "format": "mp4"}}
	]}`
	batch, err := newTestNormalizer().Process(apiResponse(json))
	require.NoError(t, err)

	assert.Equal(t, SourceAPI, batch.Source)
	require.Len(t, batch.Items, 2)
	assert.Equal(t, "7", batch.Items[0].ID)
	assert.Equal(t, "8", batch.Items[1].ID)
	assert.Equal(t, "alice", batch.Items[1].AuthorHandle)
	assert.Equal(t, int64(1650000008), batch.Items[1].CreateTime)
}

func TestProcessMissingFieldDropsOneRecord(t *testing.T) {
	tests := []struct {
		name   string
		record string
		field  string
	}{
		{"no id", `{"author": {"uniqueId": "alice"}, "video": {"downloadAddr": "https://v/x", "format": "mp4"}}`, "id"},
		{"no author", `{"id": "3", "video": {"downloadAddr": "https://v/3", "format": "mp4"}}`, "author.uniqueId"},
		{"no download url", `{"id": "3", "author": {"uniqueId": "alice"}, "video": {"format": "mp4"}}`, "video.downloadAddr"},
		{"no format", `{"id": "3", "author": {"uniqueId": "alice"}, "video": {"downloadAddr": "https://v/3"}}`, "video.format"},
	}
	good := `{"id": "1", "author": {"uniqueId": "alice"}, "video": {"downloadAddr": "https://v/1", "format": "mp4"}}`

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batch, err := newTestNormalizer().Process(apiResponse(`{"itemList": [` + good + `,` + tt.record + `]}`))
			require.NoError(t, err)
			assert.Len(t, batch.Items, 1)
			require.Len(t, batch.Dropped, 1)
			assert.Equal(t, DropMissingField, batch.Dropped[0].Reason)
			assert.Contains(t, batch.Dropped[0].Detail, tt.field)
		})
	}
}

func TestProcessDropsRecordsThatWouldEscapeOutputDir(t *testing.T) {
	tests := []struct {
		name   string
		record string
		field  string
	}{
		{"author traversal", `{"id": "3", "author": {"uniqueId": "../../escaped"}, "video": {"downloadAddr": "https://v/3", "format": "mp4"}}`, "author.uniqueId"},
		{"author dot dot", `{"id": "3", "author": {"uniqueId": ".."}, "video": {"downloadAddr": "https://v/3", "format": "mp4"}}`, "author.uniqueId"},
		{"id traversal", `{"id": "../../x", "author": {"uniqueId": "alice"}, "video": {"downloadAddr": "https://v/3", "format": "mp4"}}`, "id"},
		{"id backslash", `{"id": "a\\b", "author": {"uniqueId": "alice"}, "video": {"downloadAddr": "https://v/3", "format": "mp4"}}`, "id"},
		{"format separator", `{"id": "3", "author": {"uniqueId": "alice"}, "video": {"downloadAddr": "https://v/3", "format": "mp4/../../x"}}`, "video.format"},
	}
	good := `{"id": "1", "author": {"uniqueId": "alice"}, "video": {"downloadAddr": "https://v/1", "format": "mp4"}}`

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batch, err := newTestNormalizer().Process(apiResponse(`{"itemList": [` + good + `,` + tt.record + `]}`))
			require.NoError(t, err)
			require.Len(t, batch.Items, 1)
			assert.Equal(t, "1", batch.Items[0].ID)
			require.Len(t, batch.Dropped, 1)
			assert.Equal(t, DropInvalidField, batch.Dropped[0].Reason)
			assert.Equal(t, tt.field, batch.Dropped[0].Detail)
		})
	}
}

func TestProcessDocumentDropsUnsafeResolvedAuthor(t *testing.T) {
	state := `{
	  "UserModule": {"users": {"sneaky": {"uniqueId": "../sneaky"}, "alice": {"uniqueId": "alice"}}},
	  "ItemModule": {
	    "1": {"id": "1", "author": "sneaky", "video": {"downloadAddr": "https://v/1", "format": "mp4"}},
	    "2": {"id": "2", "author": "alice", "video": {"downloadAddr": "https://v/2", "format": "mp4"}}
	  }
	}`

	batch, err := newTestNormalizer().Process(documentResponse(page(state)))
	require.NoError(t, err)
	require.Len(t, batch.Items, 1)
	assert.Equal(t, "2", batch.Items[0].ID)
	require.Len(t, batch.Dropped, 1)
	assert.Equal(t, Drop{Key: "1", Reason: DropInvalidField, Detail: "author.uniqueId"}, batch.Dropped[0])
}

func TestProcessNonFeedResponses(t *testing.T) {
	tests := []struct {
		name string
		resp models.Response
	}{
		{
			name: "json without itemList from another endpoint",
			resp: models.Response{URL: "https://www.tiktok.com/api/user/detail/", Status: 200, Kind: models.KindXHR, Body: body(`{"userInfo": {}}`)},
		},
		{
			name: "script resource",
			resp: models.Response{URL: "https://cdn.example/app.js", Status: 200, Kind: models.KindScript, Body: body("var x = 1")},
		},
		{
			name: "redirected document",
			resp: models.Response{URL: "https://www.tiktok.com/@alice", Status: 302, Kind: models.KindDocument, Body: body("")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batch, err := newTestNormalizer().Process(tt.resp)
			assert.NoError(t, err)
			assert.Equal(t, SourceNone, batch.Source)
			assert.True(t, batch.Empty())
		})
	}
}

func TestProcessClassificationFailures(t *testing.T) {
	tests := []struct {
		name string
		resp models.Response
		kind ClassificationKind
	}{
		{
			name: "document without state script",
			resp: documentResponse("<html><body><p>captcha</p></body></html>"),
			kind: KindMissingStateScript,
		},
		{
			name: "state script with malformed json",
			resp: documentResponse(page(`{"UserModule": {`)),
			kind: KindMalformedJSON,
		},
		{
			name: "state without users",
			resp: documentResponse(page(`{"UserModule": {}, "ItemModule": {}}`)),
			kind: KindMissingKey,
		},
		{
			name: "state without ItemModule",
			resp: documentResponse(page(`{"UserModule": {"users": {}}}`)),
			kind: KindMissingKey,
		},
		{
			name: "ItemModule is not an object",
			resp: documentResponse(page(`{"UserModule": {"users": {}}, "ItemModule": []}`)),
			kind: KindMalformedJSON,
		},
		{
			name: "api body without itemList",
			resp: apiResponse(`{"statusCode": 10201}`),
			kind: KindMissingKey,
		},
		{
			name: "api body not json",
			resp: apiResponse(`<html>`),
			kind: KindMalformedJSON,
		},
		{
			name: "body unavailable",
			resp: models.Response{URL: testAPIPrefix, Status: 200, Kind: models.KindFetch, Body: func() ([]byte, error) {
				return nil, errors.New("No resource with given identifier found")
			}},
			kind: KindBodyUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batch, err := newTestNormalizer().Process(tt.resp)
			require.Error(t, err)

			var cerr *ClassificationError
			require.True(t, errors.As(err, &cerr))
			assert.Equal(t, tt.kind, cerr.Kind)
			assert.Equal(t, tt.resp.URL, cerr.URL)
			assert.True(t, batch.Empty())
			assert.NotEqual(t, SourceNone, batch.Source)
		})
	}
}

func TestProcessEmptyItemModule(t *testing.T) {
	batch, err := newTestNormalizer().Process(documentResponse(page(`{"UserModule": {"users": {}}, "ItemModule": {}}`)))
	require.NoError(t, err)
	assert.Equal(t, SourceDocument, batch.Source)
	assert.True(t, batch.Empty())
}

func TestParseEpoch(t *testing.T) {
	assert.Equal(t, int64(1650000000), parseEpoch([]byte(`1650000000`)))
	assert.Equal(t, int64(1650000000), parseEpoch([]byte(`"1650000000"`)))
	assert.Equal(t, int64(0), parseEpoch([]byte(`"soon"`)))
	assert.Equal(t, int64(0), parseEpoch([]byte(`null`)))
	assert.Equal(t, int64(0), parseEpoch(nil))
}
