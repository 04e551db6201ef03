package api

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/labstack/echo/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samcharles93/ggufmeta/internal/extract"
	"github.com/samcharles93/ggufmeta/internal/gguf"
)

func fakeRunner(res *extract.Result, err error) Runner {
	return func(path string, opts extract.Options) (*extract.Result, error) {
		if err != nil {
			return nil, err
		}
		out := *res
		out.Path = path
		return &out, nil
	}
}

func newTestEcho(run Runner) *echo.Echo {
	server := NewServer(NewExtractionStore(), run)
	e := echo.New()
	server.Register(e)
	return e
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestExtractionLifecycle(t *testing.T) {
	t.Parallel()

	e := newTestEcho(fakeRunner(&extract.Result{
		KVCount: 3,
		Entries: []gguf.Entry{
			{Key: "tokenizer.ggml.model", Value: "gpt2"},
			{Key: "some.chat_template", Value: "{{messages}}"},
		},
	}, nil))

	createRec := doJSON(t, e, http.MethodPost, "/v1/extractions", `{"path":"model.gguf"}`)
	require.Equal(t, http.StatusOK, createRec.Code, createRec.Body.String())

	var created ExtractionResponse
	require.NoError(t, json.Unmarshal(createRec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "extraction", created.Object)
	assert.Equal(t, "model.gguf", created.Path)
	assert.Equal(t, 2, created.Count)
	require.Len(t, created.Entries, 2)
	assert.Equal(t, "gpt2", created.Entries[0].Value)

	getRec := doJSON(t, e, http.MethodGet, "/v1/extractions/"+created.ID, "")
	require.Equal(t, http.StatusOK, getRec.Code, getRec.Body.String())

	listRec := doJSON(t, e, http.MethodGet, "/v1/extractions", "")
	require.Equal(t, http.StatusOK, listRec.Code)
	assert.Contains(t, listRec.Body.String(), created.ID)

	delRec := doJSON(t, e, http.MethodDelete, "/v1/extractions/"+created.ID, "")
	require.Equal(t, http.StatusOK, delRec.Code)
	assert.Contains(t, delRec.Body.String(), `"deleted":true`)

	goneRec := doJSON(t, e, http.MethodGet, "/v1/extractions/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, goneRec.Code)
}

func TestCreateValidation(t *testing.T) {
	t.Parallel()

	e := newTestEcho(fakeRunner(&extract.Result{}, nil))

	rec := doJSON(t, e, http.MethodPost, "/v1/extractions", `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "path is required")

	rec = doJSON(t, e, http.MethodPost, "/v1/extractions", `not-json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateMissingCheckpoint(t *testing.T) {
	t.Parallel()

	e := newTestEcho(fakeRunner(nil, os.ErrNotExist))

	rec := doJSON(t, e, http.MethodPost, "/v1/extractions", `{"path":"/nope.gguf"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "not_found_error")
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	e := newTestEcho(fakeRunner(&extract.Result{}, nil))
	rec := doJSON(t, e, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}
