package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naufalpram/ai-rag-chat/internal/config"
	"github.com/naufalpram/ai-rag-chat/internal/ingest"
	"github.com/naufalpram/ai-rag-chat/internal/models"
	"github.com/naufalpram/ai-rag-chat/internal/rag"
)

type fakeIngestor struct {
	id         string
	err        error
	calls      int
	multimodal int
}

func (f *fakeIngestor) Ingest(ctx context.Context, fileName string, data []byte) (string, error) {
	f.calls++
	return f.id, f.err
}

func (f *fakeIngestor) IngestMultimodal(ctx context.Context, fileName string, data []byte) (string, error) {
	f.multimodal++
	return f.id, f.err
}

type fakeAnswerer struct {
	answer string
	err    error
}

func (f *fakeAnswerer) Answer(ctx context.Context, question string) (string, error) {
	return f.answer, f.err
}

func newTestServer(ing Ingestor, chat Answerer, retrieve RetrieveFunc, pipeline string) *Server {
	cfg := &config.Config{}
	cfg.RAG.Pipeline = pipeline
	return NewServer(ing, chat, retrieve, cfg)
}

func multipartBody(t *testing.T, fieldName, fileName, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(fieldName, fileName)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestHandleUploadSuccess(t *testing.T) {
	ing := &fakeIngestor{id: "res-1"}
	srv := newTestServer(ing, nil, nil, config.PipelineText)

	body, contentType := multipartBody(t, "file", "guide.html", "<html></html>")
	req := httptest.NewRequest(http.MethodPost, "/api/resources", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["ok"])
	assert.Equal(t, "res-1", resp["resourceId"])
	assert.Equal(t, 1, ing.calls)
	assert.Equal(t, 0, ing.multimodal)
}

func TestHandleUploadMultimodalPipeline(t *testing.T) {
	ing := &fakeIngestor{id: "res-2"}
	srv := newTestServer(ing, nil, nil, config.PipelineMultimodal)

	body, contentType := multipartBody(t, "file", "guide.html", "<html></html>")
	req := httptest.NewRequest(http.MethodPost, "/api/resources", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, ing.calls)
	assert.Equal(t, 1, ing.multimodal)
}

func TestHandleUploadMissingFile(t *testing.T) {
	ing := &fakeIngestor{}
	srv := newTestServer(ing, nil, nil, config.PipelineText)

	body, contentType := multipartBody(t, "other", "guide.html", "x")
	req := httptest.NewRequest(http.MethodPost, "/api/resources", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, ing.calls)
}

func TestHandleUploadUnsupportedType(t *testing.T) {
	ing := &fakeIngestor{err: ingest.ErrUnsupportedType}
	srv := newTestServer(ing, nil, nil, config.PipelineText)

	body, contentType := multipartBody(t, "file", "notes.txt", "plain text")
	req := httptest.NewRequest(http.MethodPost, "/api/resources", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unsupported")
}

func TestHandleUploadInternalError(t *testing.T) {
	ing := &fakeIngestor{err: context.DeadlineExceeded}
	srv := newTestServer(ing, nil, nil, config.PipelineText)

	body, contentType := multipartBody(t, "file", "guide.html", "x")
	req := httptest.NewRequest(http.MethodPost, "/api/resources", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "deadline")
}

func TestHandleRetrieve(t *testing.T) {
	retrieve := func(ctx context.Context, question string) (interface{}, error) {
		return models.RetrievalResult{
			Guides:  []models.Guide{{Text: "fact", Similarity: 0.9}},
			Sources: []string{"manual"},
		}, nil
	}
	srv := newTestServer(nil, nil, retrieve, config.PipelineText)

	req := httptest.NewRequest(http.MethodPost, "/api/retrieve", strings.NewReader(`{"question":"how?"}`))
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp models.RetrievalResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"manual"}, resp.Sources)
	assert.Len(t, resp.Guides, 1)
}

func TestHandleRetrieveEmptyQuestion(t *testing.T) {
	retrieve := func(ctx context.Context, question string) (interface{}, error) {
		return nil, rag.ErrEmptyQuestion
	}
	srv := newTestServer(nil, nil, retrieve, config.PipelineText)

	req := httptest.NewRequest(http.MethodPost, "/api/retrieve", strings.NewReader(`{"question":""}`))
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleRetrieveBadBody(t *testing.T) {
	srv := newTestServer(nil, nil, nil, config.PipelineText)

	req := httptest.NewRequest(http.MethodPost, "/api/retrieve", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleChat(t *testing.T) {
	srv := newTestServer(nil, &fakeAnswerer{answer: "The capital is X."}, nil, config.PipelineText)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"question":"capital?"}`))
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "The capital is X.", resp["answer"])
}

func TestHandleChatEmptyQuestion(t *testing.T) {
	srv := newTestServer(nil, &fakeAnswerer{err: rag.ErrEmptyQuestion}, nil, config.PipelineText)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"question":"  "}`))
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(nil, nil, nil, config.PipelineText)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}
