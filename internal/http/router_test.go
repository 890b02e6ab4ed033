package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"textbook-ai/internal/rag"
	rag_mocks "textbook-ai/internal/rag/mocks"
	storage_mocks "textbook-ai/internal/storage/mocks"
	vectorstore_mocks "textbook-ai/internal/vectorstore/mocks"

	"go.uber.org/mock/gomock"
)

func testDeps(ctrl *gomock.Controller) (*Deps, *rag_mocks.MockEngine, *vectorstore_mocks.MockVectorStore, *storage_mocks.MockChunkStore) {
	engine := rag_mocks.NewMockEngine(ctrl)
	messages := storage_mocks.NewMockMessageStore(ctrl)
	chunks := storage_mocks.NewMockChunkStore(ctrl)
	store := vectorstore_mocks.NewMockVectorStore(ctrl)

	deps := &Deps{
		Engine:         engine,
		Messages:       messages,
		Chunks:         chunks,
		VectorStore:    store,
		CollectionName: "textbook",
	}
	return deps, engine, store, chunks
}

func TestRouterQueryRoute(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	deps, engine, _, _ := testDeps(ctrl)
	engine.EXPECT().
		Answer(gomock.Any(), gomock.Any()).
		Return(rag.QueryResult{Answer: "ok", Citations: []rag.Citation{}, MessageID: "m1"}, nil)
	deps.Messages.(*storage_mocks.MockMessageStore).EXPECT().
		LogMessage(gomock.Any(), gomock.Any()).
		Return(nil)

	router := NewRouter(deps)
	req := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader(`{"question":"Explain robot kinematics concepts today"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["answer"] != "ok" {
		t.Errorf("unexpected answer: %v", body["answer"])
	}
}

func TestRouterHealthRoute(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	deps, _, store, _ := testDeps(ctrl)
	store.EXPECT().CollectionExists(gomock.Any(), "textbook").Return(true, nil)

	router := NewRouter(deps)
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRouterContentStatusRoute(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	deps, _, _, chunks := testDeps(ctrl)
	chunks.EXPECT().Count(gomock.Any()).Return(3, nil)
	chunks.EXPECT().ListModules(gomock.Any()).Return([]string{"module-1"}, nil)

	router := NewRouter(deps)
	req := httptest.NewRequest(http.MethodGet, "/api/content-status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRouterMethodNotAllowed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	deps, _, _, _ := testDeps(ctrl)
	router := NewRouter(deps)

	req := httptest.NewRequest(http.MethodGet, "/api/query", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}

func TestRouterUnknownRoute(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	deps, _, _, _ := testDeps(ctrl)
	router := NewRouter(deps)

	req := httptest.NewRequest(http.MethodGet, "/api/unknown", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestRouterPreflight(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	deps, _, _, _ := testDeps(ctrl)
	router := NewRouter(deps)

	req := httptest.NewRequest(http.MethodOptions, "/api/query", nil)
	req.Header.Set("Origin", "https://textbook.example.com")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("expected CORS headers on preflight")
	}
}

func TestRouterRateLimitWired(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	deps, _, store, _ := testDeps(ctrl)
	deps.RequestsPerMinute = 1
	store.EXPECT().CollectionExists(gomock.Any(), "textbook").Return(true, nil).AnyTimes()

	router := NewRouter(deps)

	// Health is exempt, so it never trips the limit
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.RemoteAddr = "10.0.0.9:1234"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("health check throttled: %d", rec.Code)
		}
	}

	// The second content request from the same client is throttled
	first := httptest.NewRequest(http.MethodGet, "/api/content-status", nil)
	first.RemoteAddr = "10.0.0.9:1234"
	firstRec := httptest.NewRecorder()
	deps.Chunks.(*storage_mocks.MockChunkStore).EXPECT().Count(gomock.Any()).Return(0, nil).AnyTimes()
	deps.Chunks.(*storage_mocks.MockChunkStore).EXPECT().ListModules(gomock.Any()).Return(nil, nil).AnyTimes()
	router.ServeHTTP(firstRec, first)
	if firstRec.Code != http.StatusOK {
		t.Fatalf("first request rejected: %d", firstRec.Code)
	}

	second := httptest.NewRequest(http.MethodGet, "/api/content-status", nil)
	second.RemoteAddr = "10.0.0.9:1234"
	secondRec := httptest.NewRecorder()
	router.ServeHTTP(secondRec, second)
	if secondRec.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", secondRec.Code)
	}
}
