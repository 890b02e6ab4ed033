package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	vectorstore_mocks "textbook-ai/internal/vectorstore/mocks"

	"go.uber.org/mock/gomock"
)

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name       string
		exists     bool
		err        error
		wantStatus int
		wantHealth string
	}{
		{"healthy", true, nil, http.StatusOK, "healthy"},
		{"collection missing", false, nil, http.StatusServiceUnavailable, "unhealthy"},
		{"store unreachable", false, errors.New("connection refused"), http.StatusServiceUnavailable, "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockStore := vectorstore_mocks.NewMockVectorStore(ctrl)
			mockStore.EXPECT().
				CollectionExists(gomock.Any(), "textbook").
				Return(tt.exists, tt.err)

			handler := NewHealthHandler(mockStore, "textbook")
			req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			var resp HealthResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Status != tt.wantHealth {
				t.Errorf("status = %q, want %q", resp.Status, tt.wantHealth)
			}
			if tt.wantHealth == "unhealthy" && len(resp.Issues) == 0 {
				t.Error("expected issues to be listed")
			}
		})
	}
}

func TestHealthHandlerMethodNotAllowed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	handler := NewHealthHandler(vectorstore_mocks.NewMockVectorStore(ctrl), "textbook")
	req := httptest.NewRequest(http.MethodPost, "/api/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}
