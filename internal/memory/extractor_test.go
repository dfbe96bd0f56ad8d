package memory

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sightline-labs/sightline/internal/shared"
)

func TestExtractorClient_Extract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/extract" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"features":{"kind":"embedding","embedding":[0.6,0.8]}}`))
	}))
	defer srv.Close()

	client := NewExtractorClient(ExtractorConfig{Address: srv.URL})
	features, err := client.Extract(context.Background(), []byte("frame"), shared.BoundingBox{X2: 10, Y2: 10})
	if err != nil {
		t.Fatal(err)
	}
	if features.Kind != KindEmbedding || len(features.Embedding) != 2 {
		t.Errorf("features = %+v", features)
	}
}

func TestExtractorClient_SidecarError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"crop out of bounds"}`))
	}))
	defer srv.Close()

	client := NewExtractorClient(ExtractorConfig{Address: srv.URL})
	if _, err := client.Extract(context.Background(), []byte("frame"), shared.BoundingBox{}); err == nil {
		t.Fatal("expected error from sidecar payload")
	}
}

func TestExtractorClient_EmptyFrame(t *testing.T) {
	client := NewExtractorClient(ExtractorConfig{Address: "http://localhost:0"})
	if _, err := client.Extract(context.Background(), nil, shared.BoundingBox{}); err == nil {
		t.Fatal("expected error for empty frame")
	}
}
