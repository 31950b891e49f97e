package vision

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClientExtract(t *testing.T) {
	var received extractRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(extractResponse{
			Fields: []FieldValue{
				{Name: "part_number", Value: "A-1042", Confidence: 0.93},
				{Name: "material", Value: "S45C", Confidence: 0.88, Provenance: "vision-v2"},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	result, err := client.Extract(context.Background(), &Request{
		ImagePNG: []byte("fake png bytes"),
		Schema:   GenericSchema(),
	})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if len(result.Fields) != 2 {
		t.Fatalf("got %d fields, want 2", len(result.Fields))
	}
	if result.Fields[0].Name != "part_number" || result.Fields[0].Value != "A-1042" {
		t.Errorf("field 0: got %+v", result.Fields[0])
	}
	if result.Fields[0].Provenance != "vision" {
		t.Errorf("default provenance: got %q, want vision", result.Fields[0].Provenance)
	}
	if result.Fields[1].Provenance != "vision-v2" {
		t.Errorf("explicit provenance overwritten: got %q", result.Fields[1].Provenance)
	}

	if received.MimeType != "image/png" {
		t.Errorf("mime type: got %q", received.MimeType)
	}
	if len(received.Fields) != len(GenericSchema()) {
		t.Errorf("schema fields: got %d, want %d", len(received.Fields), len(GenericSchema()))
	}
}

func TestClientServerErrorIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	_, err := client.Extract(context.Background(), &Request{ImagePNG: []byte("x")})
	if err == nil {
		t.Fatalf("expected an error")
	}
	if !IsTransient(err) {
		t.Errorf("5xx should be transient, got %v", err)
	}
}

func TestClientRateLimitIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	_, err := client.Extract(context.Background(), &Request{ImagePNG: []byte("x")})
	if !IsTransient(err) {
		t.Errorf("429 should be transient, got %v", err)
	}
}

func TestClientClientErrorIsPermanent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such route", http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	_, err := client.Extract(context.Background(), &Request{ImagePNG: []byte("x")})
	if err == nil {
		t.Fatalf("expected an error")
	}
	if IsTransient(err) {
		t.Errorf("4xx should be permanent, got %v", err)
	}
}

func TestClientConnectionFailureIsTransient(t *testing.T) {
	// A server that is already gone.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClient(url, time.Second)
	_, err := client.Extract(context.Background(), &Request{ImagePNG: []byte("x")})
	if !IsTransient(err) {
		t.Errorf("transport failure should be transient, got %v", err)
	}
}

func TestIsTransient(t *testing.T) {
	if IsTransient(nil) {
		t.Errorf("nil is not transient")
	}
	if IsTransient(context.Canceled) {
		t.Errorf("plain errors are not transient")
	}
}
