package plcdirectory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCreateDIDSuccess(t *testing.T) {
	var gotPath, gotMethod, gotAccept, gotContentType, gotRequestID string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		gotAccept = r.Header.Get("Accept")
		gotContentType = r.Header.Get("Content-Type")
		gotRequestID = r.Header.Get("X-Request-Id")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	dir := NewHTTPDirectory(srv.URL)
	err := dir.CreateDID(context.Background(), map[string]any{"type": "plc_operation"})
	if err != nil {
		t.Fatalf("CreateDID: %v", err)
	}
	if gotPath != "/" || gotMethod != http.MethodPost {
		t.Fatalf("got %s %s, want POST /", gotMethod, gotPath)
	}
	if gotAccept != "application/json" || gotContentType != "application/json" {
		t.Fatalf("headers: accept=%q content-type=%q", gotAccept, gotContentType)
	}
	if gotRequestID == "" {
		t.Fatal("X-Request-Id header was not set")
	}
	if gotBody["type"] != "plc_operation" {
		t.Fatalf("body = %v", gotBody)
	}
}

func TestUpdateDIDPath(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	dir := NewHTTPDirectory(srv.URL)
	if err := dir.UpdateDID(context.Background(), "did:plc:abc123", map[string]any{}); err != nil {
		t.Fatalf("UpdateDID: %v", err)
	}
	if gotPath != "/did:plc:abc123" {
		t.Fatalf("path = %q, want /did:plc:abc123", gotPath)
	}
}

func TestResolveDID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/did:plc:abc123" || r.Method != http.MethodGet {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{"id": "did:plc:abc123"})
	}))
	defer srv.Close()

	dir := NewHTTPDirectory(srv.URL)
	doc, err := dir.ResolveDID(context.Background(), "did:plc:abc123")
	if err != nil {
		t.Fatalf("ResolveDID: %v", err)
	}
	if doc["id"] != "did:plc:abc123" {
		t.Fatalf("doc = %v", doc)
	}
}

func TestGetLastOperationNull(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("null"))
	}))
	defer srv.Close()

	dir := NewHTTPDirectory(srv.URL)
	op, err := dir.GetLastOperation(context.Background(), "did:plc:abc123")
	if err != nil {
		t.Fatalf("GetLastOperation: %v", err)
	}
	if op != nil {
		t.Fatalf("op = %v, want nil", op)
	}
}

func TestGetLastOperationValue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"cid": "bafyabc", "operation": map[string]any{"type": "plc_operation"}})
	}))
	defer srv.Close()

	dir := NewHTTPDirectory(srv.URL)
	op, err := dir.GetLastOperation(context.Background(), "did:plc:abc123")
	if err != nil {
		t.Fatalf("GetLastOperation: %v", err)
	}
	if op["cid"] != "bafyabc" {
		t.Fatalf("op = %v", op)
	}
}

// §6/§7: error field takes precedence over message, which takes
// precedence over the raw body.
func TestErrorPrecedenceErrorField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{"error": "InvalidSignature", "message": "ignored"})
	}))
	defer srv.Close()

	dir := NewHTTPDirectory(srv.URL)
	err := dir.CreateDID(context.Background(), map[string]any{})
	var dirErr *Error
	if !asError(err, &dirErr) {
		t.Fatalf("err = %v, want *Error", err)
	}
	if dirErr.Status != http.StatusBadRequest || dirErr.Message != "InvalidSignature" {
		t.Fatalf("dirErr = %+v", dirErr)
	}
}

func TestErrorPrecedenceMessageField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]any{"message": "stale prev"})
	}))
	defer srv.Close()

	dir := NewHTTPDirectory(srv.URL)
	err := dir.CreateDID(context.Background(), map[string]any{})
	var dirErr *Error
	if !asError(err, &dirErr) {
		t.Fatalf("err = %v, want *Error", err)
	}
	if dirErr.Message != "stale prev" {
		t.Fatalf("message = %q, want %q", dirErr.Message, "stale prev")
	}
}

func TestErrorPrecedenceRawBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("internal server error"))
	}))
	defer srv.Close()

	dir := NewHTTPDirectory(srv.URL)
	err := dir.CreateDID(context.Background(), map[string]any{})
	var dirErr *Error
	if !asError(err, &dirErr) {
		t.Fatalf("err = %v, want *Error", err)
	}
	if dirErr.Message != "internal server error" {
		t.Fatalf("message = %q", dirErr.Message)
	}
}

func asError(err error, target **Error) bool {
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	*target = e
	return true
}
