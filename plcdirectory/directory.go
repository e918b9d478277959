// Package plcdirectory implements the §6 directory wire protocol: the
// six HTTP calls a did:plc client makes against a PLC directory
// service — create, update, resolve, and the three log views — with
// every failure propagated to the caller as a *Error per §7.
package plcdirectory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Directory is the external collaborator interface from §5/§6: the
// directory client's six operations. Implementations beyond the
// default HTTP one (e.g. an in-memory fake for manager tests) only
// need to satisfy this.
type Directory interface {
	CreateDID(ctx context.Context, operation any) error
	UpdateDID(ctx context.Context, did string, operation any) error
	ResolveDID(ctx context.Context, did string) (map[string]any, error)
	GetOperationLog(ctx context.Context, did string) ([]map[string]any, error)
	GetAuditLog(ctx context.Context, did string) ([]map[string]any, error)
	GetLastOperation(ctx context.Context, did string) (map[string]any, error)
}

// HTTPDirectory is the default Directory backed by a real PLC
// directory service reachable over HTTPS.
type HTTPDirectory struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPDirectory returns an HTTPDirectory with a 10-second request
// timeout.
func NewHTTPDirectory(baseURL string) *HTTPDirectory {
	return &HTTPDirectory{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// CreateDID submits a signed genesis operation: POST /.
func (d *HTTPDirectory) CreateDID(ctx context.Context, operation any) error {
	_, err := d.post(ctx, "/", operation)
	return err
}

// UpdateDID submits a signed non-genesis operation: POST /<did>.
func (d *HTTPDirectory) UpdateDID(ctx context.Context, did string, operation any) error {
	_, err := d.post(ctx, "/"+did, operation)
	return err
}

// ResolveDID fetches the current DID document: GET /<did>.
func (d *HTTPDirectory) ResolveDID(ctx context.Context, did string) (map[string]any, error) {
	var doc map[string]any
	if err := d.getJSON(ctx, "/"+did, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// GetOperationLog fetches the full operation log: GET /<did>/log.
func (d *HTTPDirectory) GetOperationLog(ctx context.Context, did string) ([]map[string]any, error) {
	var entries []map[string]any
	if err := d.getJSON(ctx, "/"+did+"/log", &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// GetAuditLog fetches the annotated audit log: GET /<did>/log/audit.
func (d *HTTPDirectory) GetAuditLog(ctx context.Context, did string) ([]map[string]any, error) {
	var entries []map[string]any
	if err := d.getJSON(ctx, "/"+did+"/log/audit", &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// GetLastOperation fetches the head of the log, or nil if the
// directory has none: GET /<did>/log/last.
func (d *HTTPDirectory) GetLastOperation(ctx context.Context, did string) (map[string]any, error) {
	resp, err := d.do(ctx, http.MethodGet, "/"+did+"/log/last", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError("read last-op body", err)
	}
	if len(body) == 0 || string(bytes.TrimSpace(body)) == "null" {
		return nil, nil
	}
	var op map[string]any
	if err := json.Unmarshal(body, &op); err != nil {
		return nil, transportError("decode last-op JSON", err)
	}
	return op, nil
}

func (d *HTTPDirectory) post(ctx context.Context, path string, operation any) (map[string]any, error) {
	body, err := json.Marshal(operation)
	if err != nil {
		return nil, transportError("marshal operation", err)
	}
	resp, err := d.do(ctx, http.MethodPost, path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError("read response body", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return map[string]any{"success": true, "http_code": resp.StatusCode}, nil
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		// Not every successful POST returns a JSON body; an
		// undecodable non-empty body on a 2xx is tolerated as an
		// opaque success.
		return map[string]any{"success": true, "http_code": resp.StatusCode}, nil
	}
	return decoded, nil
}

func (d *HTTPDirectory) getJSON(ctx context.Context, path string, out any) error {
	resp, err := d.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return transportError(fmt.Sprintf("decode %s JSON", path), err)
	}
	return nil
}

// do issues the request and returns a response whose status is
// already known to be 2xx, or a *Error built from the directory's
// error body per §6's error/message/raw-body precedence.
func (d *HTTPDirectory) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	url := d.BaseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, transportError("build request", err)
	}
	req.Header.Set("Accept", "application/json")
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}

	reqID := uuid.NewString()
	req.Header.Set("X-Request-Id", reqID)

	resp, err := d.Client.Do(req)
	if err != nil {
		return nil, transportError(fmt.Sprintf("%s %s", method, url), err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		log.Printf("plcdirectory[%s]: %s %s -> %d", reqID, method, url, resp.StatusCode)
		return resp, nil
	}

	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return nil, &Error{Status: resp.StatusCode, Message: extractErrorMessage(raw)}
}

// extractErrorMessage implements §6's precedence: the body's "error"
// field, then "message", then the raw body text.
func extractErrorMessage(body []byte) string {
	var decoded struct {
		ErrorField string `json:"error"`
		Message    string `json:"message"`
	}
	if err := json.Unmarshal(body, &decoded); err == nil {
		if decoded.ErrorField != "" {
			return decoded.ErrorField
		}
		if decoded.Message != "" {
			return decoded.Message
		}
	}
	return string(body)
}
