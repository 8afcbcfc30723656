package transaction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// WriteError reports a submission the platform did not accept.
type WriteError struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *WriteError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("espn %s write: %v", e.Kind, e.Err)
	case e.Status >= 400:
		return fmt.Sprintf("espn %s write failed: HTTP %d: %s", e.Kind, e.Status, e.Message)
	default:
		return fmt.Sprintf("espn %s write error: %s", e.Kind, e.Message)
	}
}

func (e *WriteError) Unwrap() error { return e.Err }

// Credentials are the session cookies ESPN expects on every write.
type Credentials struct {
	SWID   string
	ESPNS2 string
}

// Submitter posts rendered requests. It never retries.
type Submitter struct {
	Client *http.Client
	Creds  Credentials
}

// NewSubmitter creates a submitter with optional proxy support.
func NewSubmitter(creds Credentials, proxyURL string) *Submitter {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &Submitter{
		Creds: creds,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

// Submit sends req and interprets the response. A status of 400 or above, or a
// body carrying an error or "invalid" message, yields a WriteError.
func (s *Submitter) Submit(ctx context.Context, req *Request) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return nil, &WriteError{Kind: req.Kind, Err: err}
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.AddCookie(&http.Cookie{Name: "SWID", Value: s.Creds.SWID})
	httpReq.AddCookie(&http.Cookie{Name: "espn_s2", Value: s.Creds.ESPNS2})

	resp, err := s.Client.Do(httpReq)
	if err != nil {
		return nil, &WriteError{Kind: req.Kind, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &WriteError{Kind: req.Kind, Status: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	if resp.StatusCode >= 400 {
		return nil, &WriteError{Kind: req.Kind, Status: resp.StatusCode, Message: truncate(string(body), 500)}
	}
	if msg := bodyError(body); msg != "" {
		return nil, &WriteError{Kind: req.Kind, Status: resp.StatusCode, Message: msg}
	}
	return body, nil
}

// bodyError extracts a failure message from a 2xx response, or returns "".
func bodyError(body []byte) string {
	var data map[string]json.RawMessage
	if len(bytes.TrimSpace(body)) == 0 || json.Unmarshal(body, &data) != nil {
		return ""
	}
	if raw, ok := data["error"]; ok {
		if s := rawText(raw); s != "" {
			return s
		}
	}
	for _, key := range []string{"messages", "message"} {
		raw, ok := data[key]
		if !ok {
			continue
		}
		var list []map[string]any
		if json.Unmarshal(raw, &list) == nil && len(list) > 0 {
			msg := firstString(list[0], "message", "text")
			if msg == "" {
				b, _ := json.Marshal(list[0])
				msg = string(b)
			}
			if failureText(msg) {
				return msg
			}
			continue
		}
		var s string
		if json.Unmarshal(raw, &s) == nil && failureText(s) {
			return s
		}
	}
	return ""
}

// rawText renders a JSON error value; falsy values (null, false, "", 0, {}, []) are empty.
func rawText(raw json.RawMessage) string {
	var v any
	if json.Unmarshal(raw, &v) != nil {
		return ""
	}
	switch t := v.(type) {
	case nil:
		return ""
	case bool:
		if !t {
			return ""
		}
	case string:
		return t
	case float64:
		if t == 0 {
			return ""
		}
	case []any:
		if len(t) == 0 {
			return ""
		}
	case map[string]any:
		if len(t) == 0 {
			return ""
		}
	}
	return string(raw)
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func failureText(s string) bool {
	l := strings.ToLower(s)
	return strings.Contains(l, "error") || strings.Contains(l, "invalid")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
