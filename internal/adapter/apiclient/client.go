// Package apiclient talks to the business backend over HTTP.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"perritofeliz/internal/domain"
)

// GenericErrorMessage is used when the backend gives no message.
const GenericErrorMessage = "Error en la solicitud"

// APIError is returned for any non-2xx response.
type APIError struct {
	Status  int
	Message string
	Field   string
}

func (e *APIError) Error() string { return e.Message }

// Client wraps JSON and multipart POSTs against one base URL.
type Client struct {
	Base string
	HTTP *http.Client
}

// NewClient creates a client with the given request timeout.
func NewClient(base string, timeout time.Duration) *Client {
	return &Client{
		Base: strings.TrimRight(base, "/"),
		HTTP: &http.Client{Timeout: timeout},
	}
}

// PostJSON sends body as JSON and decodes a successful response into out, which
// may be nil.
func (c *Client) PostJSON(ctx context.Context, path string, body, out any) error {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(body); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Base+path, buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

// quoteEscaper escapes a Content-Disposition parameter the way multipart.Writer does.
var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// Part is a file part of a multipart request.
type Part struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

// PostMultipart sends fields and files as multipart/form-data. The content type
// and its boundary come from the multipart writer.
func (c *Client) PostMultipart(ctx context.Context, path string, fields map[string]string, files []Part, out any) error {
	buf := new(bytes.Buffer)
	mw := multipart.NewWriter(buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return err
		}
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, quoteEscaper.Replace(f.Field), quoteEscaper.Replace(f.Filename)))
		h.Set("Content-Type", f.ContentType)
		w, err := mw.CreatePart(h)
		if err != nil {
			return err
		}
		if _, err := w.Write(f.Data); err != nil {
			return err
		}
	}
	if err := mw.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Base+path, buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	if tok := domain.BackendToken(req.Context()); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("backend %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("backend %s: read body: %w", req.URL.Path, err)
	}

	if resp.StatusCode/100 != 2 {
		return decodeError(resp.StatusCode, raw)
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	// An unparsable success body leaves out at its zero value.
	_ = json.Unmarshal(raw, out)
	return nil
}

func decodeError(status int, raw []byte) *APIError {
	var body struct {
		Message string `json:"message"`
		Msg     string `json:"msg"`
		Error   string `json:"error"`
		Field   string `json:"field"`
	}
	_ = json.Unmarshal(raw, &body)

	msg := GenericErrorMessage
	for _, m := range []string{body.Message, body.Msg, body.Error} {
		if m != "" {
			msg = m
			break
		}
	}
	return &APIError{Status: status, Message: msg, Field: body.Field}
}
