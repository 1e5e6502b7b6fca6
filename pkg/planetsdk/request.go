package planetsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"

	"github.com/oklog/ulid/v2"

	"github.com/aussiebroadwan/planet/pkg/slogx"
)

// request describes one API call. Every resource goes through Client.do.
type request struct {
	method string
	path   string
	query  url.Values

	// body is JSON encoded when set.
	body any

	// form switches the request to multipart/form-data.
	form *multipartForm

	// auth attaches the stored bearer token; the call fails fast without one.
	auth bool
}

type multipartForm struct {
	files []formFile
}

type formFile struct {
	field    string
	fileName string
	content  io.Reader
}

// url builds a complete URL by appending the path and query to the base URL.
func (c *Client) url(path string, query url.Values) string {
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// do performs r and decodes a 2xx JSON body into out. An empty body leaves
// out untouched. Every failure is returned as an *APIError.
func (c *Client) do(ctx context.Context, r request, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	fail := func(kind ErrorKind, status int, msg string, err error) error {
		return &APIError{Kind: kind, StatusCode: status, Message: msg, Method: r.method, Path: r.path, Err: err}
	}

	body, contentType, err := r.encode()
	if err != nil {
		return fail(KindUnknown, http.StatusInternalServerError, "failed to encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.url(r.path, r.query), body)
	if err != nil {
		return fail(KindUnknown, http.StatusInternalServerError, "failed to create request", err)
	}

	reqID := ulid.Make().String()
	req.Header.Set(slogx.RequestIDHeader, reqID)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", contentType)

	if r.auth {
		token, err := c.StoredToken(ctx)
		if err != nil {
			return fail(KindUnknown, http.StatusInternalServerError, "failed to read access token", err)
		}
		if token == "" {
			return fail(KindNotAuthenticated, http.StatusUnauthorized, "no access token stored", ErrNotAuthenticated)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return classifyTransportError(ctx, r, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return classifyTransportError(ctx, r, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := string(data)
		if len(bytes.TrimSpace(data)) == 0 {
			msg = http.StatusText(resp.StatusCode)
		}
		slogx.FromContext(ctx).Debug("api error response",
			"req_id", reqID, "path", r.path, "status", resp.StatusCode)
		return fail(KindHTTP, resp.StatusCode, msg, nil)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fail(KindUnknown, http.StatusInternalServerError, "failed to decode response", err)
	}

	return nil
}

// encode returns the request body and its content type.
func (r request) encode() (io.Reader, string, error) {
	if r.form != nil {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		for _, f := range r.form.files {
			part, err := mw.CreateFormFile(f.field, f.fileName)
			if err != nil {
				return nil, "", err
			}
			if _, err := io.Copy(part, f.content); err != nil {
				return nil, "", fmt.Errorf("%w: %w", ErrEvidence, err)
			}
		}
		if err := mw.Close(); err != nil {
			return nil, "", err
		}
		return &buf, mw.FormDataContentType(), nil
	}

	if r.body == nil {
		return nil, "application/json", nil
	}

	b, err := json.Marshal(r.body)
	if err != nil {
		return nil, "", err
	}
	return bytes.NewReader(b), "application/json", nil
}

// classifyTransportError maps a failure from sending the request or reading
// the body onto KindTimeout or KindNetwork.
func classifyTransportError(ctx context.Context, r request, err error) error {
	apiErr := &APIError{Method: r.method, Path: r.path, Err: err}

	var netErr net.Error
	switch {
	case ctx.Err() != nil,
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		errors.As(err, &netErr) && netErr.Timeout():
		apiErr.Kind = KindTimeout
		apiErr.StatusCode = http.StatusRequestTimeout
		apiErr.Message = "request timed out"
	default:
		apiErr.Kind = KindNetwork
		apiErr.StatusCode = 0
		apiErr.Message = "network request failed"
	}

	return apiErr
}
