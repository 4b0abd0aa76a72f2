package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	errs "tweetkit/pkg/errors"
)

// MultipartFile is a single file part of a multipart/form-data body.
type MultipartFile struct {
	Field    string
	FileName string
	Content  []byte
}

// Request describes one outbound call. Exactly one of Form, JSON or
// Multipart is used as the body; Form fields are also sent as multipart
// fields when Multipart is set.
type Request struct {
	// Op names the call in logs and errors
	Op      string
	Method  string
	URL     string
	Headers map[string]string
	Query   url.Values
	Form    url.Values
	JSON    any

	Multipart *MultipartFile
}

// Response is a fully read 2xx response
type Response struct {
	Status  int
	Body    []byte
	Headers http.Header
}

// JSON decodes the body into a generic tree. Numbers stay json.Number so
// 64-bit ids survive.
func (r *Response) JSON() (any, error) {
	dec := json.NewDecoder(bytes.NewReader(r.Body))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, &errs.Error{Type: errs.ErrorTypeProtocol, Message: "response is not JSON", Code: r.Status, Err: err}
	}
	return doc, nil
}

// Object decodes the body and requires a JSON object at the top level.
func (r *Response) Object() (map[string]any, error) {
	doc, err := r.JSON()
	if err != nil {
		return nil, err
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, &errs.Error{Type: errs.ErrorTypeProtocol, Message: "response is not a JSON object", Code: r.Status}
	}
	return obj, nil
}

// Decode unmarshals the body into v
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return &errs.Error{Type: errs.ErrorTypeProtocol, Message: "failed to parse JSON", Code: r.Status, Err: err}
	}
	return nil
}

// Sender is the outbound primitive shared by the upload pipeline and the
// endpoint client.
type Sender interface {
	Send(ctx context.Context, req Request) (*Response, error)
}

// SenderFunc adapts a function to Sender
type SenderFunc func(ctx context.Context, req Request) (*Response, error)

func (f SenderFunc) Send(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}

// build turns a Request into an *http.Request with its body encoded.
func (r Request) build(ctx context.Context) (*http.Request, error) {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	u, err := url.Parse(r.URL)
	if err != nil {
		return nil, errs.Validation(r.Op, "invalid URL %q: %v", r.URL, err)
	}
	if len(r.Query) > 0 {
		q := u.Query()
		for k, vs := range r.Query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	var body io.Reader
	contentType := ""
	switch {
	case r.Multipart != nil:
		buf := &bytes.Buffer{}
		w := multipart.NewWriter(buf)
		for k, vs := range r.Form {
			for _, v := range vs {
				if err := w.WriteField(k, v); err != nil {
					return nil, err
				}
			}
		}
		part, err := w.CreateFormFile(r.Multipart.Field, r.Multipart.FileName)
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(r.Multipart.Content); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		body = buf
		contentType = w.FormDataContentType()
	case r.JSON != nil:
		data, err := json.Marshal(r.JSON)
		if err != nil {
			return nil, errs.Validation(r.Op, "failed to encode JSON body: %v", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	case len(r.Form) > 0:
		body = strings.NewReader(r.Form.Encode())
		contentType = "application/x-www-form-urlencoded"
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, errs.Validation(r.Op, "failed to create request: %v", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req, nil
}
