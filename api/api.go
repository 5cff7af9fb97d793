package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/linesmerrill/uptime-api/apperr"
	"github.com/linesmerrill/uptime-api/models"
)

// MaxBodyBytes caps request bodies
const MaxBodyBytes = 1 << 20

// TokenHeader carries the caller's token id
const TokenHeader = "token"

var errBodyTooLarge = apperr.New(apperr.InvalidInput, "request body too large")

// Handler serves one resource from a normalized request
type Handler interface {
	Handle(ctx context.Context, req models.Request) models.Response
}

// HandlerFunc adapts a function to Handler
type HandlerFunc func(ctx context.Context, req models.Request) models.Response

// Handle calls f
func (f HandlerFunc) Handle(ctx context.Context, req models.Request) models.Response {
	return f(ctx, req)
}

// Serve adapts h to net/http: the request is normalized, h runs, and its
// response is written as JSON.
func Serve(h Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := NewRequest(w, r)
		if err != nil {
			WriteResponse(w, Error(r.Context(), err))
			return
		}
		WriteResponse(w, h.Handle(r.Context(), req))
	}
}

// NewRequest builds the normalized descriptor. A body that is not a JSON object
// becomes an empty payload; only an oversized body is an error.
func NewRequest(w http.ResponseWriter, r *http.Request) (models.Request, error) {
	req := models.Request{
		Method:  r.Method,
		Path:    strings.Trim(r.URL.Path, "/"),
		Query:   r.URL.Query(),
		Headers: r.Header,
		Payload: map[string]interface{}{},
	}
	if r.Body == nil {
		return req, nil
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return req, errBodyTooLarge
		}
		zap.S().Debugw("could not read request body", "error", err)
		return req, nil
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return req, nil
	}
	d := json.NewDecoder(bytes.NewReader(body))
	d.UseNumber()
	var payload map[string]interface{}
	if err := d.Decode(&payload); err == nil && payload != nil {
		req.Payload = payload
	}
	return req, nil
}

// Token returns the caller's token id from the token header or a Bearer authorization
func Token(h http.Header) string {
	if t := strings.TrimSpace(h.Get(TokenHeader)); t != "" {
		return t
	}
	return bearerToken(h)
}

// OK wraps body in a 200 JSON response
func OK(body interface{}) models.Response {
	return models.Response{Status: http.StatusOK, Body: body, ContentType: models.ContentTypeJSON}
}

// Error turns err into its status and a short message. Internal details are logged, never returned.
func Error(ctx context.Context, err error) models.Response {
	kind := apperr.KindOf(err)
	status := apperr.Status(kind)
	body := models.ErrorMessageResponse{
		Error:  apperr.MessageOf(err),
		Failed: apperr.FailedOf(err),
	}
	if status >= http.StatusInternalServerError {
		zap.S().Errorw(body.Error, "kind", kind.String(), "requestId", RequestIDFromContext(ctx), "error", err)
	} else {
		zap.S().Debugw(body.Error, "kind", kind.String(), "requestId", RequestIDFromContext(ctx))
	}
	return models.Response{Status: status, Body: body, ContentType: models.ContentTypeJSON}
}

// MethodNotAllowed is the response for a verb a resource does not serve
func MethodNotAllowed() models.Response {
	return models.Response{
		Status:      http.StatusMethodNotAllowed,
		Body:        models.ErrorMessageResponse{Error: "method not allowed"},
		ContentType: models.ContentTypeJSON,
	}
}

// WriteResponse writes resp as JSON; a nil body is written as {}
func WriteResponse(w http.ResponseWriter, resp models.Response) {
	contentType := resp.ContentType
	if contentType == "" {
		contentType = models.ContentTypeJSON
	}
	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	body := resp.Body
	if body == nil {
		body = struct{}{}
	}
	b, err := json.Marshal(body)
	if err != nil {
		zap.S().Errorw("failed to marshal response", "error", err)
		status = http.StatusInternalServerError
		b = []byte(`{"Error":"internal error"}`)
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, _ = w.Write(b)
}
