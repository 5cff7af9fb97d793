package models

import (
	"net/http"
	"net/url"
)

// Request is the normalized descriptor handed to a resource handler. The
// router builds it, so handlers never touch the raw *http.Request.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Headers http.Header
	// Payload is the JSON body, empty when the body is missing or malformed
	Payload map[string]interface{}
}

// Response is what a resource handler returns to the router
type Response struct {
	Status      int
	Body        interface{}
	ContentType string
}

// ContentTypeJSON is the only content type produced by the API
const ContentTypeJSON = "application/json"
