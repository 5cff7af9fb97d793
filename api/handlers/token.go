package handlers

import (
	"context"
	"net/http"

	"github.com/linesmerrill/uptime-api/api"
	"github.com/linesmerrill/uptime-api/models"
	"github.com/linesmerrill/uptime-api/resources"
)

// Token exposes login sessions on /api/tokens
type Token struct {
	Tokens *resources.Tokens
}

// Handle dispatches on the request method
func (t Token) Handle(ctx context.Context, req models.Request) models.Response {
	switch req.Method {
	case http.MethodPost:
		return t.create(ctx, req)
	case http.MethodGet:
		return t.get(ctx, req)
	case http.MethodPut:
		return t.extend(ctx, req)
	case http.MethodDelete:
		return t.delete(ctx, req)
	default:
		return api.MethodNotAllowed()
	}
}

// create requires payload: phone, password. HTTP Basic phone:password is accepted instead.
func (t Token) create(ctx context.Context, req models.Request) models.Response {
	phone := resources.String(req.Payload, "phone")
	password := resources.String(req.Payload, "password")
	if phone == "" && password == "" {
		var token *models.Token
		ok, err := api.BasicLogin(ctx, req.Headers, func(ctx context.Context, phone, password string) error {
			var err error
			token, err = t.Tokens.Create(ctx, phone, password)
			return err
		})
		if ok {
			if err != nil {
				return api.Error(ctx, err)
			}
			return api.OK(token)
		}
	}
	token, err := t.Tokens.Create(ctx, phone, password)
	if err != nil {
		return api.Error(ctx, err)
	}
	return api.OK(token)
}

// get requires query: id
func (t Token) get(ctx context.Context, req models.Request) models.Response {
	token, err := t.Tokens.Get(ctx, req.Query.Get("id"))
	if err != nil {
		return api.Error(ctx, err)
	}
	return api.OK(token)
}

// extend requires payload: id, extend (must be true)
func (t Token) extend(ctx context.Context, req models.Request) models.Response {
	token, err := t.Tokens.Extend(ctx, resources.String(req.Payload, "id"), resources.Bool(req.Payload, "extend"))
	if err != nil {
		return api.Error(ctx, err)
	}
	return api.OK(token)
}

// delete requires query: id
func (t Token) delete(ctx context.Context, req models.Request) models.Response {
	if err := t.Tokens.Delete(ctx, req.Query.Get("id")); err != nil {
		return api.Error(ctx, err)
	}
	return api.OK(nil)
}
