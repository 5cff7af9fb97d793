package handlers

import (
	"context"
	"net/http"

	"github.com/linesmerrill/uptime-api/api"
	"github.com/linesmerrill/uptime-api/models"
	"github.com/linesmerrill/uptime-api/resources"
)

// User exposes signup and profile operations on /api/users
type User struct {
	Users *resources.Users
}

// Handle dispatches on the request method
func (u User) Handle(ctx context.Context, req models.Request) models.Response {
	switch req.Method {
	case http.MethodPost:
		return u.create(ctx, req)
	case http.MethodGet:
		return u.get(ctx, req)
	case http.MethodPut:
		return u.update(ctx, req)
	case http.MethodDelete:
		return u.delete(ctx, req)
	default:
		return api.MethodNotAllowed()
	}
}

// create requires payload: firstName, lastName, phone, password, tosAgreement
func (u User) create(ctx context.Context, req models.Request) models.Response {
	user, err := u.Users.Create(ctx, resources.DecodeNewUser(req.Payload))
	if err != nil {
		return api.Error(ctx, err)
	}
	return api.OK(user)
}

// get requires query: phone. Required header: token
func (u User) get(ctx context.Context, req models.Request) models.Response {
	user, err := u.Users.Get(ctx, req.Query.Get("phone"), api.Token(req.Headers))
	if err != nil {
		return api.Error(ctx, err)
	}
	return api.OK(user)
}

// update requires phone in the payload. Optional: firstName, lastName, password (at least one)
func (u User) update(ctx context.Context, req models.Request) models.Response {
	user, err := u.Users.Update(ctx, resources.String(req.Payload, "phone"), api.Token(req.Headers), resources.DecodeUserUpdate(req.Payload))
	if err != nil {
		return api.Error(ctx, err)
	}
	return api.OK(user)
}

// delete requires query: phone. Required header: token
func (u User) delete(ctx context.Context, req models.Request) models.Response {
	if err := u.Users.Delete(ctx, req.Query.Get("phone"), api.Token(req.Headers)); err != nil {
		return api.Error(ctx, err)
	}
	return api.OK(nil)
}
