package handlers

import (
	"context"
	"net/http"

	"github.com/linesmerrill/uptime-api/api"
	"github.com/linesmerrill/uptime-api/models"
	"github.com/linesmerrill/uptime-api/resources"
)

// Check exposes uptime checks on /api/checks
type Check struct {
	Checks *resources.Checks
}

// Handle dispatches on the request method
func (c Check) Handle(ctx context.Context, req models.Request) models.Response {
	switch req.Method {
	case http.MethodPost:
		return c.create(ctx, req)
	case http.MethodGet:
		return c.get(ctx, req)
	case http.MethodPut:
		return c.update(ctx, req)
	case http.MethodDelete:
		return c.delete(ctx, req)
	default:
		return api.MethodNotAllowed()
	}
}

func (c Check) create(ctx context.Context, req models.Request) models.Response {
	fields, err := resources.DecodeCheckFields(req.Payload)
	if err != nil {
		return api.Error(ctx, err)
	}
	check, err := c.Checks.Create(ctx, api.Token(req.Headers), fields)
	if err != nil {
		return api.Error(ctx, err)
	}
	return api.OK(check)
}

func (c Check) get(ctx context.Context, req models.Request) models.Response {
	check, err := c.Checks.Get(ctx, req.Query.Get("id"), api.Token(req.Headers))
	if err != nil {
		return api.Error(ctx, err)
	}
	return api.OK(check)
}

func (c Check) update(ctx context.Context, req models.Request) models.Response {
	fields, err := resources.DecodeCheckFields(req.Payload)
	if err != nil {
		return api.Error(ctx, err)
	}
	check, err := c.Checks.Update(ctx, resources.String(req.Payload, "id"), api.Token(req.Headers), fields)
	if err != nil {
		return api.Error(ctx, err)
	}
	return api.OK(check)
}

func (c Check) delete(ctx context.Context, req models.Request) models.Response {
	if err := c.Checks.Delete(ctx, req.Query.Get("id"), api.Token(req.Headers)); err != nil {
		return api.Error(ctx, err)
	}
	return api.OK(nil)
}

// List serves GET /api/checks/all?phone=, the caller's checks in creation order
func (c Check) List(ctx context.Context, req models.Request) models.Response {
	if req.Method != http.MethodGet {
		return api.MethodNotAllowed()
	}
	checks, err := c.Checks.List(ctx, req.Query.Get("phone"), api.Token(req.Headers))
	if err != nil {
		return api.Error(ctx, err)
	}
	return api.OK(checks)
}
