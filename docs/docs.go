// Package docs Lines Uptime API.
//
// Documentation of Lines Uptime API.
//
//     Schemes: https
//     BasePath: /
//     Version: 1.0.0
//
//     Consumes:
//     - application/json
//
//     Produces:
//     - application/json
//
//     Security:
//     - token
//
//    SecurityDefinitions:
//    token:
//      type: apiKey
//      in: header
//      name: token
//
// swagger:meta
package docs

import (
	"github.com/linesmerrill/uptime-api/models"
)

// swagger:route GET /health health healthEndpointID
// Lists the healthchex of the web service api.
// responses:
//   200: healthResponse

// Shows the current health of the api. true means it is alive, false means it is not.
// swagger:response healthResponse
type healthResponseWrapper struct {
	// in:body
	Body models.HealthCheckResponse
}

// swagger:route POST /api/users users createUser
// Signs up a new user. Requires firstName, lastName, phone, password and tosAgreement=true.
// responses:
//   200: userResponse
//   400: errorResponse

// swagger:route GET /api/users users getUser
// Gets the user for ?phone= when the token belongs to that user.
// responses:
//   200: userResponse
//   403: errorResponse
//   404: errorResponse

// swagger:route PUT /api/users users updateUser
// Updates firstName, lastName or password of the user named by phone in the payload.
// responses:
//   200: userResponse
//   400: errorResponse
//   403: errorResponse

// swagger:route DELETE /api/users users deleteUser
// Deletes the user for ?phone= and every check the user owns.
// responses:
//   200: emptyResponse
//   403: errorResponse
//   500: errorResponse

// A user, never including the password digest
// swagger:response userResponse
type userResponseWrapper struct {
	// in:body
	Body models.User
}

// swagger:route POST /api/tokens tokens createToken
// Logs in with phone and password, in the payload or as HTTP Basic credentials.
// responses:
//   200: tokenResponse
//   400: errorResponse

// swagger:route GET /api/tokens tokens getToken
// Gets the token for ?id=.
// responses:
//   200: tokenResponse
//   404: errorResponse

// swagger:route PUT /api/tokens tokens extendToken
// Extends a live token by one lifetime. Requires id and extend=true.
// responses:
//   200: tokenResponse
//   400: errorResponse

// swagger:route DELETE /api/tokens tokens deleteToken
// Logs out by deleting the token for ?id=.
// responses:
//   200: emptyResponse
//   404: errorResponse

// A token; expires is in Unix milliseconds
// swagger:response tokenResponse
type tokenResponseWrapper struct {
	// in:body
	Body models.Token
}

// swagger:route POST /api/checks checks createCheck
// Creates a check for the token's user, up to the configured maximum.
// responses:
//   200: checkResponse
//   400: errorResponse
//   403: errorResponse

// swagger:route GET /api/checks checks getCheck
// Gets the check for ?id=.
// responses:
//   200: checkResponse
//   403: errorResponse
//   404: errorResponse

// swagger:route PUT /api/checks checks updateCheck
// Updates any of protocol, url, method, successCodes, timeoutSeconds of the check named by id.
// responses:
//   200: checkResponse
//   400: errorResponse

// swagger:route DELETE /api/checks checks deleteCheck
// Deletes the check for ?id= and removes it from its owner.
// responses:
//   200: emptyResponse
//   500: errorResponse

// A check definition
// swagger:response checkResponse
type checkResponseWrapper struct {
	// in:body
	Body models.Check
}

// swagger:route GET /api/checks/all checks listChecks
// Lists the checks of the user for ?phone=.
// responses:
//   200: checkListResponse

// The user's checks in creation order
// swagger:response checkListResponse
type checkListResponseWrapper struct {
	// in:body
	Body []models.Check
}

// swagger:response emptyResponse
type emptyResponseWrapper struct{}

// Error carries a short message; failed lists the check ids a user delete left behind
// swagger:response errorResponse
type errorResponseWrapper struct {
	// in:body
	Body models.ErrorMessageResponse
}
