package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linesmerrill/uptime-api/config"
)

const (
	annPhone    = "5551234567"
	annPassword = "secr3t"
	annSignup   = `{"firstName":"Ann","lastName":"Lee","phone":"5551234567","password":"secr3t","tosAgreement":true}`
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	a := &App{Config: config.Config{
		DataDir:        t.TempDir(),
		HashingSecret:  "thisIsASecret",
		MaxChecks:      2,
		TokenLifetime:  time.Hour,
		RequestTimeout: 5 * time.Second,
	}}
	require.NoError(t, a.Initialize())
	t.Cleanup(a.Close)
	return a
}

func executeRequest(a *App, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	a.Router.ServeHTTP(rr, req)
	return rr
}

func checkResponseCode(t *testing.T, expected, actual int) {
	t.Helper()
	if expected != actual {
		t.Errorf("Expected response code %d. Got %d\n", expected, actual)
	}
}

func newRequest(method, target, body, token string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
	}
	if token != "" {
		req.Header.Set("token", token)
	}
	return req
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &m), rr.Body.String())
	return m
}

func login(t *testing.T, a *App) string {
	t.Helper()
	checkResponseCode(t, http.StatusOK, executeRequest(a, newRequest("POST", "/api/users", annSignup, "")).Code)
	rr := executeRequest(a, newRequest("POST", "/api/tokens", `{"phone":"5551234567","password":"secr3t"}`, ""))
	checkResponseCode(t, http.StatusOK, rr.Code)
	return decodeBody(t, rr)["id"].(string)
}

func TestUnknownRoute(t *testing.T) {
	a := newTestApp(t)
	response := executeRequest(a, newRequest("GET", "/asdf", "", ""))

	checkResponseCode(t, http.StatusNotFound, response.Code)
	assert.JSONEq(t, `{"Error":"not found"}`, response.Body.String())
}

func TestHealthCheckRoute(t *testing.T) {
	a := newTestApp(t)
	response := executeRequest(a, newRequest("GET", "/health", "", ""))

	checkResponseCode(t, http.StatusOK, response.Code)
	if !strings.Contains(response.Body.String(), "alive") {
		t.Errorf("Expected 'alive' in the reponse. Got '%s'", response.Body.String())
	}
}

func TestPing(t *testing.T) {
	a := newTestApp(t)
	response := executeRequest(a, newRequest("GET", "/ping", "", ""))

	checkResponseCode(t, http.StatusOK, response.Code)
	assert.NotEmpty(t, response.Header().Get("X-Request-Id"))
}

func TestMethodNotAllowed(t *testing.T) {
	a := newTestApp(t)
	for _, target := range []string{"/api/users", "/api/tokens", "/api/checks", "/api/checks/all", "/api/metrics"} {
		response := executeRequest(a, newRequest("PATCH", target, "", ""))
		checkResponseCode(t, http.StatusMethodNotAllowed, response.Code)
	}
}

func TestUserScenario(t *testing.T) {
	a := newTestApp(t)

	rr := executeRequest(a, newRequest("POST", "/api/users", annSignup, ""))
	checkResponseCode(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "hashedPassword")

	rr = executeRequest(a, newRequest("POST", "/api/users", annSignup, ""))
	checkResponseCode(t, http.StatusBadRequest, rr.Code)
	assert.NotEmpty(t, decodeBody(t, rr)["Error"])

	before := time.Now()
	rr = executeRequest(a, newRequest("POST", "/api/tokens", `{"phone":"5551234567","password":"secr3t"}`, ""))
	checkResponseCode(t, http.StatusOK, rr.Code)
	token := decodeBody(t, rr)
	id := token["id"].(string)
	assert.Len(t, id, 20)
	expires := int64(token["expires"].(float64))
	assert.InDelta(t, before.Add(time.Hour).UnixMilli(), expires, 5000)

	rr = executeRequest(a, newRequest("GET", "/api/users?phone="+annPhone, "", id))
	checkResponseCode(t, http.StatusOK, rr.Code)
	user := decodeBody(t, rr)
	assert.Equal(t, "Ann", user["firstName"])
	assert.NotContains(t, user, "hashedPassword")

	rr = executeRequest(a, newRequest("DELETE", "/api/users?phone="+annPhone, "", id))
	checkResponseCode(t, http.StatusOK, rr.Code)

	rr = executeRequest(a, newRequest("GET", "/api/users?phone="+annPhone, "", id))
	checkResponseCode(t, http.StatusNotFound, rr.Code)
}

func TestUserRequiresToken(t *testing.T) {
	a := newTestApp(t)
	login(t, a)

	rr := executeRequest(a, newRequest("GET", "/api/users?phone="+annPhone, "", ""))
	checkResponseCode(t, http.StatusForbidden, rr.Code)

	rr = executeRequest(a, newRequest("GET", "/api/users?phone=123", "", ""))
	checkResponseCode(t, http.StatusBadRequest, rr.Code)
}

func TestUserUpdate(t *testing.T) {
	a := newTestApp(t)
	id := login(t, a)

	req := newRequest("PUT", "/api/users", `{"phone":"5551234567","lastName":"Park"}`, "")
	req.Header.Set("Authorization", "Bearer "+id)
	rr := executeRequest(a, req)
	checkResponseCode(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Park", decodeBody(t, rr)["lastName"])

	rr = executeRequest(a, newRequest("PUT", "/api/users", `{"phone":"5551234567"}`, id))
	checkResponseCode(t, http.StatusBadRequest, rr.Code)
}

func TestTokenRoutes(t *testing.T) {
	a := newTestApp(t)
	id := login(t, a)

	rr := executeRequest(a, newRequest("POST", "/api/tokens", `{"phone":"5551234567","password":"nope"}`, ""))
	checkResponseCode(t, http.StatusBadRequest, rr.Code)

	req := newRequest("POST", "/api/tokens", "", "")
	req.SetBasicAuth(annPhone, annPassword)
	rr = executeRequest(a, req)
	checkResponseCode(t, http.StatusOK, rr.Code)

	rr = executeRequest(a, newRequest("GET", "/api/tokens?id="+id, "", ""))
	checkResponseCode(t, http.StatusOK, rr.Code)
	assert.Equal(t, annPhone, decodeBody(t, rr)["phone"])

	rr = executeRequest(a, newRequest("PUT", "/api/tokens", `{"id":"`+id+`","extend":true}`, ""))
	checkResponseCode(t, http.StatusOK, rr.Code)

	rr = executeRequest(a, newRequest("PUT", "/api/tokens", `{"id":"`+id+`","extend":"yes"}`, ""))
	checkResponseCode(t, http.StatusBadRequest, rr.Code)

	rr = executeRequest(a, newRequest("DELETE", "/api/tokens?id="+id, "", ""))
	checkResponseCode(t, http.StatusOK, rr.Code)

	rr = executeRequest(a, newRequest("DELETE", "/api/tokens?id="+id, "", ""))
	checkResponseCode(t, http.StatusNotFound, rr.Code)
}

func TestBasicLoginFollowsPasswordChange(t *testing.T) {
	a := newTestApp(t)
	id := login(t, a)

	basicLogin := func(password string) *httptest.ResponseRecorder {
		req := newRequest("POST", "/api/tokens", "", "")
		req.SetBasicAuth(annPhone, password)
		return executeRequest(a, req)
	}
	rr := basicLogin(annPassword)
	checkResponseCode(t, http.StatusOK, rr.Code)
	first := decodeBody(t, rr)["id"]

	rr = executeRequest(a, newRequest("PUT", "/api/users", `{"phone":"5551234567","password":"n3wpass"}`, id))
	checkResponseCode(t, http.StatusOK, rr.Code)

	checkResponseCode(t, http.StatusBadRequest, basicLogin(annPassword).Code)
	rr = basicLogin("n3wpass")
	checkResponseCode(t, http.StatusOK, rr.Code)
	assert.NotEqual(t, first, decodeBody(t, rr)["id"])

	// Basic without a usable header falls through to the payload rules
	req := newRequest("POST", "/api/tokens", "", "")
	req.Header.Set("Authorization", "Basic !!!")
	checkResponseCode(t, http.StatusBadRequest, executeRequest(a, req).Code)
}

func TestCheckRoutes(t *testing.T) {
	a := newTestApp(t)
	id := login(t, a)
	body := `{"protocol":"https","url":"example.com","method":"get","successCodes":[200],"timeoutSeconds":3}`

	rr := executeRequest(a, newRequest("POST", "/api/checks", body, ""))
	checkResponseCode(t, http.StatusForbidden, rr.Code)

	rr = executeRequest(a, newRequest("POST", "/api/checks", `{"protocol":"ftp"}`, id))
	checkResponseCode(t, http.StatusBadRequest, rr.Code)

	rr = executeRequest(a, newRequest("POST", "/api/checks", body, id))
	checkResponseCode(t, http.StatusOK, rr.Code)
	checkID := decodeBody(t, rr)["id"].(string)

	rr = executeRequest(a, newRequest("POST", "/api/checks", body, id))
	checkResponseCode(t, http.StatusOK, rr.Code)

	// MaxChecks is 2 in the test app
	rr = executeRequest(a, newRequest("POST", "/api/checks", body, id))
	checkResponseCode(t, http.StatusBadRequest, rr.Code)

	rr = executeRequest(a, newRequest("GET", "/api/checks?id="+checkID, "", id))
	checkResponseCode(t, http.StatusOK, rr.Code)
	assert.Equal(t, "example.com", decodeBody(t, rr)["url"])

	rr = executeRequest(a, newRequest("PUT", "/api/checks", `{"id":"`+checkID+`","timeoutSeconds":5}`, id))
	checkResponseCode(t, http.StatusOK, rr.Code)
	assert.Equal(t, float64(5), decodeBody(t, rr)["timeoutSeconds"])

	rr = executeRequest(a, newRequest("GET", "/api/checks/all?phone="+annPhone, "", id))
	checkResponseCode(t, http.StatusOK, rr.Code)
	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	assert.Len(t, list, 2)

	rr = executeRequest(a, newRequest("DELETE", "/api/checks?id="+checkID, "", id))
	checkResponseCode(t, http.StatusOK, rr.Code)

	rr = executeRequest(a, newRequest("GET", "/api/checks?id="+checkID, "", id))
	checkResponseCode(t, http.StatusNotFound, rr.Code)
}

func TestMetricsRoute(t *testing.T) {
	a := newTestApp(t)
	login(t, a)

	rr := executeRequest(a, newRequest("GET", "/api/metrics?limit=5", "", ""))
	checkResponseCode(t, http.StatusOK, rr.Code)
	m := decodeBody(t, rr)
	summary := m["summary"].(map[string]interface{})
	assert.GreaterOrEqual(t, summary["totalRequests"].(float64), float64(2))
	assert.NotEmpty(t, m["recentTraces"])
}
