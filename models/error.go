package models

// ErrorMessageResponse is the body written for every failed request
type ErrorMessageResponse struct {
	Error  string   `json:"Error"`
	Failed []string `json:"failed,omitempty"`
}

// HealthCheckResponse returns the health check response, true means the service is alive
type HealthCheckResponse struct {
	Alive bool `json:"alive"`
}
