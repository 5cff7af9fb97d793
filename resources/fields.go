package resources

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/linesmerrill/uptime-api/apperr"
)

var (
	protocols = map[string]bool{"http": true, "https": true}
	methods   = map[string]bool{"get": true, "post": true, "put": true, "delete": true}
)

const (
	phoneLength       = 10
	minTimeoutSeconds = 1
	maxTimeoutSeconds = 5
)

// NewUser is the input of a signup
type NewUser struct {
	FirstName    string
	LastName     string
	Phone        string
	Password     string
	TOSAgreement bool
}

// UserUpdate holds the optional user fields, empty means not supplied
type UserUpdate struct {
	FirstName string
	LastName  string
	Password  string
}

func (u UserUpdate) empty() bool {
	return strings.TrimSpace(u.FirstName) == "" && strings.TrimSpace(u.LastName) == "" && strings.TrimSpace(u.Password) == ""
}

// CheckFields holds check attributes, nil means not supplied
type CheckFields struct {
	Protocol       *string
	URL            *string
	Method         *string
	SuccessCodes   []int
	TimeoutSeconds *int
}

func (f CheckFields) empty() bool {
	return f.Protocol == nil && f.URL == nil && f.Method == nil && f.SuccessCodes == nil && f.TimeoutSeconds == nil
}

// validate checks every supplied field. With all set, missing fields are errors too.
func (f CheckFields) validate(all bool) error {
	if all && (f.Protocol == nil || f.URL == nil || f.Method == nil || f.SuccessCodes == nil || f.TimeoutSeconds == nil) {
		return apperr.New(apperr.InvalidInput, "missing required inputs, or inputs are invalid")
	}
	if f.Protocol != nil && !protocols[*f.Protocol] {
		return apperr.New(apperr.InvalidInput, "protocol must be http or https")
	}
	if f.URL != nil && strings.TrimSpace(*f.URL) == "" {
		return apperr.New(apperr.InvalidInput, "url must not be empty")
	}
	if f.Method != nil && !methods[*f.Method] {
		return apperr.New(apperr.InvalidInput, "method must be one of get, post, put, delete")
	}
	if f.SuccessCodes != nil {
		if len(f.SuccessCodes) == 0 {
			return apperr.New(apperr.InvalidInput, "successCodes must not be empty")
		}
		for _, c := range f.SuccessCodes {
			if c < 100 || c > 599 {
				return apperr.New(apperr.InvalidInput, "successCodes must be HTTP status codes")
			}
		}
	}
	if f.TimeoutSeconds != nil && (*f.TimeoutSeconds < minTimeoutSeconds || *f.TimeoutSeconds > maxTimeoutSeconds) {
		return apperr.New(apperr.InvalidInput, "timeoutSeconds must be a whole number between 1 and 5")
	}
	return nil
}

// validPhone reports whether phone is exactly ten ASCII digits
func validPhone(phone string) bool {
	if len(phone) != phoneLength {
		return false
	}
	for i := 0; i < len(phone); i++ {
		if phone[i] < '0' || phone[i] > '9' {
			return false
		}
	}
	return true
}

// String returns the trimmed string at key, or "" when missing or not a string
func String(payload map[string]interface{}, key string) string {
	s, _ := payload[key].(string)
	return strings.TrimSpace(s)
}

// Bool returns true only when key holds the JSON value true
func Bool(payload map[string]interface{}, key string) bool {
	b, ok := payload[key].(bool)
	return ok && b
}

// DecodeNewUser reads signup fields from a JSON payload
func DecodeNewUser(payload map[string]interface{}) NewUser {
	return NewUser{
		FirstName:    String(payload, "firstName"),
		LastName:     String(payload, "lastName"),
		Phone:        String(payload, "phone"),
		Password:     String(payload, "password"),
		TOSAgreement: Bool(payload, "tosAgreement"),
	}
}

// DecodeUserUpdate reads the optional user fields from a JSON payload
func DecodeUserUpdate(payload map[string]interface{}) UserUpdate {
	return UserUpdate{
		FirstName: String(payload, "firstName"),
		LastName:  String(payload, "lastName"),
		Password:  String(payload, "password"),
	}
}

// DecodeCheckFields reads check attributes from a JSON payload. A field that is
// present with the wrong JSON type is an InvalidInput error.
func DecodeCheckFields(payload map[string]interface{}) (CheckFields, error) {
	var f CheckFields
	invalid := apperr.New(apperr.InvalidInput, "missing required inputs, or inputs are invalid")

	for key, dst := range map[string]**string{"protocol": &f.Protocol, "url": &f.URL, "method": &f.Method} {
		v, ok := payload[key]
		if !ok || v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return f, invalid
		}
		s = strings.TrimSpace(s)
		*dst = &s
	}

	if v, ok := payload["successCodes"]; ok && v != nil {
		raw, ok := v.([]interface{})
		if !ok {
			return f, invalid
		}
		codes := make([]int, 0, len(raw))
		for _, r := range raw {
			n, ok := wholeNumber(r)
			if !ok {
				return f, invalid
			}
			codes = append(codes, n)
		}
		f.SuccessCodes = codes
	}

	if v, ok := payload["timeoutSeconds"]; ok && v != nil {
		n, ok := wholeNumber(v)
		if !ok {
			return f, invalid
		}
		f.TimeoutSeconds = &n
	}
	return f, nil
}

// wholeNumber accepts json.Number and float64 values without a fractional part
func wholeNumber(v interface{}) (int, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			f, ferr := n.Float64()
			if ferr != nil || f != math.Trunc(f) {
				return 0, false
			}
			i = int64(f)
		}
		if i > math.MaxInt32 || i < math.MinInt32 {
			return 0, false
		}
		return int(i), true
	case float64:
		if n != math.Trunc(n) || n > math.MaxInt32 || n < math.MinInt32 {
			return 0, false
		}
		return int(n), true
	case int:
		return n, true
	default:
		return 0, false
	}
}
