package masking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestServiceRedactValue(t *testing.T) {
	svc := NewService()

	tests := []struct {
		name  string
		value string
		want  string
	}{
		{name: "bearer token", value: "Bearer abc123.def456", want: "Bearer [REDACTED_TOKEN]"},
		{name: "long opaque value", value: "sk-ant-REDACTED", want: "sk-ant-R" + "..." + "[REDACTED]"},
		{name: "short value", value: "ab", want: "[REDACTED]"},
		{name: "empty value", value: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, svc.RedactValue(tt.value))
		})
	}
}

func TestServiceRedactHeaders(t *testing.T) {
	svc := NewService()

	headers := map[string]string{
		"Authorization": "Bearer abcdefghijklmnop",
		"Cookie":        "session=xyzxyzxyzxyz; theme=dark",
		"X-Api-Key":     "sk-1234567890",
		"User-Agent":    "Mozilla/5.0",
		"Accept":        "application/json",
	}

	redacted := svc.RedactHeaders(headers)

	assert.Equal(t, "Bearer [REDACTED_TOKEN]", redacted["Authorization"])
	assert.Contains(t, redacted["Cookie"], "theme=[REDACTED]")
	assert.NotContains(t, redacted["Cookie"], "xyzxyzxyzxyz")
	assert.NotEqual(t, "sk-1234567890", redacted["X-Api-Key"])
	assert.Equal(t, "Mozilla/5.0", redacted["User-Agent"])
	assert.Equal(t, "application/json", redacted["Accept"])
}

func TestServiceRedactHeadersNoSubstringLeak(t *testing.T) {
	svc := NewService()
	secret := "s3cr3t-cookie-value-that-must-never-leak"
	headers := map[string]string{"Cookie": "session=" + secret}

	redacted := svc.RedactHeaders(headers)

	assert.NotContains(t, redacted["Cookie"], secret)
}

func TestServiceRedactBody(t *testing.T) {
	svc := NewService()
	body := `{"authorization": "Bearer sometoken123", "other": "value"}`

	redacted := svc.RedactBody(body)

	assert.Contains(t, redacted, "[REDACTED_TOKEN]")
	assert.NotContains(t, redacted, "sometoken123")
	assert.Contains(t, redacted, `"other": "value"`)
}

func TestIsSensitiveHeader(t *testing.T) {
	assert.True(t, IsSensitiveHeader("Authorization"))
	assert.True(t, IsSensitiveHeader("cookie"))
	assert.True(t, IsSensitiveHeader("X-CSRF-Token"))
	assert.False(t, IsSensitiveHeader("Content-Type"))
}

func TestIsCSRFName(t *testing.T) {
	assert.True(t, IsCSRFName("x-csrf-token"))
	assert.True(t, IsCSRFName("csrftoken_custom"))
	assert.False(t, IsCSRFName("authorization"))
}

func TestIsSessionCookieName(t *testing.T) {
	assert.True(t, IsSessionCookieName("JSESSIONID"))
	assert.True(t, IsSessionCookieName("connect.sid"))
	assert.False(t, IsSessionCookieName("theme"))
}
