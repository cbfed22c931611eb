package alert

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmailAlerterDisabled(t *testing.T) {
	a := NewEmailAlerter(Config{Enabled: false})
	assert.NoError(t, a.Alert("subject", "message"))
}

func TestNoOpAlerter(t *testing.T) {
	var a Alerter = &NoOpAlerter{}
	assert.NoError(t, a.Alert("subject", "message"))
}

func TestFormatMessagePrefixesSubject(t *testing.T) {
	msg := string(formatMessage("ops@example.com", []string{"a@example.com", "b@example.com"},
		"circuit breaker open", "vector search is degraded"))

	assert.Contains(t, msg, "From: ops@example.com\r\n")
	assert.Contains(t, msg, "To: a@example.com, b@example.com\r\n")
	assert.Contains(t, msg, "Subject: [lexigraph] circuit breaker open\r\n")
	assert.Contains(t, msg, "\r\n\r\nvector search is degraded\r\n")
}

func TestFormatMessageKeepsExistingPrefix(t *testing.T) {
	msg := string(formatMessage("ops@example.com", []string{"a@example.com"},
		"[lexigraph] already tagged", "body"))

	assert.Contains(t, msg, "Subject: [lexigraph] already tagged\r\n")
	assert.NotContains(t, msg, "[lexigraph] [lexigraph]")
}
