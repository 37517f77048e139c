package logging

import (
	"log/slog"
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`([a-zA-Z0-9._%+-]+)@([a-zA-Z0-9.-]+\.[a-zA-Z]{2,})`)

// Redactor masks sensitive attribute values before they are written.
type Redactor struct {
	sensitiveKeys []string
}

// NewRedactor creates a Redactor with the built-in key list.
func NewRedactor() *Redactor {
	return &Redactor{
		sensitiveKeys: []string{
			"password", "passwd", "pwd",
			"secret", "token", "api_key", "api-key", "apikey",
			"authorization",
		},
	}
}

// ReplaceAttr is a slog.HandlerOptions.ReplaceAttr hook. Values of sensitive
// keys are replaced outright; email addresses anywhere in string values are
// partially masked.
func (r *Redactor) ReplaceAttr(_ []string, a slog.Attr) slog.Attr {
	if r.isSensitiveKey(a.Key) {
		return slog.String(a.Key, RedactSecret(a.Value.String()))
	}
	if a.Value.Kind() == slog.KindString {
		if s := a.Value.String(); strings.Contains(s, "@") {
			return slog.String(a.Key, r.RedactString(s))
		}
	}
	return a
}

// RedactString masks every email address in value.
func (r *Redactor) RedactString(value string) string {
	return emailPattern.ReplaceAllStringFunc(value, RedactEmail)
}

// isSensitiveKey checks if a key name indicates sensitive data.
func (r *Redactor) isSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(key)
	for _, sensitive := range r.sensitiveKeys {
		if strings.Contains(lowerKey, sensitive) {
			return true
		}
	}
	return false
}

// RedactSecret hides a secret, keeping a four character prefix of long
// values for identification.
func RedactSecret(v string) string {
	if v == "" {
		return ""
	}
	if len(v) <= 8 {
		return "***"
	}
	return v[:4] + "***"
}

// RedactEmail redacts an email address partially (shows first char and domain).
func RedactEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return email
	}

	username := parts[0]
	domain := parts[1]

	if len(username) == 0 {
		return "***@" + domain
	}

	return string(username[0]) + "***@" + domain
}
