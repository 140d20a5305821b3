package logger

import (
	"strings"
)

var sensitiveQueryParams = []string{
	"password",
	"token",
	"secret",
	"email",
	"code",
	"auth",
	"tx_ref",
	"transaction_id",
}

// SanitizedEmail masks an email address for logging (e.g., "u***@*****.com")
func SanitizedEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return "[invalid-email]"
	}

	username := parts[0]
	domain := parts[1]

	// Keep first char of the local part
	if len(username) > 1 {
		username = string(username[0]) + strings.Repeat("*", len(username)-1)
	}

	// Keep only the TLD of the domain
	domainParts := strings.Split(domain, ".")
	if len(domainParts) > 1 {
		for i := 0; i < len(domainParts)-1; i++ {
			domainParts[i] = strings.Repeat("*", len(domainParts[i]))
		}
		domain = strings.Join(domainParts, ".")
	}

	return username + "@" + domain
}

// SanitizeQueryString reports whether rawQuery carries a parameter that must
// not reach the access log. Payment redirects carry transaction references.
func SanitizeQueryString(rawQuery string) bool {
	query := strings.ToLower(rawQuery)
	for _, param := range sensitiveQueryParams {
		if strings.Contains(query, param) {
			return true
		}
	}
	return false
}
