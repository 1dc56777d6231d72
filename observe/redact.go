package observe

import "strings"

const redactedValue = "[REDACTED]"

// RedactedFields lists field keys whose values never reach log output.
// Matching ignores case and also applies to the last segment of a dotted key,
// so "db.password" and "Password" are both redacted.
var RedactedFields = []string{
	"password",
	"secret",
	"secret.value",
	"token",
	"api_key",
	"apikey",
	"x-api-key",
	"authorization",
	"credential",
	"database_password",
	"jwt_signing_key",
	"dsn",
}

var redactedKeys = func() map[string]struct{} {
	m := make(map[string]struct{}, len(RedactedFields))
	for _, k := range RedactedFields {
		m[strings.ToLower(k)] = struct{}{}
	}
	return m
}()

func isRedacted(key string) bool {
	key = strings.ToLower(key)
	if _, ok := redactedKeys[key]; ok {
		return true
	}
	if i := strings.LastIndexByte(key, '.'); i >= 0 {
		_, ok := redactedKeys[key[i+1:]]
		return ok
	}
	return false
}

func redact(f Field) any {
	if isRedacted(f.Key) {
		return redactedValue
	}
	return f.Value
}
