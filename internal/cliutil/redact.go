package cliutil

import (
	"regexp"
	"strings"
)

const redactedPlaceholder = "[redacted]"

var secretNamePattern = regexp.MustCompile(`(?i)(` + strings.Join(secretMarkers(), "|") + `)`)

func secretMarkers() []string {
	markers := []string{
		"PASSWORD",
		"PASSWD",
		"SECRET",
		"TOKEN",
		"API_KEY",
		"APIKEY",
		"ACCESS_KEY",
		"PRIVATE_KEY",
		"CREDENTIAL",
	}
	escaped := make([]string, len(markers))
	for i, m := range markers {
		escaped[i] = regexp.QuoteMeta(m)
	}
	return escaped
}

// IsSecretName reports whether an environment variable or flag name looks
// like it carries a credential.
func IsSecretName(name string) bool {
	return secretNamePattern.MatchString(strings.ReplaceAll(name, "-", "_"))
}

// RedactEnv returns a copy of env with secret-looking values masked.
func RedactEnv(env map[string]string) map[string]string {
	if env == nil {
		return nil
	}
	out := make(map[string]string, len(env))
	for k, v := range env {
		if v != "" && IsSecretName(k) {
			v = redactedPlaceholder
		}
		out[k] = v
	}
	return out
}

// RedactArgs masks the value of --flag=value arguments whose flag name looks
// secret, and the argument following a bare secret flag.
func RedactArgs(args []string) []string {
	if args == nil {
		return nil
	}
	out := make([]string, len(args))
	maskNext := false
	for i, arg := range args {
		out[i] = arg
		if maskNext {
			out[i] = redactedPlaceholder
			maskNext = false
			continue
		}
		if !strings.HasPrefix(arg, "-") {
			continue
		}
		name, _, hasValue := strings.Cut(arg, "=")
		if !IsSecretName(name) {
			continue
		}
		if hasValue {
			out[i] = name + "=" + redactedPlaceholder
		} else {
			maskNext = true
		}
	}
	return out
}
