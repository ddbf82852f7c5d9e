package model

import (
	"fmt"
	"strings"
)

const (
	InfoPrefix  = "INFO: "
	ErrorPrefix = "ERROR: "
)

// NotFound is the placeholder for a field the page legitimately lacks
func NotFound(field string) string {
	return fmt.Sprintf("%sno %s found", InfoPrefix, field)
}

// Failed is the placeholder for a field whose extraction broke
func Failed(field string, err error) string {
	if err == nil {
		return fmt.Sprintf("%sError when extracting %s", ErrorPrefix, field)
	}
	return fmt.Sprintf("%sError when extracting %s: %v", ErrorPrefix, field, err)
}

// IsPlaceholder reports whether s is an INFO or ERROR placeholder
func IsPlaceholder(s string) bool {
	return strings.HasPrefix(s, InfoPrefix) || strings.HasPrefix(s, ErrorPrefix)
}
