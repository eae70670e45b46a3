package database

import (
	"fmt"
	"strings"
)

// ConstructDatabaseURL joins a server URL and a database name.
// Existing query parameters are preserved and sslmode=disable is appended
// when the URL does not choose an sslmode itself. An empty name returns
// the base URL untouched.
func ConstructDatabaseURL(baseURL, databaseName string) string {
	if databaseName == "" {
		return baseURL
	}

	baseURL = strings.TrimRight(baseURL, "/")

	host, query, hasQuery := strings.Cut(baseURL, "?")
	databaseURL := fmt.Sprintf("%s/%s", strings.TrimRight(host, "/"), databaseName)
	if hasQuery {
		databaseURL = fmt.Sprintf("%s?%s", databaseURL, query)
	}

	return withSSLModeDisabled(databaseURL)
}

func withSSLModeDisabled(databaseURL string) string {
	if strings.Contains(databaseURL, "sslmode=") {
		return databaseURL
	}
	separator := "&"
	if !strings.Contains(databaseURL, "?") {
		separator = "?"
	}
	return databaseURL + separator + "sslmode=disable"
}
