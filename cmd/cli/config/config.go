package config

import (
	"os"
	"path/filepath"
)

const (
	defaultAPIURL = "http://localhost:8080"
	tokenFileName = ".inventory_token"
)

// APIURL returns the base URL for the Asset Inventory API.
// It can be overridden with the INVENTORY_API_URL environment variable.
func APIURL() string {
	if v := os.Getenv("INVENTORY_API_URL"); v != "" {
		return v
	}
	return defaultAPIURL
}

// Org returns the organization scope for inventory commands.
// Defaults to "default"; override with INVENTORY_ORG.
func Org() string {
	if v := os.Getenv("INVENTORY_ORG"); v != "" {
		return v
	}
	return "default"
}

// SaveToken writes the JWT token to the user's home directory.
func SaveToken(token string) error {
	return os.WriteFile(tokenPath(), []byte(token), 0600)
}

// LoadToken reads the stored JWT token. The INVENTORY_TOKEN environment
// variable takes precedence over the token file (useful in CI).
func LoadToken() (string, error) {
	if v := os.Getenv("INVENTORY_TOKEN"); v != "" {
		return v, nil
	}
	data, err := os.ReadFile(tokenPath())
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ClearToken removes the stored token; missing file is not an error.
func ClearToken() error {
	err := os.Remove(tokenPath())
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func tokenPath() string {
	dir, _ := os.UserHomeDir()
	return filepath.Join(dir, tokenFileName)
}
