package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"agentwatch/internal/config"
)

const (
	EnvLiveBaseURL = "AGENTWATCH_TEST_BASE_URL"
	EnvLiveToken   = "AGENTWATCH_TEST_TOKEN"
)

type liveBackendFile struct {
	BaseURL string `json:"base_url"`
	Token   string `json:"token"`
}

// LiveBackend returns the backend used by live integration tests.
// Lookup order:
// 1) AGENTWATCH_TEST_BASE_URL and AGENTWATCH_TEST_TOKEN
// 2) ~/.agentwatch/test-backend.json (base_url, token)
// An empty base URL means no live backend is configured.
func LiveBackend() (baseURL, token string) {
	baseURL = strings.TrimSpace(os.Getenv(EnvLiveBaseURL))
	token = strings.TrimSpace(os.Getenv(EnvLiveToken))
	if baseURL != "" {
		return baseURL, token
	}
	parsed, ok := readLiveBackendFile()
	if !ok {
		return "", ""
	}
	if token == "" {
		token = strings.TrimSpace(parsed.Token)
	}
	return strings.TrimSpace(parsed.BaseURL), token
}

func readLiveBackendFile() (liveBackendFile, bool) {
	dataDir, err := config.DataDir()
	if err != nil {
		return liveBackendFile{}, false
	}
	data, err := os.ReadFile(filepath.Join(dataDir, "test-backend.json"))
	if err != nil {
		return liveBackendFile{}, false
	}
	var parsed liveBackendFile
	if err := json.Unmarshal(data, &parsed); err != nil {
		return liveBackendFile{}, false
	}
	return parsed, true
}
