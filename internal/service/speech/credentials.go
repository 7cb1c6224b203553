package speech

import (
	"errors"
	"strings"

	speechmodel "github.com/zhouzirui/trait-interview/backend/internal/model/speech"
)

// resolveCredentials returns the trimmed app id and access token, falling back to APIKey for the token.
func resolveCredentials(cfg *speechmodel.SpeechConfig) (string, string, error) {
	if cfg == nil {
		return "", "", errors.New("volcengine speech config not initialised")
	}

	appID := strings.TrimSpace(cfg.AppID)
	token := strings.TrimSpace(cfg.AccessToken)
	if token == "" {
		token = strings.TrimSpace(cfg.APIKey)
	}
	if appID == "" || token == "" {
		return "", "", errors.New("volcengine speech config is missing AppID or AccessToken")
	}
	return appID, token, nil
}
