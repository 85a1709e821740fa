package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
)

// RectifyCredentials turns service-account JSON kept in a single-line env
// variable back into credentials the Google client libraries accept: the
// private key's escaped "\n" sequences become real newlines.
func RectifyCredentials(keyData string) ([]byte, error) {
	if keyData == "" {
		return nil, fmt.Errorf("KEY_DATA environment variable not set")
	}
	var parsedKeyData map[string]any
	if err := json.Unmarshal([]byte(keyData), &parsedKeyData); err != nil {
		return nil, fmt.Errorf("error unmarshalling key data: %w", err)
	}
	key, ok := parsedKeyData["private_key"].(string)
	if !ok {
		return nil, fmt.Errorf("key data has no private_key")
	}
	parsedKeyData["private_key"] = strings.ReplaceAll(key, "\\n", "\n")
	rectified, err := json.Marshal(parsedKeyData)
	if err != nil {
		return nil, fmt.Errorf("error marshalling key data: %w", err)
	}
	return rectified, nil
}

// InitFirebase initializes the Firebase app from service-account key data.
// projectID may be empty, in which case the key's project is used.
func InitFirebase(ctx context.Context, keyData, projectID string) (*firebase.App, error) {
	creds, err := RectifyCredentials(keyData)
	if err != nil {
		return nil, err
	}
	var conf *firebase.Config
	if projectID != "" {
		conf = &firebase.Config{ProjectID: projectID}
	}
	app, err := firebase.NewApp(ctx, conf, option.WithCredentialsJSON(creds))
	if err != nil {
		return nil, fmt.Errorf("error initializing app: %w", err)
	}
	slog.Info("Firebase app initialized", "project", projectID)
	return app, nil
}
