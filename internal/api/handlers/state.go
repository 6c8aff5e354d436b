package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"

	"cvforge/internal/utils"
)

// OAuth state format: <random>.<base64 JSON metadata>. The random part makes
// every round trip unique; the metadata survives the redirect.

func encodeState(data map[string]string) (string, error) {
	nonce, err := utils.GenerateSecureToken(16)
	if err != nil {
		return "", err
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	return nonce + "." + base64.RawURLEncoding.EncodeToString(payload), nil
}

func decodeState(state string) (map[string]string, error) {
	_, encoded, ok := strings.Cut(state, ".")
	if !ok {
		return nil, errors.New("malformed oauth state")
	}
	payload, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, errors.New("malformed oauth state")
	}
	var data map[string]string
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, errors.New("malformed oauth state")
	}
	return data, nil
}
