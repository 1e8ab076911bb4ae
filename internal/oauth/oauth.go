package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"strings"
)

type UserInfo struct {
	Login     string
	Name      string
	Email     string
	AvatarURL string
	ID        string
	Provider  string
}

type Provider interface {
	GetConsentURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*UserInfo, error)
	Name() string
}

func GenerateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// IsAllowed reports whether login is the single identity permitted to edit
// site content. An empty allowed login admits nobody.
func IsAllowed(login, allowed string) bool {
	if login == "" || allowed == "" {
		return false
	}
	return strings.EqualFold(login, allowed)
}
