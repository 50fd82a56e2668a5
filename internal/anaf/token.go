package anaf

import (
	"context"
	"errors"
)

// ErrNoToken is returned when no access token is configured for the user.
var ErrNoToken = errors.New("no provider access token configured")

// StaticTokenProvider serves one pre-issued access token for every user. The
// OAuth authorization flow lives outside this service; deployments that rotate
// tokens plug in their own TokenProvider.
type StaticTokenProvider struct {
	token string
}

func NewStaticTokenProvider(token string) *StaticTokenProvider {
	return &StaticTokenProvider{token: token}
}

func (p *StaticTokenProvider) ValidAccessToken(ctx context.Context, userID int64) (string, error) {
	if p.token == "" {
		return "", ErrNoToken
	}
	return p.token, nil
}
