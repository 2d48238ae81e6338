package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"server/internal/infra"
)

// Provider identifiers for stored integration tokens.
const (
	ProviderGoogle = "google"
	ProviderNLU    = "nlu"
	ProviderQwen   = "qwen"
)

// Store reads and writes provider API credentials kept in the database, so
// that keys can be rotated without redeploying. Environment variables still
// win when set.
type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

// GoogleAPIKey returns the stored Google API key, or "" when absent.
func (s *Store) GoogleAPIKey(ctx context.Context) (string, error) {
	return s.Token(ctx, ProviderGoogle)
}

// Token returns the stored token for a provider, or "" when absent.
func (s *Store) Token(ctx context.Context, provider string) (string, error) {
	row := s.sql.QueryRow(ctx,
		`SELECT token FROM integration_tokens WHERE provider = $1;`,
		provider)
	var token string
	if err := row.Scan(&token); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(token), nil
}

// SetToken stores or replaces the token for a provider.
func (s *Store) SetToken(ctx context.Context, provider, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("credentials: token is required")
	}
	return s.upsert(ctx, provider, token, nil)
}

func (s *Store) upsert(ctx context.Context, provider, token string, props map[string]any) error {
	payload := props
	if payload == nil {
		payload = map[string]any{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = s.sql.Exec(ctx, `
INSERT INTO integration_tokens (provider, token, properties)
VALUES ($1, $2, $3)
ON CONFLICT (provider) DO UPDATE SET
    token = EXCLUDED.token,
    properties = EXCLUDED.properties,
    updated_at = NOW();
`, provider, token, raw)
	return err
}
