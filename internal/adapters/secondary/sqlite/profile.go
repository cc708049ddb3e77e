package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/denchenko/gmm/internal/core/domain"
	"go.uber.org/zap"
)

const profileKey = "gitlab_connection"

// GetProfile returns the stored connection profile, false when none was saved.
func (s *Store) GetProfile(ctx context.Context) (domain.ConnectionProfile, bool, error) {
	var raw string
	err := s.db.GetContext(ctx, &raw, `SELECT value FROM app_config WHERE key = ?`, profileKey)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ConnectionProfile{}, false, nil
	}
	if err != nil {
		return domain.ConnectionProfile{}, false, storeError("get profile", err)
	}

	var p domain.ConnectionProfile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return domain.ConnectionProfile{}, false, storeError("get profile", err)
	}

	return p, true, nil
}

// SaveProfile stores the connection profile, replacing any previous one.
func (s *Store) SaveProfile(ctx context.Context, p domain.ConnectionProfile) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return storeError("save profile", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO app_config (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		profileKey, string(raw), s.timestamp())
	if err != nil {
		return storeError("save profile", err)
	}

	s.logger.Info("saved connection profile", zap.String("base_url", p.BaseURL))

	return nil
}
