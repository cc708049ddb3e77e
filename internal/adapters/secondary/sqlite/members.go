package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/denchenko/gmm/internal/core/domain"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const maxPerPage = 100

type memberRow struct {
	UserID      int            `db:"user_id"`
	Username    string         `db:"username"`
	Name        string         `db:"name"`
	AvatarURL   sql.NullString `db:"avatar_url"`
	UpdatedAt   string         `db:"updated_at"`
	ProjectID   sql.NullInt64  `db:"project_id"`
	ProjectName sql.NullString `db:"project_name"`
}

func (r memberRow) toDomain() domain.LocalMember {
	return domain.LocalMember{
		UserID:      r.UserID,
		Username:    r.Username,
		Name:        r.Name,
		AvatarURL:   r.AvatarURL.String,
		UpdatedAt:   r.UpdatedAt,
		ProjectID:   int(r.ProjectID.Int64),
		ProjectName: r.ProjectName.String,
	}
}

func toMembers(rows []memberRow) []domain.LocalMember {
	members := make([]domain.LocalMember, 0, len(rows))
	for _, r := range rows {
		members = append(members, r.toDomain())
	}

	return members
}

const upsertMemberQuery = `
INSERT INTO local_members (user_id, username, name, avatar_url, updated_at, project_id, project_name)
VALUES (:user_id, :username, :name, :avatar_url, :updated_at, :project_id, :project_name)
ON CONFLICT (user_id) DO UPDATE SET
    username     = excluded.username,
    name         = excluded.name,
    avatar_url   = excluded.avatar_url,
    updated_at   = excluded.updated_at,
    project_id   = excluded.project_id,
    project_name = excluded.project_name`

// UpsertMembers writes all records in one transaction, the last write per user id wins.
func (s *Store) UpsertMembers(ctx context.Context, records []domain.LocalMemberUpsert) error {
	if len(records) == 0 {
		return nil
	}

	s.logger.Info("upserting local members", zap.Int("count", len(records)))

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return storeError("upsert members", err)
	}
	defer rollback(tx)

	updatedAt := s.timestamp()
	for _, rec := range records {
		row := memberRow{
			UserID:      rec.UserID,
			Username:    rec.Username,
			Name:        rec.Name,
			AvatarURL:   nullString(rec.AvatarURL),
			UpdatedAt:   updatedAt,
			ProjectID:   nullInt(rec.ProjectID),
			ProjectName: nullString(rec.ProjectName),
		}
		if _, err := tx.NamedExecContext(ctx, upsertMemberQuery, row); err != nil {
			return storeError("upsert members", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storeError("upsert members", err)
	}

	s.logger.Info("upserted local members", zap.Int("count", len(records)))

	return nil
}

// ListMembers returns one page of members ordered by most recent update.
// A non-blank query matches username or name, case-insensitively.
func (s *Store) ListMembers(
	ctx context.Context,
	query string,
	page, perPage int,
) (*domain.Page[domain.LocalMember], error) {
	page = max(page, 1)
	perPage = min(max(perPage, 1), maxPerPage)

	where := ""
	var args []any
	if query = strings.TrimSpace(query); query != "" {
		pattern := "%" + escapeLike(query) + "%"
		where = ` WHERE username LIKE ? ESCAPE '\' OR name LIKE ? ESCAPE '\'`
		args = append(args, pattern, pattern)
	}

	s.logger.Debug("listing local members",
		zap.String("query", query),
		zap.Int("page", page),
		zap.Int("per_page", perPage))

	var total int
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM local_members`+where, args...); err != nil {
		return nil, storeError("count members", err)
	}

	var rows []memberRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT user_id, username, name, avatar_url, updated_at, project_id, project_name
		 FROM local_members`+where+`
		 ORDER BY updated_at DESC, user_id ASC
		 LIMIT ? OFFSET ?`,
		append(args, perPage, (page-1)*perPage)...,
	)
	if err != nil {
		return nil, storeError("list members", err)
	}

	return &domain.Page[domain.LocalMember]{
		Items:   toMembers(rows),
		Total:   total,
		Page:    page,
		PerPage: perPage,
	}, nil
}

// DeleteMembers removes members and, through the foreign keys, their group links.
func (s *Store) DeleteMembers(ctx context.Context, userIDs []int) error {
	if len(userIDs) == 0 {
		return nil
	}

	s.logger.Info("deleting local members", zap.Int("count", len(userIDs)))

	query, args, err := sqlx.In(`DELETE FROM local_members WHERE user_id IN (?)`, userIDs)
	if err != nil {
		return storeError("delete members", err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return storeError("delete members", err)
	}
	defer rollback(tx)

	res, err := tx.ExecContext(ctx, tx.Rebind(query), args...)
	if err != nil {
		return storeError("delete members", err)
	}

	if err := tx.Commit(); err != nil {
		return storeError("delete members", err)
	}

	deleted, _ := res.RowsAffected()
	s.logger.Info("deleted local members", zap.Int64("deleted", deleted))

	return nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(v int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(v), Valid: v != 0}
}
