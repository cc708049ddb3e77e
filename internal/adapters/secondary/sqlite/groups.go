package sqlite

import (
	"context"

	"github.com/denchenko/gmm/internal/core/domain"
	"go.uber.org/zap"
)

type groupRow struct {
	ID           int64  `db:"id"`
	Name         string `db:"name"`
	CreatedAt    string `db:"created_at"`
	MembersCount int    `db:"members_count"`
}

// CreateGroup creates an empty group.
func (s *Store) CreateGroup(ctx context.Context, name string) (*domain.LocalGroup, error) {
	createdAt := s.timestamp()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO local_groups (name, created_at) VALUES (?, ?)`, name, createdAt)
	if err != nil {
		return nil, storeError("create group", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, storeError("create group", err)
	}

	s.logger.Info("created local group", zap.Int64("group_id", id), zap.String("name", name))

	return &domain.LocalGroup{
		ID:        id,
		Name:      name,
		CreatedAt: createdAt,
	}, nil
}

// UpdateGroup renames a group.
func (s *Store) UpdateGroup(ctx context.Context, id int64, name string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE local_groups SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return storeError("update group", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return storeError("update group", err)
	}
	if affected == 0 {
		return domain.ErrGroupNotFound
	}

	s.logger.Info("renamed local group", zap.Int64("group_id", id), zap.String("name", name))

	return nil
}

// DeleteGroup deletes a group together with its links. Deleting a missing group is a no-op.
func (s *Store) DeleteGroup(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return storeError("delete group", err)
	}
	defer rollback(tx)

	if _, err := tx.ExecContext(ctx, `DELETE FROM local_group_members WHERE group_id = ?`, id); err != nil {
		return storeError("delete group", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM local_groups WHERE id = ?`, id); err != nil {
		return storeError("delete group", err)
	}

	if err := tx.Commit(); err != nil {
		return storeError("delete group", err)
	}

	s.logger.Info("deleted local group", zap.Int64("group_id", id))

	return nil
}

// ListGroups returns every group with its live member count, newest first.
func (s *Store) ListGroups(ctx context.Context) ([]domain.LocalGroup, error) {
	s.logger.Debug("listing local groups")

	var rows []groupRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT g.id, g.name, g.created_at, COUNT(gm.user_id) AS members_count
		FROM local_groups g
		LEFT JOIN local_group_members gm ON gm.group_id = g.id
		GROUP BY g.id
		ORDER BY g.id DESC`)
	if err != nil {
		return nil, storeError("list groups", err)
	}

	groups := make([]domain.LocalGroup, 0, len(rows))
	for _, r := range rows {
		groups = append(groups, domain.LocalGroup{
			ID:           r.ID,
			Name:         r.Name,
			CreatedAt:    r.CreatedAt,
			MembersCount: r.MembersCount,
		})
	}

	return groups, nil
}

// AddMembersToGroup links members to a group. Existing links are left untouched.
// A missing group or member fails the whole call and nothing is written.
func (s *Store) AddMembersToGroup(ctx context.Context, groupID int64, userIDs []int) error {
	if len(userIDs) == 0 {
		return nil
	}

	s.logger.Info("adding members to local group",
		zap.Int64("group_id", groupID),
		zap.Int("count", len(userIDs)))

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return storeError("add group members", err)
	}
	defer rollback(tx)

	createdAt := s.timestamp()
	for _, userID := range userIDs {
		_, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO local_group_members (group_id, user_id, created_at) VALUES (?, ?, ?)`,
			groupID, userID, createdAt)
		if err != nil {
			return storeError("add group members", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storeError("add group members", err)
	}

	return nil
}

// RemoveMembersFromGroup unlinks members from a group. Missing links are ignored.
func (s *Store) RemoveMembersFromGroup(ctx context.Context, groupID int64, userIDs []int) error {
	if len(userIDs) == 0 {
		return nil
	}

	s.logger.Info("removing members from local group",
		zap.Int64("group_id", groupID),
		zap.Int("count", len(userIDs)))

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return storeError("remove group members", err)
	}
	defer rollback(tx)

	for _, userID := range userIDs {
		_, err := tx.ExecContext(ctx,
			`DELETE FROM local_group_members WHERE group_id = ? AND user_id = ?`, groupID, userID)
		if err != nil {
			return storeError("remove group members", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storeError("remove group members", err)
	}

	return nil
}

// ListGroupMembers returns the members linked to a group ordered by username.
func (s *Store) ListGroupMembers(ctx context.Context, groupID int64) ([]domain.LocalMember, error) {
	s.logger.Debug("listing local group members", zap.Int64("group_id", groupID))

	var rows []memberRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT m.user_id, m.username, m.name, m.avatar_url, m.updated_at, m.project_id, m.project_name
		FROM local_members m
		INNER JOIN local_group_members gm ON gm.user_id = m.user_id
		WHERE gm.group_id = ?
		ORDER BY m.username ASC, m.user_id ASC`, groupID)
	if err != nil {
		return nil, storeError("list group members", err)
	}

	return toMembers(rows), nil
}
