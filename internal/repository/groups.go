package repository

import (
	"context"
	"database/sql"

	"github.com/selfire1/gridtip-sub000/internal/models"
)

// ==================== Group Methods ====================

// CreateGroup inserts a group and returns its id
func (r *Repository) CreateGroup(ctx context.Context, name, joinCode string, cutoffMinutes int) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO tip_groups (name, join_code, cutoff_minutes) VALUES (?, ?, ?)
	`, name, joinCode, cutoffMinutes)
	if err != nil {
		return 0, translate(err)
	}
	return result.LastInsertId()
}

// GetGroup retrieves a group by id
func (r *Repository) GetGroup(ctx context.Context, id int) (*models.Group, error) {
	return r.scanGroup(r.db.QueryRowContext(ctx, `
		SELECT id, name, join_code, cutoff_minutes, created_at FROM tip_groups WHERE id = ?
	`, id))
}

// GetGroupByJoinCode retrieves a group by its invite code
func (r *Repository) GetGroupByJoinCode(ctx context.Context, joinCode string) (*models.Group, error) {
	return r.scanGroup(r.db.QueryRowContext(ctx, `
		SELECT id, name, join_code, cutoff_minutes, created_at FROM tip_groups WHERE join_code = ?
	`, joinCode))
}

func (r *Repository) scanGroup(row *sql.Row) (*models.Group, error) {
	var g models.Group
	var createdAt sql.NullTime
	err := row.Scan(&g.ID, &g.Name, &g.JoinCode, &g.CutoffMinutes, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	g.CreatedAt = createdAt.Time
	return &g, nil
}

// ListGroups returns all groups ordered by id
func (r *Repository) ListGroups(ctx context.Context) ([]models.Group, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, join_code, cutoff_minutes, created_at FROM tip_groups ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []models.Group
	for rows.Next() {
		var g models.Group
		var createdAt sql.NullTime
		if err := rows.Scan(&g.ID, &g.Name, &g.JoinCode, &g.CutoffMinutes, &createdAt); err != nil {
			return nil, err
		}
		g.CreatedAt = createdAt.Time
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// UpdateGroupCutoff sets the tip cutoff of a group
func (r *Repository) UpdateGroupCutoff(ctx context.Context, id, cutoffMinutes int) error {
	result, err := r.db.ExecContext(ctx, `UPDATE tip_groups SET cutoff_minutes = ? WHERE id = ?`, cutoffMinutes, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ==================== Member Methods ====================

// CreateMember adds a member to a group
func (r *Repository) CreateMember(ctx context.Context, groupID int, name, token string, isAdmin bool) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO members (group_id, name, token, is_admin) VALUES (?, ?, ?, ?)
	`, groupID, name, token, isAdmin)
	if err != nil {
		return 0, translate(err)
	}
	return result.LastInsertId()
}

const memberColumns = `id, group_id, name, token, is_admin, joined_at`

func scanMember(scan func(dest ...any) error) (*models.Member, error) {
	var m models.Member
	var joinedAt sql.NullTime
	if err := scan(&m.ID, &m.GroupID, &m.Name, &m.Token, &m.IsAdmin, &joinedAt); err != nil {
		return nil, err
	}
	m.JoinedAt = joinedAt.Time
	return &m, nil
}

// GetMember retrieves a member by id
func (r *Repository) GetMember(ctx context.Context, id int) (*models.Member, error) {
	m, err := scanMember(r.db.QueryRowContext(ctx, `SELECT `+memberColumns+` FROM members WHERE id = ?`, id).Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return m, err
}

// GetMemberByToken retrieves a member by access token
func (r *Repository) GetMemberByToken(ctx context.Context, token string) (*models.Member, error) {
	m, err := scanMember(r.db.QueryRowContext(ctx, `SELECT `+memberColumns+` FROM members WHERE token = ?`, token).Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return m, err
}

// ListMembers returns the members of a group in join order
func (r *Repository) ListMembers(ctx context.Context, groupID int) ([]models.Member, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+memberColumns+` FROM members WHERE group_id = ? ORDER BY id`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []models.Member
	for rows.Next() {
		m, err := scanMember(rows.Scan)
		if err != nil {
			return nil, err
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

// MemberNameExists checks whether a display name is taken within a group
func (r *Repository) MemberNameExists(ctx context.Context, groupID int, name string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM members WHERE group_id = ? AND name = ? COLLATE NOCASE
	`, groupID, name).Scan(&count)
	return count > 0, err
}
