package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/sellerdesk/support-portal/internal/domain"
)

// UserFilter narrows admin user listings.
type UserFilter struct {
	Department string
	ActiveOnly bool
	Limit      int
	Offset     int
}

// UserRepository defines persistence access for portal users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, filter UserFilter) ([]domain.User, error)
	SetManager(ctx context.Context, userID string, managerID *string) error
	SetCustomPermissions(ctx context.Context, userID string, permissions []string) error
	SetActive(ctx context.Context, userID string, active bool) error
	SetPasswordHash(ctx context.Context, userID, hash string) error
	ManagerPairs(ctx context.Context) (map[string]string, error)
}

type userRepository struct {
	db DBTX
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(db DBTX) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, email, name, password_hash, role, additional_roles, custom_permissions,
               department, sub_department, manager_id, slack_user_id, active, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (email, name, password_hash, role, additional_roles, custom_permissions,
                           department, sub_department, manager_id, slack_user_id, active)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, created_at, updated_at`

	return r.db.QueryRow(ctx, query,
		domain.NormalizeEmail(user.Email),
		user.Name,
		user.PasswordHash,
		user.Role,
		rolesToStrings(user.AdditionalRoles),
		nonNilStrings(user.CustomPermissions),
		user.Department,
		user.SubDepartment,
		user.ManagerID,
		user.SlackUserID,
		user.Active,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	return scanUser(r.db.QueryRow(ctx, query, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email)=$1`
	return scanUser(r.db.QueryRow(ctx, query, domain.NormalizeEmail(email)))
}

func (r *userRepository) List(ctx context.Context, filter UserFilter) ([]domain.User, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + userColumns + ` FROM users
        WHERE ($1 = '' OR LOWER(department) = LOWER($1)) AND (NOT $2 OR active)
        ORDER BY name ASC LIMIT $3 OFFSET $4`
	rows, err := r.db.Query(ctx, query, filter.Department, filter.ActiveOnly, limit, max(filter.Offset, 0))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *user)
	}
	return result, rows.Err()
}

func (r *userRepository) SetManager(ctx context.Context, userID string, managerID *string) error {
	return r.execOne(ctx, `UPDATE users SET manager_id=$1, updated_at=NOW() WHERE id=$2`, managerID, userID)
}

func (r *userRepository) SetCustomPermissions(ctx context.Context, userID string, permissions []string) error {
	return r.execOne(ctx, `UPDATE users SET custom_permissions=$1, updated_at=NOW() WHERE id=$2`, nonNilStrings(permissions), userID)
}

func (r *userRepository) SetActive(ctx context.Context, userID string, active bool) error {
	return r.execOne(ctx, `UPDATE users SET active=$1, updated_at=NOW() WHERE id=$2`, active, userID)
}

func (r *userRepository) SetPasswordHash(ctx context.Context, userID, hash string) error {
	return r.execOne(ctx, `UPDATE users SET password_hash=$1, updated_at=NOW() WHERE id=$2`, hash, userID)
}

func (r *userRepository) ManagerPairs(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.Query(ctx, `SELECT id, COALESCE(manager_id::text, '') FROM users`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pairs := map[string]string{}
	for rows.Next() {
		var id, manager string
		if err := rows.Scan(&id, &manager); err != nil {
			return nil, err
		}
		pairs[id] = manager
	}
	return pairs, rows.Err()
}

func (r *userRepository) execOne(ctx context.Context, query string, args ...any) error {
	cmd, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		user  domain.User
		roles []string
	)
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.Role,
		&roles,
		&user.CustomPermissions,
		&user.Department,
		&user.SubDepartment,
		&user.ManagerID,
		&user.SlackUserID,
		&user.Active,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	for _, r := range roles {
		user.AdditionalRoles = append(user.AdditionalRoles, domain.Role(r))
	}
	return &user, nil
}

func rolesToStrings(roles []domain.Role) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		out = append(out, string(r))
	}
	return out
}

func nonNilStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
