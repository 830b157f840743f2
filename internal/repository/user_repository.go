package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/homemanager/auth-service/internal/domain"
)

// Credential store errors.
var (
	ErrNotFound           = errors.New("user not found")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrDuplicateApartment = errors.New("apartment already registered")
)

const uniqueViolation = "23505"

// PasswordHasher hashes pending password changes on save.
type PasswordHasher interface {
	Hash(password string) (string, error)
}

// UserFilter defines query params for user listing.
type UserFilter struct {
	Role   *domain.Role
	Active *bool
	Limit  int
	Offset int
}

// UserRepository defines persistence access for user accounts. Lookups other
// than GetByEmail never return the password hash.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string, activeOnly bool) (*domain.User, error)
	GetByApartment(ctx context.Context, apartment string) (*domain.User, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	List(ctx context.Context, filter UserFilter) ([]domain.User, error)
}

// applyPendingPassword hashes user.PlainPassword into PasswordHash.
func applyPendingPassword(hasher PasswordHasher, user *domain.User) error {
	if user.PlainPassword == "" {
		return nil
	}
	hash, err := hasher.Hash(user.PlainPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = hash
	user.PlainPassword = ""
	return nil
}

func prepareForSave(user *domain.User) {
	user.Email = domain.NormalizeEmail(user.Email)
	user.Apartment = strings.TrimSpace(user.Apartment)
	if user.Role == "" {
		user.Role = domain.RoleResident
	}
	if user.Language == "" {
		user.Language = domain.LanguageLatvian
	}
	if user.ParkingSpaces == nil {
		user.ParkingSpaces = []string{}
	}
	if user.Contacts == nil {
		user.Contacts = []domain.Contact{}
	}
}

const publicUserColumns = `id, apartment, first_name, last_name, email, phone, role, language,
        is_active, last_login, parking_spaces, contacts, created_at, updated_at`

type userRepository struct {
	pool   *pgxpool.Pool
	hasher PasswordHasher
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool, hasher PasswordHasher) UserRepository {
	return &userRepository{pool: pool, hasher: hasher}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	if err := applyPendingPassword(r.hasher, user); err != nil {
		return err
	}
	prepareForSave(user)
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	const query = `
        INSERT INTO users (id, apartment, first_name, last_name, email, phone, password_hash,
                           role, language, is_active, parking_spaces, contacts)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        RETURNING created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		user.ID,
		user.Apartment,
		user.FirstName,
		user.LastName,
		user.Email,
		user.Phone,
		user.PasswordHash,
		user.Role,
		user.Language,
		user.IsActive,
		user.ParkingSpaces,
		user.Contacts,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	return mapWriteError(err)
}

// Update writes all mutable fields. The password hash is only touched when a
// new password is pending.
func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	passwordChanged := user.PlainPassword != ""
	if err := applyPendingPassword(r.hasher, user); err != nil {
		return err
	}
	prepareForSave(user)

	const query = `
        UPDATE users SET apartment=$1, first_name=$2, last_name=$3, email=$4, phone=$5,
               role=$6, language=$7, is_active=$8, parking_spaces=$9, contacts=$10,
               password_hash=CASE WHEN $11 THEN $12 ELSE password_hash END,
               updated_at=NOW()
        WHERE id=$13
        RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query,
		user.Apartment,
		user.FirstName,
		user.LastName,
		user.Email,
		user.Phone,
		user.Role,
		user.Language,
		user.IsActive,
		user.ParkingSpaces,
		user.Contacts,
		passwordChanged,
		user.PasswordHash,
		user.ID,
	).Scan(&user.UpdatedAt)
	return mapWriteError(err)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + publicUserColumns + ` FROM users WHERE id=$1`
	return scanPublicUser(r.pool.QueryRow(ctx, query, id))
}

func (r *userRepository) GetByApartment(ctx context.Context, apartment string) (*domain.User, error) {
	query := `SELECT ` + publicUserColumns + ` FROM users WHERE apartment=$1`
	return scanPublicUser(r.pool.QueryRow(ctx, query, strings.TrimSpace(apartment)))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string, activeOnly bool) (*domain.User, error) {
	query := `SELECT ` + publicUserColumns + `, password_hash
        FROM users WHERE email=$1 AND (NOT $2 OR is_active)`

	var user domain.User
	err := r.pool.QueryRow(ctx, query, domain.NormalizeEmail(email), activeOnly).Scan(
		&user.ID,
		&user.Apartment,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.Phone,
		&user.Role,
		&user.Language,
		&user.IsActive,
		&user.LastLogin,
		&user.ParkingSpaces,
		&user.Contacts,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.PasswordHash,
	)
	if err != nil {
		return nil, mapReadError(err)
	}
	return &user, nil
}

func (r *userRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE users SET last_login=$1, updated_at=NOW() WHERE id=$2`

	cmd, err := r.pool.Exec(ctx, query, at, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepository) List(ctx context.Context, filter UserFilter) ([]domain.User, error) {
	base := `SELECT ` + publicUserColumns + ` FROM users`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Role != nil {
		args = append(args, *filter.Role)
		clauses = append(clauses, fmt.Sprintf("role=$%d", len(args)))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		clauses = append(clauses, fmt.Sprintf("is_active=$%d", len(args)))
	}

	limit, offset := normalizePage(filter.Limit, filter.Offset)
	query := fmt.Sprintf(`%s WHERE %s ORDER BY apartment ASC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.User
	for rows.Next() {
		user, err := scanPublicUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *user)
	}
	return result, rows.Err()
}

func scanPublicUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Apartment,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.Phone,
		&user.Role,
		&user.Language,
		&user.IsActive,
		&user.LastLogin,
		&user.ParkingSpaces,
		&user.Contacts,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, mapReadError(err)
	}
	return &user, nil
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func mapReadError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		switch pgErr.ConstraintName {
		case "users_email_key":
			return ErrDuplicateEmail
		case "users_apartment_key":
			return ErrDuplicateApartment
		}
	}
	return err
}
