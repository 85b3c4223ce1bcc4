package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

const (
	dbTimeout  = time.Second * 3
	bcryptCost = 12

	uniqueViolation = "23505"
)

var (
	// Email validation regex - standard email format
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	username      TEXT NOT NULL UNIQUE,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	role          TEXT NOT NULL CHECK (role IN ('OWNER', 'VIEWER')),
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
)`

type PostgresRepository struct {
	Conn *pgxpool.Pool
}

func NewPostgresRepository(conn *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{Conn: conn}
}

// EnsureSchema creates the users table if it does not exist.
func (p *PostgresRepository) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()
	if _, err := p.Conn.Exec(ctx, createUsersTable); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	return nil
}

// ValidateNewUser checks the fields a new user must carry.
func ValidateNewUser(user *User) error {
	if user.Username == nil || strings.TrimSpace(*user.Username) == "" {
		return fmt.Errorf("username is required")
	}
	if user.Password == nil || strings.TrimSpace(*user.Password) == "" {
		return fmt.Errorf("password is required")
	}
	if user.Email == nil || strings.TrimSpace(*user.Email) == "" {
		return fmt.Errorf("email is required")
	}
	if !emailRegex.MatchString(*user.Email) {
		return fmt.Errorf("invalid email format")
	}
	if user.Role == nil || !hasRole(*user.Role, []string{RoleOwner, RoleViewer}) {
		return fmt.Errorf("role is required")
	}
	return nil
}

func (p *PostgresRepository) CreateUser(ctx context.Context, user *User) error {
	if err := ValidateNewUser(user); err != nil {
		return err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(*user.Password), bcryptCost)
	if err != nil {
		return err
	}
	hash := string(passwordHash)
	user.PasswordHash = &hash

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	id := uuid.NewString()
	var createdAt time.Time
	err = p.Conn.QueryRow(ctx,
		`INSERT INTO users (id, username, email, password_hash, role)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at`,
		id, *user.Username, *user.Email, hash, *user.Role,
	).Scan(&createdAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrUserExists
		}
		return fmt.Errorf("insert user: %w", err)
	}

	createdAt = createdAt.UTC()
	user.ID = &id
	user.CreatedAt = &createdAt
	user.Password = nil
	return nil
}

func (p *PostgresRepository) AuthenticateUser(ctx context.Context, cred *UserLoginCredentials) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var passwordHash string
	err := p.Conn.QueryRow(ctx,
		`SELECT password_hash FROM users WHERE username = $1`, cred.Username,
	).Scan(&passwordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load password hash: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(cred.Password)); err != nil {
		return false, nil
	}
	return true, nil
}

func (p *PostgresRepository) GetUserInfo(ctx context.Context, username string) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var id, name, email, role string
	var createdAt time.Time
	err := p.Conn.QueryRow(ctx,
		`SELECT id, username, email, role, created_at FROM users WHERE username = $1`, username,
	).Scan(&id, &name, &email, &role, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", username, err)
	}

	createdAt = createdAt.UTC()
	return &User{
		ID:        &id,
		Username:  &name,
		Email:     &email,
		Role:      &role,
		CreatedAt: &createdAt,
	}, nil
}
