package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/clubm8/clubm8api/internal/model"
	"golang.org/x/crypto/bcrypt"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	err := scanner.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.Email, &u.IsActive, &u.IsSuperuser, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

const userCols = `id, username, first_name, last_name, email, is_active, is_superuser, created_at`

func (s *UserStore) Create(username, firstName, lastName, email string, superuser bool) (*model.User, error) {
	result, err := s.db.Exec(
		`INSERT INTO users (username, first_name, last_name, email, is_superuser) VALUES (?, ?, ?, ?, ?)`,
		username, firstName, lastName, email, superuser,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *UserStore) GetByID(id int64) (*model.User, error) {
	return s.getBy(`id = ?`, id)
}

func (s *UserStore) GetByUsername(username string) (*model.User, error) {
	return s.getBy(`username = ?`, username)
}

func (s *UserStore) getBy(cond string, arg any) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE `+cond, arg)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if u.Permissions, err = s.permissions(u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserStore) List() ([]model.User, error) {
	rows, err := s.db.Query(`SELECT ` + userCols + ` FROM users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (s *UserStore) SetActive(id int64, active bool) error {
	if _, err := s.db.Exec(`UPDATE users SET is_active = ? WHERE id = ?`, active, id); err != nil {
		return fmt.Errorf("update user active: %w", err)
	}
	return nil
}

func (s *UserStore) Delete(id int64) error {
	if _, err := s.db.Exec(`DELETE FROM users WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// Grant adds permission codenames to a user. Already held ones are kept.
func (s *UserStore) Grant(userID int64, codenames ...string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, c := range codenames {
		if _, err := tx.Exec(`DELETE FROM user_permissions WHERE user_id = ? AND codename = ?`, userID, c); err != nil {
			return fmt.Errorf("clear permission: %w", err)
		}
		if _, err := tx.Exec(`INSERT INTO user_permissions (user_id, codename) VALUES (?, ?)`, userID, c); err != nil {
			return fmt.Errorf("insert permission: %w", err)
		}
	}
	return tx.Commit()
}

// Revoke removes permission codenames from a user.
func (s *UserStore) Revoke(userID int64, codenames ...string) error {
	for _, c := range codenames {
		if _, err := s.db.Exec(`DELETE FROM user_permissions WHERE user_id = ? AND codename = ?`, userID, c); err != nil {
			return fmt.Errorf("delete permission: %w", err)
		}
	}
	return nil
}

func (s *UserStore) permissions(userID int64) ([]string, error) {
	rows, err := s.db.Query(`SELECT codename FROM user_permissions WHERE user_id = ? ORDER BY codename`, userID)
	if err != nil {
		return nil, fmt.Errorf("query permissions: %w", err)
	}
	defer rows.Close()

	var perms []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan permission: %w", err)
		}
		perms = append(perms, c)
	}
	return perms, rows.Err()
}

// generateAPIKey returns 20 random bytes hex-encoded.
func generateAPIKey() (string, error) {
	b := make([]byte, 20)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate api key: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// IssueAPIKey creates a new API key for the user, replacing any previous
// one. The plaintext key is returned once; only its bcrypt hash is stored.
func (s *UserStore) IssueAPIKey(userID int64) (string, error) {
	key, err := generateAPIKey()
	if err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash api key: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM api_keys WHERE user_id = ?`, userID); err != nil {
		return "", fmt.Errorf("clear api key: %w", err)
	}
	if _, err := tx.Exec(`INSERT INTO api_keys (user_id, key_hash) VALUES (?, ?)`, userID, string(hash)); err != nil {
		return "", fmt.Errorf("insert api key: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return key, nil
}

// VerifyAPIKey returns the active user owning username whose key matches,
// or (nil, nil) when the credentials do not check out.
func (s *UserStore) VerifyAPIKey(username, key string) (*model.User, error) {
	u, err := s.GetByUsername(username)
	if err != nil || u == nil || !u.IsActive {
		return nil, err
	}

	var hash string
	err = s.db.QueryRow(`SELECT key_hash FROM api_keys WHERE user_id = ?`, u.ID).Scan(&hash)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query api key: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, nil
		}
		return nil, fmt.Errorf("compare api key: %w", err)
	}
	return u, nil
}
