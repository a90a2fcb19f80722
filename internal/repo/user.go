package repo

import (
	"database/sql"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/complium/asset-inventory/internal/models"
)

// UserRepo stores API accounts. Passwords are kept as bcrypt hashes.
type UserRepo struct {
	DB *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db}
}

// Create inserts a user. An empty password is allowed (dev accounts); when
// set, it is stored as a bcrypt hash.
func (r *UserRepo) Create(username, password string) (*models.User, error) {
	var hash string
	if password != "" {
		h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		hash = string(h)
	}

	user := &models.User{}
	err := r.DB.QueryRow(
		`INSERT INTO users (username, password_hash) VALUES ($1, NULLIF($2,'')) RETURNING id, username`,
		username, hash,
	).Scan(&user.ID, &user.Username)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetByUsername returns the user with its password hash for verification.
func (r *UserRepo) GetByUsername(username string) (*models.User, error) {
	user := &models.User{}
	err := r.DB.QueryRow(
		`SELECT id, username, COALESCE(password_hash,'') FROM users WHERE username = $1`,
		username,
	).Scan(&user.ID, &user.Username, &user.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.New("user not found")
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// VerifyPassword checks a plaintext password against the stored hash. Users
// without a password accept any input (dev accounts).
func (r *UserRepo) VerifyPassword(user *models.User, password string) bool {
	if user.PasswordHash == "" {
		return true
	}
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}
