package store

import (
	"context"
	"errors"
	"fmt"

	"accounthub/internal/database"
	"accounthub/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrUserNotFound 查無此使用者
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken Email 唯一索引衝突
	ErrEmailTaken = errors.New("email already registered")
)

const uniqueViolation = "23505"

func mapError(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", op, ErrEmailTaken)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func GetUserByID(ctx context.Context, db database.DB, userID int) (*model.User, error) {
	row := db.QueryRow(ctx,
		`SELECT id, name, gender, date_of_birth, email, password_hash, created_at
		 FROM users WHERE id = $1`,
		userID,
	)
	u := &model.User{}
	if err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Gender,
		&u.DateOfBirth,
		&u.Email,
		&u.PasswordHash,
		&u.CreatedAt,
	); err != nil {
		return nil, mapError("GetUserByID", err)
	}
	return u, nil
}

func GetUserByEmail(ctx context.Context, db database.DB, email string) (*model.User, error) {
	row := db.QueryRow(ctx,
		`SELECT id, name, gender, date_of_birth, email, password_hash, created_at
		 FROM users WHERE email = $1`,
		email,
	)
	u := &model.User{}
	if err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Gender,
		&u.DateOfBirth,
		&u.Email,
		&u.PasswordHash,
		&u.CreatedAt,
	); err != nil {
		return nil, mapError("GetUserByEmail", err)
	}
	return u, nil
}

func CreateUser(ctx context.Context, db database.DB, u *model.User) (*model.User, error) {
	row := db.QueryRow(ctx,
		`INSERT INTO users (name, gender, date_of_birth, email, password_hash)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		u.Name,
		u.Gender,
		u.DateOfBirth,
		u.Email,
		u.PasswordHash,
	)
	if err := row.Scan(&u.ID, &u.CreatedAt); err != nil {
		return nil, mapError("CreateUser", err)
	}
	return u, nil
}

// UpdateUser 以單一 UPDATE 寫入整列，包含 password_hash；
// 失敗時不會留下任何部分寫入
func UpdateUser(ctx context.Context, db database.DB, u *model.User) error {
	tag, err := db.Exec(ctx,
		`UPDATE users SET name = $1, gender = $2, date_of_birth = $3, email = $4, password_hash = $5
		 WHERE id = $6`,
		u.Name,
		u.Gender,
		u.DateOfBirth,
		u.Email,
		u.PasswordHash,
		u.ID,
	)
	if err != nil {
		return mapError("UpdateUser", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("UpdateUser: %w", ErrUserNotFound)
	}
	return nil
}

func DeleteUser(ctx context.Context, db database.DB, userID int) error {
	tag, err := db.Exec(ctx,
		`DELETE FROM users WHERE id = $1`,
		userID,
	)
	if err != nil {
		return mapError("DeleteUser", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("DeleteUser: %w", ErrUserNotFound)
	}
	return nil
}
