package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/eaglebank/ledger/shared/apperr"
	"github.com/eaglebank/ledger/shared/models"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const selectUser = `
	SELECT id, name, email, password_hash, phone_number,
		   address_line1, address_line2, address_line3, address_town, address_county, address_postcode,
		   created_at, updated_at
	FROM users
`

func (r *UserRepository) Save(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (name, email, password_hash, phone_number,
			address_line1, address_line2, address_line3, address_town, address_county, address_postcode)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`
	saved := *user
	err := conn(ctx, r.db).QueryRowContext(ctx, query,
		user.Name, user.Email, user.PasswordHash, user.PhoneNumber,
		user.Address.Line1, nullString(user.Address.Line2), nullString(user.Address.Line3),
		user.Address.Town, user.Address.County, user.Address.Postcode,
	).Scan(&saved.ID, &saved.CreatedAt, &saved.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, apperr.Conflict("User with email %s already exists", user.Email)
		}
		return nil, apperr.Persistence("save user", err)
	}
	return &saved, nil
}

// FindByEmail returns (nil, nil) when no user has the email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := scanUser(conn(ctx, r.db).QueryRowContext(ctx, selectUser+" WHERE email = $1", email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Persistence("find user by email", err)
	}
	return user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	user, err := scanUser(conn(ctx, r.db).QueryRowContext(ctx, selectUser+" WHERE id = $1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("User %d not found", id)
	}
	if err != nil {
		return nil, apperr.Persistence("find user", err)
	}
	return user, nil
}

func scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	var line2, line3 sql.NullString
	err := row.Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.PhoneNumber,
		&user.Address.Line1, &line2, &line3, &user.Address.Town, &user.Address.County, &user.Address.Postcode,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	user.Address.Line2 = line2.String
	user.Address.Line3 = line3.String
	return &user, nil
}
