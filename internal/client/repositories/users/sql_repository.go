package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/usersync/internal/client/models"
	"github.com/dmitrijs2005/usersync/internal/common"
	"github.com/dmitrijs2005/usersync/internal/dbx"
)

const columns = `email, gender, title, first_name, last_name,
	street_number, street_name, city, state, country, postcode,
	latitude, longitude, phone, cell,
	picture_large, picture_medium, picture_thumbnail`

const upsertQuery = `INSERT INTO users (` + columns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (email) DO UPDATE SET
		gender = excluded.gender,
		title = excluded.title,
		first_name = excluded.first_name,
		last_name = excluded.last_name,
		street_number = excluded.street_number,
		street_name = excluded.street_name,
		city = excluded.city,
		state = excluded.state,
		country = excluded.country,
		postcode = excluded.postcode,
		latitude = excluded.latitude,
		longitude = excluded.longitude,
		phone = excluded.phone,
		cell = excluded.cell,
		picture_large = excluded.picture_large,
		picture_medium = excluded.picture_medium,
		picture_thumbnail = excluded.picture_thumbnail`

// SQLRepository works on both SQLite and PostgreSQL; queries are written
// with '?' placeholders and rebound for the dialect.
type SQLRepository struct {
	db      *sql.DB
	dialect dbx.Dialect
}

func NewSQLRepository(db *sql.DB, dialect dbx.Dialect) *SQLRepository {
	return &SQLRepository{db: db, dialect: dialect}
}

func (r *SQLRepository) q(query string) string {
	return dbx.Rebind(r.dialect, query)
}

func (r *SQLRepository) ReplaceAll(ctx context.Context, users []models.User) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM users`); err != nil {
			return fmt.Errorf("failed to clear users: %w", err)
		}
		return r.upsert(ctx, tx, users)
	})
}

func (r *SQLRepository) UpsertAll(ctx context.Context, users []models.User) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return r.upsert(ctx, tx, users)
	})
}

func (r *SQLRepository) upsert(ctx context.Context, tx dbx.DBTX, users []models.User) error {
	query := r.q(upsertQuery)
	for i := range users {
		u := &users[i]
		if u.Email == "" {
			return fmt.Errorf("user at %d: %w: empty email", i, common.ErrInvalidArgument)
		}
		_, err := tx.ExecContext(ctx, query,
			u.Email, u.Gender, u.Name.Title, u.Name.First, u.Name.Last,
			u.Location.Street.Number, u.Location.Street.Name,
			u.Location.City, u.Location.State, u.Location.Country, u.Location.Postcode.String(),
			u.Location.Coordinates.Latitude, u.Location.Coordinates.Longitude,
			u.Phone, u.Cell,
			u.Picture.Large, u.Picture.Medium, u.Picture.Thumbnail,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert user %s: %w", u.Email, err)
		}
	}
	return nil
}

func (r *SQLRepository) GetAll(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+columns+` FROM users ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to select users: %w", err)
	}
	defer rows.Close()

	result := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *SQLRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, r.q(`SELECT `+columns+` FROM users WHERE email = ?`), email)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *SQLRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (models.User, error) {
	var (
		u        models.User
		postcode string
	)
	err := s.Scan(
		&u.Email, &u.Gender, &u.Name.Title, &u.Name.First, &u.Name.Last,
		&u.Location.Street.Number, &u.Location.Street.Name,
		&u.Location.City, &u.Location.State, &u.Location.Country, &postcode,
		&u.Location.Coordinates.Latitude, &u.Location.Coordinates.Longitude,
		&u.Phone, &u.Cell,
		&u.Picture.Large, &u.Picture.Medium, &u.Picture.Thumbnail,
	)
	if err != nil {
		return models.User{}, err
	}
	u.Location.Postcode = models.FlexString(postcode)
	return u, nil
}
