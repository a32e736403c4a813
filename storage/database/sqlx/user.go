package sqlxrepos

import (
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core/user"
)

type userRow struct {
	ID           string      `db:"id"`
	Name         null.String `db:"name"`
	Email        string      `db:"email"`
	Role         string      `db:"role"`
	PasswordHash []byte      `db:"password_hash"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
}

func (r userRow) toUser() user.User {
	return user.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		Role:         r.Role,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckEmailUniqueness(email string, excludedUsers ...user.User) error {
	query := `SELECT EXISTS (SELECT 1 FROM "user" WHERE email = ?`
	args := []interface{}{email}
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, usr := range excludedUsers {
			ids = append(ids, usr.ID)
		}
		inQuery, inArgs, err := sqlx.In(" AND id NOT IN (?)", ids)
		if err != nil {
			return errors.Wrap(err, "checking email uniqueness")
		}
		query += inQuery
		args = append(args, inArgs...)
	}
	query += ")"

	var exists bool
	if err := repo.db.Get(&exists, repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if exists {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) GetUserByID(id string) (user.User, error) {
	var row userRow
	if err := repo.db.Get(&row, `SELECT * FROM "user" WHERE id = $1`, id); err != nil {
		if isNoRows(err) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "getting user")
	}
	return row.toUser(), nil
}

func (repo *userRepository) GetUserByEmail(email string) (user.User, error) {
	var row userRow
	if err := repo.db.Get(&row, `SELECT * FROM "user" WHERE email = $1`, email); err != nil {
		if isNoRows(err) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "getting user")
	}
	return row.toUser(), nil
}

func (repo *userRepository) RegisterUser(usr user.User) (user.User, error) {
	err := runInTx(repo.db, func(tx *sqlx.Tx) error {
		if err := insertUser(tx, usr); err != nil {
			return err
		}
		return insertProfile(tx, usr)
	})
	if err != nil {
		return user.User{}, err
	}
	return usr, nil
}

func insertUser(tx *sqlx.Tx, usr user.User) error {
	_, err := tx.Exec(
		`INSERT INTO "user" (id, name, email, role, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		usr.ID, usr.Name, usr.Email, usr.Role, usr.PasswordHash, usr.CreatedAt, usr.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return user.ErrEmailExists
		}
		return errors.Wrap(err, "inserting user")
	}
	return nil
}

// insertProfile creates the role-profile row matching the user's role.
func insertProfile(tx *sqlx.Tx, usr user.User) error {
	var query string
	switch usr.Role {
	case user.RoleAdmin:
		query = `INSERT INTO admin (id, user_id) VALUES ($1, $2)`
	case user.RoleTeacher:
		query = `INSERT INTO teacher (id, user_id) VALUES ($1, $2)`
	case user.RoleStudent:
		query = `INSERT INTO student (id, user_id) VALUES ($1, $2)`
	case user.RoleParent:
		query = `INSERT INTO parent (id, user_id) VALUES ($1, $2)`
	default:
		return errors.Errorf("unknown role %q", usr.Role)
	}
	if _, err := tx.Exec(query, uuid.New().String(), usr.ID); err != nil {
		return errors.Wrap(err, "inserting profile")
	}
	return nil
}

func (repo *userRepository) UpdateUser(usr user.User) (user.User, error) {
	res, err := repo.db.Exec(
		`UPDATE "user" SET name = $2, email = $3, password_hash = $4, updated_at = $5 WHERE id = $1`,
		usr.ID, usr.Name, usr.Email, usr.PasswordHash, usr.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

func (repo *userRepository) UpdateOrCreateUser(usr user.User) (user.User, error) {
	err := runInTx(repo.db, func(tx *sqlx.Tx) error {
		var existingID string
		err := tx.Get(&existingID, `SELECT id FROM "user" WHERE email = $1`, usr.Email)
		if err != nil && !isNoRows(err) {
			return errors.Wrap(err, "getting user")
		}
		if isNoRows(err) {
			if err = insertUser(tx, usr); err != nil {
				return err
			}
			return insertProfile(tx, usr)
		}

		usr.ID = existingID
		_, err = tx.Exec(
			`UPDATE "user" SET name = $2, role = $3, password_hash = $4, updated_at = $5 WHERE id = $1`,
			usr.ID, usr.Name, usr.Role, usr.PasswordHash, usr.UpdatedAt,
		)
		return errors.Wrap(err, "updating user")
	})
	if err != nil {
		return user.User{}, err
	}
	return usr, nil
}
