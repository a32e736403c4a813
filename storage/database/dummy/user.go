package dummydb

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) checkEmailUniqueness(email string, excludedUsers ...user.User) error {
	for _, usr := range repo.db.users {
		if usr.Email != email {
			continue
		}
		excluded := false
		for _, excl := range excludedUsers {
			if excl.ID == usr.ID {
				excluded = true
				break
			}
		}
		if !excluded {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CheckEmailUniqueness(email string, excludedUsers ...user.User) error {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.checkEmailUniqueness(email, excludedUsers...)
}

func (repo *userRepository) GetUserByID(id string) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if usr, ok := repo.db.users[id]; ok {
		return *usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByEmail(email string) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, usr := range repo.db.users {
		if usr.Email == email {
			return *usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

// createProfile creates the role-profile row matching the user's role.
// Callers must hold the write lock.
func createProfile(db *DB, usr user.User) error {
	id := uuid.New().String()
	switch usr.Role {
	case user.RoleAdmin:
		db.admins[id] = usr.ID
	case user.RoleTeacher:
		db.teachers[id] = &school.Teacher{ID: id, UserID: usr.ID}
	case user.RoleStudent:
		db.students[id] = &school.Student{ID: id, UserID: usr.ID}
	case user.RoleParent:
		db.parents[id] = &school.Parent{ID: id, UserID: usr.ID}
	default:
		return errors.Errorf("unknown role %q", usr.Role)
	}
	return nil
}

func (repo *userRepository) RegisterUser(usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if err := repo.checkEmailUniqueness(usr.Email); err != nil {
		return user.User{}, err
	}
	if err := createProfile(repo.db, usr); err != nil {
		return user.User{}, err
	}
	repo.db.users[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) UpdateUser(usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.users[usr.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}
	repo.db.users[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) UpdateOrCreateUser(usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.users {
		if existing.Email == usr.Email {
			usr.ID = existing.ID
			usr.CreatedAt = existing.CreatedAt
			repo.db.users[usr.ID] = &usr
			return usr, nil
		}
	}
	if err := createProfile(repo.db, usr); err != nil {
		return user.User{}, err
	}
	repo.db.users[usr.ID] = &usr
	return usr, nil
}
