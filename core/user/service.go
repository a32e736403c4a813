package user

import (
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/shule/core"
)

var (
	// errors
	ErrNotFound    = core.NewNotFoundError("User not found")
	ErrEmailExists = core.NewConflictError("Email already exists")
)

type (
	Repository interface {
		CheckEmailUniqueness(email string, excludedUsers ...User) error
		GetUserByID(id string) (User, error)
		GetUserByEmail(email string) (User, error)
		// RegisterUser creates the User row and its matching role-profile row
		// (Student/Teacher/Admin/Parent) in a single transaction.
		RegisterUser(usr User) (User, error)
		UpdateUser(usr User) (User, error)
		UpdateOrCreateUser(usr User) (User, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) CheckEmailUniqueness(email string, exclUsers ...User) error {
	return svc.repo.CheckEmailUniqueness(email, exclUsers...)
}

// Register creates a new User together with its role-profile row.
// The input must have been validated beforehand.
func (svc *Service) Register(nu NewUser) (User, error) {
	now := time.Now().UTC()
	usr := User{
		ID:        uuid.New().String(),
		Name:      NullableName(nu.Name),
		Email:     nu.Email,
		Role:      nu.Role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}
	return svc.repo.RegisterUser(usr)
}

func (svc *Service) GetByID(id string) (User, error) {
	return svc.repo.GetUserByID(id)
}

func (svc *Service) GetByEmail(email string) (User, error) {
	return svc.repo.GetUserByEmail(core.CleanString(email, true /* lower */))
}

func (svc *Service) Update(usr User) (User, error) {
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(usr)
}

// UpdateOrCreate upserts a user by email; used by the admin CLI.
func (svc *Service) UpdateOrCreate(usr User) (User, error) {
	now := time.Now().UTC()
	if usr.ID == "" {
		usr.ID = uuid.New().String()
		usr.CreatedAt = now
	}
	usr.UpdatedAt = now
	return svc.repo.UpdateOrCreateUser(usr)
}
