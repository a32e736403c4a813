package user

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/shule/core"
)

// Roles. Role checks are exact-match: there is no hierarchy and ADMIN is not
// implicitly allowed onto TEACHER-gated operations.
const (
	RoleAdmin   = "ADMIN"
	RoleTeacher = "TEACHER"
	RoleStudent = "STUDENT"
	RoleParent  = "PARENT"
)

var (
	AllRoles = []string{RoleAdmin, RoleTeacher, RoleStudent, RoleParent}

	// SignupRoles are the only roles a user may self-register with;
	// ADMIN and PARENT accounts are admin-provisioned.
	SignupRoles = []string{RoleStudent, RoleTeacher}
)

func IsValidRole(role string) bool {
	for _, r := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

type User struct {
	ID           string      `json:"id"`
	Name         null.String `json:"name"`
	Email        string      `json:"email"`
	Role         string      `json:"role"`
	PasswordHash []byte      `json:"-"`
	CreatedAt    time.Time   `json:"createdAt"` // UTC
	UpdatedAt    time.Time   `json:"updatedAt"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsAdmin() bool   { return u.Role == RoleAdmin }
func (u *User) IsTeacher() bool { return u.Role == RoleTeacher }
func (u *User) IsStudent() bool { return u.Role == RoleStudent }
func (u *User) IsParent() bool  { return u.Role == RoleParent }

// NullableName converts a raw name input to its stored form: empty means "no name", not "".
func NullableName(name string) null.String {
	name = core.CleanString(name)
	return null.NewString(name, name != "")
}

// NewUser contains information needed to self-register a new User.
type NewUser struct {
	Name     string `json:"name"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"omitempty,signuprole"`
}

func (nu *NewUser) Validate(validate *validator.Validate, svc *Service) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Role = strings.ToUpper(core.CleanString(nu.Role))
	if nu.Role == "" {
		nu.Role = RoleStudent
	}

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckEmailUniqueness(nu.Email)
}

// Credentials is the account part of an admin-provisioned profile (teacher, student, parent).
type Credentials struct {
	Name     string `json:"name"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (c *Credentials) Clean() {
	c.Name = core.CleanString(c.Name)
	c.Email = core.CleanString(c.Email, true /* lower */)
}

// UpdateCredentials defines what account fields may be patched by an admin.
// Empty fields are left untouched.
type UpdateCredentials struct {
	Name     string `json:"name"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password"`
}

func (c *UpdateCredentials) Clean() {
	c.Name = core.CleanString(c.Name)
	c.Email = core.CleanString(c.Email, true /* lower */)
}

func (c UpdateCredentials) IsEmpty() bool {
	return c.Name == "" && c.Email == "" && c.Password == ""
}

// Apply merges the patch into an existing User. The password is re-hashed when provided.
func (c UpdateCredentials) Apply(usr User) (User, error) {
	if c.Name != "" {
		usr.Name = NullableName(c.Name)
	}
	if c.Email != "" {
		usr.Email = c.Email
	}
	if c.Password != "" {
		if err := usr.SetPassword(c.Password); err != nil {
			return User{}, err
		}
	}
	usr.UpdatedAt = time.Now().UTC()
	return usr, nil
}
