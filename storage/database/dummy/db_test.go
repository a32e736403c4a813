package dummydb

import (
	"testing"

	"github.com/trezcool/shule/core/user"
)

func TestOpen(t *testing.T) {
	db := Open()
	repo := NewUserRepository(db)

	usr := user.User{ID: "u1", Email: "hero@shule.cd", Role: user.RoleStudent}
	if _, err := repo.RegisterUser(usr); err != nil {
		t.Fatalf("RegisterUser(): %v", err)
	}

	// each Open gives an independent store
	other := NewUserRepository(Open())
	if _, err := other.GetUserByEmail(usr.Email); err != user.ErrNotFound {
		t.Errorf("GetUserByEmail() error = %v, wantErr %v", err, user.ErrNotFound)
	}
}
