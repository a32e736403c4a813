package main

import (
	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

// addAdmin updates or creates an ADMIN user.
func (cli *commandLine) addAdmin(name, email, pwd string) error {
	email = core.CleanString(email, true /* lower */)

	usr, err := cli.usrSvc.GetByEmail(email)
	if err != nil {
		if err != user.ErrNotFound {
			return err
		}
		usr = user.User{Email: email}
	}
	if name != "" {
		usr.Name = user.NullableName(core.CleanString(name))
	}
	usr.Role = user.RoleAdmin
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	_, err = cli.usrSvc.UpdateOrCreate(usr)
	return err
}
