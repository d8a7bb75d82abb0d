package auth

import (
	"github.com/ogg1996/ggdevlog/pkg"
)

// Admin is the single administrator identity of the blog. There are no
// other users or roles.
type Admin struct {
	PasswordHash string
}

// VerifyPassword checks the submitted secret against the configured
// bcrypt hash. Fails closed: a comparison error is a non-match. The
// submitted secret is never logged.
func (a *Admin) VerifyPassword(submitted string) bool {
	if submitted == "" || a.PasswordHash == "" {
		return false
	}
	return pkg.CheckPasswordHash(submitted, a.PasswordHash)
}
