package handlers

import (
	"net/http"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const adminRealm = `Basic realm="kiosk admin", charset="UTF-8"`

// AdminAuth guards destructive and bulk routes with HTTP Basic auth checked
// against a bcrypt hash. The user name is ignored. An empty hash disables
// the check.
func AdminAuth(passwordHash string) func(http.Handler) http.Handler {
	hash := []byte(passwordHash)
	return func(next http.Handler) http.Handler {
		if len(hash) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, password, ok := r.BasicAuth()
			if !ok {
				w.Header().Set("WWW-Authenticate", adminRealm)
				WriteAPIError(w, http.StatusUnauthorized, "Login admin diperlukan.")
				return
			}
			if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
				if err != bcrypt.ErrMismatchedHashAndPassword {
					log.Errorf("handlers: admin hash check failed: %v", err)
				}
				w.Header().Set("WWW-Authenticate", adminRealm)
				WriteAPIError(w, http.StatusUnauthorized, "Password admin salah.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
