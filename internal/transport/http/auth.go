package http

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

const adminRealm = `Basic realm="line-oa-bot admin"`

// requireAdmin guards next with HTTP Basic auth against the configured
// bcrypt hash. Without a hash the admin API stays closed.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.AdminPasswordHash == "" {
			writeJSON(w, http.StatusServiceUnavailable, envelope{Message: "admin API is disabled: admin_password_hash is not set"})
			return
		}

		username, password, ok := r.BasicAuth()
		if !ok || !s.checkCredentials(username, password) {
			if ok {
				slog.Warn("Admin login failed", "username", username, "remote_addr", r.RemoteAddr)
			}
			w.Header().Set("WWW-Authenticate", adminRealm)
			writeJSON(w, http.StatusUnauthorized, envelope{Message: "ชื่อผู้ใช้หรือรหัสผ่านไม่ถูกต้อง"})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) checkCredentials(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.cfg.AdminUsername)) == 1
	passOK := bcrypt.CompareHashAndPassword([]byte(s.cfg.AdminPasswordHash), []byte(password)) == nil
	return userOK && passOK
}
