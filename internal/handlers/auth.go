package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"

	"github.com/gorilla/sessions"
)

var (
	sessionStore = newSessionStore()
	sessionName  = "campusconnect-session"
)

func newSessionStore() *sessions.CookieStore {
	secret := os.Getenv("SESSION_SECRET")
	if secret == "" {
		secret = "secret-key-change-in-production"
	}
	return sessions.NewCookieStore([]byte(secret))
}

// LoginHandler checks credentials and opens a session. Accounts with 2FA
// enabled get a requires_2fa response instead; the session opens only after
// Verify2FALoginHandler.
func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	user, err := h.Store.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if !user.CheckPassword(req.Password) {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if user.TOTPEnabled {
		writeJSON(w, http.StatusOK, map[string]any{
			"requires_2fa": true,
			"user_id":      user.ID,
		})
		return
	}

	session, _ := sessionStore.Get(r, sessionName)
	session.Values["user_id"] = user.ID
	session.Values["username"] = user.Username
	session.Values["role"] = user.Role
	session.Save(r, w)

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    user,
	})
}

// LogoutHandler ends the session
func (h *Handler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionStore.Get(r, sessionName)
	session.Values["user_id"] = nil
	session.Options.MaxAge = -1
	session.Save(r, w)

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// AuthMiddleware checks if a user is signed in
func AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, _ := sessionStore.Get(r, sessionName)
		userID, ok := session.Values["user_id"].(int)
		if !ok || userID == 0 {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// CurrentUserID returns the signed-in user's id, or 0
func CurrentUserID(r *http.Request) int {
	session, _ := sessionStore.Get(r, sessionName)
	userID, _ := session.Values["user_id"].(int)
	return userID
}

// SeedAdmin creates the default admin account on first boot
func (h *Handler) SeedAdmin(ctx context.Context) {
	if _, err := h.Store.GetUserByUsername(ctx, "admin"); err == nil {
		return
	}
	user, err := h.Store.CreateUser(ctx, "admin", "admin123", "admin")
	if err != nil {
		log.Println("Failed to create default admin:", err)
		return
	}
	log.Printf("Created default admin user: %s / admin123", user.Username)
}
