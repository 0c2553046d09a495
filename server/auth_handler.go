package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"soundwave/core/auth"
	"soundwave/core/mail"
	"soundwave/logger"
	"soundwave/model"
	"soundwave/repository"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Email     string     `json:"email"`
	Password  string     `json:"password"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	BirthDate *time.Time `json:"birthDate"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ConfirmEmailRequest is the body of POST /api/auth/confirm-email.
type ConfirmEmailRequest struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

// AuthResponse is the body returned by register and login.
type AuthResponse struct {
	Token     string             `json:"token"`
	User      model.UserResponse `json:"user"`
	ExpiresAt time.Time          `json:"expiresAt"`
}

// RegisterHandler handles user registration. Welcome and confirmation
// emails are sent best-effort off the request path.
func (h *APIHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" || req.FirstName == "" || req.LastName == "" {
		respondError(w, http.StatusBadRequest, "Email, password, first name and last name are required")
		return
	}

	hashedPassword, err := auth.HashPassword(req.Password, h.cfg.BcryptCost)
	if err != nil {
		logger.Error("failed to hash password", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to process password")
		return
	}

	user := &model.User{
		Email:                  req.Email,
		PasswordHash:           hashedPassword,
		FirstName:              req.FirstName,
		LastName:               req.LastName,
		EmailConfirmationToken: sql.NullString{String: uuid.NewString(), Valid: true},
	}
	if req.BirthDate != nil {
		user.BirthDate = sql.NullTime{Time: *req.BirthDate, Valid: true}
	}

	if err := h.userRepo.CreateUser(user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			logger.Warn("registration with taken email", logger.String("email", req.Email))
			respondError(w, http.StatusConflict, "User with this email already exists")
			return
		}
		logger.Error("failed to create user", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	token := user.EmailConfirmationToken.String
	mail.SendAsync("welcome", user.Email, func() error {
		return h.mailer.SendWelcomeEmail(user.Email, user.FirstName)
	})
	mail.SendAsync("confirmation", user.Email, func() error {
		return h.mailer.SendConfirmationEmail(user.Email, user.FirstName, token)
	})

	signed, expiresAt, err := h.tokens.GenerateToken(user.ID, user.Email, user.FirstName, user.LastName)
	if err != nil {
		logger.Error("failed to generate token", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	logger.Info("user registered", logger.String("email", user.Email))
	respondJSON(w, http.StatusCreated, AuthResponse{
		Token:     signed,
		User:      user.ToResponse(),
		ExpiresAt: expiresAt,
	})
}

// LoginHandler handles user login. Unknown emails and wrong passwords
// produce the same response, so account existence is not leaked.
func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := h.userRepo.GetUserByEmail(req.Email)
	if err != nil {
		logger.Error("failed to look up user", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if user == nil || !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		logger.Warn("failed login attempt", logger.String("email", req.Email))
		respondError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	if err := h.userRepo.UpdateLastLogin(user.ID); err != nil {
		logger.Error("failed to update last login", logger.ErrorField(err))
	}

	signed, expiresAt, err := h.tokens.GenerateToken(user.ID, user.Email, user.FirstName, user.LastName)
	if err != nil {
		logger.Error("failed to generate token", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	logger.Info("user logged in", logger.String("email", user.Email))
	respondJSON(w, http.StatusOK, AuthResponse{
		Token:     signed,
		User:      user.ToResponse(),
		ExpiresAt: expiresAt,
	})
}

// ConfirmEmailHandler handles POST /api/auth/confirm-email. The token is
// single-use: a successful match clears it.
func (h *APIHandler) ConfirmEmailHandler(w http.ResponseWriter, r *http.Request) {
	var req ConfirmEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.Token == "" {
		respondError(w, http.StatusBadRequest, "Email and token are required")
		return
	}

	confirmed, err := h.userRepo.ConfirmEmail(req.Email, req.Token)
	if err != nil {
		logger.Error("failed to confirm email", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if !confirmed {
		logger.Warn("email confirmation failed", logger.String("email", req.Email))
		respondError(w, http.StatusBadRequest, "Invalid email or confirmation token")
		return
	}

	logger.Info("email confirmed", logger.String("email", req.Email))
	respondJSON(w, http.StatusOK, map[string]string{"message": "Email confirmed successfully"})
}

// ResendConfirmationHandler handles POST /api/auth/resend-confirmation.
// It responds identically whether or not the account exists.
func (h *APIHandler) ResendConfirmationHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" {
		respondError(w, http.StatusBadRequest, "Email is required")
		return
	}

	user, err := h.userRepo.GetUserByEmail(req.Email)
	if err != nil {
		logger.Error("failed to look up user", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if user != nil && !user.IsEmailConfirmed && user.EmailConfirmationToken.Valid {
		token := user.EmailConfirmationToken.String
		firstName := user.FirstName
		email := user.Email
		mail.SendAsync("confirmation", email, func() error {
			return h.mailer.SendConfirmationEmail(email, firstName, token)
		})
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "If the account exists, a confirmation email has been sent"})
}

// CheckEmailHandler handles GET /api/auth/check-email/{email}.
func (h *APIHandler) CheckEmailHandler(w http.ResponseWriter, r *http.Request) {
	email := mux.Vars(r)["email"]
	if email == "" {
		respondError(w, http.StatusBadRequest, "Email is required")
		return
	}

	taken, err := h.userRepo.EmailExists(email)
	if err != nil {
		logger.Error("failed to check email", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"isTaken": taken})
}

// MeHandler handles GET /api/auth/me (bearer-protected).
func (h *APIHandler) MeHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := h.userRepo.GetUserByID(userID)
	if err != nil {
		logger.Error("failed to look up user", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if user == nil {
		respondError(w, http.StatusNotFound, "User not found")
		return
	}
	respondJSON(w, http.StatusOK, user.ToResponse())
}
