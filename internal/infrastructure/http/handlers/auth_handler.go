package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/trackroom/trackroom/internal/application/auth"
	"github.com/trackroom/trackroom/internal/domain"
	domerrors "github.com/trackroom/trackroom/internal/domain/errors"
	"github.com/trackroom/trackroom/internal/infrastructure/http/middleware"
)

type AuthHandler struct {
	register       *auth.Register
	login          *auth.Login
	forgotPassword *auth.ForgotPassword
	resetPassword  *auth.ResetPassword
	validate       *validator.Validate
	log            zerolog.Logger
}

func NewAuthHandler(register *auth.Register, login *auth.Login, forgotPassword *auth.ForgotPassword, resetPassword *auth.ResetPassword, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		register:       register,
		login:          login,
		forgotPassword: forgotPassword,
		resetPassword:  resetPassword,
		validate:       validator.New(),
		log:            log,
	}
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email" validate:"required,email,max=254"`
		Password string `json:"password" validate:"required,min=8,max=128"`
		Role     string `json:"role" validate:"omitempty,oneof=engineer client"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", "invalid body")
		return
	}
	if err := h.validate.Struct(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", err.Error())
		return
	}
	email := SanitizeEmail(body.Email)
	password := SanitizePassword(body.Password)
	if email == "" || password == "" {
		writeErr(w, http.StatusBadRequest, "", "invalid email or password length")
		return
	}
	result, err := h.register.Execute(r.Context(), auth.RegisterInput{
		Email:    email,
		Password: password,
		Role:     domain.Role(body.Role),
	})
	if err != nil {
		AuditLog(h.log, r, "user.signup", "", "", false, err.Error())
		middleware.RecordAuthAttempt("signup", false)
		if errors.Is(err, domerrors.ErrConflict) {
			writeErr(w, http.StatusConflict, "", "email already registered")
			return
		}
		writeDomainErr(w, err)
		return
	}
	AuditLog(h.log, r, "user.signup", "", result.User.ID.String(), true, "")
	middleware.RecordAuthAttempt("signup", true)
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"id":         result.User.ID.String(),
		"email":      result.User.Email,
		"role":       result.User.Role,
		"created_at": result.User.CreatedAt,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email" validate:"required,email,max=254"`
		Password string `json:"password" validate:"required,max=128"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", "invalid body")
		return
	}
	if err := h.validate.Struct(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", err.Error())
		return
	}
	email := SanitizeEmail(body.Email)
	password := SanitizePassword(body.Password)
	if email == "" || password == "" {
		writeErr(w, http.StatusBadRequest, "", "invalid email or password length")
		return
	}
	result, err := h.login.Execute(r.Context(), auth.LoginInput{Email: email, Password: password})
	if err != nil {
		AuditLog(h.log, r, "user.login", "", "", false, err.Error())
		middleware.RecordAuthAttempt("login", false)
		writeDomainErr(w, err)
		return
	}
	AuditLog(h.log, r, "user.login", "", result.User.ID.String(), true, "")
	middleware.RecordAuthAttempt("login", true)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session":    result.Session,
		"expires_in": result.ExpiresIn,
		"user": map[string]interface{}{
			"id":    result.User.ID.String(),
			"email": result.User.Email,
			"role":  result.User.Role,
		},
	})
}

// ForgotPassword always answers 202; the response never says whether the
// email exists.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email" validate:"required,email,max=254"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", "invalid body")
		return
	}
	if err := h.validate.Struct(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", err.Error())
		return
	}
	email := SanitizeEmail(body.Email)
	if email == "" {
		writeErr(w, http.StatusBadRequest, "", "invalid email")
		return
	}
	if _, err := h.forgotPassword.Execute(r.Context(), auth.ForgotPasswordInput{Email: email}); err != nil {
		AuditLog(h.log, r, "user.forgot_password", "", "", false, err.Error())
		writeDomainErr(w, err)
		return
	}
	AuditLog(h.log, r, "user.forgot_password", "", "", true, "")
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token       string `json:"token" validate:"required,max=128"`
		NewPassword string `json:"new_password" validate:"required,min=8,max=128"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", "invalid body")
		return
	}
	if err := h.validate.Struct(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", err.Error())
		return
	}
	password := SanitizePassword(body.NewPassword)
	if password == "" {
		writeErr(w, http.StatusBadRequest, "", "invalid password length")
		return
	}
	_, err := h.resetPassword.Execute(r.Context(), auth.ResetPasswordInput{
		Token:       body.Token,
		NewPassword: password,
	})
	if err != nil {
		AuditLog(h.log, r, "user.reset_password", "", "", false, err.Error())
		middleware.RecordAuthAttempt("reset_password", false)
		if errors.Is(err, domerrors.ErrConflict) {
			writeErr(w, http.StatusConflict, "", "new password must differ from the old one")
			return
		}
		writeDomainErr(w, err)
		return
	}
	AuditLog(h.log, r, "user.reset_password", "", "", true, "")
	middleware.RecordAuthAttempt("reset_password", true)
	writeJSON(w, http.StatusOK, map[string]string{"status": "password updated"})
}
