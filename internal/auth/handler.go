package auth

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/google/uuid"

	"contactbook/internal/httputil"
	"contactbook/internal/logging"
	"contactbook/internal/ratelimit"
	"contactbook/internal/user"
)

// Handler contains HTTP handlers for authentication endpoints.
type Handler struct {
	service     *Service
	rateLimiter *ratelimit.Limiter
	logger      *logging.Logger
}

func NewHandler(service *Service, rateLimiter *ratelimit.Limiter, logger *logging.Logger) *Handler {
	return &Handler{
		service:     service,
		rateLimiter: rateLimiter,
		logger:      logger,
	}
}

// RegisterRequest is the registration request body.
type RegisterRequest struct {
	Username   string  `json:"username"`
	Password   string  `json:"password"`
	Phone      string  `json:"phone"`
	Age        *int    `json:"age,omitempty"`
	MACAddress *string `json:"mac_address,omitempty"`
}

// LoginRequest is the login request body.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RefreshRequest is the token refresh request body.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ForgotPasswordRequest asks for a reset code by phone.
type ForgotPasswordRequest struct {
	Phone string `json:"phone"`
}

// ResetPasswordRequest confirms a reset code and sets a new password.
type ResetPasswordRequest struct {
	Phone       string `json:"phone"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

// UserResponse is a user in API responses.
type UserResponse struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Phone    string    `json:"phone"`
}

// RegisterResponse is the registration response.
type RegisterResponse struct {
	User    UserResponse `json:"user"`
	Message string       `json:"message"`
}

// Register handles user registration
// @Summary      Register a new user
// @Description  Create a new account with username, password and phone number.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "Registration fields"
// @Success      201 {object} RegisterResponse
// @Failure      400 {object} httputil.ErrorResponse "Validation error"
// @Failure      409 {object} httputil.ErrorResponse "Username or phone already taken"
// @Router       /auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if h.limitExceeded(w, r, "register") {
		return
	}

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid registration request body", "error", err.Error())
		httputil.RespondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"username": req.Username})

	newUser, err := h.service.Register(r.Context(), RegisterInput{
		Username:   req.Username,
		Password:   req.Password,
		Phone:      req.Phone,
		Age:        req.Age,
		MACAddress: req.MACAddress,
	})
	if err != nil {
		switch {
		case errors.Is(err, user.ErrDuplicateUsername):
			logger.Warn("registration failed: username taken")
			httputil.RespondError(w, "username already exists", httputil.CodeUsernameTaken, http.StatusConflict)
		case errors.Is(err, user.ErrDuplicatePhone):
			logger.Warn("registration failed: phone taken")
			httputil.RespondError(w, "phone number already registered", httputil.CodePhoneTaken, http.StatusConflict)
		case errors.Is(err, ErrUsernameRequired):
			httputil.RespondError(w, err.Error(), httputil.CodeUsernameRequired, http.StatusBadRequest)
		case errors.Is(err, ErrPhoneRequired):
			httputil.RespondError(w, err.Error(), httputil.CodePhoneRequired, http.StatusBadRequest)
		case errors.Is(err, ErrPasswordRequired):
			httputil.RespondError(w, err.Error(), httputil.CodePasswordRequired, http.StatusBadRequest)
		case errors.Is(err, ErrPasswordTooShort):
			httputil.RespondError(w, err.Error(), httputil.CodePasswordTooShort, http.StatusBadRequest)
		default:
			logger.Error("registration failed: internal error", "error", err.Error())
			httputil.RespondError(w, "failed to register user", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("user registered", "user_id", newUser.ID)

	httputil.RespondJSON(w, RegisterResponse{
		User: UserResponse{
			ID:       newUser.ID,
			Username: newUser.Username,
			Phone:    newUser.Phone,
		},
		Message: "Registration successful.",
	}, http.StatusCreated)
}

// Login handles user login
// @Summary      User login
// @Description  Authenticate and receive access and refresh tokens.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} AuthTokens
// @Failure      401 {object} httputil.ErrorResponse "Invalid credentials"
// @Router       /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if h.limitExceeded(w, r, "login") {
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login request body", "error", err.Error())
		httputil.RespondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"username": req.Username})

	tokens, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			logger.Warn("login failed: invalid credentials")
			httputil.RespondError(w, "invalid username or password", httputil.CodeInvalidCredentials, http.StatusUnauthorized)
			return
		}
		logger.Error("login failed: internal error", "error", err.Error())
		httputil.RespondError(w, "failed to login", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user logged in")
	httputil.RespondJSON(w, tokens, http.StatusOK)
}

// Refresh rotates a refresh token
// @Summary      Refresh tokens
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RefreshRequest true "Refresh token"
// @Success      200 {object} AuthTokens
// @Failure      401 {object} httputil.ErrorResponse "Invalid refresh token"
// @Router       /auth/refresh [post]
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		httputil.RespondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	tokens, err := h.service.RefreshAccessToken(r.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			httputil.RespondError(w, "invalid refresh token", httputil.CodeInvalidToken, http.StatusUnauthorized)
			return
		}
		logger.Error("token refresh failed", "error", err.Error())
		httputil.RespondError(w, "failed to refresh token", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, tokens, http.StatusOK)
}

// Logout revokes a refresh token
// @Summary      Logout
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RefreshRequest true "Refresh token to revoke"
// @Success      200 {object} map[string]string
// @Router       /auth/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		httputil.RespondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	// Revoking an unknown token is still a successful logout.
	if err := h.service.RevokeRefreshToken(r.Context(), req.RefreshToken); err != nil && !errors.Is(err, ErrRefreshTokenNotFound) {
		logger := logging.GetLoggerFromContext(r.Context())
		logger.Error("logout failed", "error", err.Error())
		httputil.RespondError(w, "failed to logout", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, map[string]string{"message": "logged out"}, http.StatusOK)
}

// ForgotPassword issues a reset code via SMS
// @Summary      Request a password reset code
// @Description  Sends a 6-digit code to the phone number when it is registered. Always returns 200.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body ForgotPasswordRequest true "Phone number"
// @Success      200 {object} map[string]string
// @Router       /auth/forgot-password [post]
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if h.limitExceeded(w, r, "forgot-password") {
		return
	}

	var req ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Phone == "" {
		httputil.RespondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if err := h.service.RequestPasswordReset(r.Context(), req.Phone); err != nil {
		// The service swallows per-account failures; anything surfacing here
		// is infrastructural.
		logger.Error("password reset request failed", "error", err.Error())
	}

	httputil.RespondJSON(w, map[string]string{
		"message": "if the phone number is registered, a reset code has been sent",
	}, http.StatusOK)
}

// ResetPassword consumes a reset code
// @Summary      Reset password with a code
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body ResetPasswordRequest true "Phone, code and new password"
// @Success      200 {object} map[string]string
// @Failure      400 {object} httputil.ErrorResponse "Invalid or expired code"
// @Router       /auth/reset-password [post]
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	err := h.service.ResetPassword(r.Context(), req.Phone, req.Code, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, ErrResetCodeNotFound), errors.Is(err, ErrResetCodeMismatch):
			httputil.RespondError(w, "invalid or expired reset code", httputil.CodeInvalidResetCode, http.StatusBadRequest)
		case errors.Is(err, ErrPasswordRequired):
			httputil.RespondError(w, err.Error(), httputil.CodePasswordRequired, http.StatusBadRequest)
		case errors.Is(err, ErrPasswordTooShort):
			httputil.RespondError(w, err.Error(), httputil.CodePasswordTooShort, http.StatusBadRequest)
		default:
			logger.Error("password reset failed", "error", err.Error())
			httputil.RespondError(w, "failed to reset password", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	httputil.RespondJSON(w, map[string]string{"message": "password has been reset"}, http.StatusOK)
}

// limitExceeded applies the fixed-window limiter and writes the 429 when the
// budget is spent. Limiter failures are logged, never fatal.
func (h *Handler) limitExceeded(w http.ResponseWriter, r *http.Request, purpose string) bool {
	logger := logging.GetLoggerFromContext(r.Context())
	ip := clientIP(r)

	exceeded, err := h.rateLimiter.CheckIPRateLimit(r.Context(), ip, purpose)
	if err != nil {
		logger.Error("failed to check rate limit", "error", err.Error())
		return false
	}
	if exceeded {
		logger.Warn("rate limit exceeded", "ip", ip, "purpose", purpose)
		httputil.RespondError(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return true
	}

	if err := h.rateLimiter.RecordIPRequest(r.Context(), ip, purpose); err != nil {
		logger.Error("failed to record request", "error", err.Error())
	}
	return false
}

// clientIP strips the port from RemoteAddr; the RealIP middleware has already
// resolved proxy headers.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
