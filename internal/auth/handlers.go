package auth

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"chain-calculator/internal/db"
	"chain-calculator/internal/logger"
	"chain-calculator/internal/respond"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Credentials is the body of both /signup and /login.
type Credentials struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=72"`
}

// Validate checks the struct tags on Credentials.
func (c *Credentials) Validate() error {
	return validate.Struct(c)
}

type SignupResponse struct {
	Message string `json:"message"`
	UserID  int64  `json:"userId"`
}

type LoginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	UserID   int64  `json:"userId"`
}

// Handlers serves the signup and login endpoints.
type Handlers struct {
	Users db.UserStore
}

// NewHandlers returns Handlers backed by users.
func NewHandlers(users db.UserStore) *Handlers {
	return &Handlers{Users: users}
}

// Signup handles POST /signup.
func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) {
	var req Credentials
	if err := respond.DecodeJSON(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		respond.Error(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	user, err := h.Users.CreateUser(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, db.ErrUserAlreadyExists) {
			respond.Error(w, http.StatusBadRequest, "Username already exists")
			return
		}
		logger.LogERROR("Failed to create user: " + err.Error())
		respond.Error(w, http.StatusInternalServerError, "Error creating user")
		return
	}

	logger.Log.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("user signed up")
	respond.JSON(w, http.StatusCreated, SignupResponse{Message: "User created successfully", UserID: user.ID})
}

// Login handles POST /login.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req Credentials
	if err := respond.DecodeJSON(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid credentials")
		return
	}

	user, err := db.AuthenticateUser(r.Context(), h.Users, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, db.ErrUserNotFound) || errors.Is(err, db.ErrInvalidCredentials) {
			respond.Error(w, http.StatusBadRequest, "Invalid credentials")
			return
		}
		logger.LogERROR("Failed to authenticate: " + err.Error())
		respond.Error(w, http.StatusInternalServerError, "Error logging in")
		return
	}

	token, err := GenerateToken(user)
	if err != nil {
		logger.LogERROR("Failed to sign token: " + err.Error())
		respond.Error(w, http.StatusInternalServerError, "Error logging in")
		return
	}

	respond.JSON(w, http.StatusOK, LoginResponse{Token: token, Username: user.Username, UserID: user.ID})
}
