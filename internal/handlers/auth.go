package handlers

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/gramtop961/backend/internal/auth"
	"github.com/gramtop961/backend/internal/db"
	"github.com/gramtop961/backend/internal/middleware"
	"github.com/gramtop961/backend/internal/models"
	"github.com/gramtop961/backend/internal/utils"
	"github.com/gramtop961/backend/internal/validate"
)

type AuthHandler struct {
	Users  UserStore
	Issuer *auth.Issuer
	Log    *zap.Logger
}

// ----------- Request/Response DTOs -------------

type signUpReq struct {
	Name     string `json:"name" validate:"required,min=2,max=80"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

type authResp struct {
	Token string            `json:"token"`
	User  models.PublicUser `json:"user"`
}

// ----------- Shared error mapping -------------

func (h *AuthHandler) storeError(w http.ResponseWriter, err error, op string) {
	if errors.Is(err, db.ErrUnavailable) {
		utils.JSONError(w, http.StatusInternalServerError, "Database not configured")
		return
	}
	h.Log.Error(op, zap.Error(err))
	utils.JSONError(w, http.StatusInternalServerError, "Database error")
}

// -------------- SIGN UP ----------------------

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpReq
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		return
	}
	if err := validate.Struct(req); err != nil {
		utils.JSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	existing, err := h.Users.FindByEmail(r.Context(), email, 1)
	if err != nil {
		h.storeError(w, err, "signup lookup")
		return
	}
	if len(existing) > 0 {
		utils.JSONError(w, http.StatusBadRequest, "Email already registered")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.Log.Error("hash password", zap.Error(err))
		utils.JSONError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	active := true
	user := models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hash,
		IsActive:     &active,
		Role:         "user",
	}

	id, err := h.Users.Insert(r.Context(), &user)
	if errors.Is(err, db.ErrDuplicateEmail) {
		// A concurrent signup won the race to the unique index.
		utils.JSONError(w, http.StatusBadRequest, "Email already registered")
		return
	}
	if err != nil {
		h.storeError(w, err, "signup insert")
		return
	}

	token, err := h.Issuer.Issue(id, email)
	if err != nil {
		h.Log.Error("issue token", zap.Error(err))
		utils.JSONError(w, http.StatusInternalServerError, "Token error")
		return
	}

	utils.JSON(w, http.StatusCreated, authResp{Token: token, User: user.Public()})
}

// -------------- LOGIN ------------------------

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		return
	}
	if err := validate.Struct(req); err != nil {
		utils.JSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	users, err := h.Users.FindByEmail(r.Context(), email, 1)
	if err != nil {
		h.storeError(w, err, "login lookup")
		return
	}

	// Unknown email and wrong password produce the same response so the
	// endpoint cannot be used to enumerate users.
	if len(users) == 0 {
		utils.JSONError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	u := users[0]
	if !auth.CheckPassword(req.Password, u.PasswordHash) {
		utils.JSONError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := h.Issuer.Issue(u.ID.Hex(), u.Email)
	if err != nil {
		h.Log.Error("issue token", zap.Error(err))
		utils.JSONError(w, http.StatusInternalServerError, "Token error")
		return
	}

	utils.JSON(w, http.StatusOK, authResp{Token: token, User: u.Public()})
}

// -------------- ME (protected) ----------------

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	uid, ok := r.Context().Value(middleware.CtxUserIDKey).(string)
	if !ok || uid == "" {
		utils.JSONError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	u, err := h.Users.FindByID(r.Context(), uid)
	if err != nil {
		h.storeError(w, err, "me lookup")
		return
	}
	if u == nil {
		utils.JSONError(w, http.StatusNotFound, "User not found")
		return
	}

	utils.JSON(w, http.StatusOK, u.Public())
}
