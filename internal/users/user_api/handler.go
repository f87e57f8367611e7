package user_api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"ms-booking/internal/apperr"
	"ms-booking/internal/auth"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"
	users "ms-booking/internal/users/service"
	"ms-booking/internal/utils"
)

type Handler struct {
	UserService *users.UserService
	Logger      *logger.Logger
}

func NewHandler(userService *users.UserService, log *logger.Logger) *Handler {
	return &Handler{UserService: userService, Logger: log}
}

// Register handles POST /auth/register. The route sits behind the bearer
// middleware and honours the isAdmin flag from the body.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, apperr.Validation(apperr.CodeValidation, "Invalid request body"))
		return
	}

	caller := "unknown"
	if p, ok := auth.PrincipalFrom(r.Context()); ok {
		caller = p.UserID
	}
	if req.IsAdmin {
		h.Logger.LogSecurity("REGISTER", fmt.Sprintf("user %s creating admin account %q", caller, req.Username))
	}

	if _, err := h.UserService.Register(r.Context(), req); err != nil {
		h.writeError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, models.MessageResponse{Message: "User registered successfully"})
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, apperr.Validation(apperr.CodeValidation, "Invalid request body"))
		return
	}

	token, err := h.UserService.Login(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, token)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	appErr := utils.WriteError(w, err)
	if appErr.Kind == apperr.KindInternal {
		h.Logger.Error("AUTH", err.Error())
	}
}
