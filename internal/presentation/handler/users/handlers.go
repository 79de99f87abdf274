package users

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/chronicler-app/chronicler/internal/domain"
	"github.com/chronicler-app/chronicler/internal/infrastructure/auth"
	"github.com/chronicler-app/chronicler/internal/infrastructure/json"
)

type Handler struct {
	userRepository domain.UserRepository
	authConfig     auth.Config
	logger         *zap.SugaredLogger
}

func NewHandler(userRepository domain.UserRepository, authConfig auth.Config, logger *zap.SugaredLogger) *Handler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Handler{
		userRepository: userRepository,
		authConfig:     authConfig,
		logger:         logger,
	}
}

// CreateUserHandler registers a user and returns the bearer token that
// identifies them on every other endpoint.
func (h *Handler) CreateUserHandler(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.Read(w, r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	user, err := h.userRepository.CreateUser(r.Context(), req.Name)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			json.WriteValidationError(w, err)
			return
		}
		h.logger.Errorw("failed to create user", "error", err)
		json.WriteInternalError(w, err)
		return
	}

	token, err := auth.SignToken(h.authConfig, user.ID)
	if err != nil {
		h.logger.Errorw("failed to sign token", "user_id", user.ID, "error", err)
		json.WriteInternalError(w, err)
		return
	}

	json.Write(w, http.StatusCreated, createUserResponse{
		ID:    user.ID,
		Name:  user.Name,
		Token: token,
	})
}

// GetUserHandler returns one user from the directory.
func (h *Handler) GetUserHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userId"), 10, 64)
	if err != nil {
		json.WriteBadRequestError(w, "user id must be an integer")
		return
	}

	user, err := h.userRepository.GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			json.WriteNotFound(w, "user not found")
			return
		}
		h.logger.Errorw("failed to load user", "user_id", userID, "error", err)
		json.WriteInternalError(w, err)
		return
	}

	json.Write(w, http.StatusOK, userResponse{ID: user.ID, Name: user.Name})
}
