package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"vcontest/internal/api/middleware"
	"vcontest/internal/app/service"
	"vcontest/internal/common"
)

type UserHandler struct {
	userService *service.UserService
	log         logrus.FieldLogger
}

func NewUserHandler(us *service.UserService, log logrus.FieldLogger) *UserHandler {
	return &UserHandler{userService: us, log: log}
}

func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.RequireUser)
	r.Get("/get", h.getUser)
	r.Post("/update", h.updateUser)
}

func (h *UserHandler) getUser(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())

	user, err := h.userService.Get(r.Context(), userID)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, user)
}

func (h *UserHandler) updateUser(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())

	var req service.UpdateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.userService.UpdateAtCoderUserID(r.Context(), userID, req); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, emptyObject)
}
