package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pressline/dryclean-api/internal/access"
	"github.com/pressline/dryclean-api/internal/apperr"
	"github.com/pressline/dryclean-api/internal/auth"
	"github.com/pressline/dryclean-api/internal/users"
)

type AuthHandler struct {
	Users  *users.Store
	Tokens *auth.Manager
}

func (h *AuthHandler) Register(r *chi.Mux) {
	r.Post("/auth/register", h.register)
	r.Post("/auth/login", h.login)
}

// RegisterProtected mounts the staff-facing customer registration endpoint.
func (h *AuthHandler) RegisterProtected(r chi.Router) {
	r.Post("/customers", h.registerCustomer)
}

type registerReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	FullName string `json:"full_name" validate:"required"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
}

type authResp struct {
	Token string      `json:"token,omitempty"`
	User  *users.User `json:"user"`
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := decodeValid(r, &req); err != nil {
		writeError(w, err)
		return
	}
	role := req.Role
	if role == "" {
		role = string(access.RoleCustomer)
	}
	if role != string(access.RoleCustomer) && role != string(access.RoleShopOwner) {
		writeError(w, apperr.New(apperr.KindValidation, "unknown role").
			WithField("role", "must be customer or shop_owner"))
		return
	}

	u, err := h.createUser(r, req, role)
	if err != nil {
		writeError(w, err)
		return
	}
	token, err := h.Tokens.GenerateToken(u.ID, u.Role)
	if err != nil {
		writeError(w, apperr.Wrap(apperr.KindStorageFailure, "issue token", err))
		return
	}
	writeJSON(w, http.StatusCreated, authResp{Token: token, User: u})
}

// registerCustomer lets counter staff create a customer account while taking
// an order in person.
func (h *AuthHandler) registerCustomer(w http.ResponseWriter, r *http.Request) {
	actor := ActorFrom(r)
	if !actor.Can(access.CapRegisterCustomers) || actor.ShopID == "" {
		writeError(w, apperr.New(apperr.KindForbidden, "not allowed to register customers"))
		return
	}
	var req registerReq
	if err := decodeValid(r, &req); err != nil {
		writeError(w, err)
		return
	}
	u, err := h.createUser(r, req, string(access.RoleCustomer))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, authResp{User: u})
}

func (h *AuthHandler) createUser(r *http.Request, req registerReq, role string) (*users.User, error) {
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStorageFailure, "hash password", err)
	}
	u := &users.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: hash,
		FullName:     req.FullName,
		Phone:        req.Phone,
		Role:         role,
	}
	if err := h.Users.Create(r.Context(), u); err != nil {
		return nil, err
	}
	return u, nil
}

type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := decodeValid(r, &req); err != nil {
		writeError(w, err)
		return
	}
	u, err := h.Users.GetByEmail(r.Context(), req.Email)
	if err != nil || !auth.CheckPassword(u.PasswordHash, req.Password) {
		writeError(w, apperr.New(apperr.KindUnauthorized, "invalid credentials"))
		return
	}
	token, err := h.Tokens.GenerateToken(u.ID, u.Role)
	if err != nil {
		writeError(w, apperr.Wrap(apperr.KindStorageFailure, "issue token", err))
		return
	}
	writeJSON(w, http.StatusOK, authResp{Token: token, User: u})
}
