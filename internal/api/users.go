package api

import (
	"net/http"

	"github.com/erazemk/webshop/internal/apperr"
	"github.com/erazemk/webshop/internal/auth"
	"github.com/erazemk/webshop/internal/model"
	"github.com/erazemk/webshop/internal/policy"
	"github.com/erazemk/webshop/internal/store"
)

// UsersHandler handles user endpoints.
type UsersHandler struct {
	handler
	BcryptCost int
}

// addressRequest is the optional address shared by users and employees.
type addressRequest struct {
	Street      *string `json:"street"`
	HouseNumber *string `json:"house_number"`
	PostalCode  *string `json:"postal_code"`
	City        *string `json:"city"`
	Country     *string `json:"country"`
}

func (req *addressRequest) apply(a *model.Address) {
	setString(&a.Street, req.Street)
	setString(&a.HouseNumber, req.HouseNumber)
	setString(&a.PostalCode, req.PostalCode)
	setString(&a.City, req.City)
	setString(&a.Country, req.Country)
}

type userRequest struct {
	Username  *string `json:"username"`
	Email     *string `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Password  *string `json:"password"`

	addressRequest
}

func (req *userRequest) apply(u *model.User) {
	setString(&u.Username, req.Username)
	setString(&u.Email, req.Email)
	setString(&u.FirstName, req.FirstName)
	setString(&u.LastName, req.LastName)
	req.addressRequest.apply(&u.Address)
}

// createUser validates and stores a new account. It backs both registration
// and POST /api/users.
func createUser(r *http.Request, h handler, cost int, req *userRequest) (*model.User, error) {
	password := ""
	if req.Password != nil {
		password = *req.Password
	}

	user := &model.User{}
	req.apply(user)
	if err := h.Validator.User(user, &password); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(password, cost)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hash

	return store.CreateUser(r.Context(), h.DB, user)
}

// List handles GET /api/users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := store.ListUsers(r.Context(), h.DB)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if users == nil {
		users = []model.User{}
	}
	jsonResponse(w, http.StatusOK, users)
}

// Create handles POST /api/users.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := createUser(r, h.handler, h.BcryptCost, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	LoggerFrom(r.Context()).Info("user created", "id", user.ID, "username", user.Username)
	jsonResponse(w, http.StatusCreated, user)
}

// Get handles GET /api/users/{id}.
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.load(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, user)
}

// Update handles PUT and PATCH /api/users/{id}. Users can only edit themselves.
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	existing, err := h.load(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Policy.Authorize(ActorFrom(r.Context()), policy.Users, policy.ActionUpdate, existing); err != nil {
		writeError(w, r, err)
		return
	}

	var req userRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user := *existing
	if r.Method == http.MethodPut {
		user = model.User{ID: existing.ID, PasswordHash: existing.PasswordHash, CreatedAt: existing.CreatedAt}
	}
	req.apply(&user)

	if err := h.Validator.User(&user, req.Password); err != nil {
		writeError(w, r, err)
		return
	}

	if req.Password != nil {
		hash, err := auth.HashPassword(*req.Password, h.BcryptCost)
		if err != nil {
			writeError(w, r, err)
			return
		}
		user.PasswordHash = hash
	}

	if err := store.UpdateUser(r.Context(), h.DB, &user); err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := store.GetUser(r.Context(), h.DB, user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	LoggerFrom(r.Context()).Info("user updated", "id", user.ID)
	jsonResponse(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/users/{id}. Users can only delete themselves.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	existing, err := h.load(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Policy.Authorize(ActorFrom(r.Context()), policy.Users, policy.ActionDelete, existing); err != nil {
		writeError(w, r, err)
		return
	}

	if err := store.DeleteUser(r.Context(), h.DB, existing.ID); err != nil {
		writeError(w, r, err)
		return
	}

	LoggerFrom(r.Context()).Info("user deleted", "id", existing.ID)
	deleted(w, "user")
}

func (h *UsersHandler) load(r *http.Request) (*model.User, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	user, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound("user")
	}
	return user, nil
}
