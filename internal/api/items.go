package api

import (
	"net/http"

	"github.com/erazemk/webshop/internal/apperr"
	"github.com/erazemk/webshop/internal/model"
	"github.com/erazemk/webshop/internal/policy"
	"github.com/erazemk/webshop/internal/store"
)

// ItemsHandler handles item endpoints.
type ItemsHandler struct {
	handler
}

// itemRequest has no created_by field: the creator is always the caller.
type itemRequest struct {
	Name        *string      `json:"name"`
	Description *string      `json:"description"`
	Price       *model.Price `json:"price"`
	IsAvailable *bool        `json:"is_available"`
}

func (req *itemRequest) apply(item *model.Item) {
	setString(&item.Name, req.Name)
	setString(&item.Description, req.Description)
	if req.Price != nil {
		item.Price = *req.Price
	}
	if req.IsAvailable != nil {
		item.IsAvailable = *req.IsAvailable
	}
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := store.ListItems(r.Context(), h.DB)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor := ActorFrom(r.Context())

	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	item := &model.Item{CreatedBy: &actor.UserID}
	req.apply(item)
	if err := h.Validator.Item(item); err != nil {
		writeError(w, r, err)
		return
	}

	created, err := store.CreateItem(r.Context(), h.DB, item)
	if err != nil {
		writeError(w, r, err)
		return
	}

	LoggerFrom(r.Context()).Info("item created", "id", created.ID, "price", created.Price.String())
	jsonResponse(w, http.StatusCreated, created)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.load(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Update handles PUT and PATCH /api/items/{id}. PUT replaces every editable
// field, PATCH only those present in the body.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	existing, err := h.load(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Policy.Authorize(ActorFrom(r.Context()), policy.Items, policy.ActionUpdate, existing); err != nil {
		writeError(w, r, err)
		return
	}

	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	item := *existing
	if r.Method == http.MethodPut {
		item = model.Item{ID: existing.ID, CreatedBy: existing.CreatedBy, CreatedAt: existing.CreatedAt}
	}
	req.apply(&item)

	if err := h.Validator.Item(&item); err != nil {
		writeError(w, r, err)
		return
	}
	if err := store.UpdateItem(r.Context(), h.DB, &item); err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := store.GetItem(r.Context(), h.DB, item.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	LoggerFrom(r.Context()).Info("item updated", "id", item.ID)
	jsonResponse(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/items/{id}. Reviews and photos of the item go
// with it.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	existing, err := h.load(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Policy.Authorize(ActorFrom(r.Context()), policy.Items, policy.ActionDelete, existing); err != nil {
		writeError(w, r, err)
		return
	}

	if err := store.DeleteItem(r.Context(), h.DB, existing.ID); err != nil {
		writeError(w, r, err)
		return
	}

	LoggerFrom(r.Context()).Info("item deleted", "id", existing.ID)
	deleted(w, "item")
}

func (h *ItemsHandler) load(r *http.Request) (*model.Item, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, apperr.NotFound("item")
	}
	return item, nil
}
