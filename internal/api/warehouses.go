package api

import (
	"net/http"

	"github.com/erazemk/webshop/internal/apperr"
	"github.com/erazemk/webshop/internal/model"
	"github.com/erazemk/webshop/internal/policy"
	"github.com/erazemk/webshop/internal/store"
)

// WarehousesHandler handles warehouse endpoints.
type WarehousesHandler struct {
	handler
}

type warehouseRequest struct {
	Name        *string `json:"name"`
	Street      *string `json:"street"`
	HouseNumber *string `json:"house_number"`
	PostalCode  *string `json:"postal_code"`
	City        *string `json:"city"`
	Country     *string `json:"country"`
	Capacity    *int    `json:"capacity"`
}

func (req *warehouseRequest) apply(wh *model.Warehouse) {
	setString(&wh.Name, req.Name)
	setString(&wh.Street, req.Street)
	setString(&wh.HouseNumber, req.HouseNumber)
	setString(&wh.PostalCode, req.PostalCode)
	setString(&wh.City, req.City)
	setString(&wh.Country, req.Country)
	if req.Capacity != nil {
		wh.Capacity = *req.Capacity
	}
}

// List handles GET /api/warehouses.
func (h *WarehousesHandler) List(w http.ResponseWriter, r *http.Request) {
	warehouses, err := store.ListWarehouses(r.Context(), h.DB)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if warehouses == nil {
		warehouses = []model.Warehouse{}
	}
	jsonResponse(w, http.StatusOK, warehouses)
}

// Create handles POST /api/warehouses.
func (h *WarehousesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req warehouseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	wh := &model.Warehouse{}
	req.apply(wh)
	if err := h.Validator.Warehouse(wh); err != nil {
		writeError(w, r, err)
		return
	}

	created, err := store.CreateWarehouse(r.Context(), h.DB, wh)
	if err != nil {
		writeError(w, r, err)
		return
	}

	LoggerFrom(r.Context()).Info("warehouse created", "id", created.ID, "name", created.Name)
	jsonResponse(w, http.StatusCreated, created)
}

// Get handles GET /api/warehouses/{id}.
func (h *WarehousesHandler) Get(w http.ResponseWriter, r *http.Request) {
	wh, err := h.load(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, wh)
}

// Update handles PUT and PATCH /api/warehouses/{id}.
func (h *WarehousesHandler) Update(w http.ResponseWriter, r *http.Request) {
	existing, err := h.load(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Policy.Authorize(ActorFrom(r.Context()), policy.Warehouses, policy.ActionUpdate, nil); err != nil {
		writeError(w, r, err)
		return
	}

	var req warehouseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	wh := *existing
	if r.Method == http.MethodPut {
		wh = model.Warehouse{ID: existing.ID}
	}
	req.apply(&wh)

	if err := h.Validator.Warehouse(&wh); err != nil {
		writeError(w, r, err)
		return
	}
	if err := store.UpdateWarehouse(r.Context(), h.DB, &wh); err != nil {
		writeError(w, r, err)
		return
	}

	LoggerFrom(r.Context()).Info("warehouse updated", "id", wh.ID)
	jsonResponse(w, http.StatusOK, wh)
}

// Delete handles DELETE /api/warehouses/{id}. Its employees are kept without
// a warehouse.
func (h *WarehousesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	existing, err := h.load(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Policy.Authorize(ActorFrom(r.Context()), policy.Warehouses, policy.ActionDelete, nil); err != nil {
		writeError(w, r, err)
		return
	}

	if err := store.DeleteWarehouse(r.Context(), h.DB, existing.ID); err != nil {
		writeError(w, r, err)
		return
	}

	LoggerFrom(r.Context()).Info("warehouse deleted", "id", existing.ID)
	deleted(w, "warehouse")
}

func (h *WarehousesHandler) load(r *http.Request) (*model.Warehouse, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	wh, err := store.GetWarehouse(r.Context(), h.DB, id)
	if err != nil {
		return nil, err
	}
	if wh == nil {
		return nil, apperr.NotFound("warehouse")
	}
	return wh, nil
}
