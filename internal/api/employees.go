package api

import (
	"net/http"
	"time"

	"github.com/erazemk/webshop/internal/apperr"
	"github.com/erazemk/webshop/internal/model"
	"github.com/erazemk/webshop/internal/policy"
	"github.com/erazemk/webshop/internal/store"
)

// EmployeesHandler handles employee endpoints.
type EmployeesHandler struct {
	handler
}

type employeeRequest struct {
	FirstName *string    `json:"first_name"`
	LastName  *string    `json:"last_name"`
	Role      *string    `json:"role"`
	HiredAt   *time.Time `json:"hired_at"`
	Warehouse optionalID `json:"warehouse"`

	addressRequest
}

func (req *employeeRequest) apply(e *model.Employee) {
	setString(&e.FirstName, req.FirstName)
	setString(&e.LastName, req.LastName)
	setString(&e.Role, req.Role)
	if req.HiredAt != nil {
		e.HiredAt = req.HiredAt.UTC()
	}
	req.Warehouse.apply(&e.WarehouseID)
	req.addressRequest.apply(&e.Address)
}

// List handles GET /api/employees.
func (h *EmployeesHandler) List(w http.ResponseWriter, r *http.Request) {
	employees, err := store.ListEmployees(r.Context(), h.DB)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if employees == nil {
		employees = []model.Employee{}
	}
	jsonResponse(w, http.StatusOK, employees)
}

// Create handles POST /api/employees.
func (h *EmployeesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req employeeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	emp := &model.Employee{}
	req.apply(emp)
	if err := h.Validator.Employee(r.Context(), emp); err != nil {
		writeError(w, r, err)
		return
	}

	created, err := store.CreateEmployee(r.Context(), h.DB, emp)
	if err != nil {
		writeError(w, r, err)
		return
	}

	LoggerFrom(r.Context()).Info("employee created", "id", created.ID)
	jsonResponse(w, http.StatusCreated, created)
}

// Get handles GET /api/employees/{id}.
func (h *EmployeesHandler) Get(w http.ResponseWriter, r *http.Request) {
	emp, err := h.load(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, emp)
}

// Update handles PUT and PATCH /api/employees/{id}. A PUT without hired_at
// keeps the stored hiring date.
func (h *EmployeesHandler) Update(w http.ResponseWriter, r *http.Request) {
	existing, err := h.load(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Policy.Authorize(ActorFrom(r.Context()), policy.Employees, policy.ActionUpdate, nil); err != nil {
		writeError(w, r, err)
		return
	}

	var req employeeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	emp := *existing
	if r.Method == http.MethodPut {
		emp = model.Employee{ID: existing.ID, HiredAt: existing.HiredAt}
	}
	req.apply(&emp)

	if err := h.Validator.Employee(r.Context(), &emp); err != nil {
		writeError(w, r, err)
		return
	}
	if err := store.UpdateEmployee(r.Context(), h.DB, &emp); err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := store.GetEmployee(r.Context(), h.DB, emp.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	LoggerFrom(r.Context()).Info("employee updated", "id", emp.ID)
	jsonResponse(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/employees/{id}.
func (h *EmployeesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	existing, err := h.load(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Policy.Authorize(ActorFrom(r.Context()), policy.Employees, policy.ActionDelete, nil); err != nil {
		writeError(w, r, err)
		return
	}

	if err := store.DeleteEmployee(r.Context(), h.DB, existing.ID); err != nil {
		writeError(w, r, err)
		return
	}

	LoggerFrom(r.Context()).Info("employee deleted", "id", existing.ID)
	deleted(w, "employee")
}

func (h *EmployeesHandler) load(r *http.Request) (*model.Employee, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	emp, err := store.GetEmployee(r.Context(), h.DB, id)
	if err != nil {
		return nil, err
	}
	if emp == nil {
		return nil, apperr.NotFound("employee")
	}
	return emp, nil
}
