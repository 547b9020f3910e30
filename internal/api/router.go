package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/webshop/internal/auth"
	"github.com/erazemk/webshop/internal/policy"
	"github.com/erazemk/webshop/internal/store"
	"github.com/erazemk/webshop/internal/validation"
)

// Options configure the API router.
type Options struct {
	Signer *auth.Signer
	Policy *policy.Policy

	// BcryptCost is used for new password hashes.
	BcryptCost int
	// MaxBodyBytes limits JSON request bodies; photo uploads use
	// MaxPhotoBytes instead.
	MaxBodyBytes  int64
	MaxPhotoBytes int64
	// MaxPhotoDimension bounds stored photo sizes; 0 keeps originals.
	MaxPhotoDimension int
}

// route binds a pattern to the resource and action the policy gates it by.
type route struct {
	pattern  string
	resource policy.Resource
	action   policy.Action
	handler  http.HandlerFunc
}

// crud returns the six standard routes of a collection.
func crud(resource policy.Resource, list, create, get, update, remove http.HandlerFunc) []route {
	base := "/api/" + string(resource)
	return []route{
		{"GET " + base, resource, policy.ActionList, list},
		{"POST " + base, resource, policy.ActionCreate, create},
		{"GET " + base + "/{id}", resource, policy.ActionRetrieve, get},
		{"PUT " + base + "/{id}", resource, policy.ActionUpdate, update},
		{"PATCH " + base + "/{id}", resource, policy.ActionUpdate, update},
		{"DELETE " + base + "/{id}", resource, policy.ActionDelete, remove},
	}
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, opts Options) http.Handler {
	if opts.Signer == nil {
		panic("api: Options.Signer is required")
	}
	if opts.Policy == nil {
		opts.Policy = policy.New()
	}

	engine := validation.New(store.NewLookup(db))
	engine.MaxPhotoDimension = opts.MaxPhotoDimension

	base := handler{DB: db, Policy: opts.Policy, Validator: engine}
	authHandler := &AuthHandler{handler: base, Signer: opts.Signer, BcryptCost: opts.BcryptCost}
	users := &UsersHandler{handler: base, BcryptCost: opts.BcryptCost}
	items := &ItemsHandler{handler: base}
	reviews := &ReviewsHandler{handler: base}
	photos := &PhotosHandler{handler: base, MaxBytes: opts.MaxPhotoBytes}
	warehouses := &WarehousesHandler{handler: base}
	employees := &EmployeesHandler{handler: base}

	var routes []route
	routes = append(routes, crud(policy.Users, users.List, users.Create, users.Get, users.Update, users.Delete)...)
	routes = append(routes, crud(policy.Items, items.List, items.Create, items.Get, items.Update, items.Delete)...)
	routes = append(routes, crud(policy.Reviews, reviews.List, reviews.Create, reviews.Get, reviews.Update, reviews.Delete)...)
	routes = append(routes, crud(policy.ItemPhotos, photos.List, photos.Create, photos.Get, photos.Update, photos.Delete)...)
	routes = append(routes, crud(policy.Warehouses, warehouses.List, warehouses.Create, warehouses.Get, warehouses.Update, warehouses.Delete)...)
	routes = append(routes, crud(policy.Employees, employees.List, employees.Create, employees.Get, employees.Update, employees.Delete)...)
	routes = append(routes, route{"GET /api/itemphotos/{id}/image", policy.ItemPhotos, policy.ActionRetrieve, photos.Image})

	jsonLimit := MaxBodyMiddleware(opts.MaxBodyBytes)
	photoLimit := MaxBodyMiddleware(opts.MaxPhotoBytes)

	mux := http.NewServeMux()
	for _, rt := range routes {
		limit := jsonLimit
		if rt.resource == policy.ItemPhotos {
			limit = photoLimit
		}
		mux.Handle(rt.pattern, limit(gate(opts.Policy, rt.resource, rt.action)(rt.handler)))
	}

	// Account endpoints sit outside the resource table.
	mux.Handle("POST /api/auth/register", jsonLimit(http.HandlerFunc(authHandler.Register)))
	mux.Handle("POST /api/auth/login", jsonLimit(http.HandlerFunc(authHandler.Login)))
	mux.Handle("POST /api/auth/logout", requireAuth(authHandler.Logout))
	mux.Handle("PUT /api/auth/password", jsonLimit(requireAuth(authHandler.ChangePassword)))
	mux.Handle("GET /api/auth/me", requireAuth(authHandler.Me))

	return RequestID(LoggingMiddleware(AuthMiddleware(opts.Signer, db)(mux)))
}
