package cataloghandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"perfeval/internal/domain/auth"
	"perfeval/internal/domain/catalog"
	"perfeval/internal/transport/http/api"
	"perfeval/internal/transport/http/middleware"
	"perfeval/internal/transport/http/shared"
)

type Handler struct {
	Service *catalog.Service
	Perms   middleware.PermissionStore
	Audit   shared.AuditRecorder
}

func NewHandler(service *catalog.Service, perms middleware.PermissionStore, auditSvc shared.AuditRecorder) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermCatalogRead, h.Perms)
	write := middleware.RequirePermission(auth.PermCatalogWrite, h.Perms)

	r.With(read).Get("/periods/{periodID}/dimensions", h.handleListDimensions)
	r.With(write).Post("/periods/{periodID}/dimensions", h.handleCreateDimension)
	r.Route("/dimensions/{dimensionID}", func(r chi.Router) {
		r.With(read).Get("/", h.handleGetDimension)
		r.With(write).Put("/", h.handleUpdateDimension)
		r.With(write).Delete("/", h.handleDeleteDimension)
		r.With(write).Post("/items", h.handleCreateItem)
	})
	r.Route("/items/{itemID}", func(r chi.Router) {
		r.With(write).Put("/", h.handleUpdateItem)
		r.With(write).Delete("/", h.handleDeleteItem)
	})
}

func (h *Handler) handleListDimensions(w http.ResponseWriter, r *http.Request) {
	dims, err := h.Service.ListDimensions(r.Context(), chi.URLParam(r, "periodID"))
	if err != nil {
		shared.FailError(w, r, err, "dimension_list_failed", "failed to list dimensions")
		return
	}
	api.Success(w, dims, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetDimension(w http.ResponseWriter, r *http.Request) {
	dim, err := h.Service.GetDimension(r.Context(), chi.URLParam(r, "dimensionID"))
	if err != nil {
		shared.FailError(w, r, err, "dimension_get_failed", "failed to load dimension")
		return
	}
	api.Success(w, dim, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateDimension(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	var input catalog.DimensionInput
	if !shared.Decode(w, r, &input) {
		return
	}
	dim, err := h.Service.CreateDimension(r.Context(), chi.URLParam(r, "periodID"), input)
	if err != nil {
		shared.FailError(w, r, err, "dimension_create_failed", "failed to create dimension")
		return
	}
	shared.RecordAudit(r, h.Audit, user, "dimensions.create", "dimension", dim.ID, nil, dim)
	api.Created(w, dim, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateDimension(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	dimensionID := chi.URLParam(r, "dimensionID")
	before, err := h.Service.GetDimension(r.Context(), dimensionID)
	if err != nil {
		shared.FailError(w, r, err, "dimension_update_failed", "failed to update dimension")
		return
	}
	var input catalog.DimensionInput
	if !shared.Decode(w, r, &input) {
		return
	}
	dim, err := h.Service.UpdateDimension(r.Context(), dimensionID, input)
	if err != nil {
		shared.FailError(w, r, err, "dimension_update_failed", "failed to update dimension")
		return
	}
	shared.RecordAudit(r, h.Audit, user, "dimensions.update", "dimension", dimensionID, before, dim)
	api.Success(w, dim, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteDimension(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	dimensionID := chi.URLParam(r, "dimensionID")
	deleted, err := h.Service.DeleteDimension(r.Context(), dimensionID)
	if err != nil {
		shared.FailError(w, r, err, "dimension_delete_failed", "failed to delete dimension")
		return
	}
	shared.RecordAudit(r, h.Audit, user, "dimensions.delete", "dimension", dimensionID, deleted, nil)
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	var input catalog.ItemInput
	if !shared.Decode(w, r, &input) {
		return
	}
	item, err := h.Service.CreateItem(r.Context(), chi.URLParam(r, "dimensionID"), input)
	if err != nil {
		shared.FailError(w, r, err, "item_create_failed", "failed to create item")
		return
	}
	shared.RecordAudit(r, h.Audit, user, "items.create", "item", item.ID, nil, item)
	api.Created(w, item, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	var input catalog.ItemInput
	if !shared.Decode(w, r, &input) {
		return
	}
	itemID := chi.URLParam(r, "itemID")
	item, err := h.Service.UpdateItem(r.Context(), itemID, input)
	if err != nil {
		shared.FailError(w, r, err, "item_update_failed", "failed to update item")
		return
	}
	shared.RecordAudit(r, h.Audit, user, "items.update", "item", itemID, nil, item)
	api.Success(w, item, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	itemID := chi.URLParam(r, "itemID")
	deleted, err := h.Service.DeleteItem(r.Context(), itemID)
	if err != nil {
		shared.FailError(w, r, err, "item_delete_failed", "failed to delete item")
		return
	}
	shared.RecordAudit(r, h.Audit, user, "items.delete", "item", itemID, deleted, nil)
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}
