package api

import (
	"net/http"

	"github.com/platinummonkey/warden/pkg/httputil"
	"github.com/platinummonkey/warden/pkg/sharing"
)

// createEntity handles POST /api/v1/domains/{domainId}/entities
func (s *Server) createEntity(w http.ResponseWriter, r *http.Request) {
	r = domainContext(r)
	vars := httputil.GetPathVars(r)

	var entity sharing.Entity
	if !httputil.ParseJSONOrError(w, r, &entity) {
		return
	}
	entity.DomainID = vars["domainId"]
	if !httputil.RequireNonEmpty(w, entity.EntityID, "entity_id") ||
		!httputil.RequireNonEmpty(w, entity.EntityTypeID, "entity_type_id") ||
		!httputil.RequireNonEmpty(w, entity.OwnerID, "owner_id") {
		return
	}

	if err := s.service.CreateEntity(r.Context(), &entity); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteCreated(w, entity)
}

// listEntities handles GET /api/v1/domains/{domainId}/entities
func (s *Server) listEntities(w http.ResponseWriter, r *http.Request) {
	r = domainContext(r)
	vars := httputil.GetPathVars(r)
	offset, limit, ok := paginationParams(w, r)
	if !ok {
		return
	}
	entityTypeID := httputil.ParseQueryString(r, "entity_type_id", "")

	entities, err := s.service.GetEntities(r.Context(), vars["domainId"], entityTypeID, offset, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteSuccess(w, entities)
}

// getEntity handles GET /api/v1/domains/{domainId}/entities/{entityId}
func (s *Server) getEntity(w http.ResponseWriter, r *http.Request) {
	r = domainContext(r)
	vars := httputil.GetPathVars(r)

	entity, err := s.service.GetEntity(r.Context(), vars["domainId"], vars["entityId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteSuccess(w, entity)
}

// updateEntity handles PUT /api/v1/domains/{domainId}/entities/{entityId}
func (s *Server) updateEntity(w http.ResponseWriter, r *http.Request) {
	r = domainContext(r)
	vars := httputil.GetPathVars(r)

	var entity sharing.Entity
	if !httputil.ParseJSONOrError(w, r, &entity) {
		return
	}
	entity.DomainID = vars["domainId"]
	entity.EntityID = vars["entityId"]

	if err := s.service.UpdateEntity(r.Context(), &entity); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteSuccess(w, entity)
}

// deleteEntity handles DELETE /api/v1/domains/{domainId}/entities/{entityId}
func (s *Server) deleteEntity(w http.ResponseWriter, r *http.Request) {
	r = domainContext(r)
	vars := httputil.GetPathVars(r)

	if err := s.service.DeleteEntity(r.Context(), vars["domainId"], vars["entityId"]); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

// entityExists handles GET /api/v1/domains/{domainId}/entities/{entityId}/exists
func (s *Server) entityExists(w http.ResponseWriter, r *http.Request) {
	r = domainContext(r)
	vars := httputil.GetPathVars(r)

	exists, err := s.service.IsEntityExists(r.Context(), vars["domainId"], vars["entityId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteSuccess(w, ExistsResponse{Exists: exists})
}

// searchEntities handles POST /api/v1/domains/{domainId}/entities/search
func (s *Server) searchEntities(w http.ResponseWriter, r *http.Request) {
	r = domainContext(r)
	vars := httputil.GetPathVars(r)

	req := SearchRequest{Limit: -1}
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.UserID, "user_id") {
		return
	}

	entities, err := s.service.SearchEntities(r.Context(), vars["domainId"], req.UserID, req.Filters, req.Offset, req.Limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteSuccess(w, entities)
}
