package api

import (
	"net/http"

	"github.com/platinummonkey/warden/pkg/httputil"
	"github.com/platinummonkey/warden/pkg/sharing"
)

// createEntityType handles POST /api/v1/domains/{domainId}/entity-types
func (s *Server) createEntityType(w http.ResponseWriter, r *http.Request) {
	r = domainContext(r)
	vars := httputil.GetPathVars(r)

	var et sharing.EntityType
	if !httputil.ParseJSONOrError(w, r, &et) {
		return
	}
	et.DomainID = vars["domainId"]
	if !httputil.RequireNonEmpty(w, et.EntityTypeID, "entity_type_id") {
		return
	}

	if err := s.service.CreateEntityType(r.Context(), &et); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteCreated(w, et)
}

// listEntityTypes handles GET /api/v1/domains/{domainId}/entity-types
func (s *Server) listEntityTypes(w http.ResponseWriter, r *http.Request) {
	r = domainContext(r)
	vars := httputil.GetPathVars(r)
	offset, limit, ok := paginationParams(w, r)
	if !ok {
		return
	}

	types, err := s.service.GetEntityTypes(r.Context(), vars["domainId"], offset, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteSuccess(w, types)
}

// getEntityType handles GET /api/v1/domains/{domainId}/entity-types/{entityTypeId}
func (s *Server) getEntityType(w http.ResponseWriter, r *http.Request) {
	r = domainContext(r)
	vars := httputil.GetPathVars(r)

	et, err := s.service.GetEntityType(r.Context(), vars["domainId"], vars["entityTypeId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteSuccess(w, et)
}

// entityTypeExists handles GET /api/v1/domains/{domainId}/entity-types/{entityTypeId}/exists
func (s *Server) entityTypeExists(w http.ResponseWriter, r *http.Request) {
	r = domainContext(r)
	vars := httputil.GetPathVars(r)

	exists, err := s.service.IsEntityTypeExists(r.Context(), vars["domainId"], vars["entityTypeId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteSuccess(w, ExistsResponse{Exists: exists})
}

// updateEntityType handles PUT /api/v1/domains/{domainId}/entity-types/{entityTypeId}
func (s *Server) updateEntityType(w http.ResponseWriter, r *http.Request) {
	r = domainContext(r)
	vars := httputil.GetPathVars(r)

	var et sharing.EntityType
	if !httputil.ParseJSONOrError(w, r, &et) {
		return
	}
	et.DomainID = vars["domainId"]
	et.EntityTypeID = vars["entityTypeId"]

	if err := s.service.UpdateEntityType(r.Context(), &et); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteSuccess(w, et)
}

// deleteEntityType handles DELETE /api/v1/domains/{domainId}/entity-types/{entityTypeId}
func (s *Server) deleteEntityType(w http.ResponseWriter, r *http.Request) {
	r = domainContext(r)
	vars := httputil.GetPathVars(r)

	if err := s.service.DeleteEntityType(r.Context(), vars["domainId"], vars["entityTypeId"]); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

// createPermissionType handles POST /api/v1/domains/{domainId}/permission-types
func (s *Server) createPermissionType(w http.ResponseWriter, r *http.Request) {
	r = domainContext(r)
	vars := httputil.GetPathVars(r)

	var pt sharing.PermissionType
	if !httputil.ParseJSONOrError(w, r, &pt) {
		return
	}
	pt.DomainID = vars["domainId"]
	if !httputil.RequireNonEmpty(w, pt.PermissionTypeID, "permission_type_id") {
		return
	}

	if err := s.service.CreatePermissionType(r.Context(), &pt); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteCreated(w, pt)
}

// listPermissionTypes handles GET /api/v1/domains/{domainId}/permission-types
func (s *Server) listPermissionTypes(w http.ResponseWriter, r *http.Request) {
	r = domainContext(r)
	vars := httputil.GetPathVars(r)
	offset, limit, ok := paginationParams(w, r)
	if !ok {
		return
	}

	types, err := s.service.GetPermissionTypes(r.Context(), vars["domainId"], offset, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteSuccess(w, types)
}

// getPermissionType handles GET /api/v1/domains/{domainId}/permission-types/{permissionTypeId}
func (s *Server) getPermissionType(w http.ResponseWriter, r *http.Request) {
	r = domainContext(r)
	vars := httputil.GetPathVars(r)

	pt, err := s.service.GetPermissionType(r.Context(), vars["domainId"], vars["permissionTypeId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteSuccess(w, pt)
}

// permissionTypeExists handles GET /api/v1/domains/{domainId}/permission-types/{permissionTypeId}/exists
func (s *Server) permissionTypeExists(w http.ResponseWriter, r *http.Request) {
	r = domainContext(r)
	vars := httputil.GetPathVars(r)

	exists, err := s.service.IsPermissionExists(r.Context(), vars["domainId"], vars["permissionTypeId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteSuccess(w, ExistsResponse{Exists: exists})
}

// updatePermissionType handles PUT /api/v1/domains/{domainId}/permission-types/{permissionTypeId}
func (s *Server) updatePermissionType(w http.ResponseWriter, r *http.Request) {
	r = domainContext(r)
	vars := httputil.GetPathVars(r)

	var pt sharing.PermissionType
	if !httputil.ParseJSONOrError(w, r, &pt) {
		return
	}
	pt.DomainID = vars["domainId"]
	pt.PermissionTypeID = vars["permissionTypeId"]

	if err := s.service.UpdatePermissionType(r.Context(), &pt); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteSuccess(w, pt)
}

// deletePermissionType handles DELETE /api/v1/domains/{domainId}/permission-types/{permissionTypeId}
func (s *Server) deletePermissionType(w http.ResponseWriter, r *http.Request) {
	r = domainContext(r)
	vars := httputil.GetPathVars(r)

	if err := s.service.DeletePermissionType(r.Context(), vars["domainId"], vars["permissionTypeId"]); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}
