package api

import (
	"net/http"

	"github.com/platinummonkey/warden/pkg/httputil"
)

// shareWithUsers handles POST /api/v1/domains/{domainId}/entities/{entityId}/share/users
func (s *Server) shareWithUsers(w http.ResponseWriter, r *http.Request) {
	r = domainContext(r)
	vars := httputil.GetPathVars(r)

	var req ShareUsersRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if len(req.UserIDs) == 0 {
		httputil.WriteBadRequest(w, "user_ids is required")
		return
	}
	if !httputil.RequireNonEmpty(w, req.PermissionTypeID, "permission_type_id") {
		return
	}

	err := s.service.ShareEntityWithUsers(r.Context(), vars["domainId"], vars["entityId"], req.UserIDs, req.PermissionTypeID, req.Cascade)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

// shareWithGroups handles POST /api/v1/domains/{domainId}/entities/{entityId}/share/groups
func (s *Server) shareWithGroups(w http.ResponseWriter, r *http.Request) {
	r = domainContext(r)
	vars := httputil.GetPathVars(r)

	var req ShareGroupsRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if len(req.GroupIDs) == 0 {
		httputil.WriteBadRequest(w, "group_ids is required")
		return
	}
	if !httputil.RequireNonEmpty(w, req.PermissionTypeID, "permission_type_id") {
		return
	}

	err := s.service.ShareEntityWithGroups(r.Context(), vars["domainId"], vars["entityId"], req.GroupIDs, req.PermissionTypeID, req.Cascade)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

// revokeFromUsers handles POST /api/v1/domains/{domainId}/entities/{entityId}/revoke/users
func (s *Server) revokeFromUsers(w http.ResponseWriter, r *http.Request) {
	r = domainContext(r)
	vars := httputil.GetPathVars(r)

	var req RevokeUsersRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if len(req.UserIDs) == 0 {
		httputil.WriteBadRequest(w, "user_ids is required")
		return
	}
	if !httputil.RequireNonEmpty(w, req.PermissionTypeID, "permission_type_id") {
		return
	}

	err := s.service.RevokeEntitySharingFromUsers(r.Context(), vars["domainId"], vars["entityId"], req.UserIDs, req.PermissionTypeID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

// revokeFromGroups handles POST /api/v1/domains/{domainId}/entities/{entityId}/revoke/groups
func (s *Server) revokeFromGroups(w http.ResponseWriter, r *http.Request) {
	r = domainContext(r)
	vars := httputil.GetPathVars(r)

	var req RevokeGroupsRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if len(req.GroupIDs) == 0 {
		httputil.WriteBadRequest(w, "group_ids is required")
		return
	}
	if !httputil.RequireNonEmpty(w, req.PermissionTypeID, "permission_type_id") {
		return
	}

	err := s.service.RevokeEntitySharingFromGroups(r.Context(), vars["domainId"], vars["entityId"], req.GroupIDs, req.PermissionTypeID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

// listSharedUsers handles GET /api/v1/domains/{domainId}/entities/{entityId}/shared-users
func (s *Server) listSharedUsers(w http.ResponseWriter, r *http.Request) {
	r = domainContext(r)
	vars := httputil.GetPathVars(r)

	permissionTypeID := httputil.ParseQueryString(r, "permission_type_id", "")
	if !httputil.RequireNonEmpty(w, permissionTypeID, "permission_type_id") {
		return
	}
	directOnly, err := httputil.ParseQueryBool(r, "direct", false)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	var users interface{}
	if directOnly {
		users, err = s.service.GetListOfDirectlySharedUsers(r.Context(), vars["domainId"], vars["entityId"], permissionTypeID)
	} else {
		users, err = s.service.GetListOfSharedUsers(r.Context(), vars["domainId"], vars["entityId"], permissionTypeID)
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteSuccess(w, users)
}

// listSharedGroups handles GET /api/v1/domains/{domainId}/entities/{entityId}/shared-groups
func (s *Server) listSharedGroups(w http.ResponseWriter, r *http.Request) {
	r = domainContext(r)
	vars := httputil.GetPathVars(r)

	permissionTypeID := httputil.ParseQueryString(r, "permission_type_id", "")
	if !httputil.RequireNonEmpty(w, permissionTypeID, "permission_type_id") {
		return
	}
	directOnly, err := httputil.ParseQueryBool(r, "direct", false)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	var groups interface{}
	if directOnly {
		groups, err = s.service.GetListOfDirectlySharedGroups(r.Context(), vars["domainId"], vars["entityId"], permissionTypeID)
	} else {
		groups, err = s.service.GetListOfSharedGroups(r.Context(), vars["domainId"], vars["entityId"], permissionTypeID)
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteSuccess(w, groups)
}

// userHasAccess handles GET /api/v1/domains/{domainId}/entities/{entityId}/access/{userId}/{permissionTypeId}
func (s *Server) userHasAccess(w http.ResponseWriter, r *http.Request) {
	r = domainContext(r)
	vars := httputil.GetPathVars(r)

	has, err := s.service.UserHasAccess(r.Context(), vars["domainId"], vars["userId"], vars["entityId"], vars["permissionTypeId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteSuccess(w, AccessResponse{HasAccess: has})
}
