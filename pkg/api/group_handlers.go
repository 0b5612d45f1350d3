package api

import (
	"net/http"

	"github.com/platinummonkey/warden/pkg/httputil"
	"github.com/platinummonkey/warden/pkg/sharing"
)

// createGroup handles POST /api/v1/domains/{domainId}/groups
func (s *Server) createGroup(w http.ResponseWriter, r *http.Request) {
	r = domainContext(r)
	vars := httputil.GetPathVars(r)

	var group sharing.UserGroup
	if !httputil.ParseJSONOrError(w, r, &group) {
		return
	}
	group.DomainID = vars["domainId"]
	if !httputil.RequireNonEmpty(w, group.GroupID, "group_id") ||
		!httputil.RequireNonEmpty(w, group.Name, "name") ||
		!httputil.RequireNonEmpty(w, group.OwnerID, "owner_id") {
		return
	}

	if err := s.service.CreateGroup(r.Context(), &group); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteCreated(w, group)
}

// listGroups handles GET /api/v1/domains/{domainId}/groups
func (s *Server) listGroups(w http.ResponseWriter, r *http.Request) {
	r = domainContext(r)
	vars := httputil.GetPathVars(r)
	offset, limit, ok := paginationParams(w, r)
	if !ok {
		return
	}

	groups, err := s.service.GetGroups(r.Context(), vars["domainId"], offset, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteSuccess(w, groups)
}

// getGroup handles GET /api/v1/domains/{domainId}/groups/{groupId}
func (s *Server) getGroup(w http.ResponseWriter, r *http.Request) {
	r = domainContext(r)
	vars := httputil.GetPathVars(r)

	group, err := s.service.GetGroup(r.Context(), vars["domainId"], vars["groupId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteSuccess(w, group)
}

// updateGroup handles PUT /api/v1/domains/{domainId}/groups/{groupId}
func (s *Server) updateGroup(w http.ResponseWriter, r *http.Request) {
	r = domainContext(r)
	vars := httputil.GetPathVars(r)

	var group sharing.UserGroup
	if !httputil.ParseJSONOrError(w, r, &group) {
		return
	}
	group.DomainID = vars["domainId"]
	group.GroupID = vars["groupId"]

	if err := s.service.UpdateGroup(r.Context(), &group); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteSuccess(w, group)
}

// deleteGroup handles DELETE /api/v1/domains/{domainId}/groups/{groupId}
func (s *Server) deleteGroup(w http.ResponseWriter, r *http.Request) {
	r = domainContext(r)
	vars := httputil.GetPathVars(r)

	if err := s.service.DeleteGroup(r.Context(), vars["domainId"], vars["groupId"]); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

// groupExists handles GET /api/v1/domains/{domainId}/groups/{groupId}/exists
func (s *Server) groupExists(w http.ResponseWriter, r *http.Request) {
	r = domainContext(r)
	vars := httputil.GetPathVars(r)

	exists, err := s.service.IsGroupExists(r.Context(), vars["domainId"], vars["groupId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteSuccess(w, ExistsResponse{Exists: exists})
}

// addUsersToGroup handles POST /api/v1/domains/{domainId}/groups/{groupId}/members/users
func (s *Server) addUsersToGroup(w http.ResponseWriter, r *http.Request) {
	r = domainContext(r)
	vars := httputil.GetPathVars(r)

	var req MembersRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if len(req.UserIDs) == 0 {
		httputil.WriteBadRequest(w, "user_ids is required")
		return
	}

	if err := s.service.AddUsersToGroup(r.Context(), vars["domainId"], vars["groupId"], req.UserIDs); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

// removeUsersFromGroup handles DELETE /api/v1/domains/{domainId}/groups/{groupId}/members/users
func (s *Server) removeUsersFromGroup(w http.ResponseWriter, r *http.Request) {
	r = domainContext(r)
	vars := httputil.GetPathVars(r)

	var req MembersRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	if err := s.service.RemoveUsersFromGroup(r.Context(), vars["domainId"], vars["groupId"], req.UserIDs); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

// listGroupMemberUsers handles GET /api/v1/domains/{domainId}/groups/{groupId}/members/users
func (s *Server) listGroupMemberUsers(w http.ResponseWriter, r *http.Request) {
	r = domainContext(r)
	vars := httputil.GetPathVars(r)

	users, err := s.service.GetGroupMembersOfTypeUser(r.Context(), vars["domainId"], vars["groupId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteSuccess(w, users)
}

// addChildGroups handles POST /api/v1/domains/{domainId}/groups/{groupId}/members/groups
func (s *Server) addChildGroups(w http.ResponseWriter, r *http.Request) {
	r = domainContext(r)
	vars := httputil.GetPathVars(r)

	var req ChildGroupsRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if len(req.ChildGroupIDs) == 0 {
		httputil.WriteBadRequest(w, "child_group_ids is required")
		return
	}

	if err := s.service.AddChildGroupsToParentGroup(r.Context(), vars["domainId"], vars["groupId"], req.ChildGroupIDs); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

// listGroupMemberGroups handles GET /api/v1/domains/{domainId}/groups/{groupId}/members/groups
func (s *Server) listGroupMemberGroups(w http.ResponseWriter, r *http.Request) {
	r = domainContext(r)
	vars := httputil.GetPathVars(r)

	groups, err := s.service.GetGroupMembersOfTypeGroup(r.Context(), vars["domainId"], vars["groupId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteSuccess(w, groups)
}

// removeChildGroup handles DELETE /api/v1/domains/{domainId}/groups/{groupId}/members/groups/{childGroupId}
func (s *Server) removeChildGroup(w http.ResponseWriter, r *http.Request) {
	r = domainContext(r)
	vars := httputil.GetPathVars(r)

	if err := s.service.RemoveChildGroup(r.Context(), vars["domainId"], vars["groupId"], vars["childGroupId"]); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

// addGroupAdmins handles POST /api/v1/domains/{domainId}/groups/{groupId}/admins
func (s *Server) addGroupAdmins(w http.ResponseWriter, r *http.Request) {
	r = domainContext(r)
	vars := httputil.GetPathVars(r)

	var req AdminsRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if len(req.AdminIDs) == 0 {
		httputil.WriteBadRequest(w, "admin_ids is required")
		return
	}

	if err := s.service.AddGroupAdmins(r.Context(), vars["domainId"], vars["groupId"], req.AdminIDs); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

// removeGroupAdmins handles DELETE /api/v1/domains/{domainId}/groups/{groupId}/admins
func (s *Server) removeGroupAdmins(w http.ResponseWriter, r *http.Request) {
	r = domainContext(r)
	vars := httputil.GetPathVars(r)

	var req AdminsRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	if err := s.service.RemoveGroupAdmins(r.Context(), vars["domainId"], vars["groupId"], req.AdminIDs); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

// hasAdminAccess handles GET /api/v1/domains/{domainId}/groups/{groupId}/admins/{userId}/access
func (s *Server) hasAdminAccess(w http.ResponseWriter, r *http.Request) {
	r = domainContext(r)
	vars := httputil.GetPathVars(r)

	has, err := s.service.HasAdminAccess(r.Context(), vars["domainId"], vars["groupId"], vars["userId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteSuccess(w, AccessResponse{HasAccess: has})
}

// hasOwnerAccess handles GET /api/v1/domains/{domainId}/groups/{groupId}/owner/{userId}/access
func (s *Server) hasOwnerAccess(w http.ResponseWriter, r *http.Request) {
	r = domainContext(r)
	vars := httputil.GetPathVars(r)

	has, err := s.service.HasOwnerAccess(r.Context(), vars["domainId"], vars["groupId"], vars["userId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteSuccess(w, AccessResponse{HasAccess: has})
}

// transferGroupOwnership handles POST /api/v1/domains/{domainId}/groups/{groupId}/transfer-ownership
func (s *Server) transferGroupOwnership(w http.ResponseWriter, r *http.Request) {
	r = domainContext(r)
	vars := httputil.GetPathVars(r)

	var req TransferOwnershipRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.NewOwnerID, "new_owner_id") {
		return
	}

	if err := s.service.TransferGroupOwnership(r.Context(), vars["domainId"], vars["groupId"], req.NewOwnerID); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}
