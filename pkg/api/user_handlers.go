package api

import (
	"net/http"

	"github.com/platinummonkey/warden/pkg/httputil"
	"github.com/platinummonkey/warden/pkg/sharing"
)

// createUser handles POST /api/v1/domains/{domainId}/users
func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	r = domainContext(r)
	vars := httputil.GetPathVars(r)

	var user sharing.User
	if !httputil.ParseJSONOrError(w, r, &user) {
		return
	}
	user.DomainID = vars["domainId"]
	if !httputil.RequireNonEmpty(w, user.UserID, "user_id") ||
		!httputil.RequireNonEmpty(w, user.UserName, "user_name") {
		return
	}

	if err := s.service.CreateUser(r.Context(), &user); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteCreated(w, user)
}

// listUsers handles GET /api/v1/domains/{domainId}/users
func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	r = domainContext(r)
	vars := httputil.GetPathVars(r)
	offset, limit, ok := paginationParams(w, r)
	if !ok {
		return
	}

	users, err := s.service.GetUsers(r.Context(), vars["domainId"], offset, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteSuccess(w, users)
}

// getUser handles GET /api/v1/domains/{domainId}/users/{userId}
func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	r = domainContext(r)
	vars := httputil.GetPathVars(r)

	user, err := s.service.GetUser(r.Context(), vars["domainId"], vars["userId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteSuccess(w, user)
}

// updateUser handles PUT /api/v1/domains/{domainId}/users/{userId}
func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	r = domainContext(r)
	vars := httputil.GetPathVars(r)

	var user sharing.User
	if !httputil.ParseJSONOrError(w, r, &user) {
		return
	}
	user.DomainID = vars["domainId"]
	user.UserID = vars["userId"]

	if err := s.service.UpdateUser(r.Context(), &user); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteSuccess(w, user)
}

// deleteUser handles DELETE /api/v1/domains/{domainId}/users/{userId}
func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	r = domainContext(r)
	vars := httputil.GetPathVars(r)

	if err := s.service.DeleteUser(r.Context(), vars["domainId"], vars["userId"]); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

// userExists handles GET /api/v1/domains/{domainId}/users/{userId}/exists
func (s *Server) userExists(w http.ResponseWriter, r *http.Request) {
	r = domainContext(r)
	vars := httputil.GetPathVars(r)

	exists, err := s.service.IsUserExists(r.Context(), vars["domainId"], vars["userId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteSuccess(w, ExistsResponse{Exists: exists})
}

// listUserGroupsForUser handles GET /api/v1/domains/{domainId}/users/{userId}/groups
func (s *Server) listUserGroupsForUser(w http.ResponseWriter, r *http.Request) {
	r = domainContext(r)
	vars := httputil.GetPathVars(r)

	groups, err := s.service.GetAllMemberGroupsForUser(r.Context(), vars["domainId"], vars["userId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteSuccess(w, groups)
}
