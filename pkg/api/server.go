package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/warden/pkg/httputil"
	"github.com/platinummonkey/warden/pkg/observability"
	"github.com/platinummonkey/warden/pkg/sharing"
)

// Server exposes the sharing registry over HTTP
type Server struct {
	service *sharing.Service
	router  *mux.Router
	logger  *observability.Logger
}

// NewServer creates an API server over the given service
func NewServer(service *sharing.Service, logger *observability.Logger) *Server {
	s := &Server{
		service: service,
		router:  mux.NewRouter(),
		logger:  logger,
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes() {
	r := s.router.PathPrefix("/api/v1").Subrouter()

	// Domain routes
	r.HandleFunc("/domains", s.createDomain).Methods("POST")
	r.HandleFunc("/domains", s.listDomains).Methods("GET")
	r.HandleFunc("/domains/{domainId}", s.getDomain).Methods("GET")
	r.HandleFunc("/domains/{domainId}", s.updateDomain).Methods("PUT")
	r.HandleFunc("/domains/{domainId}", s.deleteDomain).Methods("DELETE")
	r.HandleFunc("/domains/{domainId}/exists", s.domainExists).Methods("GET")

	d := r.PathPrefix("/domains/{domainId}").Subrouter()

	// User routes
	d.HandleFunc("/users", s.createUser).Methods("POST")
	d.HandleFunc("/users", s.listUsers).Methods("GET")
	d.HandleFunc("/users/{userId}", s.getUser).Methods("GET")
	d.HandleFunc("/users/{userId}", s.updateUser).Methods("PUT")
	d.HandleFunc("/users/{userId}", s.deleteUser).Methods("DELETE")
	d.HandleFunc("/users/{userId}/exists", s.userExists).Methods("GET")
	d.HandleFunc("/users/{userId}/groups", s.listUserGroupsForUser).Methods("GET")

	// Group routes
	d.HandleFunc("/groups", s.createGroup).Methods("POST")
	d.HandleFunc("/groups", s.listGroups).Methods("GET")
	d.HandleFunc("/groups/{groupId}", s.getGroup).Methods("GET")
	d.HandleFunc("/groups/{groupId}", s.updateGroup).Methods("PUT")
	d.HandleFunc("/groups/{groupId}", s.deleteGroup).Methods("DELETE")
	d.HandleFunc("/groups/{groupId}/exists", s.groupExists).Methods("GET")

	// Group membership routes
	d.HandleFunc("/groups/{groupId}/members/users", s.addUsersToGroup).Methods("POST")
	d.HandleFunc("/groups/{groupId}/members/users", s.removeUsersFromGroup).Methods("DELETE")
	d.HandleFunc("/groups/{groupId}/members/users", s.listGroupMemberUsers).Methods("GET")
	d.HandleFunc("/groups/{groupId}/members/groups", s.addChildGroups).Methods("POST")
	d.HandleFunc("/groups/{groupId}/members/groups", s.listGroupMemberGroups).Methods("GET")
	d.HandleFunc("/groups/{groupId}/members/groups/{childGroupId}", s.removeChildGroup).Methods("DELETE")

	// Group admin and ownership routes
	d.HandleFunc("/groups/{groupId}/admins", s.addGroupAdmins).Methods("POST")
	d.HandleFunc("/groups/{groupId}/admins", s.removeGroupAdmins).Methods("DELETE")
	d.HandleFunc("/groups/{groupId}/admins/{userId}/access", s.hasAdminAccess).Methods("GET")
	d.HandleFunc("/groups/{groupId}/owner/{userId}/access", s.hasOwnerAccess).Methods("GET")
	d.HandleFunc("/groups/{groupId}/transfer-ownership", s.transferGroupOwnership).Methods("POST")

	// Entity type routes
	d.HandleFunc("/entity-types", s.createEntityType).Methods("POST")
	d.HandleFunc("/entity-types", s.listEntityTypes).Methods("GET")
	d.HandleFunc("/entity-types/{entityTypeId}", s.getEntityType).Methods("GET")
	d.HandleFunc("/entity-types/{entityTypeId}", s.updateEntityType).Methods("PUT")
	d.HandleFunc("/entity-types/{entityTypeId}", s.deleteEntityType).Methods("DELETE")
	d.HandleFunc("/entity-types/{entityTypeId}/exists", s.entityTypeExists).Methods("GET")

	// Permission type routes
	d.HandleFunc("/permission-types", s.createPermissionType).Methods("POST")
	d.HandleFunc("/permission-types", s.listPermissionTypes).Methods("GET")
	d.HandleFunc("/permission-types/{permissionTypeId}", s.getPermissionType).Methods("GET")
	d.HandleFunc("/permission-types/{permissionTypeId}", s.updatePermissionType).Methods("PUT")
	d.HandleFunc("/permission-types/{permissionTypeId}", s.deletePermissionType).Methods("DELETE")
	d.HandleFunc("/permission-types/{permissionTypeId}/exists", s.permissionTypeExists).Methods("GET")

	// Entity routes
	d.HandleFunc("/entities", s.createEntity).Methods("POST")
	d.HandleFunc("/entities", s.listEntities).Methods("GET")
	d.HandleFunc("/entities/search", s.searchEntities).Methods("POST")
	d.HandleFunc("/entities/{entityId}", s.getEntity).Methods("GET")
	d.HandleFunc("/entities/{entityId}", s.updateEntity).Methods("PUT")
	d.HandleFunc("/entities/{entityId}", s.deleteEntity).Methods("DELETE")
	d.HandleFunc("/entities/{entityId}/exists", s.entityExists).Methods("GET")

	// Sharing routes
	d.HandleFunc("/entities/{entityId}/share/users", s.shareWithUsers).Methods("POST")
	d.HandleFunc("/entities/{entityId}/share/groups", s.shareWithGroups).Methods("POST")
	d.HandleFunc("/entities/{entityId}/revoke/users", s.revokeFromUsers).Methods("POST")
	d.HandleFunc("/entities/{entityId}/revoke/groups", s.revokeFromGroups).Methods("POST")
	d.HandleFunc("/entities/{entityId}/shared-users", s.listSharedUsers).Methods("GET")
	d.HandleFunc("/entities/{entityId}/shared-groups", s.listSharedGroups).Methods("GET")
	d.HandleFunc("/entities/{entityId}/access/{userId}/{permissionTypeId}", s.userHasAccess).Methods("GET")
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// writeServiceError maps service error kinds onto HTTP statuses
func writeServiceError(w http.ResponseWriter, err error) {
	var (
		cycle     *sharing.CycleError
		notMember *sharing.NotAMemberError
		badGrant  *sharing.InvalidGrantError
	)
	switch {
	case sharing.IsNotFound(err):
		httputil.WriteNotFoundError(w, err.Error())
	case sharing.IsDuplicateEntry(err):
		httputil.WriteConflict(w, err.Error())
	case errors.As(err, &cycle), errors.As(err, &notMember), errors.As(err, &badGrant):
		httputil.WriteBadRequest(w, err.Error())
	default:
		httputil.WriteInternalError(w, err)
	}
}

// domainContext stamps the tenant onto the request context for logging
func domainContext(r *http.Request) *http.Request {
	vars := httputil.GetPathVars(r)
	if domainID := vars["domainId"]; domainID != "" {
		return r.WithContext(observability.WithDomainID(r.Context(), domainID))
	}
	return r
}

// paginationParams reads offset/limit query parameters, with limit=-1
// meaning unbounded
func paginationParams(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	offset, ok := httputil.ParseQueryIntOrError(w, r, "offset", 0)
	if !ok {
		return 0, 0, false
	}
	limit, ok := httputil.ParseQueryIntOrError(w, r, "limit", -1)
	if !ok {
		return 0, 0, false
	}
	return offset, limit, true
}
