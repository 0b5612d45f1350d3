// Package api provides the HTTP REST API server for the Warden sharing
// registry.
//
// # Overview
//
// This package exposes the sharing service as RESTful endpoints. Every
// resource lives under a tenant domain: users, groups, entity types,
// permission types, entities, and the grants connecting them.
//
// # Architecture
//
// The API is built on gorilla/mux and organized into handler groups:
//
//   - Domain Management: Create, list, and retrieve tenant domains
//   - User Management: Replicated user records and their groups
//   - Group Management: Nested groups, membership, admins, ownership
//   - Vocabulary: Entity types and permission types per domain
//   - Entity Management: The shared-resource forest, including search
//   - Sharing: Grant and revoke permissions, access checks, listings
//
// # Key Types
//
// Server is the main API server:
//
//	server := api.NewServer(service, logger)
//	http.ListenAndServe(":8080", server)
//
// # API Endpoints
//
// Domains:
//
//	POST   /api/v1/domains                        - Create domain
//	GET    /api/v1/domains                        - List domains
//	GET    /api/v1/domains/{domainId}             - Get domain
//	PUT    /api/v1/domains/{domainId}             - Update domain
//	DELETE /api/v1/domains/{domainId}             - Delete domain
//
// Users and groups (all under /api/v1/domains/{domainId}):
//
//	POST   /users                                 - Create user
//	GET    /users/{userId}/groups                 - Groups a user belongs to
//	POST   /groups                                - Create group
//	POST   /groups/{groupId}/members/users        - Add members
//	DELETE /groups/{groupId}/members/users        - Remove members
//	POST   /groups/{groupId}/members/groups       - Nest child groups
//	POST   /groups/{groupId}/admins               - Add admins
//	POST   /groups/{groupId}/transfer-ownership   - Transfer ownership
//
// Entities and sharing (all under /api/v1/domains/{domainId}):
//
//	POST   /entities                              - Create entity
//	POST   /entities/search                       - Search visible entities
//	POST   /entities/{entityId}/share/users       - Share with users
//	POST   /entities/{entityId}/share/groups      - Share with groups
//	POST   /entities/{entityId}/revoke/users      - Revoke from users
//	POST   /entities/{entityId}/revoke/groups     - Revoke from groups
//	GET    /entities/{entityId}/shared-users      - Users holding a permission
//	GET    /entities/{entityId}/shared-groups     - Groups holding a permission
//	GET    /entities/{entityId}/access/{userId}/{permissionTypeId} - Access check
//
// # Error Mapping
//
// Service errors map onto HTTP statuses: missing records return 404,
// duplicate creations return 409, and structural violations such as
// membership cycles or grants of the owner permission return 400.
//
// # Related Packages
//
//   - pkg/sharing: The sharing service, store, and permission engine
//   - pkg/events: Replication consumer feeding the catalog
//   - pkg/httputil: Request parsing and response helpers
package api
