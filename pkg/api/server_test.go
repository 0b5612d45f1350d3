package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/platinummonkey/warden/pkg/observability"
	"github.com/platinummonkey/warden/pkg/sharing"
	"github.com/platinummonkey/warden/pkg/sharing/sharingtest"
)

func setupTestServer(t *testing.T) *Server {
	t.Helper()
	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	service := sharing.NewService(sharing.NewStore(sharingtest.OpenDB(t)), nil, logger)
	return NewServer(service, logger)
}

func doRequest(t *testing.T, server *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to encode request body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	return rec
}

func mustStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("Expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rec.Body.String(), err)
	}
}

// seedTenant provisions a domain with a user, a permission type and an
// entity type through the API.
func seedTenant(t *testing.T, server *Server, domainID string) {
	t.Helper()
	mustStatus(t, doRequest(t, server, "POST", "/api/v1/domains",
		map[string]string{"domain_id": domainID, "name": domainID}), http.StatusCreated)
	mustStatus(t, doRequest(t, server, "POST", "/api/v1/domains/"+domainID+"/users",
		map[string]string{"user_id": "test-user-1", "user_name": "test-user-1"}), http.StatusCreated)
	mustStatus(t, doRequest(t, server, "POST", "/api/v1/domains/"+domainID+"/entity-types",
		map[string]string{"entity_type_id": domainID + ":PROJECT", "name": "PROJECT"}), http.StatusCreated)
	mustStatus(t, doRequest(t, server, "POST", "/api/v1/domains/"+domainID+"/permission-types",
		map[string]string{"permission_type_id": domainID + ":READ", "name": "READ"}), http.StatusCreated)
}

func TestServer_DomainEndpoints(t *testing.T) {
	server := setupTestServer(t)

	t.Run("create", func(t *testing.T) {
		rec := doRequest(t, server, "POST", "/api/v1/domains",
			map[string]string{"domain_id": "tenant-a", "name": "Tenant A"})
		mustStatus(t, rec, http.StatusCreated)
	})

	t.Run("missing name is rejected", func(t *testing.T) {
		rec := doRequest(t, server, "POST", "/api/v1/domains", map[string]string{"domain_id": "tenant-b"})
		mustStatus(t, rec, http.StatusBadRequest)
	})

	t.Run("duplicate returns conflict", func(t *testing.T) {
		rec := doRequest(t, server, "POST", "/api/v1/domains",
			map[string]string{"domain_id": "tenant-a", "name": "again"})
		mustStatus(t, rec, http.StatusConflict)
	})

	t.Run("get", func(t *testing.T) {
		rec := doRequest(t, server, "GET", "/api/v1/domains/tenant-a", nil)
		mustStatus(t, rec, http.StatusOK)
		var domain sharing.Domain
		decodeBody(t, rec, &domain)
		if domain.Name != "Tenant A" {
			t.Errorf("Expected Tenant A, got %s", domain.Name)
		}
	})

	t.Run("get missing returns not found", func(t *testing.T) {
		mustStatus(t, doRequest(t, server, "GET", "/api/v1/domains/no-such", nil), http.StatusNotFound)
	})

	t.Run("exists", func(t *testing.T) {
		rec := doRequest(t, server, "GET", "/api/v1/domains/tenant-a/exists", nil)
		mustStatus(t, rec, http.StatusOK)
		var resp ExistsResponse
		decodeBody(t, rec, &resp)
		if !resp.Exists {
			t.Error("Expected domain to exist")
		}
	})

	t.Run("invalid pagination is rejected", func(t *testing.T) {
		mustStatus(t, doRequest(t, server, "GET", "/api/v1/domains?limit=lots", nil), http.StatusBadRequest)
	})

	t.Run("delete", func(t *testing.T) {
		mustStatus(t, doRequest(t, server, "DELETE", "/api/v1/domains/tenant-a", nil), http.StatusNoContent)
		mustStatus(t, doRequest(t, server, "DELETE", "/api/v1/domains/tenant-a", nil), http.StatusNotFound)
	})
}

func TestServer_GroupEndpoints(t *testing.T) {
	server := setupTestServer(t)
	seedTenant(t, server, "tenant-a")
	mustStatus(t, doRequest(t, server, "POST", "/api/v1/domains/tenant-a/users",
		map[string]string{"user_id": "test-user-2", "user_name": "test-user-2"}), http.StatusCreated)

	t.Run("create and membership", func(t *testing.T) {
		rec := doRequest(t, server, "POST", "/api/v1/domains/tenant-a/groups",
			map[string]string{"group_id": "research-lab", "name": "Research Lab", "owner_id": "test-user-1"})
		mustStatus(t, rec, http.StatusCreated)

		rec = doRequest(t, server, "POST", "/api/v1/domains/tenant-a/groups/research-lab/members/users",
			MembersRequest{UserIDs: []string{"test-user-2"}})
		mustStatus(t, rec, http.StatusNoContent)

		rec = doRequest(t, server, "GET", "/api/v1/domains/tenant-a/groups/research-lab/members/users", nil)
		mustStatus(t, rec, http.StatusOK)
		var members []sharing.User
		decodeBody(t, rec, &members)
		if len(members) != 2 {
			t.Errorf("Expected owner plus one member, got %d", len(members))
		}
	})

	t.Run("unknown member returns not found", func(t *testing.T) {
		rec := doRequest(t, server, "POST", "/api/v1/domains/tenant-a/groups/research-lab/members/users",
			MembersRequest{UserIDs: []string{"nobody"}})
		mustStatus(t, rec, http.StatusNotFound)
	})

	t.Run("admin of non-member is a bad request", func(t *testing.T) {
		mustStatus(t, doRequest(t, server, "POST", "/api/v1/domains/tenant-a/users",
			map[string]string{"user_id": "test-user-3", "user_name": "test-user-3"}), http.StatusCreated)
		rec := doRequest(t, server, "POST", "/api/v1/domains/tenant-a/groups/research-lab/admins",
			AdminsRequest{AdminIDs: []string{"test-user-3"}})
		mustStatus(t, rec, http.StatusBadRequest)
	})

	t.Run("admin access check", func(t *testing.T) {
		rec := doRequest(t, server, "POST", "/api/v1/domains/tenant-a/groups/research-lab/admins",
			AdminsRequest{AdminIDs: []string{"test-user-2"}})
		mustStatus(t, rec, http.StatusNoContent)

		rec = doRequest(t, server, "GET", "/api/v1/domains/tenant-a/groups/research-lab/admins/test-user-2/access", nil)
		mustStatus(t, rec, http.StatusOK)
		var resp AccessResponse
		decodeBody(t, rec, &resp)
		if !resp.HasAccess {
			t.Error("Expected admin access")
		}
	})

	t.Run("nesting cycle is a bad request", func(t *testing.T) {
		mustStatus(t, doRequest(t, server, "POST", "/api/v1/domains/tenant-a/groups",
			map[string]string{"group_id": "all-staff", "name": "All Staff", "owner_id": "test-user-1"}), http.StatusCreated)
		mustStatus(t, doRequest(t, server, "POST", "/api/v1/domains/tenant-a/groups/all-staff/members/groups",
			ChildGroupsRequest{ChildGroupIDs: []string{"research-lab"}}), http.StatusNoContent)

		rec := doRequest(t, server, "POST", "/api/v1/domains/tenant-a/groups/research-lab/members/groups",
			ChildGroupsRequest{ChildGroupIDs: []string{"all-staff"}})
		mustStatus(t, rec, http.StatusBadRequest)
	})

	t.Run("transfer ownership", func(t *testing.T) {
		rec := doRequest(t, server, "POST", "/api/v1/domains/tenant-a/groups/research-lab/transfer-ownership",
			TransferOwnershipRequest{NewOwnerID: "test-user-2"})
		mustStatus(t, rec, http.StatusNoContent)

		rec = doRequest(t, server, "GET", "/api/v1/domains/tenant-a/groups/research-lab/owner/test-user-2/access", nil)
		mustStatus(t, rec, http.StatusOK)
		var resp AccessResponse
		decodeBody(t, rec, &resp)
		if !resp.HasAccess {
			t.Error("Expected ownership to have moved")
		}
	})
}

func TestServer_SharingFlow(t *testing.T) {
	server := setupTestServer(t)
	seedTenant(t, server, "tenant-a")
	mustStatus(t, doRequest(t, server, "POST", "/api/v1/domains/tenant-a/users",
		map[string]string{"user_id": "test-user-2", "user_name": "test-user-2"}), http.StatusCreated)

	rec := doRequest(t, server, "POST", "/api/v1/domains/tenant-a/entities", map[string]string{
		"entity_id": "test-project-1", "entity_type_id": "tenant-a:PROJECT",
		"owner_id": "test-user-1", "name": "Project",
	})
	mustStatus(t, rec, http.StatusCreated)

	accessPath := func(userID string) string {
		return fmt.Sprintf("/api/v1/domains/tenant-a/entities/test-project-1/access/%s/tenant-a:READ", userID)
	}
	checkAccess := func(t *testing.T, userID string) bool {
		rec := doRequest(t, server, "GET", accessPath(userID), nil)
		mustStatus(t, rec, http.StatusOK)
		var resp AccessResponse
		decodeBody(t, rec, &resp)
		return resp.HasAccess
	}

	t.Run("owner has access", func(t *testing.T) {
		if !checkAccess(t, "test-user-1") {
			t.Error("Expected owner access")
		}
	})

	t.Run("share grants access", func(t *testing.T) {
		if checkAccess(t, "test-user-2") {
			t.Fatal("Expected no access before sharing")
		}
		rec := doRequest(t, server, "POST", "/api/v1/domains/tenant-a/entities/test-project-1/share/users",
			ShareUsersRequest{UserIDs: []string{"test-user-2"}, PermissionTypeID: "tenant-a:READ"})
		mustStatus(t, rec, http.StatusNoContent)
		if !checkAccess(t, "test-user-2") {
			t.Error("Expected access after sharing")
		}
	})

	t.Run("shared users listing", func(t *testing.T) {
		rec := doRequest(t, server, "GET",
			"/api/v1/domains/tenant-a/entities/test-project-1/shared-users?permission_type_id=tenant-a:READ", nil)
		mustStatus(t, rec, http.StatusOK)
		var users []sharing.User
		decodeBody(t, rec, &users)
		if len(users) != 1 || users[0].UserID != "test-user-2" {
			t.Errorf("Expected [test-user-2], got %v", users)
		}
	})

	t.Run("sharing the owner permission is a bad request", func(t *testing.T) {
		rec := doRequest(t, server, "POST", "/api/v1/domains/tenant-a/entities/test-project-1/share/users",
			ShareUsersRequest{UserIDs: []string{"test-user-2"}, PermissionTypeID: "tenant-a:OWNER"})
		mustStatus(t, rec, http.StatusBadRequest)
	})

	t.Run("search sees shared entities", func(t *testing.T) {
		rec := doRequest(t, server, "POST", "/api/v1/domains/tenant-a/entities/search", SearchRequest{
			UserID: "test-user-2",
			Filters: []sharing.SearchFilter{
				{Field: sharing.FieldPermissionTypeID, Condition: sharing.ConditionEqual, Value: "tenant-a:READ"},
			},
		})
		mustStatus(t, rec, http.StatusOK)
		var entities []sharing.Entity
		decodeBody(t, rec, &entities)
		if len(entities) != 1 || entities[0].EntityID != "test-project-1" {
			t.Errorf("Expected [test-project-1], got %v", entities)
		}
	})

	t.Run("revoke removes access", func(t *testing.T) {
		rec := doRequest(t, server, "POST", "/api/v1/domains/tenant-a/entities/test-project-1/revoke/users",
			RevokeUsersRequest{UserIDs: []string{"test-user-2"}, PermissionTypeID: "tenant-a:READ"})
		mustStatus(t, rec, http.StatusNoContent)
		if checkAccess(t, "test-user-2") {
			t.Error("Expected access revoked")
		}
	})

	t.Run("share on a missing entity is not found", func(t *testing.T) {
		rec := doRequest(t, server, "POST", "/api/v1/domains/tenant-a/entities/no-such/share/users",
			ShareUsersRequest{UserIDs: []string{"test-user-2"}, PermissionTypeID: "tenant-a:READ"})
		mustStatus(t, rec, http.StatusNotFound)
	})
}

func TestServer_SearchRouteIsNotAnEntityID(t *testing.T) {
	server := setupTestServer(t)
	seedTenant(t, server, "tenant-a")

	// POST to /entities/search must hit the search handler, not the
	// entity subtree, even with no entity named "search".
	rec := doRequest(t, server, "POST", "/api/v1/domains/tenant-a/entities/search",
		SearchRequest{UserID: "test-user-1"})
	mustStatus(t, rec, http.StatusOK)
}

func TestServer_VocabularyExistsEndpoints(t *testing.T) {
	server := setupTestServer(t)
	seedTenant(t, server, "tenant-a")

	t.Run("entity type", func(t *testing.T) {
		rec := doRequest(t, server, "GET", "/api/v1/domains/tenant-a/entity-types/tenant-a:PROJECT/exists", nil)
		mustStatus(t, rec, http.StatusOK)
		var resp ExistsResponse
		decodeBody(t, rec, &resp)
		if !resp.Exists {
			t.Error("Expected entity type to exist")
		}

		rec = doRequest(t, server, "GET", "/api/v1/domains/tenant-a/entity-types/tenant-a:NO-SUCH/exists", nil)
		mustStatus(t, rec, http.StatusOK)
		decodeBody(t, rec, &resp)
		if resp.Exists {
			t.Error("Expected entity type to be missing")
		}
	})

	t.Run("permission type", func(t *testing.T) {
		rec := doRequest(t, server, "GET", "/api/v1/domains/tenant-a/permission-types/tenant-a:READ/exists", nil)
		mustStatus(t, rec, http.StatusOK)
		var resp ExistsResponse
		decodeBody(t, rec, &resp)
		if !resp.Exists {
			t.Error("Expected permission type to exist")
		}
	})
}
