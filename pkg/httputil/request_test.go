package httputil

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
)

func TestParseJSON(t *testing.T) {
	body := bytes.NewBufferString(`{"name": "staff", "owner_id": "alice"}`)
	r := httptest.NewRequest(http.MethodPost, "/groups", body)

	var dest struct {
		Name    string `json:"name"`
		OwnerID string `json:"owner_id"`
	}
	err := ParseJSON(r, &dest)

	assert.NoError(t, err)
	assert.Equal(t, "staff", dest.Name)
	assert.Equal(t, "alice", dest.OwnerID)
}

func TestParseJSONInvalid(t *testing.T) {
	body := bytes.NewBufferString(`{not json`)
	r := httptest.NewRequest(http.MethodPost, "/groups", body)

	var dest map[string]string
	err := ParseJSON(r, &dest)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON")
}

func TestParseJSONOrError(t *testing.T) {
	body := bytes.NewBufferString(`{broken`)
	r := httptest.NewRequest(http.MethodPost, "/groups", body)
	w := httptest.NewRecorder()

	var dest map[string]string
	ok := ParseJSONOrError(w, r, &dest)

	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetPathVars(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/domains/tenant-a/entities/test-project-1", nil)
	r = mux.SetURLVars(r, map[string]string{"domainId": "tenant-a", "entityId": "test-project-1"})

	vars := GetPathVars(r)

	assert.Equal(t, "tenant-a", vars["domainId"])
	assert.Equal(t, "test-project-1", vars["entityId"])
}

func TestParseQueryInt(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/entities?limit=25", nil)

	val, err := ParseQueryInt(r, "limit", -1)

	assert.NoError(t, err)
	assert.Equal(t, 25, val)
}

func TestParseQueryIntDefault(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/entities", nil)

	val, err := ParseQueryInt(r, "limit", -1)

	assert.NoError(t, err)
	assert.Equal(t, -1, val)
}

func TestParseQueryIntInvalid(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/entities?limit=lots", nil)

	_, err := ParseQueryInt(r, "limit", -1)

	assert.Error(t, err)
}

func TestParseQueryString(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/grants?permission=tenant-a:READ", nil)

	assert.Equal(t, "tenant-a:READ", ParseQueryString(r, "permission", ""))
	assert.Equal(t, "fallback", ParseQueryString(r, "missing", "fallback"))
}

func TestParseQueryBool(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/grants?direct=true", nil)

	val, err := ParseQueryBool(r, "direct", false)

	assert.NoError(t, err)
	assert.True(t, val)

	val, err = ParseQueryBool(r, "missing", false)
	assert.NoError(t, err)
	assert.False(t, val)
}

func TestRequireNonEmpty(t *testing.T) {
	w := httptest.NewRecorder()
	assert.True(t, RequireNonEmpty(w, "tenant-a", "domain_id"))

	w = httptest.NewRecorder()
	assert.False(t, RequireNonEmpty(w, "", "domain_id"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "domain_id is required")
}
