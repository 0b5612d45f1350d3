package api

import (
	"net/http"

	"github.com/platinummonkey/warden/pkg/httputil"
	"github.com/platinummonkey/warden/pkg/sharing"
)

// createDomain handles POST /api/v1/domains
func (s *Server) createDomain(w http.ResponseWriter, r *http.Request) {
	var domain sharing.Domain
	if !httputil.ParseJSONOrError(w, r, &domain) {
		return
	}
	if !httputil.RequireNonEmpty(w, domain.DomainID, "domain_id") ||
		!httputil.RequireNonEmpty(w, domain.Name, "name") {
		return
	}

	if err := s.service.CreateDomain(r.Context(), &domain); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteCreated(w, domain)
}

// listDomains handles GET /api/v1/domains
func (s *Server) listDomains(w http.ResponseWriter, r *http.Request) {
	offset, limit, ok := paginationParams(w, r)
	if !ok {
		return
	}

	domains, err := s.service.GetDomains(r.Context(), offset, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteSuccess(w, domains)
}

// getDomain handles GET /api/v1/domains/{domainId}
func (s *Server) getDomain(w http.ResponseWriter, r *http.Request) {
	r = domainContext(r)
	vars := httputil.GetPathVars(r)

	domain, err := s.service.GetDomain(r.Context(), vars["domainId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteSuccess(w, domain)
}

// updateDomain handles PUT /api/v1/domains/{domainId}
func (s *Server) updateDomain(w http.ResponseWriter, r *http.Request) {
	r = domainContext(r)
	vars := httputil.GetPathVars(r)

	var domain sharing.Domain
	if !httputil.ParseJSONOrError(w, r, &domain) {
		return
	}
	domain.DomainID = vars["domainId"]

	if err := s.service.UpdateDomain(r.Context(), &domain); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteSuccess(w, domain)
}

// deleteDomain handles DELETE /api/v1/domains/{domainId}
func (s *Server) deleteDomain(w http.ResponseWriter, r *http.Request) {
	r = domainContext(r)
	vars := httputil.GetPathVars(r)

	if err := s.service.DeleteDomain(r.Context(), vars["domainId"]); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

// domainExists handles GET /api/v1/domains/{domainId}/exists
func (s *Server) domainExists(w http.ResponseWriter, r *http.Request) {
	vars := httputil.GetPathVars(r)

	exists, err := s.service.IsDomainExists(r.Context(), vars["domainId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteSuccess(w, ExistsResponse{Exists: exists})
}
