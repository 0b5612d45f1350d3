// Package httputil provides HTTP handler utilities for consistent error
// handling, JSON encoding and decoding, and request parsing.
//
// Handlers use the response helpers to keep status codes and payload
// shapes uniform across the API:
//
//	func (h *Handlers) getDomain(w http.ResponseWriter, r *http.Request) {
//		domainID, ok := httputil.ParsePathStringOrError(w, r, "domainId")
//		if !ok {
//			return
//		}
//		domain, err := h.service.GetDomain(r.Context(), domainID)
//		if err != nil {
//			httputil.WriteNotFoundError(w, err.Error())
//			return
//		}
//		httputil.WriteSuccess(w, domain)
//	}
//
// The middleware in this package handles cross-cutting concerns:
// request ids, structured request logging, and panic recovery. Compose
// them with Chain:
//
//	handler := httputil.Chain(
//		httputil.RequestIDMiddleware,
//		httputil.LoggingMiddleware(logger),
//		httputil.RecoveryMiddleware(logger),
//	)(router)
package httputil
