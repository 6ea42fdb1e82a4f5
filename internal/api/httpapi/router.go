// Package httpapi exposes the presale engine over HTTP/JSON. Caller
// identity comes from an EdDSA bearer token; routes operate on the
// authenticated subject.
package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/qerralabs/launchpad/internal/auth"
	"github.com/qerralabs/launchpad/internal/presale"
)

// Config wires the HTTP API to its dependencies.
type Config struct {
	Service *presale.Service
	// Verifier enables bearer authentication. When nil the API trusts the
	// X-Caller-Identity header; only for local development.
	Verifier *auth.VerifierConfig
}

// NewRouter builds the HTTP route table for the presale engine.
func NewRouter(cfg Config) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/factories", initializeFactoryHandler(cfg.Service)).Methods(http.MethodPost)
	v1.HandleFunc("/factories/{factory_id}", getFactoryHandler(cfg.Service)).Methods(http.MethodGet)
	v1.HandleFunc("/factories/{factory_id}/presales", createPresaleHandler(cfg.Service)).Methods(http.MethodPost)

	v1.HandleFunc("/presales/{presale_id}", getPresaleHandler(cfg.Service)).Methods(http.MethodGet)
	v1.HandleFunc("/presales/{presale_id}/buy", buyTokensHandler(cfg.Service)).Methods(http.MethodPost)
	v1.HandleFunc("/presales/{presale_id}/finalize", finalizePresaleHandler(cfg.Service)).Methods(http.MethodPost)
	v1.HandleFunc("/presales/{presale_id}/participants", listParticipantsHandler(cfg.Service)).Methods(http.MethodGet)
	v1.HandleFunc("/presales/{presale_id}/participants", addParticipantHandler(cfg.Service)).Methods(http.MethodPost)
	v1.HandleFunc("/presales/{presale_id}/participants/{identity}", removeParticipantHandler(cfg.Service)).Methods(http.MethodDelete)
	v1.HandleFunc("/presales/{presale_id}/buyers", listBuyersHandler(cfg.Service)).Methods(http.MethodGet)

	var handler http.Handler = r
	handler = withIdentity(cfg.Verifier, handler)
	handler = withTracing(handler)
	handler = withLogging(handler)
	handler = withRequestID(handler)
	return handler
}
