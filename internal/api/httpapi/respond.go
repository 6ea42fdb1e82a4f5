package httpapi

import (
	stderrors "errors"
	"log"
	"net/http"

	jsoniter "github.com/json-iterator/go"

	apperrors "github.com/qerralabs/launchpad/internal/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// errorBody is the JSON error envelope returned for failed requests.
type errorBody struct {
	Code     string            `json:"code"`
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	var appErr *apperrors.Error
	if stderrors.As(err, &appErr) {
		writeJSON(w, appErr.Code.HTTPStatus(), errorBody{
			Code:     string(appErr.Code),
			Message:  appErr.Message,
			Metadata: appErr.Metadata,
		})
		return
	}
	log.Printf("internal error: %v", err)
	writeJSON(w, http.StatusInternalServerError, errorBody{
		Code:    string(apperrors.CodeUnknown),
		Message: "internal error",
	})
}

func decodeBody(r *http.Request, into any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		return apperrors.Wrap(apperrors.CodeInvalidArgument, "invalid request body", err)
	}
	return nil
}
