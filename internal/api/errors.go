package api

import (
	"errors"
	"net/http"

	"github.com/phrazzld/configstore-api/internal/api/shared"
	"github.com/phrazzld/configstore-api/internal/service"
	"github.com/phrazzld/configstore-api/internal/template"
	"github.com/phrazzld/configstore-api/internal/validation"
)

// RespondWithMappedError classifies a service-layer error and writes the
// corresponding JSON error response. This is the single place failure
// kinds map to status codes and message shapes; anything unclassified
// degrades to a 500 whose message is the error's string form only.
func RespondWithMappedError(w http.ResponseWriter, r *http.Request, err error) {
	var parseErr *validation.ParseError
	var validationErr *service.ValidationFailedError
	var conflictErr *service.VersionConflictError
	var notFoundErr *service.NotFoundError
	var renderErr *template.RenderError

	switch {
	case errors.As(err, &parseErr):
		shared.RespondWithError(w, r, http.StatusBadRequest,
			"Bad Request", parseErr.Error(), err)

	case errors.As(err, &validationErr):
		shared.RespondWithValidationErrors(w, r,
			validation.Messages(validationErr.Errors))

	case errors.As(err, &conflictErr):
		shared.RespondWithError(w, r, http.StatusConflict,
			"Version already exists", conflictErr.Error(), err)

	case errors.As(err, &notFoundErr):
		shared.RespondWithError(w, r, http.StatusNotFound,
			"Not Found", notFoundErr.Message, err)

	case errors.As(err, &renderErr):
		shared.RespondWithError(w, r, http.StatusBadRequest,
			"Template processing error", renderErr.Error(), err)

	default:
		shared.RespondWithError(w, r, http.StatusInternalServerError,
			"Internal server error", err.Error(), err)
	}
}
