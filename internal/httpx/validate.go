package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/pressline/dryclean-api/internal/apperr"
)

var validate = validator.New()

// decodeValid decodes the JSON body into dst and runs struct validation.
func decodeValid(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.New(apperr.KindValidation, "invalid json body")
	}
	if err := validate.Struct(dst); err != nil {
		ae := apperr.New(apperr.KindValidation, "validation failed")
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				ae.WithField(fe.Field(), "failed "+fe.Tag()+" validation")
			}
		}
		return ae
	}
	return nil
}
