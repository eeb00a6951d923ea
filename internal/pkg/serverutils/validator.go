package serverutils

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/internal/pkg/apperror"
)

var validate = validator.New()

// ValidateRequest checks struct tags and returns a client error listing
// every failed field, so the caller can fix all of them in one round trip.
func ValidateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperror.BadRequest("invalid request payload")
	}

	reasons := make([]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		reasons = append(reasons, fmt.Sprintf("%s failed on %q", fieldErr.Field(), fieldErr.Tag()))
	}
	return apperror.BadRequest("validation failed: " + strings.Join(reasons, "; "))
}
