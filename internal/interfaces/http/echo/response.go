package echo

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	appasset "github.com/mohammadpnp/asset-import/internal/application/asset"
	appimport "github.com/mohammadpnp/asset-import/internal/application/importing"
	appuser "github.com/mohammadpnp/asset-import/internal/application/user"
	"github.com/mohammadpnp/asset-import/internal/domain/asset"
	domain "github.com/mohammadpnp/asset-import/internal/domain/importing"
)

const (
	// HeaderUserID carries the acting user id. Authentication happens upstream.
	HeaderUserID = "X-User-ID"
	// ContextKeyError holds the unexpected error behind a 500 response so the
	// request logger can report it.
	ContextKeyError = "handler_error"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type apiResponse struct {
	Data  any        `json:"data,omitempty"`
	Error *errorBody `json:"error,omitempty"`
}

func respondError(c echo.Context, status int, code, message string) error {
	return c.JSON(status, apiResponse{Error: &errorBody{Code: code, Message: message}})
}

type errorMapping struct {
	target error
	status int
	code   string
}

// Checked in order; the first match wins.
var errorMappings = []errorMapping{
	{domain.ErrUploadTooLarge, http.StatusRequestEntityTooLarge, "file_too_large"},
	{domain.ErrUnsupportedFormat, http.StatusBadRequest, "unsupported_format"},
	{domain.ErrForbiddenPath, http.StatusForbidden, "forbidden_path"},
	{domain.ErrFileNotFound, http.StatusNotFound, "file_not_found"},
	{domain.ErrJobNotFound, http.StatusNotFound, "job_not_found"},
	{domain.ErrJobNotPending, http.StatusConflict, "job_not_pending"},
	{domain.ErrGroupNotFound, http.StatusNotFound, "asset_set_not_found"},
	{domain.ErrParse, http.StatusBadRequest, "parse_error"},
	{domain.ErrInvalidStrategy, http.StatusBadRequest, "invalid_strategy"},
	{domain.ErrValidation, http.StatusBadRequest, "validation_error"},
	{appimport.ErrInvalidUpload, http.StatusBadRequest, "invalid_upload"},
	{appimport.ErrQueueFull, http.StatusServiceUnavailable, "queue_full"},
	{asset.ErrDuplicateSerial, http.StatusConflict, "duplicate_serial"},
	{asset.ErrInvalidStatus, http.StatusBadRequest, "invalid_status"},
	{appasset.ErrInvalidAsset, http.StatusBadRequest, "invalid_asset"},
	{appuser.ErrInvalidUserID, http.StatusBadRequest, "invalid_user_id"},
	{appuser.ErrUserNotFound, http.StatusNotFound, "not_found"},
}

// respondUseCaseError maps application and domain errors onto the response
// envelope. Unknown errors become a 500 with a fixed message.
func respondUseCaseError(c echo.Context, err error, fallback string) error {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return respondError(c, m.status, m.code, err.Error())
		}
	}
	c.Set(ContextKeyError, err)
	return respondError(c, http.StatusInternalServerError, "internal_error", fallback)
}

// CustomValidator plugs go-playground/validator into echo's Validate.
type CustomValidator struct {
	validator *validator.Validate
}

func NewValidator() *CustomValidator {
	return &CustomValidator{validator: validator.New(validator.WithRequiredStructEnabled())}
}

func (cv *CustomValidator) Validate(i any) error {
	err := cv.validator.Struct(i)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(msgs, "; "))
}

// bindRequest decodes and validates req. A non-nil result is the error body
// to answer with.
func bindRequest(c echo.Context, req any) *errorBody {
	if err := c.Bind(req); err != nil {
		return &errorBody{Code: "bad_request", Message: "invalid request body"}
	}
	if c.Echo().Validator == nil {
		return nil
	}
	if err := c.Validate(req); err != nil {
		return &errorBody{Code: "validation_error", Message: err.Error()}
	}
	return nil
}

// actorID reads the optional acting user header. ok is false when the header
// is present but malformed.
func actorID(c echo.Context) (*uuid.UUID, bool) {
	raw := strings.TrimSpace(c.Request().Header.Get(HeaderUserID))
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, false
	}
	return &id, true
}

func pathUUID(c echo.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
