package echo

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	app "github.com/mohammadpnp/asset-import/internal/application/asset"
	"github.com/mohammadpnp/asset-import/internal/domain/attribute"
	"github.com/mohammadpnp/asset-import/internal/domain/audit"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

type AssetHandler struct {
	useCase app.CreateAsset
}

func NewAssetHandler(useCase app.CreateAsset) *AssetHandler {
	return &AssetHandler{useCase: useCase}
}

type createAssetRequest struct {
	Name           string           `json:"name" validate:"required,max=255"`
	SerialNumber   *string          `json:"serial_number" validate:"omitempty,max=255"`
	Location       *string          `json:"location" validate:"omitempty,max=255"`
	Vendor         *string          `json:"vendor" validate:"omitempty,max=255"`
	OrderNumber    *string          `json:"order_number" validate:"omitempty,max=255"`
	PurchasePrice  *decimal.Decimal `json:"purchase_price"`
	PurchaseDate   *string          `json:"purchase_date" validate:"omitempty,datetime=2006-01-02"`
	WarrantyEnd    *string          `json:"warranty_end" validate:"omitempty,datetime=2006-01-02"`
	AssetTypeID    *uuid.UUID       `json:"asset_type_id"`
	StatusID       *uuid.UUID       `json:"status_id"`
	AssetSetID     *uuid.UUID       `json:"asset_set_id"`
	AssignedUserID *uuid.UUID       `json:"assigned_user_id"`
	Tags           []string         `json:"tags" validate:"dive,required,max=64"`
	Extra          *attribute.Map   `json:"extra"`
	Origin         string           `json:"origin" validate:"omitempty,oneof=human ai system"`
}

func (h *AssetHandler) CreateAsset(c echo.Context) error {
	actor, ok := actorID(c)
	if !ok {
		return respondError(c, http.StatusBadRequest, "invalid_user_id", HeaderUserID+" must be a valid UUID")
	}

	var req createAssetRequest
	if body := bindRequest(c, &req); body != nil {
		return c.JSON(http.StatusBadRequest, apiResponse{Error: body})
	}

	purchaseDate, err := parseDay(req.PurchaseDate)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "validation_error", "purchase_date must be YYYY-MM-DD")
	}
	warrantyEnd, err := parseDay(req.WarrantyEnd)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "validation_error", "warranty_end must be YYYY-MM-DD")
	}

	var origin audit.Origin
	if req.Origin != "" {
		origin = audit.ParseOrigin(req.Origin)
	}

	out, err := h.useCase.Execute(c.Request().Context(), app.CreateAssetInput{
		Name:           req.Name,
		SerialNumber:   req.SerialNumber,
		Location:       req.Location,
		Vendor:         req.Vendor,
		OrderNumber:    req.OrderNumber,
		PurchasePrice:  req.PurchasePrice,
		PurchaseDate:   purchaseDate,
		WarrantyEnd:    warrantyEnd,
		AssetTypeID:    req.AssetTypeID,
		StatusID:       req.StatusID,
		AssetSetID:     req.AssetSetID,
		AssignedUserID: req.AssignedUserID,
		Tags:           req.Tags,
		Extra:          req.Extra,
		Actor:          actor,
		Origin:         origin,
	})
	if err != nil {
		return respondUseCaseError(c, err, "failed to create asset")
	}

	return c.JSON(http.StatusCreated, apiResponse{Data: out})
}

func parseDay(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, *raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
