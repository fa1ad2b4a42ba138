package echo_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	app "github.com/mohammadpnp/asset-import/internal/application/asset"
	"github.com/mohammadpnp/asset-import/internal/domain/asset"
	"github.com/mohammadpnp/asset-import/internal/domain/audit"
	httpecho "github.com/mohammadpnp/asset-import/internal/interfaces/http/echo"
)

type fakeCreateAsset struct {
	in    app.CreateAssetInput
	calls int
	err   error
}

func (f *fakeCreateAsset) Execute(ctx context.Context, in app.CreateAssetInput) (app.CreateAssetOutput, error) {
	f.calls++
	f.in = in
	if f.err != nil {
		return app.CreateAssetOutput{}, f.err
	}
	return app.CreateAssetOutput{ID: uuid.New(), Name: in.Name, SerialNumber: in.SerialNumber, Tags: in.Tags}, nil
}

func newAssetServer(uc app.CreateAsset) *echo.Echo {
	e := echo.New()
	httpecho.RegisterRoutes(e, httpecho.Handlers{Assets: httpecho.NewAssetHandler(uc)})
	return e
}

func postAsset(e *echo.Echo, body string, actor string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/assets", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if actor != "" {
		req.Header.Set(httpecho.HeaderUserID, actor)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestCreateAssetHandlerSuccess(t *testing.T) {
	t.Parallel()

	uc := &fakeCreateAsset{}
	e := newAssetServer(uc)
	actor := uuid.New()

	body := `{
		"name": "ThinkPad X1",
		"serial_number": "PF-123",
		"purchase_price": "1499.90",
		"purchase_date": "2024-03-01",
		"tags": ["laptop"],
		"extra": {"color": "black", "ram_gb": 32}
	}`
	rec := postAsset(e, body, actor.String())

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if uc.in.Name != "ThinkPad X1" {
		t.Fatalf("unexpected name: %q", uc.in.Name)
	}
	if uc.in.PurchasePrice == nil || uc.in.PurchasePrice.String() != "1499.9" {
		t.Fatalf("unexpected price: %v", uc.in.PurchasePrice)
	}
	if uc.in.PurchaseDate == nil || uc.in.PurchaseDate.Format("2006-01-02") != "2024-03-01" {
		t.Fatalf("unexpected purchase date: %v", uc.in.PurchaseDate)
	}
	if uc.in.WarrantyEnd != nil {
		t.Fatalf("expected no warranty end, got %v", uc.in.WarrantyEnd)
	}
	if uc.in.Extra == nil || uc.in.Extra.Len() != 2 {
		t.Fatalf("unexpected extra: %v", uc.in.Extra)
	}
	if uc.in.Actor == nil || *uc.in.Actor != actor {
		t.Fatalf("unexpected actor: %v", uc.in.Actor)
	}
	if uc.in.Origin != "" {
		t.Fatalf("origin should be left to the use case default, got %q", uc.in.Origin)
	}

	data, _ := decodeEnvelope(t, rec)["data"].(map[string]any)
	if data["serial_number"] != "PF-123" {
		t.Fatalf("unexpected serial: %#v", data["serial_number"])
	}
}

func TestCreateAssetHandlerForwardsOrigin(t *testing.T) {
	t.Parallel()

	uc := &fakeCreateAsset{}
	rec := postAsset(newAssetServer(uc), `{"name":"Dock","origin":"ai"}`, "")

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if uc.in.Origin != audit.OriginAI {
		t.Fatalf("unexpected origin: %q", uc.in.Origin)
	}
	if uc.in.Actor != nil {
		t.Fatalf("expected no actor, got %v", uc.in.Actor)
	}
}

func TestCreateAssetHandlerValidation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		body string
		code string
	}{
		{"missing name", `{"serial_number":"x"}`, "validation_error"},
		{"bad date", `{"name":"Dock","purchase_date":"03/01/2024"}`, "validation_error"},
		{"bad origin", `{"name":"Dock","origin":"robot"}`, "validation_error"},
		{"bad price", `{"name":"Dock","purchase_price":"cheap"}`, "bad_request"},
		{"bad type id", `{"name":"Dock","asset_type_id":"nope"}`, "bad_request"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			uc := &fakeCreateAsset{}
			rec := postAsset(newAssetServer(uc), tc.body, "")

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
			if code := errorCode(t, rec); code != tc.code {
				t.Fatalf("unexpected code: %q", code)
			}
			if uc.calls != 0 {
				t.Fatalf("use case should not run")
			}
		})
	}
}

func TestCreateAssetHandlerErrorMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"duplicate serial", asset.ErrDuplicateSerial, http.StatusConflict, "duplicate_serial"},
		{"unknown status", asset.ErrInvalidStatus, http.StatusBadRequest, "invalid_status"},
		{"invalid asset", app.ErrInvalidAsset, http.StatusBadRequest, "invalid_asset"},
		{"store failure", app.ErrCreateAsset, http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rec := postAsset(newAssetServer(&fakeCreateAsset{err: tc.err}), `{"name":"Dock"}`, "")

			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rec.Code)
			}
			if code := errorCode(t, rec); code != tc.code {
				t.Fatalf("unexpected code: %q", code)
			}
		})
	}
}
