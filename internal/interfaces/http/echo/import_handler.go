package echo

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	app "github.com/mohammadpnp/asset-import/internal/application/importing"
	"github.com/mohammadpnp/asset-import/internal/domain/audit"
	domain "github.com/mohammadpnp/asset-import/internal/domain/importing"
)

type ImportRunner interface {
	Submit(ctx context.Context, in app.ExecuteImportInput) error
	Run(ctx context.Context, in app.ExecuteImportInput) (domain.OutcomeReport, error)
}

type JobReader interface {
	Get(ctx context.Context, jobID uuid.UUID) (domain.ImportJob, error)
}

type ImportConfigProvider interface {
	Config(ctx context.Context) app.ImportConfig
}

type ImportHandler struct {
	start   app.StartImport
	analyze app.AnalyzeImport
	runner  ImportRunner
	jobs    JobReader
	limits  ImportConfigProvider
}

func NewImportHandler(start app.StartImport, analyze app.AnalyzeImport, runner ImportRunner, jobs JobReader, limits ImportConfigProvider) *ImportHandler {
	return &ImportHandler{start: start, analyze: analyze, runner: runner, jobs: jobs, limits: limits}
}

type analyzeRequest struct {
	AssetSetID string            `json:"asset_set_id" validate:"omitempty,uuid"`
	Mapping    map[string]string `json:"mapping"`
}

type executeRequest struct {
	JobID               string            `json:"job_id" validate:"omitempty,uuid"`
	Strategy            string            `json:"strategy" validate:"required,oneof=MERGE NEW_SET EXISTING_SET GLOBAL"`
	Mapping             map[string]string `json:"mapping"`
	NewSetName          string            `json:"new_set_name" validate:"max=255"`
	AssetSetID          string            `json:"asset_set_id"`
	NewFields           []string          `json:"new_fields" validate:"dive,required,max=128"`
	CreateMissingFields bool              `json:"create_missing_fields"`
	UserMatches         map[string]string `json:"user_matches" validate:"dive,uuid"`
	Origin              string            `json:"origin" validate:"omitempty,oneof=human ai system"`
}

type executeAccepted struct {
	JobID  uuid.UUID        `json:"job_id"`
	Status domain.JobStatus `json:"status"`
}

func (h *ImportHandler) Config(c echo.Context) error {
	return c.JSON(http.StatusOK, apiResponse{Data: h.limits.Config(c.Request().Context())})
}

func (h *ImportHandler) UploadAssets(c echo.Context) error {
	return h.upload(c, domain.KindAssetImport)
}

func (h *ImportHandler) UploadUsers(c echo.Context) error {
	return h.upload(c, domain.KindUserImport)
}

func (h *ImportHandler) upload(c echo.Context, kind domain.JobKind) error {
	actor, ok := actorID(c)
	if !ok {
		return respondError(c, http.StatusBadRequest, "invalid_user_id", HeaderUserID+" must be a valid UUID")
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return respondError(c, http.StatusBadRequest, "bad_request", "multipart field \"file\" is required")
	}
	src, err := fh.Open()
	if err != nil {
		return respondError(c, http.StatusBadRequest, "bad_request", "uploaded file is unreadable")
	}
	defer src.Close()

	out, err := h.start.Execute(c.Request().Context(), app.StartImportInput{
		Kind:       kind,
		Filename:   fh.Filename,
		Body:       src,
		UploadedBy: actor,
	})
	if err != nil {
		return respondUseCaseError(c, err, "failed to store upload")
	}

	return c.JSON(http.StatusCreated, apiResponse{Data: out})
}

func (h *ImportHandler) Analyze(c echo.Context) error {
	jobID, ok := pathUUID(c, "job_id")
	if !ok {
		return respondError(c, http.StatusBadRequest, "invalid_job_id", "job_id must be a valid UUID")
	}

	var req analyzeRequest
	if body := bindRequest(c, &req); body != nil {
		return c.JSON(http.StatusBadRequest, apiResponse{Error: body})
	}

	in := app.AnalyzeImportInput{
		JobID:   &jobID,
		Mapping: domain.NewFieldMapping(req.Mapping),
		UseAI:   queryBool(c, "use_ai"),
	}
	if req.AssetSetID != "" {
		setID, err := uuid.Parse(req.AssetSetID)
		if err != nil {
			return respondError(c, http.StatusBadRequest, "validation_error", "asset_set_id must be a valid UUID")
		}
		in.SetID = &setID
	}

	report, err := h.analyze.Execute(c.Request().Context(), in)
	if err != nil {
		return respondUseCaseError(c, err, "failed to analyze import file")
	}
	return c.JSON(http.StatusOK, apiResponse{Data: report})
}

func (h *ImportHandler) Preview(c echo.Context) error {
	jobID, ok := pathUUID(c, "job_id")
	if !ok {
		return respondError(c, http.StatusBadRequest, "invalid_job_id", "job_id must be a valid UUID")
	}

	out, err := h.analyze.Preview(c.Request().Context(), app.PreviewInput{JobID: &jobID})
	if err != nil {
		return respondUseCaseError(c, err, "failed to preview import file")
	}
	return c.JSON(http.StatusOK, apiResponse{Data: out})
}

func (h *ImportHandler) Execute(c echo.Context) error {
	jobID, ok := pathUUID(c, "job_id")
	if !ok {
		return respondError(c, http.StatusBadRequest, "invalid_job_id", "job_id must be a valid UUID")
	}
	actor, ok := actorID(c)
	if !ok {
		return respondError(c, http.StatusBadRequest, "invalid_user_id", HeaderUserID+" must be a valid UUID")
	}

	var req executeRequest
	if body := bindRequest(c, &req); body != nil {
		return c.JSON(http.StatusBadRequest, apiResponse{Error: body})
	}
	if req.JobID != "" && !strings.EqualFold(req.JobID, jobID.String()) {
		return respondError(c, http.StatusUnprocessableEntity, "job_id_mismatch", "body job_id does not match the path")
	}

	in := app.ExecuteImportInput{
		JobID:    jobID,
		Strategy: domain.Strategy(req.Strategy),
		Options: domain.ExecuteOptions{
			Mapping:             domain.NewFieldMapping(req.Mapping),
			NewSetName:          req.NewSetName,
			SetID:               req.AssetSetID,
			NewFields:           req.NewFields,
			CreateMissingFields: req.CreateMissingFields,
			UserMatches:         make(map[string]uuid.UUID, len(req.UserMatches)),
		},
		Actor:  actor,
		Origin: audit.ParseOrigin(req.Origin),
	}
	for raw, value := range req.UserMatches {
		id, err := uuid.Parse(value)
		if err != nil {
			return respondError(c, http.StatusBadRequest, "validation_error", "user_matches values must be valid UUIDs")
		}
		in.Options.UserMatches[raw] = id
	}

	if queryBool(c, "sync") {
		report, err := h.runner.Run(c.Request().Context(), in)
		if err != nil {
			return respondUseCaseError(c, err, "import failed")
		}
		return c.JSON(http.StatusOK, apiResponse{Data: report})
	}

	if err := h.runner.Submit(c.Request().Context(), in); err != nil {
		return respondUseCaseError(c, err, "failed to queue import")
	}
	return c.JSON(http.StatusAccepted, apiResponse{Data: executeAccepted{JobID: jobID, Status: domain.StatusPending}})
}

func (h *ImportHandler) GetJob(c echo.Context) error {
	jobID, ok := pathUUID(c, "job_id")
	if !ok {
		return respondError(c, http.StatusBadRequest, "invalid_job_id", "job_id must be a valid UUID")
	}

	job, err := h.jobs.Get(c.Request().Context(), jobID)
	if err != nil {
		return respondUseCaseError(c, err, "failed to load import job")
	}
	return c.JSON(http.StatusOK, apiResponse{Data: job})
}

func queryBool(c echo.Context, name string) bool {
	v, err := strconv.ParseBool(c.QueryParam(name))
	return err == nil && v
}
