package bootstrap

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	appasset "github.com/mohammadpnp/asset-import/internal/application/asset"
	appimport "github.com/mohammadpnp/asset-import/internal/application/importing"
	appuser "github.com/mohammadpnp/asset-import/internal/application/user"
	"github.com/mohammadpnp/asset-import/internal/config"
	domain "github.com/mohammadpnp/asset-import/internal/domain/importing"
	"github.com/mohammadpnp/asset-import/internal/infrastructure/cache"
	infrafile "github.com/mohammadpnp/asset-import/internal/infrastructure/file"
	"github.com/mohammadpnp/asset-import/internal/infrastructure/llm"
	"github.com/mohammadpnp/asset-import/internal/infrastructure/repository"
	httpecho "github.com/mohammadpnp/asset-import/internal/interfaces/http/echo"
	"github.com/mohammadpnp/asset-import/internal/pkg/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the process-level resources the server is assembled from. Redis
// is optional.
type Deps struct {
	Config config.Config
	DB     *gorm.DB
	Pool   *pgxpool.Pool
	Redis  *redis.Client
	Log    *logger.Logger
}

type App struct {
	Server *echo.Echo
	Runner *appimport.Runner
}

func NewApp(deps Deps) *App {
	cfg := deps.Config
	log := deps.Log

	importJobRepo := repository.NewImportJobRepository(deps.DB)
	catalogRepo := repository.NewCatalogRepository(deps.DB)
	settingsRepo := repository.NewSettingsRepository(deps.DB)
	userQueryRepo := repository.NewUserQueryRepository(deps.DB)
	assetRepo := repository.NewAssetRepository(deps.DB)
	assetImporter := repository.NewAssetBulkImportRepository(deps.Pool)
	userImporter := repository.NewUserImportRepository(deps.DB)

	uploads := infrafile.NewUploadStore(cfg.Import.UploadDir)
	reader := infrafile.NewReader(infrafile.NewLocalSource(cfg.Import.UploadDir))

	var suggestionCache domain.SuggestionCache
	if deps.Redis != nil {
		suggestionCache = cache.NewRedisCache(deps.Redis, cfg.Redis.SuggestionsKey, cfg.Redis.SuggestionTTL)
	}
	completers := llm.NewSource(settingsRepo, llm.Options{
		Provider: cfg.AI.Provider,
		APIKey:   cfg.AI.APIKey,
		Model:    cfg.AI.Model,
		BaseURL:  cfg.AI.BaseURL,
	}, log.With("component", "llm"))
	suggester := appimport.NewSuggester(completers, suggestionCache, log.With("component", "suggester"), cfg.AI.Timeout)

	limits := appimport.NewUploadLimits(settingsRepo, cfg.Import.MaxUploadMB, log)
	matcher := appimport.NewDirectoryMatcher(userQueryRepo)

	startImport := appimport.NewStartImport(uploads, importJobRepo, limits, log)
	analyzeImport := appimport.NewAnalyzeImport(importJobRepo, reader, catalogRepo, matcher, suggester)
	executeImport := appimport.NewExecuteImport(appimport.ExecutorDeps{
		Jobs:      importJobRepo,
		Reader:    reader,
		Catalog:   catalogRepo,
		Directory: userQueryRepo,
		Matcher:   matcher,
		Assets:    assetImporter,
		Users:     userImporter,
		Log:       log.With("component", "executor"),
	}, appimport.ExecutorConfig{DefaultStatus: cfg.Import.DefaultStatus})
	runner := appimport.NewRunner(importJobRepo, executeImport, log.With("component", "runner"), appimport.RunnerConfig{
		Workers:   cfg.Import.Workers,
		QueueSize: cfg.Import.QueueSize,
	})

	server := NewHTTPServer(cfg, log, httpecho.Handlers{
		Imports: httpecho.NewImportHandler(startImport, analyzeImport, runner, importJobRepo, limits),
		Assets:  httpecho.NewAssetHandler(appasset.NewCreateAsset(assetRepo)),
		Users:   httpecho.NewUserHandler(appuser.NewGetUserByID(userQueryRepo)),
	})

	return &App{Server: server, Runner: runner}
}

func NewHTTPServer(cfg config.Config, log *logger.Logger, handlers httpecho.Handlers) *echo.Echo {
	server := echo.New()
	server.HideBanner = true
	server.HidePort = true
	server.Validator = httpecho.NewValidator()

	server.Use(middleware.Recover())
	server.Use(middleware.RequestID())
	server.Use(requestLogger(log))
	// Uploads stream through the store, which enforces the configured size
	// limit itself.
	server.Use(middleware.BodyLimitWithConfig(middleware.BodyLimitConfig{
		Limit: "1M",
		Skipper: func(c echo.Context) bool {
			return isUpload(c.Request())
		},
	}))

	httpecho.RegisterRoutes(server, handlers)

	server.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.MetricsPath != "" {
		server.GET(cfg.MetricsPath, echo.WrapHandler(promhttp.Handler()))
	}

	return server
}

func isUpload(r *http.Request) bool {
	return r.Method == http.MethodPost &&
		strings.HasPrefix(r.Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
}

func requestLogger(log *logger.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency.Round(time.Microsecond).String(),
				"request_id", v.RequestID,
			}
			if err, ok := c.Get(httpecho.ContextKeyError).(error); ok {
				fields = append(fields, "error", err)
				log.Error("request failed", fields...)
				return nil
			}
			if v.Error != nil {
				fields = append(fields, "error", v.Error)
			}
			log.Info("request", fields...)
			return nil
		},
	})
}

// Addr turns a bare port into a listen address.
func Addr(port string) string {
	if strings.Contains(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}
