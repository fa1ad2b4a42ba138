package echo

import e "github.com/labstack/echo/v4"

type Handlers struct {
	Imports *ImportHandler
	Assets  *AssetHandler
	Users   *UserHandler
}

// RegisterRoutes mounts every non-nil handler under /api/v1 and installs the
// request validator when none is set.
func RegisterRoutes(server *e.Echo, h Handlers) {
	if server.Validator == nil {
		server.Validator = NewValidator()
	}

	api := server.Group("/api/v1")

	if h.Imports != nil {
		imports := api.Group("/imports")
		imports.GET("/config", h.Imports.Config)
		imports.POST("/assets", h.Imports.UploadAssets)
		imports.POST("/users", h.Imports.UploadUsers)
		imports.GET("/jobs/:job_id", h.Imports.GetJob)
		imports.POST("/:job_id/analyze", h.Imports.Analyze)
		imports.GET("/:job_id/preview", h.Imports.Preview)
		imports.POST("/:job_id/execute", h.Imports.Execute)
	}

	if h.Assets != nil {
		api.POST("/assets", h.Assets.CreateAsset)
	}

	if h.Users != nil {
		api.GET("/users/:id", h.Users.GetUserByID)
	}
}
