package server

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter assembles the API routes. allowedOrigins feeds the CORS
// middleware; "*" opens the API to the kiosk and dashboard dev servers.
func NewRouter(h *Handlers, allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	corsCfg := cors.DefaultConfig()
	if len(allowedOrigins) == 1 && allowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = allowedOrigins
	}
	corsCfg.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	r.Use(cors.New(corsCfg))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.POST("/payment/webhook", h.PaymentWebhook)
		api.POST("/requests", h.CreateRequest)
		api.POST("/print", h.PrintReceipt)

		pdf := api.Group("/pdf")
		{
			pdf.GET("/list", h.ListArtifacts)
			pdf.GET("/download/:fileId", h.DownloadArtifact)
			pdf.PATCH("/status/:id", h.UpdateStatus)
			pdf.DELETE("/permanent/:fileId", h.PermanentDelete)
			pdf.DELETE("/:fileId", h.Trash)
			pdf.DELETE("", h.TrashBatch)
			pdf.POST("/restore/:fileId", h.Restore)
			pdf.POST("/restore", h.RestoreBatch)
		}
	}
	return r
}
