package api

import (
	"time"

	"github.com/gin-gonic/gin"
)

type bundleStatusResponse struct {
	Version  string    `json:"version"`
	LoadedAt time.Time `json:"loadedAt"`
}

func (m ApiHandler) bundleStatus(c *gin.Context) {
	bundle := m.BundleService.Current()
	if bundle == nil {
		c.JSON(503, gin.H{"error": "no bundle loaded"})
		return
	}
	c.JSON(200, bundleStatusResponse{
		Version:  bundle.Version,
		LoadedAt: bundle.LoadedAt,
	})
}

// refreshBundle forces a refresh check outside the daily boundary cycle.
// It always returns the bundle that is active afterwards.
func (m ApiHandler) refreshBundle(c *gin.Context) {
	m.BundleService.Refresh(c)
	m.bundleStatus(c)
}
