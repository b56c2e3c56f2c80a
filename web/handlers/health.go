package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ZanRoberto/Tecnaria-V3-sub000/knowledge"
)

type HealthHandler struct {
	base *knowledge.Base
}

func NewHealthHandler(base *knowledge.Base) *HealthHandler {
	if base == nil {
		base = &knowledge.Base{}
	}
	return &HealthHandler{base: base}
}

// Health reports liveness plus the size of the loaded knowledge set.
func (h *HealthHandler) Health(c *gin.Context) {
	families := []string{}
	if h.base.Family != "" {
		families = append(families, h.base.Family)
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":       true,
		"items":    len(h.base.Items),
		"families": families,
		"version":  h.base.Meta.Version,
	})
}
