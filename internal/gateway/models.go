package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/daoch4n/zen-router/internal/registry"
	"github.com/daoch4n/zen-router/internal/translator/openai"
)

func (e *Engine) handleModels(c *gin.Context) {
	models := registry.List()
	data := make([]openai.ModelsListItem, len(models))
	for i, m := range models {
		data[i] = openai.ModelsListItem{ID: m.Name, Object: "model", OwnedBy: "google"}
	}
	c.JSON(http.StatusOK, openai.ModelsResponse{Object: "list", Data: data})
}
