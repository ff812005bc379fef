package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/invopop/jsonschema"

	"cartstream.app/ingest/internal/model"
)

// SchemaHandler publishes the canonical event schema so producers can
// validate before publishing. The schema is reflected once at construction.
type SchemaHandler struct {
	schema *jsonschema.Schema
}

func NewSchemaHandler() *SchemaHandler {
	reflector := jsonschema.Reflector{
		DoNotReference: true,
		// Extra keys are tolerated and preserved in the raw sink, so the
		// published schema must not forbid them.
		AllowAdditionalProperties: true,
	}
	return &SchemaHandler{schema: reflector.Reflect(&model.Event{})}
}

func (h *SchemaHandler) Event(c *gin.Context) {
	c.JSON(http.StatusOK, h.schema)
}
