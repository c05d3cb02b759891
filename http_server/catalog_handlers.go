package http_server

import (
	"errors"
	"net/http"

	"github.com/danthegoodman1/rowbind/metastore"
	"github.com/danthegoodman1/rowbind/part"
)

func (s *HTTPServer) ListSchemas(c *CustomContext) error {
	schemas, err := s.Writer.MetaStore.ListSchemas(c.Request().Context())
	if err != nil {
		return c.InternalError(err, "error listing schemas")
	}
	return c.JSON(http.StatusOK, schemas)
}

// ListParts lists the parts of a stored type. `?alive=true` leaves out merged
// away parts.
func (s *HTTPServer) ListParts(c *CustomContext) error {
	ctx := c.Request().Context()
	name := c.Param("name")

	_, err := s.Writer.MetaStore.GetSchema(ctx, name)
	if errors.Is(err, metastore.ErrSchemaNotFound) {
		return c.String(http.StatusNotFound, "schema not found")
	}
	if err != nil {
		return c.InternalError(err, "error getting schema")
	}

	parts, err := s.Writer.MetaStore.ListParts(ctx, name)
	if err != nil {
		return c.InternalError(err, "error listing parts")
	}
	if c.QueryParam("alive") == "true" {
		alive := make([]part.Part, 0, len(parts))
		for _, p := range parts {
			if p.Alive {
				alive = append(alive, p)
			}
		}
		parts = alive
	}
	if parts == nil {
		parts = []part.Part{}
	}
	return c.JSON(http.StatusOK, parts)
}
