package http_server

import (
	"net/http"

	"github.com/danthegoodman1/rowbind/registry"
)

func (s *HTTPServer) ListTypes(c *CustomContext) error {
	return c.JSON(http.StatusOK, s.Writer.Registry.Entries())
}

func (s *HTTPServer) GetType(c *CustomContext) error {
	e, ok := s.lookupType(c)
	if !ok {
		return c.String(http.StatusNotFound, "type not found")
	}
	return c.JSON(http.StatusOK, e)
}

// CheckHandler binds a JSON object to a new instance of the type and reads it
// back through the getters, showing what an insert would store.
func (s *HTTPServer) CheckHandler(c *CustomContext) error {
	e, ok := s.lookupType(c)
	if !ok {
		return c.String(http.StatusNotFound, "type not found")
	}

	var body map[string]any
	if err := c.Echo().JSONSerializer.Deserialize(c, &body); err != nil {
		return c.String(http.StatusBadRequest, err.Error())
	}

	obj, err := s.Writer.Converter.FromMap(e.Type, body)
	if err != nil {
		return c.RequestError(err, "error creating instance")
	}
	row, err := s.Writer.Converter.ToRow(obj)
	if err != nil {
		return c.RequestError(err, "error reading instance")
	}
	return c.JSON(http.StatusOK, row.Map())
}

func (s *HTTPServer) lookupType(c *CustomContext) (*registry.Entry, bool) {
	return s.Writer.Registry.Lookup(c.Param("name"))
}
