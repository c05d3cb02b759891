package http_server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/danthegoodman1/rowbind/partitioner"
)

type (
	InsertReqBody struct {
		// Line-delimited JSON (NDJSON)
		RowsString *string
		// Array of JSON
		Rows        []map[string]any
		Partitioner []partitioner.PartitionPlan `validate:"dive"`
	}
)

func (s *HTTPServer) InsertHandler(c *CustomContext) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), time.Second*60)
	defer cancel()

	e, ok := s.lookupType(c)
	if !ok {
		return c.String(http.StatusNotFound, "type not found")
	}

	var reqBody InsertReqBody
	if err := ValidateRequest(c, &reqBody); err != nil {
		return c.String(http.StatusBadRequest, err.Error())
	}

	rows := reqBody.Rows
	if reqBody.RowsString != nil {
		ndJSONScanner := bufio.NewScanner(strings.NewReader(*reqBody.RowsString))
		for ndJSONScanner.Scan() {
			line := strings.TrimSpace(ndJSONScanner.Text())
			if line == "" {
				continue
			}
			var jsonMap map[string]any
			if err := json.Unmarshal([]byte(line), &jsonMap); err != nil {
				return c.String(http.StatusBadRequest, "line was not a JSON object")
			}
			rows = append(rows, jsonMap)
		}
		if err := ndJSONScanner.Err(); err != nil {
			return c.String(http.StatusBadRequest, err.Error())
		}
	}

	if len(rows) == 0 {
		return c.String(http.StatusBadRequest, "no rows found")
	}

	beans := make([]any, len(rows))
	for i, row := range rows {
		obj, err := s.Writer.Converter.FromMap(e.Type, row)
		if err != nil {
			return c.RequestError(err, "error creating instance from row")
		}
		beans[i] = obj
	}

	stats, err := s.Writer.Write(ctx, reqBody.Partitioner, beans...)
	if err != nil {
		return c.RequestError(err, "error writing parts")
	}

	return c.JSON(http.StatusAccepted, stats)
}
