package http_server

import (
	"context"
	"net/http"
	"time"

	"github.com/danthegoodman1/rowbind/part_writer"
	"github.com/danthegoodman1/rowbind/utils"
	"github.com/rs/zerolog"
)

type (
	MergeReqBody struct {
		// The partition path, minus the leading `t={Type}/`.
		//
		// Ex: `y=2022/m=December`
		Partition string
		// The max file size in bytes that will be considered for merging.
		//
		// Default 1GB.
		MaxPreMergeFileBytes *int64
		// The max file size after merge, controls how many files can be merged.
		//
		// Default 5GB.
		MaxPostMergeFileBytes *int64
		// Max number of files to merge at once.
		//
		// Default 4.
		MaxMergeFiles *int32 `validate:"omitempty,min=2"`
		// How many seconds before the merge will time out.
		//
		// Default `60`.
		MaxRuntimeSec *int64
	}
)

func (s *HTTPServer) MergeHandler(c *CustomContext) error {
	e, ok := s.lookupType(c)
	if !ok {
		return c.String(http.StatusNotFound, "type not found")
	}

	var reqBody MergeReqBody
	if err := ValidateRequest(c, &reqBody); err != nil {
		return c.String(http.StatusBadRequest, err.Error())
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), time.Second*time.Duration(utils.Deref(reqBody.MaxRuntimeSec, 60)))
	defer cancel()

	logger := zerolog.Ctx(ctx)
	logger.Debug().Msg("running merge handler")

	res, err := s.Writer.Merge(ctx, part_writer.MergeOptions{
		TypeName:              e.Name,
		Partition:             reqBody.Partition,
		MaxPreMergeFileBytes:  reqBody.MaxPreMergeFileBytes,
		MaxPostMergeFileBytes: reqBody.MaxPostMergeFileBytes,
		MaxMergeFiles:         reqBody.MaxMergeFiles,
	})
	if err != nil {
		return c.RequestError(err, "error merging parts")
	}
	if res.FilesMerged == 0 {
		return c.NoContent(http.StatusNoContent)
	}

	return c.JSON(http.StatusOK, res)
}
