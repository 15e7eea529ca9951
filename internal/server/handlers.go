package server

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrsinham/dicombids/internal/export"
	"github.com/mrsinham/dicombids/internal/manifest"
	"github.com/mrsinham/dicombids/internal/security"
)

// PublishResponse answers a request with ?publish=true.
type PublishResponse struct {
	Object    string `json:"object"`
	Size      int64  `json:"size"`
	Converted int    `json:"converted"`
	Skipped   int    `json:"skipped"`
}

var errBadRequest = errors.New("bad request")

func (s *Server) exportFile(c *gin.Context) {
	if c.Request.ContentLength > s.opts.MaxUploadBytes {
		s.tooLarge(c)
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxUploadBytes)

	fh, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.tooLarge(c)
			return
		}
		s.fail(c, fmt.Errorf("%w: multipart field \"file\" is required", errBadRequest))
		return
	}

	dir, err := os.MkdirTemp(s.opts.ScratchDir, "upload-")
	if err != nil {
		s.fail(c, fmt.Errorf("create upload dir: %w", err))
		return
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			s.logger.Warn("failed to remove upload dir", zap.String("dir", dir), zap.Error(err))
		}
	}()

	path := filepath.Join(dir, security.SanitizeFilename(fh.Filename))
	if err := c.SaveUploadedFile(fh, path); err != nil {
		s.fail(c, fmt.Errorf("save upload: %w", err))
		return
	}

	archive, err := s.assembler.ExportFile(c.Request.Context(), path)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.deliver(c, archive)
}

func (s *Server) exportExperiment(c *gin.Context) {
	if s.opts.DataRoot == "" {
		s.fail(c, fmt.Errorf("%w: experiment exports need a configured data root", errBadRequest))
		return
	}

	var exp manifest.Experiment
	if err := c.ShouldBindJSON(&exp); err != nil {
		s.fail(c, fmt.Errorf("%w: invalid manifest: %v", errBadRequest, err))
		return
	}
	if err := exp.Validate(); err != nil {
		s.fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	for i := range exp.Participants {
		for j, f := range exp.Participants[i].Files {
			resolved, err := security.ResolveWithin(s.opts.DataRoot, f)
			if err != nil {
				s.fail(c, fmt.Errorf("%w: participant %d file %d: %v", errBadRequest, i+1, j+1, err))
				return
			}
			exp.Participants[i].Files[j] = resolved
		}
	}

	archive, err := s.assembler.ExportExperiment(c.Request.Context(), &exp)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.deliver(c, archive)
}

// deliver streams the archive or publishes it, then removes the temp file.
func (s *Server) deliver(c *gin.Context, archive *export.Archive) {
	defer func() {
		if err := archive.Remove(); err != nil {
			s.logger.Warn("failed to remove archive", zap.String("path", archive.Path), zap.Error(err))
		}
	}()

	var converted, skipped int
	if archive.Report != nil {
		converted, skipped = archive.Report.Converted, archive.Report.Skipped
	}

	if publish, _ := strconv.ParseBool(c.Query("publish")); publish {
		if s.publisher == nil {
			s.fail(c, fmt.Errorf("%w: publishing is not configured", errBadRequest))
			return
		}
		object, err := s.publisher.Publish(c.Request.Context(), archive.Name, archive.Path)
		if err != nil {
			s.fail(c, fmt.Errorf("publish archive: %w", err))
			return
		}
		s.logger.Info("archive published", zap.String("object", object), zap.String("size", humanize.Bytes(uint64(archive.Size))))
		c.JSON(http.StatusOK, PublishResponse{Object: object, Size: archive.Size, Converted: converted, Skipped: skipped})
		return
	}

	s.logger.Info("sending archive", zap.String("name", archive.Name), zap.String("size", humanize.Bytes(uint64(archive.Size))))
	c.Header(SkippedHeader, strconv.Itoa(skipped))
	c.FileAttachment(archive.Path, archive.Name)
}

func (s *Server) tooLarge(c *gin.Context) {
	c.String(http.StatusRequestEntityTooLarge, "upload exceeds %s", humanize.IBytes(uint64(s.opts.MaxUploadBytes)))
}

// fail answers err as plain text with the status matching its kind.
func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("export failed", zap.Error(err))
	}
	c.String(status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, export.ErrNoParticipants), errors.Is(err, export.ErrSourceNotFound):
		return http.StatusNotFound
	case errors.Is(err, export.ErrConversionFailed):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
