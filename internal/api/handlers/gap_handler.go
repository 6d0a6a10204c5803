package handlers

import (
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/toolboxbuxoro-web/toolbox-analyzer/internal/service"
)

// GapHandler accepts spreadsheet uploads for the warehouse-vs-store gap
// analysis.
type GapHandler struct {
	gaps      *service.GapService
	uploadDir string
}

func NewGapHandler(gaps *service.GapService, uploadDir string) *GapHandler {
	return &GapHandler{gaps: gaps, uploadDir: uploadDir}
}

type stagedFile struct {
	name   string
	path   string
	reader *os.File
}

func (f *stagedFile) cleanup() {
	if f.reader != nil {
		f.reader.Close()
	}
	if err := os.Remove(f.path); err != nil {
		log.Warn().Err(err).Str("path", f.path).Msg("failed to remove staged upload")
	}
}

// Analyze reads the "warehouse" and "store" multipart file fields. Files
// are staged in the upload dir for the duration of the request and always
// removed afterwards.
func (h *GapHandler) Analyze(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid form data"})
		return
	}

	warehouseUploads := form.File["warehouse"]
	storeUploads := form.File["store"]
	if len(warehouseUploads) == 0 || len(storeUploads) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "warehouse and store files are required"})
		return
	}

	var staged []*stagedFile
	defer func() {
		for _, f := range staged {
			f.cleanup()
		}
	}()

	warehouse, err := h.stage(c, warehouseUploads, &staged)
	if err == nil {
		var store []service.SheetInput
		store, err = h.stage(c, storeUploads, &staged)
		if err == nil {
			gaps, aerr := h.gaps.Analyze(warehouse, store)
			if aerr != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": aerr.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"gaps": gaps, "storesWithGaps": len(gaps)})
			return
		}
	}

	log.Error().Err(err).Msg("failed to stage uploaded files")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save uploaded files"})
}

// stage saves uploads under unique names and reopens them for parsing.
// Every staged file is appended to the shared cleanup list, including ones
// staged before a later failure.
func (h *GapHandler) stage(c *gin.Context, files []*multipart.FileHeader, staged *[]*stagedFile) ([]service.SheetInput, error) {
	inputs := make([]service.SheetInput, 0, len(files))
	for _, file := range files {
		path := filepath.Join(h.uploadDir, uuid.NewString()+"-"+filepath.Base(file.Filename))
		if err := c.SaveUploadedFile(file, path); err != nil {
			return nil, err
		}
		sf := &stagedFile{name: file.Filename, path: path}
		*staged = append(*staged, sf)

		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		sf.reader = f
		inputs = append(inputs, service.SheetInput{Name: file.Filename, Reader: f})
	}
	return inputs, nil
}
