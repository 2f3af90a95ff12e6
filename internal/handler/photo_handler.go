package handler

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/attendance-api/pkg/errors"
	"github.com/noah-isme/attendance-api/pkg/response"
)

type photoOpener interface {
	Open(token string) (*os.File, error)
}

// PhotoHandler serves stored photos behind signed tokens.
type PhotoHandler struct {
	photos photoOpener
}

// NewPhotoHandler constructs PhotoHandler.
func NewPhotoHandler(photos photoOpener) *PhotoHandler {
	return &PhotoHandler{photos: photos}
}

// Serve godoc
// @Summary Download student photo
// @Tags Students
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /photos/{token} [get]
func (h *PhotoHandler) Serve(c *gin.Context) {
	file, err := h.photos.Open(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read photo"))
		return
	}
	c.Header("Cache-Control", "private, max-age=300")
	http.ServeContent(c.Writer, c.Request, info.Name(), info.ModTime(), file)
}
