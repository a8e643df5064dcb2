package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ecofinds/marketplace/internal/core/domain"
	"github.com/ecofinds/marketplace/internal/core/ports"
)

// MaxImageBytes bounds a single upload before normalisation.
const MaxImageBytes = 8 << 20

type imageUploadResponse struct {
	ImageRef string `json:"image_ref"`
	ImageURL string `json:"image_url"`
}

// ImageHandler accepts listing pictures and hands them to the image store.
type ImageHandler struct {
	images ports.ImageStore
	idp    ports.IdentityProvider
}

func NewImageHandler(images ports.ImageStore, idp ports.IdentityProvider) *ImageHandler {
	return &ImageHandler{images: images, idp: idp}
}

// Upload handles POST /images.
//
// @Summary      Upload a listing image
// @Description  JPEG or PNG; stored downscaled to at most 800px wide. Use image_ref when creating a listing.
// @Tags         listings
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file  formData  file  true  "Image file"
// @Success      201   {object}  imageUploadResponse
// @Failure      400   {object}  errorResponse
// @Failure      413   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /images [post]
func (h *ImageHandler) Upload(c echo.Context) error {
	if _, err := currentUser(c, h.idp); err != nil {
		return err
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return &domain.ValidationError{Field: "file", Reason: "multipart field file is required"}
	}
	if fh.Size > MaxImageBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, fmt.Sprintf("image exceeds %d bytes", MaxImageBytes))
	}

	f, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxImageBytes+1))
	if err != nil {
		return fmt.Errorf("read upload: %w", err)
	}
	if len(data) > MaxImageBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, fmt.Sprintf("image exceeds %d bytes", MaxImageBytes))
	}

	ref, err := h.images.Upload(c.Request().Context(), fh.Filename, data)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, imageUploadResponse{ImageRef: ref, ImageURL: h.images.Resolve(ref)})
}
