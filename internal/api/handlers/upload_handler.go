package handlers

import (
	"cost-sage/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type UploadHandler struct {
	uploadService UploadService
	logger        *zap.Logger
}

func NewUploadHandler(uploadService UploadService, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{
		uploadService: uploadService,
		logger:        logger,
	}
}

// Upload godoc
// @Summary Upload a file
// @Description Stores the file and returns the URL it is served at
// @Tags uploads
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "File"
// @Security Bearer
// @Success 200 {object} dto.UploadResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 413 {object} dto.ErrorResponse
// @Router /api/upload [post]
func (h *UploadHandler) Upload(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "No file uploaded")
	}

	src, err := file.Open()
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Failed to open file")
	}
	defer src.Close()

	resp, err := h.uploadService.Save(c.UserContext(), middleware.IdentityFrom(c), src, file.Filename, file.Header.Get(fiber.HeaderContentType))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(resp)
}
