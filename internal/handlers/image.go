package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"regexp"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/WanDrewBerry/mall-map-backend/internal/logging"
	authmw "github.com/WanDrewBerry/mall-map-backend/internal/middleware/auth"
	"github.com/WanDrewBerry/mall-map-backend/internal/models"
)

// UploadImage stores the file under a generated name and records the
// uploader so deletion can be owner-gated.
func (h *MallHandler) UploadImage(c echo.Context) error {
	mallID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	identity := authmw.IdentityFrom(c)

	if err := h.DB.First(&models.Mall{}, mallID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Mall not found.")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "No file uploaded.")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "No file uploaded.")
	}
	defer src.Close()

	name := uuid.NewString() + filepath.Ext(fileHeader.Filename)
	if err := h.Files.Save(name, src); err != nil {
		logging.FromContext(c.Request().Context()).Error("image save failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Image upload failed.")
	}

	image := models.MallImage{
		MallID:   mallID,
		UserID:   identity.ID,
		FileName: name,
		URL:      fmt.Sprintf("/uploads/%s", name),
	}
	if err := h.DB.Create(&image).Error; err != nil {
		if rmErr := h.Files.Remove(name); rmErr != nil {
			logging.FromContext(c.Request().Context()).Error("orphan file cleanup failed", "error", rmErr)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.publish(c, "mall_events", map[string]any{
		"type":    "image_uploaded",
		"mall_id": mallID,
		"user_id": identity.ID,
	})
	return c.JSON(http.StatusOK, echo.Map{
		"message":  "Image uploaded successfully!",
		"imageUrl": image.URL,
		"image":    image,
	})
}

var imageURLPattern = regexp.MustCompile(`^(https?://\S+|/uploads/\S+)\.(?i:jpeg|jpg|png|gif)$`)

type imageRequest struct {
	URL string `json:"url"`
}

// UpdateImage lets the uploader repoint an image at a new URL; admins may
// edit any. The stored file stays in place, only the record changes.
func (h *MallHandler) UpdateImage(c echo.Context) error {
	imageID, err := pathID(c, "imageID")
	if err != nil {
		return err
	}
	identity := authmw.IdentityFrom(c)

	var image models.MallImage
	if err := h.DB.First(&image, imageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Image not found.")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	if err := authmw.RequireOwnerOrAdmin(identity, image.UserID); err != nil {
		return echo.NewHTTPError(http.StatusForbidden, authmw.UniformForbiddenMessage)
	}

	var req imageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if !imageURLPattern.MatchString(req.URL) {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid image URL format.")
	}

	image.URL = req.URL
	if err := h.DB.Save(&image).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Image updated successfully!",
		"image":   image,
	})
}

// DeleteImage allows the uploader or an admin to remove an image.
func (h *MallHandler) DeleteImage(c echo.Context) error {
	imageID, err := pathID(c, "imageID")
	if err != nil {
		return err
	}
	identity := authmw.IdentityFrom(c)

	var image models.MallImage
	if err := h.DB.First(&image, imageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Image not found.")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	if err := authmw.RequireOwnerOrAdmin(identity, image.UserID); err != nil {
		return echo.NewHTTPError(http.StatusForbidden, authmw.UniformForbiddenMessage)
	}

	if err := h.DB.Delete(&image).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if err := h.Files.Remove(image.FileName); err != nil {
		logging.FromContext(c.Request().Context()).Error("image file remove failed", "error", err)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Image deleted."})
}
