package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	authmw "github.com/WanDrewBerry/mall-map-backend/internal/middleware/auth"
	"github.com/WanDrewBerry/mall-map-backend/internal/models"
)

type reviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (h *MallHandler) CreateReview(c echo.Context) error {
	mallID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	identity := authmw.IdentityFrom(c)

	var req reviewRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if err := h.DB.First(&models.Mall{}, mallID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Mall not found.")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	review := models.Review{
		MallID:  mallID,
		UserID:  identity.ID,
		Rating:  req.Rating,
		Comment: req.Comment,
	}
	if err := h.DB.Create(&review).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.publish(c, "mall_events", map[string]any{
		"type":    "review_created",
		"mall_id": mallID,
		"user_id": identity.ID,
	})
	return c.JSON(http.StatusCreated, review)
}

// UpdateReview lets the author edit their own review; admins may edit any.
func (h *MallHandler) UpdateReview(c echo.Context) error {
	reviewID, err := pathID(c, "reviewID")
	if err != nil {
		return err
	}
	identity := authmw.IdentityFrom(c)

	var review models.Review
	if err := h.DB.First(&review, reviewID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Review not found.")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	if err := authmw.RequireOwnerOrAdmin(identity, review.UserID); err != nil {
		return echo.NewHTTPError(http.StatusForbidden, authmw.UniformForbiddenMessage)
	}

	// pointer fields distinguish "leave unchanged" from an explicit empty
	// value, so an author can blank their own comment
	var req struct {
		Rating  *int    `json:"rating"`
		Comment *string `json:"comment"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Rating != nil {
		review.Rating = *req.Rating
	}
	if req.Comment != nil {
		review.Comment = *req.Comment
	}
	if err := h.DB.Save(&review).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, review)
}

// DeleteReview is admin-only; authors cannot delete, only edit.
func (h *MallHandler) DeleteReview(c echo.Context) error {
	reviewID, err := pathID(c, "reviewID")
	if err != nil {
		return err
	}

	res := h.DB.Delete(&models.Review{}, reviewID)
	if res.Error != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if res.RowsAffected == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "Review not found.")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Review deleted."})
}

func (h *MallHandler) AddFavorite(c echo.Context) error {
	mallID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	identity := authmw.IdentityFrom(c)

	fav := models.Favorite{UserID: identity.ID, MallID: mallID}
	// unique index makes repeated favoriting a no-op
	res := h.DB.Where(&fav).FirstOrCreate(&fav)
	if res.Error != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Added to favorites."})
}

func (h *MallHandler) RemoveFavorite(c echo.Context) error {
	mallID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	identity := authmw.IdentityFrom(c)

	if err := h.DB.Where("user_id = ? AND mall_id = ?", identity.ID, mallID).
		Delete(&models.Favorite{}).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Removed from favorites."})
}
