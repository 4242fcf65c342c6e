package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/WanDrewBerry/mall-map-backend/internal/logging"
	authmw "github.com/WanDrewBerry/mall-map-backend/internal/middleware/auth"
	"github.com/WanDrewBerry/mall-map-backend/internal/models"
	"github.com/WanDrewBerry/mall-map-backend/internal/mykafka"
	"github.com/WanDrewBerry/mall-map-backend/internal/storage"
	"github.com/WanDrewBerry/mall-map-backend/internal/util"
)

type MallHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
	Files    *storage.Disk
}

func (h *MallHandler) publish(c echo.Context, topic string, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, topic, fmt.Sprint(event["mall_id"]), event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish error", "error", err)
	}
}

func pathID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return uint(id), nil
}

func (h *MallHandler) ListMalls(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	from, limit := util.Calculate(page, size)

	var total int64
	if err := h.DB.Model(&models.Mall{}).Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	var malls []models.Mall
	if err := h.DB.Order("id").Offset(from).Limit(limit).Find(&malls).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, echo.Map{"total": total, "malls": malls})
}

func (h *MallHandler) GetMall(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var mall models.Mall
	if err := h.DB.Preload("Stores").Preload("Reviews").Preload("Images").
		First(&mall, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Mall not found.")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, mall)
}

type mallRequest struct {
	Name        string   `json:"name"`
	Address     string   `json:"address"`
	Description string   `json:"description"`
	Latitude    *float64 `json:"lat"`
	Longitude   *float64 `json:"lng"`
	Phone       string   `json:"phone"`
	Website     string   `json:"website"`
	OpenTime    string   `json:"open_time"`
	CloseTime   string   `json:"close_time"`
}

func validCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

func (h *MallHandler) CreateMall(c echo.Context) error {
	identity := authmw.IdentityFrom(c)

	var req mallRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Name == "" || req.Address == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Name and address are required.")
	}
	if req.Latitude == nil || req.Longitude == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Coordinates are required.")
	}
	if !validCoordinates(*req.Latitude, *req.Longitude) {
		return echo.NewHTTPError(http.StatusBadRequest, "Coordinates are out of range.")
	}

	mall := models.Mall{
		Name:        req.Name,
		Address:     req.Address,
		Description: req.Description,
		Latitude:    *req.Latitude,
		Longitude:   *req.Longitude,
		Phone:       req.Phone,
		Website:     req.Website,
		OpenTime:    req.OpenTime,
		CloseTime:   req.CloseTime,
		CreatedBy:   identity.ID,
	}
	if err := h.DB.Create(&mall).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.publish(c, "mall_events", map[string]any{
		"type":    "mall_created",
		"mall_id": mall.ID,
		"user_id": identity.ID,
	})
	return c.JSON(http.StatusCreated, mall)
}

func (h *MallHandler) UpdateMall(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var mall models.Mall
	if err := h.DB.First(&mall, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Mall not found.")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	var req mallRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Name != "" {
		mall.Name = req.Name
	}
	if req.Address != "" {
		mall.Address = req.Address
	}
	if req.Description != "" {
		mall.Description = req.Description
	}
	if req.Latitude != nil || req.Longitude != nil {
		if req.Latitude == nil || req.Longitude == nil || !validCoordinates(*req.Latitude, *req.Longitude) {
			return echo.NewHTTPError(http.StatusBadRequest, "Coordinates are out of range.")
		}
		mall.Latitude = *req.Latitude
		mall.Longitude = *req.Longitude
	}
	if req.Phone != "" {
		mall.Phone = req.Phone
	}
	if req.Website != "" {
		mall.Website = req.Website
	}
	if req.OpenTime != "" {
		mall.OpenTime = req.OpenTime
	}
	if req.CloseTime != "" {
		mall.CloseTime = req.CloseTime
	}
	if err := h.DB.Save(&mall).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, mall)
}

// DeleteMall is admin-only with no owner exception; the route group
// enforces the role.
func (h *MallHandler) DeleteMall(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	identity := authmw.IdentityFrom(c)

	res := h.DB.Delete(&models.Mall{}, id)
	if res.Error != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if res.RowsAffected == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "Mall not found.")
	}

	h.publish(c, "mall_events", map[string]any{
		"type":    "mall_deleted",
		"mall_id": id,
		"user_id": identity.ID,
	})
	return c.JSON(http.StatusOK, echo.Map{"message": "Mall deleted."})
}

func (h *MallHandler) ListStores(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var stores []models.Store
	if err := h.DB.Where("mall_id = ?", id).Order("floor, name").Find(&stores).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, echo.Map{"stores": stores})
}

type storeRequest struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Floor    int    `json:"floor"`
}

func (h *MallHandler) CreateStore(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req storeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Store name is required.")
	}

	if err := h.DB.First(&models.Mall{}, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Mall not found.")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	store := models.Store{MallID: id, Name: req.Name, Category: req.Category, Floor: req.Floor}
	if err := h.DB.Create(&store).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusCreated, store)
}

func (h *MallHandler) DeleteStore(c echo.Context) error {
	storeID, err := pathID(c, "storeID")
	if err != nil {
		return err
	}
	res := h.DB.Delete(&models.Store{}, storeID)
	if res.Error != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if res.RowsAffected == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "Store not found.")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Store deleted."})
}
