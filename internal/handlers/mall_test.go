package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	authmw "github.com/WanDrewBerry/mall-map-backend/internal/middleware/auth"
	"github.com/WanDrewBerry/mall-map-backend/internal/models"
	"github.com/WanDrewBerry/mall-map-backend/internal/mykafka"
	"github.com/WanDrewBerry/mall-map-backend/internal/storage"
)

func newMallEnv(t *testing.T) (*echo.Echo, *MallHandler) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Mall{}, &models.Store{},
		&models.Review{}, &models.MallImage{}, &models.Favorite{},
	))

	files, err := storage.NewDisk(t.TempDir())
	require.NoError(t, err)

	return echo.New(), &MallHandler{
		DB:       db,
		Producer: &mykafka.Producer{},
		Files:    files,
	}
}

func seedMall(t *testing.T, db *gorm.DB, name string) *models.Mall {
	t.Helper()
	mall := &models.Mall{Name: name, Address: "1 Main St", Latitude: 40.7128, Longitude: -74.0060, CreatedBy: 1}
	require.NoError(t, db.Create(mall).Error)
	return mall
}

func jsonCtx(e *echo.Echo, method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

var adminIdentity = &authmw.Identity{ID: 1, Username: "root", Role: models.RoleAdmin}

func TestCreateAndGetMall(t *testing.T) {
	e, h := newMallEnv(t)

	c, rec := jsonCtx(e, http.MethodPost, "/api/malls",
		`{"name":"Westfield","address":"1 Main St","description":"big","lat":40.7128,"lng":-74.0060,"phone":"+1 212 555 0100","open_time":"10:00","close_time":"21:00"}`)
	authmw.SetIdentity(c, adminIdentity)
	require.NoError(t, h.CreateMall(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.Mall
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Westfield", created.Name)
	assert.Equal(t, uint(1), created.CreatedBy)
	assert.InDelta(t, 40.7128, created.Latitude, 1e-9)
	assert.InDelta(t, -74.0060, created.Longitude, 1e-9)
	assert.Equal(t, "+1 212 555 0100", created.Phone)
	assert.Equal(t, "10:00", created.OpenTime)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(created.ID))
	require.NoError(t, h.GetMall(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Westfield")

	// missing mall
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("9999")
	err := h.GetMall(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.Code)
}

func TestCreateMallRequiresCoordinates(t *testing.T) {
	e, h := newMallEnv(t)

	var httpErr *echo.HTTPError
	for _, payload := range []string{
		`{"name":"NoCoords","address":"1 Main St"}`,
		`{"name":"NoLng","address":"1 Main St","lat":40.7}`,
		`{"name":"OutOfRange","address":"1 Main St","lat":91.0,"lng":0.0}`,
		`{"name":"OutOfRange","address":"1 Main St","lat":0.0,"lng":-181.0}`,
	} {
		c, _ := jsonCtx(e, http.MethodPost, "/api/malls", payload)
		authmw.SetIdentity(c, adminIdentity)
		err := h.CreateMall(c)
		require.ErrorAs(t, err, &httpErr, "payload %s", payload)
		assert.Equal(t, http.StatusBadRequest, httpErr.Code, "payload %s", payload)
	}
}

func TestListMallsPagination(t *testing.T) {
	e, h := newMallEnv(t)
	for i := 0; i < 15; i++ {
		seedMall(t, h.DB, fmt.Sprintf("Mall %02d", i))
	}

	req := httptest.NewRequest(http.MethodGet, "/api/malls?page=2&size=10", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h.ListMalls(e.NewContext(req, rec)))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Total int64         `json:"total"`
		Malls []models.Mall `json:"malls"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(15), body.Total)
	assert.Len(t, body.Malls, 5)
}

func TestUpdateAndDeleteMall(t *testing.T) {
	e, h := newMallEnv(t)
	mall := seedMall(t, h.DB, "Old Name")

	c, rec := jsonCtx(e, http.MethodPut, "/", `{"name":"New Name","lat":51.5074,"lng":-0.1278}`)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(mall.ID))
	require.NoError(t, h.UpdateMall(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "New Name")
	assert.Contains(t, rec.Body.String(), "1 Main St") // untouched field survives

	var updated models.Mall
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.InDelta(t, 51.5074, updated.Latitude, 1e-9)
	assert.InDelta(t, -0.1278, updated.Longitude, 1e-9)

	// one coordinate alone cannot move the pin
	c, _ = jsonCtx(e, http.MethodPut, "/", `{"lat":10.0}`)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(mall.ID))
	err := h.UpdateMall(c)
	var badCoord *echo.HTTPError
	require.ErrorAs(t, err, &badCoord)
	assert.Equal(t, http.StatusBadRequest, badCoord.Code)

	c, rec = jsonCtx(e, http.MethodDelete, "/", "")
	authmw.SetIdentity(c, adminIdentity)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(mall.ID))
	require.NoError(t, h.DeleteMall(c))
	require.Equal(t, http.StatusOK, rec.Code)

	// second delete says not found
	c, _ = jsonCtx(e, http.MethodDelete, "/", "")
	authmw.SetIdentity(c, adminIdentity)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(mall.ID))
	err = h.DeleteMall(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.Code)
}

func TestStores(t *testing.T) {
	e, h := newMallEnv(t)
	mall := seedMall(t, h.DB, "Central")

	c, rec := jsonCtx(e, http.MethodPost, "/", `{"name":"Bookshop","category":"retail","floor":2}`)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(mall.ID))
	require.NoError(t, h.CreateStore(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var store models.Store
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &store))
	assert.Equal(t, mall.ID, store.MallID)

	// unknown mall rejects store creation
	c, _ = jsonCtx(e, http.MethodPost, "/", `{"name":"Ghost"}`)
	c.SetParamNames("id")
	c.SetParamValues("9999")
	err := h.CreateStore(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(mall.ID))
	require.NoError(t, h.ListStores(c))
	assert.Contains(t, rec.Body.String(), "Bookshop")

	c, rec = jsonCtx(e, http.MethodDelete, "/", "")
	c.SetParamNames("storeID")
	c.SetParamValues(fmt.Sprint(store.ID))
	require.NoError(t, h.DeleteStore(c))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestReviewOwnership(t *testing.T) {
	e, h := newMallEnv(t)
	mall := seedMall(t, h.DB, "Plaza")

	author := &authmw.Identity{ID: 5, Username: "alice", Role: models.RoleUser}
	stranger := &authmw.Identity{ID: 6, Username: "mallory", Role: models.RoleUser}

	c, rec := jsonCtx(e, http.MethodPost, "/", `{"rating":4,"comment":"nice"}`)
	authmw.SetIdentity(c, author)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(mall.ID))
	require.NoError(t, h.CreateReview(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var review models.Review
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &review))
	require.Equal(t, uint(5), review.UserID)

	edit := func(identity *authmw.Identity) (*httptest.ResponseRecorder, error) {
		c, rec := jsonCtx(e, http.MethodPut, "/", `{"rating":2}`)
		authmw.SetIdentity(c, identity)
		c.SetParamNames("reviewID")
		c.SetParamValues(fmt.Sprint(review.ID))
		return rec, h.UpdateReview(c)
	}

	// author can edit
	rec2, err := edit(author)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec2.Code)

	// another non-admin cannot
	_, err = edit(stranger)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusForbidden, httpErr.Code)
	assert.Equal(t, authmw.UniformForbiddenMessage, httpErr.Message)

	// an admin can
	rec2, err = edit(adminIdentity)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec2.Code)

	// an explicit empty comment blanks it; an absent rating stays put
	c, rec = jsonCtx(e, http.MethodPut, "/", `{"comment":""}`)
	authmw.SetIdentity(c, author)
	c.SetParamNames("reviewID")
	c.SetParamValues(fmt.Sprint(review.ID))
	require.NoError(t, h.UpdateReview(c))
	var blanked models.Review
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &blanked))
	assert.Equal(t, "", blanked.Comment)
	assert.Equal(t, 2, blanked.Rating)

	// deletion is a separate admin-gated handler
	c, rec = jsonCtx(e, http.MethodDelete, "/", "")
	c.SetParamNames("reviewID")
	c.SetParamValues(fmt.Sprint(review.ID))
	require.NoError(t, h.DeleteReview(c))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestReviewUnknownMall(t *testing.T) {
	e, h := newMallEnv(t)

	c, _ := jsonCtx(e, http.MethodPost, "/", `{"rating":5}`)
	authmw.SetIdentity(c, adminIdentity)
	c.SetParamNames("id")
	c.SetParamValues("404")
	err := h.CreateReview(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.Code)
}

func TestFavoritesIdempotent(t *testing.T) {
	e, h := newMallEnv(t)
	mall := seedMall(t, h.DB, "Galleria")
	user := &authmw.Identity{ID: 3, Username: "bob", Role: models.RoleUser}

	add := func() *httptest.ResponseRecorder {
		c, rec := jsonCtx(e, http.MethodPost, "/", "")
		authmw.SetIdentity(c, user)
		c.SetParamNames("id")
		c.SetParamValues(fmt.Sprint(mall.ID))
		require.NoError(t, h.AddFavorite(c))
		return rec
	}

	require.Equal(t, http.StatusOK, add().Code)
	require.Equal(t, http.StatusOK, add().Code)

	var count int64
	require.NoError(t, h.DB.Model(&models.Favorite{}).
		Where("user_id = ? AND mall_id = ?", user.ID, mall.ID).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)

	c, rec := jsonCtx(e, http.MethodDelete, "/", "")
	authmw.SetIdentity(c, user)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(mall.ID))
	require.NoError(t, h.RemoveFavorite(c))
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, h.DB.Model(&models.Favorite{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}
