package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/WanDrewBerry/mall-map-backend/internal/handlers"
	authmw "github.com/WanDrewBerry/mall-map-backend/internal/middleware/auth"
	"github.com/WanDrewBerry/mall-map-backend/internal/middleware/csrf"
	"github.com/WanDrewBerry/mall-map-backend/internal/models"
)

type Deps struct {
	AuthHandler   *handlers.AuthHandler
	MallHandler   *handlers.MallHandler
	SearchHandler *handlers.SearchHandler

	Verifier   *authmw.Verifier
	CSRFSecret []byte
	Secure     bool
	UploadDir  string
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	e.Static("/uploads", d.UploadDir)

	api := e.Group("/api")

	// the refresh exchange authenticates via cookie, so it alone gets CSRF;
	// the status probe issues the token for it
	csrfMw := csrf.Middleware(csrf.Config{Secret: d.CSRFSecret, Secure: d.Secure})

	authGroup := api.Group("/auth")
	authGroup.POST("/register", d.AuthHandler.Register)
	authGroup.POST("/login", d.AuthHandler.Login)
	authGroup.POST("/logout", d.AuthHandler.Logout)
	authGroup.GET("/status", d.AuthHandler.Status, csrfMw)
	authGroup.POST("/refresh", d.AuthHandler.Refresh, csrfMw)

	api.GET("/profile", d.AuthHandler.Profile, d.Verifier.RequireAuth)

	malls := api.Group("/malls")
	malls.GET("", d.MallHandler.ListMalls)
	if d.SearchHandler != nil {
		malls.GET("/search", d.SearchHandler.SearchMalls)
	}
	malls.GET("/:id", d.MallHandler.GetMall)
	malls.GET("/:id/stores", d.MallHandler.ListStores)

	authed := malls.Group("", d.Verifier.RequireAuth)
	authed.POST("/:id/reviews", d.MallHandler.CreateReview)
	authed.PATCH("/:id/reviews/:reviewID", d.MallHandler.UpdateReview)
	authed.POST("/:id/images", d.MallHandler.UploadImage)
	authed.PATCH("/:id/images/:imageID", d.MallHandler.UpdateImage)
	authed.DELETE("/:id/images/:imageID", d.MallHandler.DeleteImage)
	authed.POST("/:id/favorite", d.MallHandler.AddFavorite)
	authed.DELETE("/:id/favorite", d.MallHandler.RemoveFavorite)

	admin := malls.Group("", d.Verifier.RequireAuth, authmw.RequireRoles(models.RoleAdmin))
	admin.POST("", d.MallHandler.CreateMall)
	admin.PATCH("/:id", d.MallHandler.UpdateMall)
	admin.DELETE("/:id", d.MallHandler.DeleteMall)
	admin.POST("/:id/stores", d.MallHandler.CreateStore)
	admin.DELETE("/:id/stores/:storeID", d.MallHandler.DeleteStore)
	admin.DELETE("/:id/reviews/:reviewID", d.MallHandler.DeleteReview)
}
