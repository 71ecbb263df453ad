package devserver

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Register mounts all devserver routes on e.
func Register(e *echo.Echo, s *Server) {
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	api := e.Group("/api")

	api.GET("/resources", s.ListResources)
	api.GET("/resources/suggest", s.Suggest)

	api.GET("/cart", s.GetCart)
	api.POST("/cart/items", s.AddCartItem)
	api.PATCH("/cart/items/:id", s.UpdateCartItem)
	api.DELETE("/cart/items/:id", s.RemoveCartItem)
	api.DELETE("/cart", s.ClearCart)

	api.POST("/auth/login", s.Login)
}
