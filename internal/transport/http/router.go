package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/psmarket/product_api/internal/handlers"
	"github.com/psmarket/product_api/internal/middleware/auth"
)

type Deps struct {
	ProductHandler *handlers.ProductHandler
	AuthHandler    *handlers.AuthHandler
	SearchHandler  *handlers.SearchHandler
	Auth           *auth.Middleware
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/", func(c echo.Context) error { return c.String(http.StatusOK, "Hello World") })

	products := e.Group("/products")

	products.POST("", d.ProductHandler.CreateProduct, d.Auth.RequireAuth)
	products.GET("", d.ProductHandler.GetProducts)
	products.GET("/search", d.SearchHandler.Handler)
	products.GET("/count/:price", d.ProductHandler.CountAbovePrice)
	products.GET("/average-price", d.ProductHandler.AveragePrice)
	products.GET("/:id", d.ProductHandler.GetProduct)
	products.PATCH("/:id", d.ProductHandler.PatchProduct)
	products.DELETE("/:id", d.ProductHandler.DeleteProduct)

	e.POST("/user", d.AuthHandler.Register)
	e.POST("/login", d.AuthHandler.Login)
}
