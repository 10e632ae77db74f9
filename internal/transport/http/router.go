package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/foodcartapp/backend/internal/handlers"
)

type Deps struct {
	OrderHandler   *handlers.OrderHandler
	ProductHandler *handlers.ProductHandler
	SearchHandler  *handlers.SearchHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	v1 := e.Group("/api/v1")

	products := v1.Group("/products")
	products.GET("", d.ProductHandler.GetProducts)
	products.GET("/:id", d.ProductHandler.GetProduct)
	if d.SearchHandler != nil {
		products.GET("/search", d.SearchHandler.Search)
	}

	v1.GET("/restaurants", d.ProductHandler.GetRestaurants)

	v1.POST("/order", d.OrderHandler.CreateOrder)
	v1.GET("/orders", d.OrderHandler.GetOrders)
	v1.GET("/orders/:id", d.OrderHandler.GetOrder)
}
