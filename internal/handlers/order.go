package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/nyaruka/phonenumbers"
	"gorm.io/gorm"

	"github.com/foodcartapp/backend/internal/geo"
	"github.com/foodcartapp/backend/internal/models"
	"github.com/foodcartapp/backend/internal/mykafka"
	"github.com/foodcartapp/backend/pkg/logging"
)

type OrderHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
	Locator  *geo.Locator
}

type OrderLine struct {
	Product  string `json:"product"`
	Quantity int    `json:"quantity"`
}

type OrderRequest struct {
	Address     string      `json:"address"`
	Firstname   string      `json:"firstname"`
	Lastname    string      `json:"lastname"`
	Phonenumber string      `json:"phonenumber"`
	Comment     string      `json:"comment"`
	Products    []OrderLine `json:"products"`
}

type OrderResponse struct {
	ID              uint     `json:"id"`
	Address         string   `json:"address"`
	Firstname       string   `json:"firstname"`
	Lastname        string   `json:"lastname"`
	Phonenumber     string   `json:"phonenumber"`
	SkippedProducts []string `json:"skipped_products,omitempty"`
}

// validate collects every field problem instead of stopping at the first one.
// On success the returned phone is normalized to E.164.
func (req *OrderRequest) validate() (string, map[string][]string) {
	errs := map[string][]string{}
	require := func(field, value string) {
		if strings.TrimSpace(value) == "" {
			errs[field] = append(errs[field], "this field is required")
		}
	}
	require("address", req.Address)
	require("firstname", req.Firstname)
	require("lastname", req.Lastname)
	require("phonenumber", req.Phonenumber)

	phone := ""
	if strings.TrimSpace(req.Phonenumber) != "" {
		num, err := phonenumbers.Parse(req.Phonenumber, "")
		if err != nil || !phonenumbers.IsPossibleNumber(num) {
			errs["phonenumber"] = append(errs["phonenumber"], "enter a valid phone number")
		} else {
			phone = phonenumbers.Format(num, phonenumbers.E164)
		}
	}

	if len(req.Products) == 0 {
		errs["products"] = append(errs["products"], "this list may not be empty")
	}
	for _, line := range req.Products {
		if strings.TrimSpace(line.Product) == "" {
			errs["products"] = append(errs["products"], "product name is required")
		}
		if line.Quantity < 1 {
			errs["products"] = append(errs["products"], "quantity must be at least 1")
		}
	}
	return phone, errs
}

func (h *OrderHandler) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create_order")

	var req OrderRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_order_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	phone, fieldErrs := req.validate()
	if len(fieldErrs) > 0 {
		l.Warn("create_order_rejected", "status", 400, "errors", fmt.Sprint(fieldErrs))
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": fieldErrs})
	}

	names := make([]string, 0, len(req.Products))
	for _, line := range req.Products {
		names = append(names, line.Product)
	}
	var known []models.Product
	if err := h.DB.WithContext(ctx).Where("name IN ?", names).Find(&known).Error; err != nil {
		l.Error("create_order_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	byName := make(map[string]models.Product, len(known))
	for _, p := range known {
		byName[p.Name] = p
	}

	type resolvedLine struct {
		product  models.Product
		quantity int
	}
	var items []resolvedLine
	var skipped []string
	for _, line := range req.Products {
		p, ok := byName[line.Product]
		if !ok {
			skipped = append(skipped, line.Product)
			continue
		}
		items = append(items, resolvedLine{product: p, quantity: line.Quantity})
	}
	if len(items) == 0 {
		l.Warn("create_order_rejected", "status", 400, "reason", "no known products", "skipped", strings.Join(skipped, ","))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"errors": map[string][]string{"products": {"no known products in list"}},
		})
	}

	var order models.Order
	err := h.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = findOrCreateOrder(tx, req, phone)
		if err != nil {
			return err
		}
		for _, it := range items {
			element := models.OrderElement{OrderID: order.ID, ProductID: it.product.ID}
			if err := tx.Where(models.OrderElement{OrderID: order.ID, ProductID: it.product.ID}).
				Attrs(models.OrderElement{
					Quantity: it.quantity,
					Price:    it.product.Price * float64(it.quantity),
				}).
				FirstOrCreate(&element).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		l.Error("create_order_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	if h.Locator != nil {
		if _, err := h.Locator.Locate(ctx, req.Address); err != nil {
			l.Warn("geocode_failed", "address", req.Address, "error", err)
		}
	}

	h.publish(c, map[string]any{
		"type":    "order_created",
		"orderID": order.ID,
		"skipped": skipped,
	})

	l.Info("create_order_success", "order_id", order.ID)
	return c.JSON(http.StatusCreated, OrderResponse{
		ID:              order.ID,
		Address:         order.Address,
		Firstname:       order.Firstname,
		Lastname:        order.Lastname,
		Phonenumber:     order.Phonenumber,
		SkippedProducts: skipped,
	})
}

// findOrCreateOrder keys the order on the full customer tuple. A racing
// identical submission can beat the insert; the unique customer index turns
// that into a duplicate key, resolved by one more lookup.
func findOrCreateOrder(tx *gorm.DB, req OrderRequest, phone string) (models.Order, error) {
	key := models.Order{
		Address:     req.Address,
		Firstname:   req.Firstname,
		Lastname:    req.Lastname,
		Phonenumber: phone,
	}
	order := key
	err := tx.Where(key).
		Attrs(models.Order{
			Status:        models.OrderStatusUnprocessed,
			PaymentMethod: models.PaymentInCash,
			Comment:       req.Comment,
		}).
		FirstOrCreate(&order).Error
	if err == nil {
		return order, nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
		if lookupErr := tx.Where(key).First(&order).Error; lookupErr == nil {
			return order, nil
		}
	}
	return order, err
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint")
}

type OrderSummary struct {
	ID            uint      `json:"id"`
	Status        string    `json:"status"`
	Address       string    `json:"address"`
	Firstname     string    `json:"firstname"`
	Lastname      string    `json:"lastname"`
	Phonenumber   string    `json:"phonenumber"`
	PaymentMethod string    `json:"payment_method"`
	RegisteredAt  time.Time `json:"registered_at"`
	TotalPrice    float64   `json:"total_price"`
}

// GetOrders lists orders with total_price aggregated database-side over the
// current product price. The per-element snapshot can legitimately diverge
// from this total after a price edit.
func (h *OrderHandler) GetOrders(c echo.Context) error {
	ctx := c.Request().Context()

	var rows []OrderSummary
	err := h.DB.WithContext(ctx).Model(&models.Order{}).
		Select("orders.id, orders.status, orders.address, orders.firstname, orders.lastname, orders.phonenumber, orders.payment_method, orders.registered_at, COALESCE(SUM(order_elements.quantity * products.price), 0) AS total_price").
		Joins("LEFT JOIN order_elements ON order_elements.order_id = orders.id").
		Joins("LEFT JOIN products ON products.id = order_elements.product_id").
		Group("orders.id").
		Order("orders.registered_at DESC").
		Scan(&rows).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, rows)
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var order models.Order
	err = h.DB.WithContext(ctx).
		Preload("Elements", func(db *gorm.DB) *gorm.DB {
			return db.Order("quantity ASC")
		}).
		First(&order, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "order_events", fmt.Sprint(event["orderID"]), event); err != nil {
		logging.FromContext(c.Request().Context()).Warn("kafka publish failed", "error", err)
	}
}
