package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/foodcartapp/backend/internal/models"
)

func InitTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := models.Migrate(db); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}

	return db
}

func doJSONRequest(t *testing.T, e *echo.Echo, method, path string, body interface{}) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return rec, c
}

func boolPtr(b bool) *bool {
	return &b
}

func validOrderPayload() map[string]any {
	return map[string]any{
		"address":     "Elm St 5",
		"firstname":   "Ann",
		"lastname":    "Lee",
		"phonenumber": "+15551234567",
		"products": []map[string]any{
			{"product": "Cheeseburger", "quantity": 2},
		},
	}
}

func TestCreateOrder(t *testing.T) {
	db := InitTestDB(t)
	h := OrderHandler{DB: db}

	db.Create(&models.Product{Name: "Cheeseburger", Price: 8.50})

	e := echo.New()
	rec, c := doJSONRequest(t, e, http.MethodPost, "/api/v1/order", validOrderPayload())
	require.NoError(t, h.CreateOrder(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp OrderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotZero(t, resp.ID)
	require.Equal(t, "Elm St 5", resp.Address)
	require.Equal(t, "Ann", resp.Firstname)
	require.Equal(t, "Lee", resp.Lastname)
	require.Equal(t, "+15551234567", resp.Phonenumber)
	require.Empty(t, resp.SkippedProducts)

	var orders []models.Order
	require.NoError(t, db.Find(&orders).Error)
	require.Len(t, orders, 1)
	require.Equal(t, models.OrderStatusUnprocessed, orders[0].Status)
	require.Equal(t, models.PaymentInCash, orders[0].PaymentMethod)
	require.False(t, orders[0].RegisteredAt.IsZero())

	var elements []models.OrderElement
	require.NoError(t, db.Find(&elements).Error)
	require.Len(t, elements, 1)
	require.Equal(t, orders[0].ID, elements[0].OrderID)
	require.Equal(t, 2, elements[0].Quantity)
	require.InDelta(t, 17.00, elements[0].Price, 0.001)
}

func TestCreateOrderEmptyProducts(t *testing.T) {
	db := InitTestDB(t)
	h := OrderHandler{DB: db}

	payload := validOrderPayload()
	payload["products"] = []map[string]any{}

	e := echo.New()
	rec, c := doJSONRequest(t, e, http.MethodPost, "/api/v1/order", payload)
	require.NoError(t, h.CreateOrder(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Errors map[string][]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Contains(t, resp.Errors, "products")

	var count int64
	require.NoError(t, db.Model(&models.Order{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestCreateOrderMissingFieldsEnumerated(t *testing.T) {
	db := InitTestDB(t)
	h := OrderHandler{DB: db}

	payload := map[string]any{
		"phonenumber": "not a phone",
		"products": []map[string]any{
			{"product": "Cheeseburger", "quantity": 0},
		},
	}

	e := echo.New()
	rec, c := doJSONRequest(t, e, http.MethodPost, "/api/v1/order", payload)
	require.NoError(t, h.CreateOrder(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Errors map[string][]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Contains(t, resp.Errors, "address")
	require.Contains(t, resp.Errors, "firstname")
	require.Contains(t, resp.Errors, "lastname")
	require.Contains(t, resp.Errors, "phonenumber")
	require.Contains(t, resp.Errors, "products")
}

func TestCreateOrderUnknownProductReported(t *testing.T) {
	db := InitTestDB(t)
	h := OrderHandler{DB: db}

	db.Create(&models.Product{Name: "Cheeseburger", Price: 8.50})

	payload := validOrderPayload()
	payload["products"] = []map[string]any{
		{"product": "Cheeseburger", "quantity": 2},
		{"product": "Shawarma", "quantity": 1},
	}

	e := echo.New()
	rec, c := doJSONRequest(t, e, http.MethodPost, "/api/v1/order", payload)
	require.NoError(t, h.CreateOrder(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp OrderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, []string{"Shawarma"}, resp.SkippedProducts)

	var count int64
	require.NoError(t, db.Model(&models.OrderElement{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestCreateOrderAllProductsUnknown(t *testing.T) {
	db := InitTestDB(t)
	h := OrderHandler{DB: db}

	e := echo.New()
	rec, c := doJSONRequest(t, e, http.MethodPost, "/api/v1/order", validOrderPayload())
	require.NoError(t, h.CreateOrder(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var count int64
	require.NoError(t, db.Model(&models.Order{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestCreateOrderResubmissionReusesOrder(t *testing.T) {
	db := InitTestDB(t)
	h := OrderHandler{DB: db}

	db.Create(&models.Product{Name: "Cheeseburger", Price: 8.50})

	e := echo.New()
	rec1, c1 := doJSONRequest(t, e, http.MethodPost, "/api/v1/order", validOrderPayload())
	require.NoError(t, h.CreateOrder(c1))
	require.Equal(t, http.StatusCreated, rec1.Code)

	// Same customer tuple with a different quantity: the order row is
	// reused and the existing element keeps its first-write quantity/price.
	payload := validOrderPayload()
	payload["products"] = []map[string]any{
		{"product": "Cheeseburger", "quantity": 5},
	}
	rec2, c2 := doJSONRequest(t, e, http.MethodPost, "/api/v1/order", payload)
	require.NoError(t, h.CreateOrder(c2))
	require.Equal(t, http.StatusCreated, rec2.Code)

	var first, second OrderResponse
	require.NoError(t, json.Unmarshal(rec1.Body.Bytes(), &first))
	require.NoError(t, json.Unmarshal(rec2.Body.Bytes(), &second))
	require.Equal(t, first.ID, second.ID)

	var orders []models.Order
	require.NoError(t, db.Find(&orders).Error)
	require.Len(t, orders, 1)

	var elements []models.OrderElement
	require.NoError(t, db.Find(&elements).Error)
	require.Len(t, elements, 1)
	require.Equal(t, 2, elements[0].Quantity)
	require.InDelta(t, 17.00, elements[0].Price, 0.001)
}

func TestGetOrdersTotalPriceUsesCurrentProductPrice(t *testing.T) {
	db := InitTestDB(t)
	h := OrderHandler{DB: db}

	burger := models.Product{Name: "Burger", Price: 10.00}
	cola := models.Product{Name: "Cola", Price: 5.00}
	db.Create(&burger)
	db.Create(&cola)

	order := models.Order{
		Address:     "Elm St 5",
		Firstname:   "Ann",
		Lastname:    "Lee",
		Phonenumber: "+15551234567",
	}
	db.Create(&order)
	db.Create(&models.OrderElement{OrderID: order.ID, ProductID: burger.ID, Quantity: 2, Price: 20.00})
	db.Create(&models.OrderElement{OrderID: order.ID, ProductID: cola.ID, Quantity: 1, Price: 5.00})

	e := echo.New()
	rec, c := doJSONRequest(t, e, http.MethodGet, "/api/v1/orders", nil)
	require.NoError(t, h.GetOrders(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var rows []OrderSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	require.InDelta(t, 25.00, rows[0].TotalPrice, 0.001)

	// A later price edit moves the aggregate but not the stored snapshot.
	require.NoError(t, db.Model(&burger).Update("price", 12.00).Error)

	rec2, c2 := doJSONRequest(t, e, http.MethodGet, "/api/v1/orders", nil)
	require.NoError(t, h.GetOrders(c2))

	var rows2 []OrderSummary
	require.NoError(t, json.Unmarshal(rec2.Body.Bytes(), &rows2))
	require.InDelta(t, 29.00, rows2[0].TotalPrice, 0.001)

	var element models.OrderElement
	require.NoError(t, db.Where("product_id = ?", burger.ID).First(&element).Error)
	require.InDelta(t, 20.00, element.Price, 0.001)
}

func TestGetOrderPreloadsElementsByQuantity(t *testing.T) {
	db := InitTestDB(t)
	h := OrderHandler{DB: db}

	burger := models.Product{Name: "Burger", Price: 10.00}
	cola := models.Product{Name: "Cola", Price: 5.00}
	db.Create(&burger)
	db.Create(&cola)

	order := models.Order{
		Address:     "Elm St 5",
		Firstname:   "Ann",
		Lastname:    "Lee",
		Phonenumber: "+15551234567",
	}
	db.Create(&order)
	db.Create(&models.OrderElement{OrderID: order.ID, ProductID: burger.ID, Quantity: 3, Price: 30.00})
	db.Create(&models.OrderElement{OrderID: order.ID, ProductID: cola.ID, Quantity: 1, Price: 5.00})

	e := echo.New()
	rec, c := doJSONRequest(t, e, http.MethodGet, "/api/v1/orders/1", nil)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.GetOrder(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Elements, 2)
	require.Equal(t, 1, resp.Elements[0].Quantity)
	require.Equal(t, 3, resp.Elements[1].Quantity)
}

func TestGetOrderNotFound(t *testing.T) {
	db := InitTestDB(t)
	h := OrderHandler{DB: db}

	e := echo.New()
	_, c := doJSONRequest(t, e, http.MethodGet, "/api/v1/orders/42", nil)
	c.SetParamNames("id")
	c.SetParamValues("42")

	err := h.GetOrder(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusNotFound, he.Code)
}
