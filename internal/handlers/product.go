package handlers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/psmarket/product_api/internal/es"
	"github.com/psmarket/product_api/internal/logging"
	"github.com/psmarket/product_api/internal/models"
	"github.com/psmarket/product_api/internal/mykafka"
	"github.com/psmarket/product_api/internal/repo"
)

// ProductStore is the product collection surface the handlers use.
type ProductStore interface {
	Create(ctx context.Context, prod *models.Product) (*models.Product, error)
	GetAll(ctx context.Context) ([]models.Product, error)
	CountAbovePrice(ctx context.Context, threshold float64) ([]bson.M, error)
	AveragePrice(ctx context.Context) (bson.M, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	Patch(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.Product, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type ProductHandler struct {
	Store    ProductStore
	Producer *mykafka.Producer
	ES       *elasticsearch.Client
	Index    string
}

// patchable is the set of fields a partial update may touch; anything else
// in the body is ignored, it is not part of the schema.
var patchable = []string{"name", "price", "description", "imageUrl"}

func (h *ProductHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "product_events", fmt.Sprint(event["productID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func (h *ProductHandler) indexProduct(c echo.Context, prod *models.Product) {
	if h.ES == nil || prod == nil {
		return
	}
	if err := es.IndexProduct(c.Request().Context(), h.ES, h.Index, prod); err != nil {
		c.Logger().Errorf("ES index error: %v", err)
	}
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create_product")

	var req struct {
		Name        string   `json:"name"`
		Price       *float64 `json:"price"`
		Description string   `json:"description"`
		ImageURL    string   `json:"imageUrl"`
	}

	if err := c.Bind(&req); err != nil {
		l.Warn("product_create_error", "status", 400, "reason", "invalid body", "error", err)
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	prod := models.Product{
		Name:        req.Name,
		Price:       req.Price,
		Description: req.Description,
		ImageURL:    req.ImageURL,
	}

	created, err := h.Store.Create(ctx, &prod)
	if err != nil {
		l.Error("product_create_error", "status", 500, "reason", "cannot add product to db", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}

	h.publish(c, map[string]any{
		"type":      "product_created",
		"productID": created.ID.Hex(),
		"name":      created.Name,
	})
	h.indexProduct(c, created)

	l.Info("create_product_success")
	return c.JSON(http.StatusCreated, created)
}

func (h *ProductHandler) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_products")

	items, err := h.Store.GetAll(ctx)
	if err != nil {
		l.Error("get_products_error", "status", 500, "reason", "cannot get products", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, items)
}

// CountAbovePrice coerces the path parameter to a number the way the old
// Number() cast did: anything non-numeric becomes NaN, which matches no
// document, so the aggregate comes back empty. The raw aggregate result is
// sent as-is, [{"productCount": N}] or [].
func (h *ProductHandler) CountAbovePrice(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.count_above_price")

	price, err := strconv.ParseFloat(c.Param("price"), 64)
	if err != nil {
		price = math.NaN()
	}

	res, err := h.Store.CountAbovePrice(ctx, price)
	if err != nil {
		l.Error("count_products_error", "status", 500, "reason", "aggregate failed", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, res)
}

func (h *ProductHandler) AveragePrice(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.average_price")

	res, err := h.Store.AveragePrice(ctx)
	if err != nil {
		l.Error("average_price_error", "status", 500, "reason", "aggregate failed", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, res)
}

func (h *ProductHandler) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_product")

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		l.Warn("get_product_failed", "status", 400, "reason", "invalid id format", "error", err)
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid Product ID format"})
	}

	prod, err := h.Store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("get_product_failed", "status", 404, "reason", "product not found")
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Product not found"})
		}
		l.Error("get_product_failed", "status", 500, "reason", "cannot get product", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, prod)
}

// PatchProduct validates in the order callers rely on: id present, body
// non-empty, id well-formed, then the store. A missing document answers
// 200 with a null body, the contract this route has always had.
func (h *ProductHandler) PatchProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.patch_product")

	idParam := c.Param("id")
	if idParam == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Product ID is required"})
	}

	var body map[string]any
	if err := c.Bind(&body); err != nil {
		l.Warn("product_patch_error", "status", 400, "reason", "invalid body", "error", err)
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if len(body) == 0 {
		l.Warn("product_patch_error", "status", 400, "reason", "empty body")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Product details can't be empty"})
	}

	id, err := primitive.ObjectIDFromHex(idParam)
	if err != nil {
		l.Warn("product_patch_error", "status", 400, "reason", "invalid id format", "error", err)
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid Product ID format"})
	}

	fields := bson.M{}
	for _, k := range patchable {
		if v, ok := body[k]; ok {
			fields[k] = v
		}
	}
	if len(fields) == 0 {
		l.Warn("product_patch_error", "status", 400, "reason", "no updatable fields")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Product details can't be empty"})
	}

	prod, err := h.Store.Patch(ctx, id, fields)
	if err != nil {
		l.Error("product_patch_error", "status", 500, "reason", "cannot update product", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}

	if prod != nil {
		h.publish(c, map[string]any{
			"type":      "product_updated",
			"productID": prod.ID.Hex(),
			"name":      prod.Name,
		})
		h.indexProduct(c, prod)
	}

	l.Info("patch_product_success")
	return c.JSON(http.StatusOK, prod)
}

func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete_product")

	idParam := c.Param("id")
	if idParam == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Product ID is required"})
	}

	id, err := primitive.ObjectIDFromHex(idParam)
	if err != nil {
		l.Warn("product_delete_error", "status", 400, "reason", "invalid id format", "error", err)
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid Product ID format"})
	}

	if err := h.Store.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("product_delete_error", "status", 404, "reason", "product not found")
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Product not found"})
		}
		l.Error("product_delete_error", "status", 500, "reason", "cannot delete product", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}

	h.publish(c, map[string]any{
		"type":      "product_deleted",
		"productID": id.Hex(),
	})
	if h.ES != nil {
		if err := es.DeleteProduct(c.Request().Context(), h.ES, h.Index, id.Hex()); err != nil {
			c.Logger().Errorf("ES delete error: %v", err)
		}
	}

	l.Info("delete_product_success")
	return c.JSON(http.StatusOK, echo.Map{"message": "Product deleted successfully"})
}
