package rest

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"promoHunter/business/conversions"
	"promoHunter/business/curation"
	"promoHunter/domain"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	CurationHandler struct {
		validate        *validator.Validate
		curationService CurationService
		syncService     ConversionSyncService
		posts           PostReader
		offers          OfferReader
	}

	CurationService interface {
		Run(ctx context.Context) (curation.RunResult, error)
	}

	ConversionSyncService interface {
		Sync(ctx context.Context, purchaseDays, completeDays int) (conversions.SyncResult, error)
	}

	PostReader interface {
		Recent(ctx context.Context, limit int) ([]domain.Post, error)
	}

	OfferReader interface {
		FindByID(ctx context.Context, itemID int64) (domain.Offer, error)
	}

	SyncRequest struct {
		PurchaseDays int `json:"purchase_days" validate:"omitempty,min=1,max=30"`
		CompleteDays int `json:"complete_days" validate:"omitempty,min=1,max=90"`
	}

	RecentPostsQuery struct {
		Limit int `query:"limit" validate:"omitempty,min=1,max=100"`
	}

	ResponseError struct {
		Message string `json:"message"`
	}
)

func NewCurationHandler(curationSvc CurationService, syncSvc ConversionSyncService, posts PostReader, offers OfferReader) *CurationHandler {
	return &CurationHandler{
		validate:        validator.New(),
		curationService: curationSvc,
		syncService:     syncSvc,
		posts:           posts,
		offers:          offers,
	}
}

// TriggerRun executes a full pipeline run synchronously. A run publishes to
// the channel with pauses between posts, so the deadline is generous.
func (h *CurationHandler) TriggerRun(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Minute)
	defer cancel()

	result, err := h.curationService.Run(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(result))
}

func (h *CurationHandler) SyncConversions(c echo.Context) error {
	var req SyncRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Minute)
	defer cancel()

	result, err := h.syncService.Sync(ctx, req.PurchaseDays, req.CompleteDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(result))
}

func (h *CurationHandler) RecentPosts(c echo.Context) error {
	var q RecentPostsQuery
	if err := c.Bind(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	posts, err := h.posts.Recent(c.Request().Context(), q.Limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(posts))
}

// OfferDetail returns the latest stored snapshot of one offer.
func (h *CurationHandler) OfferDetail(c echo.Context) error {
	itemID, err := strconv.ParseInt(c.Param("item_id"), 10, 64)
	if err != nil || itemID <= 0 {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid item id"})
	}

	offer, err := h.offers.FindByID(c.Request().Context(), itemID)
	if err != nil {
		if err.Error() == "offer not found" {
			return c.JSON(http.StatusNotFound, ResponseError{Message: err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(offer))
}

func (h *CurationHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, fres.Response.StatusOK("ok"))
}
