package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Haleralex/gincore/internal/adapters/http/common"
	"github.com/Haleralex/gincore/internal/adapters/http/middleware"
	"github.com/Haleralex/gincore/internal/adapters/http/pagination"
	"github.com/Haleralex/gincore/internal/application/ports"
	"github.com/Haleralex/gincore/internal/domain/entities"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CreateDummyRequest - тело POST /dummies и /dummies/by-body.
// Для by-body поле id одновременно токен guard'а.
type CreateDummyRequest struct {
	ID   string `json:"id" binding:"omitempty,uuid"`
	Name string `json:"name" binding:"dummy_name"`
}

// DummyURI - параметр пути /dummies/:id.
type DummyURI struct {
	ID string `uri:"id" json:"id" binding:"required,uuid"`
}

// DummyResponse - Dummy в ответе API.
type DummyResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	DateCreatedUTC time.Time `json:"date_created_utc"`
}

// ToDummyResponse переводит entity в DTO.
func ToDummyResponse(d *entities.Dummy) DummyResponse {
	return DummyResponse{
		ID:             d.ID().String(),
		Name:           d.Name(),
		DateCreatedUTC: d.DateCreatedUTC(),
	}
}

// DummyHandler обрабатывает /dummies.
type DummyHandler struct {
	repo     ports.DummyRepository
	basePath string
}

// NewDummyHandler создаёт handler. basePath нужен для заголовка Location.
func NewDummyHandler(repo ports.DummyRepository, basePath string) *DummyHandler {
	return &DummyHandler{repo: repo, basePath: basePath}
}

// List - GET /dummies?PageNumber=&PageSize=, страница со ссылками.
func (h *DummyHandler) List(c *gin.Context) {
	opts := pagination.ParseOptions(c)

	dummies, total, err := h.repo.List(c.Request.Context(), opts.Offset(), opts.PageSize)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	items := make([]DummyResponse, 0, len(dummies))
	for _, d := range dummies {
		items = append(items, ToDummyResponse(d))
	}

	linked, err := pagination.Link(c, pagination.NewPage(items, opts, total))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	common.Success(c, http.StatusOK, linked)
}

// Get - GET /dummies/:id.
func (h *DummyHandler) Get(c *gin.Context) {
	var uri DummyURI
	if !BindURI(c, &uri) {
		return
	}

	dummy, err := h.repo.FindByID(c.Request.Context(), uuid.MustParse(uri.ID))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	common.Success(c, http.StatusOK, ToDummyResponse(dummy))
}

// Create - POST /dummies и /dummies/by-body. Повторное создание
// отсекает guard, занятый ID - 409.
func (h *DummyHandler) Create(c *gin.Context) {
	var req CreateDummyRequest
	if !BindJSON(c, &req) {
		return
	}

	id := uuid.Nil
	if req.ID != "" {
		id = uuid.MustParse(req.ID)
	}

	dummy, err := entities.NewDummy(id, req.Name)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	if err := h.repo.Create(c.Request.Context(), dummy); err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	middleware.DummiesCreatedTotal.Inc()

	common.Created(c, fmt.Sprintf("%s/%s", h.basePath, dummy.ID()), ToDummyResponse(dummy))
}

// RegisterRoutes регистрирует маршруты на группе /dummies.
//
// Routes:
// - GET  /                - страница со ссылками
// - GET  /:id             - одна сущность
// - POST /                - guard по заголовку
// - POST /by-body         - guard по полю id тела
func (h *DummyHandler) RegisterRoutes(rg *gin.RouterGroup, headerGuard, bodyGuard gin.HandlerFunc) {
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.POST("", headerGuard, h.Create)
	rg.POST("/by-body", bodyGuard, h.Create)
}
