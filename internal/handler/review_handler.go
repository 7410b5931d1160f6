package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"homes-service/internal/middleware"
	"homes-service/internal/service"
)

// ReviewRequestDTO is the payload for creating a new review.
type ReviewRequestDTO struct {
	// Ignored when the request carries an authenticated subject.
	UserID  string `json:"userId" form:"userId"`
	Rating  int    `json:"rating" form:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" form:"comment" binding:"required"`
}

// ReviewHandler ties HTTP requests to the ReviewService.
type ReviewHandler struct {
	reviewSvc *service.ReviewService
}

func NewReviewHandler(rs *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewSvc: rs}
}

// RegisterRoutes registers:
//
//	GET  /api/homes/:id/reviews
//	POST /api/homes/:id/reviews
func (h *ReviewHandler) RegisterRoutes(rg *gin.RouterGroup, write gin.HandlerFunc) {
	grp := rg.Group("/homes/:id/reviews")
	{
		grp.GET("", h.GetReviews)
		grp.POST("", write, h.CreateReview)
	}
}

func (h *ReviewHandler) GetReviews(c *gin.Context) {
	reviews, err := h.reviewSvc.GetReviews(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(notFoundOr(err, "home not found"))
		return
	}
	c.JSON(http.StatusOK, reviews)
}

func (h *ReviewHandler) CreateReview(c *gin.Context) {
	var req ReviewRequestDTO
	if err := c.ShouldBind(&req); err != nil {
		_ = c.Error(middleware.BadRequest(err.Error(), err))
		return
	}
	if sub := c.GetString(middleware.UserIDKey); sub != "" {
		req.UserID = sub
	}
	if req.UserID == "" {
		_ = c.Error(middleware.BadRequest("userId is required", nil))
		return
	}

	review, err := h.reviewSvc.CreateReview(c.Request.Context(), c.Param("id"), req.UserID, req.Rating, req.Comment)
	if err != nil {
		_ = c.Error(notFoundOr(err, "home not found"))
		return
	}
	c.JSON(http.StatusCreated, review)
}
