package main

import (
	"log"
	"net/http"
	"stayhub/src/common"
	"stayhub/src/types"

	"github.com/gin-gonic/gin"
)

func publicReviewRoutes(g *gin.Engine) *gin.RouterGroup {
	apiv1 := apiv1Group(g)
	apiv1.
		GET("/reviews/listing/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			reviews, avgRating, err := common.ListingReviews(params.ID)
			if err != nil {
				abortWithError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{
				"data":           reviews,
				"count":          len(reviews),
				"average_rating": avgRating,
			})
		})
	return apiv1
}

func reviewHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/reviews", func(ctx *gin.Context) {
			var body types.CreateReviewRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			review, err := common.CreateReview(userId, &body)
			if err != nil {
				log.Printf("[CreateReview] error: %s\n", err.Error())
				abortWithError(ctx, err)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": review})
		}).
		GET("/reviews/my-reviews", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			reviews, err := common.ListUserReviews(userId)
			if err != nil {
				abortWithError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": reviews, "count": len(reviews)})
		})
	return g
}
