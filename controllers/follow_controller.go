package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cmarkin/microblog/middleware"
	"github.com/cmarkin/microblog/models"
	"github.com/cmarkin/microblog/store"
	"github.com/cmarkin/microblog/utils"
)

// FollowController manages follow edges between users. Both actions are
// idempotent: repeating them or hitting a not-applicable case redirects
// to the target profile exactly like a successful call.
type FollowController struct {
	db *gorm.DB
}

// NewFollowController creates a FollowController.
func NewFollowController(db *gorm.DB) *FollowController {
	return &FollowController{db: db}
}

// Follow creates a follow edge from the requester to the target author.
// Following yourself or someone you already follow changes nothing.
func (f *FollowController) Follow(ctx *gin.Context) {
	userID, author, ok := f.resolve(ctx)
	if !ok {
		return
	}

	if author.ID != userID {
		exists, err := store.FollowExists(f.db, userID, author.ID)
		if err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to load follow state")
			return
		}
		if !exists {
			if err := store.CreateFollow(f.db, userID, author.ID); err != nil {
				utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to follow")
				return
			}
		}
	}

	ctx.Redirect(http.StatusFound, "/profile/"+author.Username+"/")
}

// Unfollow deletes the follow edge if it exists. Unfollowing someone you
// never followed is a no-op with the same redirect.
func (f *FollowController) Unfollow(ctx *gin.Context) {
	userID, author, ok := f.resolve(ctx)
	if !ok {
		return
	}

	if err := store.DeleteFollow(f.db, userID, author.ID); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to unfollow")
		return
	}

	ctx.Redirect(http.StatusFound, "/profile/"+author.Username+"/")
}

func (f *FollowController) resolve(ctx *gin.Context) (uint, models.User, bool) {
	userID, _, ok := middleware.Identity(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40130, "unauthorized")
		return 0, models.User{}, false
	}

	author, err := store.UserByUsername(f.db, ctx.Param("username"))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40430, "user not found")
			return 0, models.User{}, false
		}
		utils.Error(ctx, http.StatusInternalServerError, 50033, "failed to load user")
		return 0, models.User{}, false
	}

	return userID, author, true
}
