package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cmarkin/microblog/cache"
	"github.com/cmarkin/microblog/middleware"
	"github.com/cmarkin/microblog/store"
	"github.com/cmarkin/microblog/utils"
)

// FeedController serves the four paginated post feeds. The page cache is
// an explicit collaborator, not a global: only Index writes to it.
type FeedController struct {
	db       *gorm.DB
	pages    cache.PageCache
	pageSize int
}

// NewFeedController creates a FeedController.
func NewFeedController(db *gorm.DB, pages cache.PageCache, pageSize int) *FeedController {
	return &FeedController{db: db, pages: pages, pageSize: pageSize}
}

const jsonContentType = "application/json; charset=utf-8"

// Index renders the global feed. The whole response is cached per
// route+query for the configured window, so identical requests inside
// the window return byte-identical bodies even when posts changed
// underneath. Staleness up to the window is intentional.
func (f *FeedController) Index(ctx *gin.Context) {
	key := cache.RequestKey(ctx.Request)
	if body, ok := f.pages.Get(key); ok {
		ctx.Data(http.StatusOK, jsonContentType, body)
		return
	}

	page, err := store.FetchPostPage(store.AllPosts(f.db), ctx.Query("page"), f.pageSize)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50010, "failed to list posts")
		return
	}

	body, err := json.Marshal(utils.JSONResponse{Code: 0, Message: "success", Data: gin.H{
		"title":       "Latest updates",
		"description": "Latest updates on the site",
		"page_obj":    page,
	}})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50011, "failed to render feed")
		return
	}
	f.pages.Set(key, body)
	ctx.Data(http.StatusOK, jsonContentType, body)
}

// GroupPosts renders the feed of one group, resolved by slug.
func (f *FeedController) GroupPosts(ctx *gin.Context) {
	group, err := store.GroupBySlug(f.db, ctx.Param("slug"))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40410, "group not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50012, "failed to load group")
		return
	}

	page, err := store.FetchPostPage(store.GroupFeed(f.db, group.ID), ctx.Query("page"), f.pageSize)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50013, "failed to list group posts")
		return
	}

	utils.Success(ctx, gin.H{
		"title":       "Community posts: " + group.Title,
		"description": "Posts published in this community",
		"group":       group,
		"page_obj":    page,
	})
}

// Profile renders one author's feed plus the viewer's follow state.
func (f *FeedController) Profile(ctx *gin.Context) {
	owner, err := store.UserByUsername(f.db, ctx.Param("username"))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40411, "user not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50014, "failed to load user")
		return
	}

	page, err := store.FetchPostPage(store.AuthorFeed(f.db, owner.ID), ctx.Query("page"), f.pageSize)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50015, "failed to list user posts")
		return
	}

	following := false
	if viewerID, _, ok := middleware.Identity(ctx); ok {
		following, err = store.FollowExists(f.db, viewerID, owner.ID)
		if err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50016, "failed to load follow state")
			return
		}
	}
	followers, err := store.CountFollowers(f.db, owner.ID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50016, "failed to load follow state")
		return
	}
	followingCount, err := store.CountFollowing(f.db, owner.ID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50016, "failed to load follow state")
		return
	}

	utils.Success(ctx, gin.H{
		"title":           "Profile of " + owner.FullName(),
		"profile":         owner,
		"following":       following,
		"followers_count": followers,
		"following_count": followingCount,
		"page_obj":        page,
	})
}

// FollowIndex renders posts by every author the requester follows.
// The route requires authentication.
func (f *FeedController) FollowIndex(ctx *gin.Context) {
	userID, _, ok := middleware.Identity(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	page, err := store.FetchPostPage(store.FollowFeed(f.db, userID), ctx.Query("page"), f.pageSize)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50017, "failed to list followed posts")
		return
	}

	utils.Success(ctx, gin.H{
		"title":       "Subscriptions",
		"description": "Posts by every author you follow",
		"page_obj":    page,
	})
}
