package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cmarkin/microblog/config"
	"github.com/cmarkin/microblog/middleware"
	"github.com/cmarkin/microblog/models"
	"github.com/cmarkin/microblog/store"
	"github.com/cmarkin/microblog/utils"
)

// PostController manages the post detail page and the three in-scope
// mutations: create post, edit post, add comment.
type PostController struct {
	db  *gorm.DB
	cfg config.AppConfig
}

// NewPostController creates a PostController.
func NewPostController(db *gorm.DB, cfg config.AppConfig) *PostController {
	return &PostController{db: db, cfg: cfg}
}

// PostDetail renders one post with its comments and an empty comment form.
func (p *PostController) PostDetail(ctx *gin.Context) {
	post, ok := p.loadPost(ctx)
	if !ok {
		return
	}

	comments, err := store.PostComments(p.db, post.ID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to load comments")
		return
	}

	utils.Success(ctx, gin.H{
		"title":    truncate(post.Text, 20),
		"post":     post,
		"comments": comments,
		"form":     gin.H{"text": ""},
	})
}

// NewPostForm renders the create-post form context: empty fields plus the
// available groups for the picker.
func (p *PostController) NewPostForm(ctx *gin.Context) {
	groups, err := store.Groups(p.db)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to load groups")
		return
	}
	utils.Success(ctx, gin.H{
		"title":  "New post",
		"form":   gin.H{"text": "", "group": nil},
		"groups": groups,
	})
}

// CreatePost accepts the submitted form, validates it, persists the post
// with the requester as author and redirects to the requester's profile.
// Validation failures redisplay the form with field errors attached.
func (p *PostController) CreatePost(ctx *gin.Context) {
	userID, username, ok := middleware.Identity(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40120, "unauthorized")
		return
	}

	text, groupID, errs := p.validatePostForm(ctx)
	if len(errs) > 0 {
		utils.FormInvalid(ctx, gin.H{"text": ctx.PostForm("text"), "group": ctx.PostForm("group")}, errs)
		return
	}

	post := models.Post{
		Text:     text,
		AuthorID: userID,
		GroupID:  groupID,
	}

	// The image is optional and only attachable at creation time.
	if fh, err := ctx.FormFile("image"); err == nil && fh != nil {
		maxBytes := int64(p.cfg.MaxImageSizeMB) * 1024 * 1024
		url, err := utils.SaveImage(fh, p.cfg.UploadDir, maxBytes)
		if err != nil {
			utils.FormInvalid(ctx,
				gin.H{"text": ctx.PostForm("text"), "group": ctx.PostForm("group")},
				gin.H{"image": err.Error()})
			return
		}
		post.Image = url
	}

	if err := store.CreatePost(p.db, &post); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to create post")
		return
	}

	ctx.Redirect(http.StatusFound, fmt.Sprintf("/profile/%s/", username))
}

// EditPostForm renders the edit form prefilled with the post's current
// text and group. Non-owners are bounced to the detail page.
func (p *PostController) EditPostForm(ctx *gin.Context) {
	post, ok := p.loadPost(ctx)
	if !ok {
		return
	}
	if !p.requireOwner(ctx, post) {
		return
	}

	groups, err := store.Groups(p.db)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to load groups")
		return
	}
	utils.Success(ctx, gin.H{
		"title":  "Edit post",
		"post":   post,
		"form":   gin.H{"text": post.Text, "group": post.GroupID},
		"groups": groups,
	})
}

// EditPost updates text and group of an existing post in place. The post
// keeps its id, author, image and creation timestamp. Only the author may
// edit; everyone else is silently redirected to the detail page.
func (p *PostController) EditPost(ctx *gin.Context) {
	post, ok := p.loadPost(ctx)
	if !ok {
		return
	}
	if !p.requireOwner(ctx, post) {
		return
	}

	text, groupID, errs := p.validatePostForm(ctx)
	if len(errs) > 0 {
		utils.FormInvalid(ctx, gin.H{"text": ctx.PostForm("text"), "group": ctx.PostForm("group")}, errs)
		return
	}

	if err := store.UpdatePostContent(p.db, &post, text, groupID); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to update post")
		return
	}

	ctx.Redirect(http.StatusFound, fmt.Sprintf("/posts/%d/", post.ID))
}

// CreateComment binds a new comment to the target post and the requester,
// then redirects to the detail page. An empty text is a validation error
// and creates nothing.
func (p *PostController) CreateComment(ctx *gin.Context) {
	userID, _, ok := middleware.Identity(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40121, "unauthorized")
		return
	}

	post, ok := p.loadPost(ctx)
	if !ok {
		return
	}

	text := strings.TrimSpace(utils.Sanitize(ctx.PostForm("text")))
	if text == "" {
		utils.FormInvalid(ctx, gin.H{"text": ctx.PostForm("text")}, gin.H{"text": "text is required"})
		return
	}

	comment := models.Comment{
		PostID:   post.ID,
		AuthorID: userID,
		Text:     text,
	}
	if err := store.CreateComment(p.db, &comment); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50025, "failed to create comment")
		return
	}

	ctx.Redirect(http.StatusFound, fmt.Sprintf("/posts/%d/", post.ID))
}

// validatePostForm checks the text and optional group fields shared by the
// create and edit paths. It returns the sanitized text, the resolved group
// id (nil when the field is empty) and any field errors.
func (p *PostController) validatePostForm(ctx *gin.Context) (string, *uint, gin.H) {
	errs := gin.H{}

	text := strings.TrimSpace(utils.Sanitize(ctx.PostForm("text")))
	if text == "" {
		errs["text"] = "text is required"
	}

	var groupID *uint
	if raw := strings.TrimSpace(ctx.PostForm("group")); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			errs["group"] = "group does not exist"
		} else {
			exists, qerr := store.GroupExists(p.db, uint(id))
			if qerr != nil || !exists {
				errs["group"] = "group does not exist"
			} else {
				gid := uint(id)
				groupID = &gid
			}
		}
	}

	return text, groupID, errs
}

// loadPost resolves the :id path parameter, answering 404 for unknown or
// malformed ids. The bool result tells the caller whether to continue.
func (p *PostController) loadPost(ctx *gin.Context) (models.Post, bool) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		utils.Error(ctx, http.StatusNotFound, 40420, "post not found")
		return models.Post{}, false
	}
	post, err := store.PostByID(p.db, uint(id))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40420, "post not found")
			return models.Post{}, false
		}
		utils.Error(ctx, http.StatusInternalServerError, 50026, "failed to load post")
		return models.Post{}, false
	}
	return post, true
}

// requireOwner redirects non-authors to the detail page without an error,
// mirroring how the edit link simply is not offered to them.
func (p *PostController) requireOwner(ctx *gin.Context, post models.Post) bool {
	userID, _, ok := middleware.Identity(ctx)
	if !ok || post.AuthorID != userID {
		ctx.Redirect(http.StatusFound, fmt.Sprintf("/posts/%d/", post.ID))
		ctx.Abort()
		return false
	}
	return true
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
