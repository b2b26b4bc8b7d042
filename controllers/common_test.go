package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cmarkin/microblog/cache"
	"github.com/cmarkin/microblog/config"
	"github.com/cmarkin/microblog/middleware"
	"github.com/cmarkin/microblog/models"
	"github.com/cmarkin/microblog/utils"
)

func TestMain(m *testing.M) {
	os.Setenv("JWT_SECRET", "test-secret")
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.Post{},
		&models.Comment{},
		&models.Follow{},
		&models.PageView{},
	))
	return db
}

func testConfig(t *testing.T) config.AppConfig {
	t.Helper()
	cfg := config.Get()
	cfg.UploadDir = t.TempDir()
	return cfg
}

// setupRouter assembles the production route table without the file
// logger, static mounts and rate limiter.
func setupRouter(db *gorm.DB, pages cache.PageCache, cfg config.AppConfig) *gin.Engine {
	r := gin.New()
	r.Use(middleware.CurrentUser())

	feeds := NewFeedController(db, pages, cfg.PageSize)
	posts := NewPostController(db, cfg)
	follows := NewFollowController(db)

	r.GET("/", feeds.Index)
	r.GET("/group/:slug/", feeds.GroupPosts)
	r.GET("/posts/:id/", posts.PostDetail)
	r.GET("/profile/:username/", feeds.Profile)

	protected := r.Group("", middleware.LoginRequired(cfg.LoginPath))
	protected.GET("/follow/", feeds.FollowIndex)
	protected.GET("/create/", posts.NewPostForm)
	protected.GET("/posts/:id/edit/", posts.EditPostForm)
	protected.GET("/profile/:username/follow/", follows.Follow)
	protected.GET("/profile/:username/unfollow/", follows.Unfollow)
	protected.POST("/create/", posts.CreatePost)
	protected.POST("/posts/:id/edit/", posts.EditPost)
	protected.POST("/posts/:id/comment/", posts.CreateComment)

	return r
}

func createUser(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()
	user := models.User{Username: username, FirstName: "Test", LastName: "User"}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func createGroup(t *testing.T, db *gorm.DB, title, slug string) models.Group {
	t.Helper()
	group := models.Group{Title: title, Slug: slug}
	require.NoError(t, db.Create(&group).Error)
	return group
}

func createPost(t *testing.T, db *gorm.DB, author models.User, groupID *uint, text string, created time.Time) models.Post {
	t.Helper()
	post := models.Post{Text: text, AuthorID: author.ID, GroupID: groupID, CreatedAt: created}
	require.NoError(t, db.Create(&post).Error)
	return post
}

func authCookie(t *testing.T, user models.User) *http.Cookie {
	t.Helper()
	token, err := utils.GenerateToken(user.ID, user.Username, time.Hour)
	require.NoError(t, err)
	return &http.Cookie{Name: middleware.SessionCookieName, Value: token}
}

func doGET(r *gin.Engine, path string, as *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if as != nil {
		req.AddCookie(as)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func doForm(r *gin.Engine, path string, form url.Values, as *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if as != nil {
		req.AddCookie(as)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// decodeData unpacks the JSON envelope and returns its data object.
func decodeData(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var resp struct {
		Code int            `json:"code"`
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &resp))
	return resp.Data
}

func pageObj(t *testing.T, data map[string]any) (items []any, page, totalPages float64, total float64) {
	t.Helper()
	po, ok := data["page_obj"].(map[string]any)
	require.True(t, ok, "missing page_obj in %v", data)
	items, _ = po["items"].([]any)
	page, _ = po["page"].(float64)
	totalPages, _ = po["total_pages"].(float64)
	total, _ = po["total"].(float64)
	return items, page, totalPages, total
}

func itemText(t *testing.T, item any) string {
	t.Helper()
	m, ok := item.(map[string]any)
	require.True(t, ok)
	text, _ := m["text"].(string)
	return text
}
