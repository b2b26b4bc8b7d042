package middleware

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cmarkin/microblog/models"
)

func pvTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.PageView{}))
	return db
}

func TestPageViewRecorderCountsRepeatVisits(t *testing.T) {
	db := pvTestDB(t)
	r := gin.New()
	r.Use(PageViewRecorder(db))
	r.GET("/posts/1/", func(ctx *gin.Context) { ctx.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/posts/1/", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	var pv models.PageView
	require.NoError(t, db.Where("path = ?", "/posts/1/").First(&pv).Error)
	assert.EqualValues(t, 3, pv.Count)
}

func TestPageViewRecorderSkipsErrorsAndHealth(t *testing.T) {
	db := pvTestDB(t)
	r := gin.New()
	r.Use(PageViewRecorder(db))
	r.GET("/health", func(ctx *gin.Context) { ctx.Status(http.StatusOK) })
	r.GET("/missing/", func(ctx *gin.Context) { ctx.Status(http.StatusNotFound) })

	for _, path := range []string{"/health", "/missing/"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}

	var count int64
	require.NoError(t, db.Model(&models.PageView{}).Count(&count).Error)
	assert.Zero(t, count)
}
