package store

import (
	"strconv"

	"gorm.io/gorm"

	"github.com/cmarkin/microblog/models"
)

// PostPage is one window of a feed plus the numbers the rendering layer
// needs for navigation.
type PostPage struct {
	Items      []models.Post `json:"items"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	Total      int64         `json:"total"`
	TotalPages int           `json:"total_pages"`
}

// FetchPostPage runs a feed query for one page. Page numbers are 1-based;
// non-numeric or sub-1 input falls back to the first page and
// past-the-end numbers clamp to the last page, so any page string yields
// a valid window.
func FetchPostPage(q *gorm.DB, pageStr string, pageSize int) (PostPage, error) {
	if pageSize <= 0 {
		pageSize = 10
	}
	page := PostPage{Page: parsePage(pageStr), PageSize: pageSize, Items: []models.Post{}}

	if err := q.Session(&gorm.Session{}).Count(&page.Total).Error; err != nil {
		return page, err
	}
	page.TotalPages = int((page.Total + int64(pageSize) - 1) / int64(pageSize))
	if page.TotalPages < 1 {
		page.TotalPages = 1
	}
	if page.Page > page.TotalPages {
		page.Page = page.TotalPages
	}

	offset := (page.Page - 1) * pageSize
	err := q.Session(&gorm.Session{}).Offset(offset).Limit(pageSize).Find(&page.Items).Error
	return page, err
}

func parsePage(s string) int {
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return 1
}
