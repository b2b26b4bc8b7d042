package store

import (
	"gorm.io/gorm"

	"github.com/cmarkin/microblog/models"
)

// Feed queries. Every feed lists posts newest-first with the author and
// group rows preloaded so rendering needs no extra lookups. The id
// tiebreak keeps ordering stable for posts created within the same tick.

// AllPosts is the base query for the global feed.
func AllPosts(db *gorm.DB) *gorm.DB {
	return db.Model(&models.Post{}).
		Preload("Author").
		Preload("Group").
		Order("created_at DESC, id DESC")
}

// GroupFeed narrows the global feed to a single group.
func GroupFeed(db *gorm.DB, groupID uint) *gorm.DB {
	return AllPosts(db).Where("group_id = ?", groupID)
}

// AuthorFeed narrows the global feed to a single author.
func AuthorFeed(db *gorm.DB, authorID uint) *gorm.DB {
	return AllPosts(db).Where("author_id = ?", authorID)
}

// FollowFeed lists posts by every author the user follows. Empty when the
// user follows nobody.
func FollowFeed(db *gorm.DB, userID uint) *gorm.DB {
	followed := db.Model(&models.Follow{}).
		Select("author_id").
		Where("user_id = ?", userID)
	return AllPosts(db).Where("author_id IN (?)", followed)
}

// GroupBySlug resolves a group by its public slug.
func GroupBySlug(db *gorm.DB, slug string) (models.Group, error) {
	var group models.Group
	err := db.Where("slug = ?", slug).First(&group).Error
	return group, err
}

// UserByUsername resolves a user identity by username.
func UserByUsername(db *gorm.DB, username string) (models.User, error) {
	var user models.User
	err := db.Where("username = ?", username).First(&user).Error
	return user, err
}

// PostByID loads one post with its author and group.
func PostByID(db *gorm.DB, id uint) (models.Post, error) {
	var post models.Post
	err := db.Preload("Author").Preload("Group").First(&post, id).Error
	return post, err
}

// PostComments lists a post's comments newest-first with authors preloaded.
func PostComments(db *gorm.DB, postID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := db.Preload("Author").
		Where("post_id = ?", postID).
		Order("created_at DESC, id DESC").
		Find(&comments).Error
	return comments, err
}

// CreatePost persists a new post. The creation timestamp is set by the
// database layer and never changes afterwards.
func CreatePost(db *gorm.DB, post *models.Post) error {
	return db.Create(post).Error
}

// UpdatePostContent rewrites only the text and group of an existing post.
// Identity, author, image and creation time stay untouched.
func UpdatePostContent(db *gorm.DB, post *models.Post, text string, groupID *uint) error {
	post.Text = text
	post.GroupID = groupID
	return db.Model(post).Select("text", "group_id").Updates(map[string]interface{}{
		"text":     text,
		"group_id": groupID,
	}).Error
}

// CreateComment persists a new comment bound to its post and author.
func CreateComment(db *gorm.DB, comment *models.Comment) error {
	return db.Create(comment).Error
}

// FollowExists reports whether user already follows author.
func FollowExists(db *gorm.DB, userID, authorID uint) (bool, error) {
	var count int64
	err := db.Model(&models.Follow{}).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Count(&count).Error
	return count > 0, err
}

// CreateFollow adds a follow edge. Callers are expected to have checked
// for self-follows and duplicates; the unique index backs them up.
func CreateFollow(db *gorm.DB, userID, authorID uint) error {
	return db.Create(&models.Follow{UserID: userID, AuthorID: authorID}).Error
}

// DeleteFollow removes the follow edge if present. Deleting a missing
// edge is a no-op, not an error.
func DeleteFollow(db *gorm.DB, userID, authorID uint) error {
	return db.Where("user_id = ? AND author_id = ?", userID, authorID).
		Delete(&models.Follow{}).Error
}

// CountFollowers returns how many users follow the given author.
func CountFollowers(db *gorm.DB, authorID uint) (int64, error) {
	var count int64
	err := db.Model(&models.Follow{}).Where("author_id = ?", authorID).Count(&count).Error
	return count, err
}

// CountFollowing returns how many authors the given user follows.
func CountFollowing(db *gorm.DB, userID uint) (int64, error) {
	var count int64
	err := db.Model(&models.Follow{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// GroupExists reports whether a group id references a real group. Used to
// validate the optional group field on post submissions.
func GroupExists(db *gorm.DB, groupID uint) (bool, error) {
	var count int64
	err := db.Model(&models.Group{}).Where("id = ?", groupID).Count(&count).Error
	return count > 0, err
}

// Groups lists all groups for the post form's group picker.
func Groups(db *gorm.DB) ([]models.Group, error) {
	var groups []models.Group
	err := db.Order("slug").Find(&groups).Error
	return groups, err
}

// DeleteGroup removes a group, detaching its posts first so they survive
// with an empty group reference. Administrative action, exposed for tools
// and tests rather than HTTP.
func DeleteGroup(db *gorm.DB, groupID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Post{}).
			Where("group_id = ?", groupID).
			Update("group_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Group{}, groupID).Error
	})
}
