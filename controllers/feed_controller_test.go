package controllers

import (
	"fmt"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmarkin/microblog/cache"
)

func TestIndexServesCachedBytesWithinWindow(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig(t)
	pages := cache.NewMemoryCache(20 * time.Second)
	r := setupRouter(db, pages, cfg)

	author := createUser(t, db, "cache_author")
	createPost(t, db, author, nil, "first post", time.Now())

	w1 := doGET(r, "/", nil)
	require.Equal(t, http.StatusOK, w1.Code)

	// A post created inside the window must not show up yet.
	createPost(t, db, author, nil, "second post", time.Now())

	w2 := doGET(r, "/", nil)
	require.Equal(t, http.StatusOK, w2.Code)
	assert.Equal(t, w1.Body.Bytes(), w2.Body.Bytes())

	// Different query string means a different cache key.
	w3 := doGET(r, "/?page=2", nil)
	require.Equal(t, http.StatusOK, w3.Code)
	assert.NotEqual(t, w1.Body.Bytes(), w3.Body.Bytes())
}

func TestIndexCacheExpires(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig(t)
	pages := cache.NewMemoryCache(10 * time.Millisecond)
	r := setupRouter(db, pages, cfg)

	author := createUser(t, db, "expiry_author")
	createPost(t, db, author, nil, "first post", time.Now())

	w1 := doGET(r, "/", nil)
	require.Equal(t, http.StatusOK, w1.Code)

	createPost(t, db, author, nil, "second post", time.Now())
	time.Sleep(25 * time.Millisecond)

	w2 := doGET(r, "/", nil)
	require.Equal(t, http.StatusOK, w2.Code)
	assert.NotEqual(t, w1.Body.Bytes(), w2.Body.Bytes())

	items, _, _, total := pageObj(t, decodeData(t, w2.Body.Bytes()))
	assert.EqualValues(t, 2, total)
	require.Len(t, items, 2)
	assert.Equal(t, "second post", itemText(t, items[0]))
}

func TestGroupFeedContext(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig(t)
	r := setupRouter(db, cache.NewMemoryCache(time.Second), cfg)

	createGroup(t, db, "maniac", "maniac")

	w := doGET(r, "/group/maniac/", nil)
	require.Equal(t, http.StatusOK, w.Code)

	data := decodeData(t, w.Body.Bytes())
	group, ok := data["group"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "maniac", group["title"])
	assert.Equal(t, "maniac", group["slug"])
}

func TestGroupFeedUnknownSlug(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouter(db, cache.NewMemoryCache(time.Second), testConfig(t))

	w := doGET(r, "/group/missing/", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGroupFeedPagination(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig(t)
	r := setupRouter(db, cache.NewMemoryCache(time.Second), cfg)

	author := createUser(t, db, "Test_User")
	group := createGroup(t, db, "test group", "test_slug")
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 14; i++ {
		createPost(t, db, author, &group.ID, fmt.Sprintf("post %d", i), base.Add(time.Duration(i)*time.Minute))
	}
	// A post outside the group must not leak into the feed.
	createPost(t, db, author, nil, "ungrouped", time.Now())

	w := doGET(r, "/group/test_slug/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	items, page, totalPages, total := pageObj(t, decodeData(t, w.Body.Bytes()))
	assert.Len(t, items, 10)
	assert.EqualValues(t, 1, page)
	assert.EqualValues(t, 2, totalPages)
	assert.EqualValues(t, 14, total)
	assert.Equal(t, "post 13", itemText(t, items[0]), "feed must be newest first")

	w = doGET(r, "/group/test_slug/?page=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	items, page, _, _ = pageObj(t, decodeData(t, w.Body.Bytes()))
	assert.Len(t, items, 4)
	assert.EqualValues(t, 2, page)
	assert.Equal(t, "post 3", itemText(t, items[0]))
}

func TestProfileFeed(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig(t)
	r := setupRouter(db, cache.NewMemoryCache(time.Second), cfg)

	owner := createUser(t, db, "owner")
	other := createUser(t, db, "other")
	createPost(t, db, owner, nil, "mine", time.Now())
	createPost(t, db, other, nil, "not mine", time.Now())

	w := doGET(r, "/profile/owner/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w.Body.Bytes())
	items, _, _, total := pageObj(t, data)
	assert.EqualValues(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "mine", itemText(t, items[0]))
	assert.Equal(t, false, data["following"], "anonymous viewers follow nobody")

	w = doGET(r, "/profile/ghost/", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProfileFollowingFlag(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig(t)
	r := setupRouter(db, cache.NewMemoryCache(time.Second), cfg)

	viewer := createUser(t, db, "viewer")
	owner := createUser(t, db, "owned")
	viewerCookie := authCookie(t, viewer)

	w := doGET(r, "/profile/owned/", viewerCookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decodeData(t, w.Body.Bytes())["following"])

	doGET(r, "/profile/owned/follow/", viewerCookie)

	w = doGET(r, "/profile/owned/", viewerCookie)
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w.Body.Bytes())
	assert.Equal(t, true, data["following"])
	assert.EqualValues(t, 1, data["followers_count"])

	// The flag is about the viewer, not the profile owner.
	w = doGET(r, "/profile/owned/", authCookie(t, owner))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decodeData(t, w.Body.Bytes())["following"])
}

func TestFollowFeed(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig(t)
	r := setupRouter(db, cache.NewMemoryCache(time.Second), cfg)

	follower := createUser(t, db, "reader")
	author := createUser(t, db, "writer")
	createPost(t, db, author, nil, "Текст following", time.Now())

	followerCookie := authCookie(t, follower)
	doGET(r, "/profile/writer/follow/", followerCookie)

	w := doGET(r, "/follow/", followerCookie)
	require.Equal(t, http.StatusOK, w.Code)
	items, _, _, _ := pageObj(t, decodeData(t, w.Body.Bytes()))
	require.Len(t, items, 1)
	assert.Equal(t, "Текст following", itemText(t, items[0]))

	// The author follows nobody, so their follow feed stays empty.
	w = doGET(r, "/follow/", authCookie(t, author))
	require.Equal(t, http.StatusOK, w.Code)
	items, _, _, _ = pageObj(t, decodeData(t, w.Body.Bytes()))
	assert.Empty(t, items)
}

func TestFollowFeedRequiresAuth(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig(t)
	r := setupRouter(db, cache.NewMemoryCache(time.Second), cfg)

	w := doGET(r, "/follow/", nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, cfg.LoginPath+"?next="+url.QueryEscape("/follow/"), w.Header().Get("Location"))
}
