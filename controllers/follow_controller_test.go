package controllers

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmarkin/microblog/cache"
	"github.com/cmarkin/microblog/models"
)

func TestFollowIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig(t)
	r := setupRouter(db, cache.NewMemoryCache(time.Second), cfg)

	follower := createUser(t, db, "alice")
	createUser(t, db, "bob")
	cookie := authCookie(t, follower)

	w := doGET(r, "/profile/bob/follow/", cookie)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/profile/bob/", w.Header().Get("Location"))

	// Following again must not add a second edge.
	w = doGET(r, "/profile/bob/follow/", cookie)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/profile/bob/", w.Header().Get("Location"))

	var count int64
	require.NoError(t, db.Model(&models.Follow{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestSelfFollowCreatesNothing(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig(t)
	r := setupRouter(db, cache.NewMemoryCache(time.Second), cfg)

	user := createUser(t, db, "narcissus")

	w := doGET(r, "/profile/narcissus/follow/", authCookie(t, user))
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/profile/narcissus/", w.Header().Get("Location"))

	var count int64
	require.NoError(t, db.Model(&models.Follow{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestUnfollow(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig(t)
	r := setupRouter(db, cache.NewMemoryCache(time.Second), cfg)

	follower := createUser(t, db, "carol")
	createUser(t, db, "dave")
	cookie := authCookie(t, follower)

	doGET(r, "/profile/dave/follow/", cookie)

	w := doGET(r, "/profile/dave/unfollow/", cookie)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/profile/dave/", w.Header().Get("Location"))

	var count int64
	require.NoError(t, db.Model(&models.Follow{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestUnfollowWithoutFollowIsNoop(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig(t)
	r := setupRouter(db, cache.NewMemoryCache(time.Second), cfg)

	follower := createUser(t, db, "erin")
	createUser(t, db, "frank")

	// Same redirect as a successful unfollow, no error surfaced.
	w := doGET(r, "/profile/frank/unfollow/", authCookie(t, follower))
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/profile/frank/", w.Header().Get("Location"))
}

func TestFollowUnknownUser(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig(t)
	r := setupRouter(db, cache.NewMemoryCache(time.Second), cfg)

	follower := createUser(t, db, "grace")

	w := doGET(r, "/profile/ghost/follow/", authCookie(t, follower))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
