package httpapi

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"dearrowbrowser.dev/server/internal/reload"
)

const testAuthSecret = "topsecret"

func writeFixtureMirror(t *testing.T, dir string) {
	t.Helper()
	write := func(name, contents string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644))
	}
	write("thumbnails.csv", "videoID,original,userID,timeSubmitted,UUID,hashedVideoID\n"+
		"vid1,1,user1,1000,thumb-1,0000abcd\n"+
		"vid1,0,user2,2000,thumb-2,0000abcd\n"+
		"vid1,1,user1,3000,thumb-3,0000abcd\n")
	write("thumbnailTimestamps.csv", "UUID,timestamp\nthumb-2,5.5\n")
	write("thumbnailVotes.csv", "UUID,votes,locked,shadowHidden,downvotes,removed\n"+
		"thumb-1,1,0,0,0,0\n"+
		"thumb-2,2,0,0,0,0\n"+
		"thumb-3,0,0,0,1,0\n")
	write("titles.csv", "videoID,title,original,userID,timeSubmitted,UUID,hashedVideoID\n"+
		"vid1,Hello <world>,1,user1,1000,title-1,0000abcd\n")
	write("titleVotes.csv", "UUID,votes,locked,shadowHidden,verification,downvotes,removed\n"+
		"title-1,2,0,0,0,0,0\n")
	write("userNames.csv", "userID,userName,locked\nuser1,Alice,0\n")
	write("vipUsers.csv", "userID\nuser1\n")
	write("sponsorTimes.csv", "videoID,startTime,endTime,videoDuration,votes,shadowHidden,hidden,category,actionType,hashedVideoID,timeSubmitted\n"+
		"vid1,0,10,100,1,0,0,sponsor,skip,0000abcd,1000\n")
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	writeFixtureMirror(t, dir)
	controller := reload.NewController(dir)
	require.NoError(t, controller.Load())
	return New(controller, testAuthSecret, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func doRequest(s *Server, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestStatusReportsCounts(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(s, http.MethodGet, "/api/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var status StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	require.Equal(t, 1, status.Titles)
	require.Equal(t, 3, status.Thumbnails)
	require.False(t, status.UpdatingNow)
}

func TestNewestTitlesReturnsETag(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(s, http.MethodGet, "/api/titles")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get("ETag"))

	var titles []ApiTitle
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &titles))
	require.Len(t, titles, 1)
	require.Equal(t, "Hello <world>", titles[0].Title)
}

func TestConditionalGetShortCircuits(t *testing.T) {
	s := newTestServer(t)
	first := doRequest(s, http.MethodGet, "/api/titles")
	etag := first.Header().Get("ETag")

	req := httptest.NewRequest(http.MethodGet, "/api/titles", nil)
	req.Header.Set("If-None-Match", etag)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotModified, rec.Code)
}

func TestTitleByUUIDNotFound(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(s, http.MethodGet, "/api/titles/uuid/does-not-exist")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTitlesByVideoIDEmptyIsNotFound(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(s, http.MethodGet, "/api/titles/video_id/unknown-video")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReloadRequiresAuth(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(s, http.MethodPost, "/api/reload")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(s, http.MethodPost, "/api/reload?auth=wrong")
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(s, http.MethodPost, "/api/reload?auth="+testAuthSecret)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestVideoBrandingRendersTitleAndRandomTime(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(s, http.MethodGet, "/api/branding?videoID=vid1")
	require.Equal(t, http.StatusOK, rec.Code)

	var video SBApiVideo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &video))
	require.Len(t, video.Titles, 1)
	require.Equal(t, "Hello ‹world>", video.Titles[0].Title)
	require.GreaterOrEqual(t, video.RandomTime, 0.0)
	require.Less(t, video.RandomTime, 1.0)
	require.NotNil(t, video.VideoDuration)
}

func TestVideoBrandingUnknownVideoIs404(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(s, http.MethodGet, "/api/branding?videoID=unknown")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChunkBrandingRejectsBadPrefix(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(s, http.MethodGet, "/api/branding/xyz")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChunkBrandingGroupsVideo(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(s, http.MethodGet, "/api/branding/0000")
	require.Equal(t, http.StatusOK, rec.Code)

	var chunk map[string]SBApiVideo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &chunk))
	require.Contains(t, chunk, "vid1")
}

func TestChunkBrandingFetchAllIncludesBelowThresholdThumbnail(t *testing.T) {
	s := newTestServer(t)

	withoutFetchAll := doRequest(s, http.MethodGet, "/api/branding/0000")
	require.Equal(t, http.StatusOK, withoutFetchAll.Code)
	var chunkDefault map[string]SBApiVideo
	require.NoError(t, json.Unmarshal(withoutFetchAll.Body.Bytes(), &chunkDefault))
	require.Len(t, chunkDefault["vid1"].Thumbnails, 2, "thumb-3 (score -1) fails the default chunk threshold")

	withFetchAll := doRequest(s, http.MethodGet, "/api/branding/0000?fetchAll=true")
	require.Equal(t, http.StatusOK, withFetchAll.Code)
	var chunkAll map[string]SBApiVideo
	require.NoError(t, json.Unmarshal(withFetchAll.Body.Bytes(), &chunkAll))
	require.Len(t, chunkAll["vid1"].Thumbnails, 3, "fetchAll=true relaxes the floor to -1 and includes thumb-3")
}

func TestUserInfoKnownUser(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(s, http.MethodGet, "/api/userInfo?publicUserID=user1")
	require.Equal(t, http.StatusOK, rec.Code)

	var info UserInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	require.Equal(t, "Alice", info.UserName)
	require.True(t, info.VIP)
	require.Equal(t, 1, info.TitleSubmissionCount)
}

func TestUserInfoUnknownUserFallsBackToID(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(s, http.MethodGet, "/api/userInfo?publicUserID=ghost")
	require.Equal(t, http.StatusOK, rec.Code)

	var info UserInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	require.Equal(t, "ghost", info.UserName)
	require.False(t, info.VIP)
}
