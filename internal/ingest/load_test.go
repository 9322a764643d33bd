package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"dearrowbrowser.dev/server/internal/hashindex"
	"dearrowbrowser.dev/server/internal/stringpool"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, dir string) Paths {
	t.Helper()
	write := func(name, contents string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644))
	}

	write("thumbnails.csv", "videoID,original,userID,timeSubmitted,UUID,hashedVideoID\n"+
		"vid1,1,user1,1000,thumb-uuid-1,0000abcd\n")
	write("thumbnailTimestamps.csv", "UUID,timestamp\n")
	write("thumbnailVotes.csv", "UUID,votes,locked,shadowHidden,downvotes,removed\n"+
		"thumb-uuid-1,2,0,0,0,0\n")

	write("titles.csv", "videoID,title,original,userID,timeSubmitted,UUID,hashedVideoID\n"+
		"vid1,Hello World,1,user1,1000,title-uuid-1,0000abcd\n")
	write("titleVotes.csv", "UUID,votes,locked,shadowHidden,verification,downvotes,removed\n"+
		"title-uuid-1,3,0,0,0,0,0\n")

	write("userNames.csv", "userID,userName,locked\n"+
		"user1,SomeUser,0\n")
	write("vipUsers.csv", "userID\nuser1\n")

	write("sponsorTimes.csv", "videoID,startTime,endTime,videoDuration,votes,shadowHidden,hidden,category,actionType,hashedVideoID,timeSubmitted\n"+
		"vid1,40,60,100,5,0,0,sponsor,skip,0000abcd,2000\n")

	return DirPaths(dir)
}

func TestLoadMergesFixture(t *testing.T) {
	dir := t.TempDir()
	paths := writeFixture(t, dir)
	pool := stringpool.New()

	result, err := Load(pool, paths)
	require.NoError(t, err)
	require.Empty(t, result.Errors)

	require.Len(t, result.Thumbnails, 1)
	require.Len(t, result.Titles, 1)
	require.Equal(t, "Hello World", result.Titles[0].Title.String())
	require.True(t, result.Titles[0].Flags.Has(TitleOriginal))

	_, isVIP := result.VIPUsers["user1"]
	require.True(t, isVIP)

	prefix := hashindex.ComputeHashPrefix("vid1")
	infos := result.VideoInfos[prefix]
	require.Len(t, infos, 1)
	require.Equal(t, "vid1", infos[0].VideoID.String())
	require.Equal(t, 100.0, infos[0].VideoDuration)
	require.Len(t, infos[0].UncutSegments, 2)
}

func TestLoadMissingFileIsFatal(t *testing.T) {
	dir := t.TempDir()
	paths := writeFixture(t, dir)
	require.NoError(t, os.Remove(paths.Titles))

	_, err := Load(stringpool.New(), paths)
	require.Error(t, err)
}

func TestLoadSkipsRowWithMissingVotes(t *testing.T) {
	dir := t.TempDir()
	paths := writeFixture(t, dir)
	// Add a thumbnail row with no matching thumbnailVotes entry.
	f, err := os.OpenFile(paths.Thumbnails, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("vid2,1,user1,1000,thumb-uuid-orphan,00001234\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	pool := stringpool.New()
	result, err := Load(pool, paths)
	require.NoError(t, err)
	require.Len(t, result.Thumbnails, 1)
	require.Len(t, result.Errors, 1)
	var missing *ParseError
	require.ErrorAs(t, result.Errors[0], &missing)
}

func TestLoadSkipsRowWithInvalidBoolean(t *testing.T) {
	dir := t.TempDir()
	paths := writeFixture(t, dir)
	require.NoError(t, os.WriteFile(paths.TitleVotes, []byte(
		"UUID,votes,locked,shadowHidden,verification,downvotes,removed\n"+
			"title-uuid-1,3,9,0,0,0,0\n"), 0o644))

	result, err := Load(stringpool.New(), paths)
	require.NoError(t, err)
	require.Empty(t, result.Titles)
	require.Len(t, result.Errors, 1)
}

func TestLoadHashPrefixMatchesComputed(t *testing.T) {
	dir := t.TempDir()
	write := func(name, contents string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644))
	}
	write("thumbnails.csv", "videoID,original,userID,timeSubmitted,UUID,hashedVideoID\n")
	write("thumbnailTimestamps.csv", "UUID,timestamp\n")
	write("thumbnailVotes.csv", "UUID,votes,locked,shadowHidden,downvotes,removed\n")
	write("titles.csv", "videoID,title,original,userID,timeSubmitted,UUID,hashedVideoID\n")
	write("titleVotes.csv", "UUID,votes,locked,shadowHidden,verification,downvotes,removed\n")
	write("userNames.csv", "userID,userName,locked\n")
	write("vipUsers.csv", "userID\n")
	write("sponsorTimes.csv", "videoID,startTime,endTime,videoDuration,votes,shadowHidden,hidden,category,actionType,hashedVideoID,timeSubmitted\n"+
		"vid-no-hash,0,10,50,5,0,0,sponsor,skip,,2000\n")

	pool := stringpool.New()
	result, err := Load(pool, DirPaths(dir))
	require.NoError(t, err)

	prefix := hashindex.ComputeHashPrefix("vid-no-hash")
	require.Len(t, result.VideoInfos[prefix], 1)
}
