package reload

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeMirror(t *testing.T, dir string) {
	t.Helper()
	write := func(name, contents string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644))
	}
	write("thumbnails.csv", "videoID,original,userID,timeSubmitted,UUID,hashedVideoID\n"+
		"vid1,1,user1,1000,thumb-1,0000abcd\n")
	write("thumbnailTimestamps.csv", "UUID,timestamp\n")
	write("thumbnailVotes.csv", "UUID,votes,locked,shadowHidden,downvotes,removed\n"+
		"thumb-1,1,0,0,0,0\n")
	write("titles.csv", "videoID,title,original,userID,timeSubmitted,UUID,hashedVideoID\n"+
		"vid1,Hello,1,user1,1000,title-1,0000abcd\n")
	write("titleVotes.csv", "UUID,votes,locked,shadowHidden,verification,downvotes,removed\n"+
		"title-1,1,0,0,0,0,0\n")
	write("userNames.csv", "userID,userName,locked\nuser1,U,0\n")
	write("vipUsers.csv", "userID\n")
	write("sponsorTimes.csv", "videoID,startTime,endTime,videoDuration,votes,shadowHidden,hidden,category,actionType,hashedVideoID,timeSubmitted\n")
}

func TestLoadPublishesSnapshot(t *testing.T) {
	dir := t.TempDir()
	writeMirror(t, dir)
	c := NewController(dir)
	require.NoError(t, c.Load())

	_, snap := c.Current()
	require.NotNil(t, snap)
	require.Len(t, snap.Titles, 1)
}

func TestReloadRejectsConcurrentReload(t *testing.T) {
	dir := t.TempDir()
	writeMirror(t, dir)
	c := NewController(dir)
	require.NoError(t, c.Load())

	c.mu.Lock()
	c.updatingNow = true
	c.mu.Unlock()

	err := c.Reload()
	require.Error(t, err)

	c.mu.Lock()
	c.updatingNow = false
	c.mu.Unlock()
}

func TestLoadFatalErrorLeavesNoSnapshot(t *testing.T) {
	dir := t.TempDir()
	c := NewController(dir)
	err := c.Load()
	require.Error(t, err)

	_, snap := c.Current()
	require.Nil(t, snap)
}

func TestConcurrentReadersDuringReload(t *testing.T) {
	dir := t.TempDir()
	writeMirror(t, dir)
	c := NewController(dir)
	require.NoError(t, c.Load())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, snap := c.Current()
			require.NotNil(t, snap)
		}()
	}
	require.NoError(t, c.Reload())
	wg.Wait()
}
