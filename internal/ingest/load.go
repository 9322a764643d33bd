package ingest

import (
	"dearrowbrowser.dev/server/internal/csvtable"
	"dearrowbrowser.dev/server/internal/hashindex"
	"dearrowbrowser.dev/server/internal/segments"
	"dearrowbrowser.dev/server/internal/stringpool"
)

// Paths names the eight CSV files that make up one mirror directory.
type Paths struct {
	Thumbnails          string
	ThumbnailTimestamps string
	ThumbnailVotes      string
	Titles              string
	TitleVotes          string
	Usernames           string
	VIPUsers            string
	SponsorTimes        string
}

// DirPaths fills in the standard file names under dir.
func DirPaths(dir string) Paths {
	join := func(name string) string {
		if dir == "" {
			return name
		}
		return dir + "/" + name
	}
	return Paths{
		Thumbnails:          join("thumbnails.csv"),
		ThumbnailTimestamps: join("thumbnailTimestamps.csv"),
		ThumbnailVotes:      join("thumbnailVotes.csv"),
		Titles:              join("titles.csv"),
		TitleVotes:          join("titleVotes.csv"),
		Usernames:           join("userNames.csv"),
		VIPUsers:            join("vipUsers.csv"),
		SponsorTimes:        join("sponsorTimes.csv"),
	}
}

// Result is everything Load produces from one pass over a mirror directory.
type Result struct {
	Titles     []*Title
	Thumbnails []*Thumbnail
	Usernames  map[string]*Username // keyed by UserID string, not handle, for simple lookup
	VIPUsers   map[string]struct{}
	VideoInfos [hashindex.NumBuckets][]*VideoInfo
	Errors     []error
}

// videoDurationAcc accumulates the canonical duration/outro info for one
// video across however many sponsorTimes rows reference it.
type videoDurationAcc struct {
	videoID       string
	timeSubmitted int64
	videoDuration float64
	hasOutro      bool
}

// Load streams all eight CSV tables under paths, merges them, reduces
// SponsorBlock segments into uncut-segment intervals, and interns the string
// fields of every merged record into pool (VIP user IDs are kept as plain
// strings). VideoInfos are bucketed by the SHA-256 prefix of the video ID,
// the same key snapshot.VideoInfoFor looks them up by. It never aborts on a single bad row: row-level failures
// are appended to Result.Errors and skipped, matching the original parser's
// "keep going" behavior. It returns a non-nil error only for a structural
// failure (a missing/unreadable file).
func Load(pool *stringpool.Pool, paths Paths) (*Result, error) {
	// Verify every file is present before doing any work, so a single missing
	// file fails fast instead of partway through a multi-minute ingest.
	for _, p := range []string{
		paths.Thumbnails, paths.ThumbnailTimestamps, paths.ThumbnailVotes,
		paths.Titles, paths.TitleVotes, paths.Usernames, paths.VIPUsers, paths.SponsorTimes,
	} {
		if err := checkReadable(p); err != nil {
			return nil, err
		}
	}

	result := &Result{
		Usernames: make(map[string]*Username),
		VIPUsers:  make(map[string]struct{}),
	}

	thumbTimestamps := make(map[string]rawThumbnailTimestamp)
	if err := csvtable.Each(paths.ThumbnailTimestamps, func(r csvtable.Row) error {
		ts, err := parseFloat64(r.Get("timestamp"), "timestamp")
		if err != nil {
			result.Errors = append(result.Errors, err)
			return nil
		}
		thumbTimestamps[r.Get("UUID")] = rawThumbnailTimestamp{UUID: r.Get("UUID"), Timestamp: ts}
		return nil
	}); err != nil {
		return nil, err
	}

	thumbVotes := make(map[string]rawThumbnailVotes)
	if err := csvtable.Each(paths.ThumbnailVotes, func(r csvtable.Row) error {
		v, err := parseThumbnailVotesRow(r)
		if err != nil {
			result.Errors = append(result.Errors, err)
			return nil
		}
		thumbVotes[v.UUID] = v
		return nil
	}); err != nil {
		return nil, err
	}

	if err := csvtable.Each(paths.Thumbnails, func(r csvtable.Row) error {
		raw, err := parseThumbnailRow(r)
		if err != nil {
			result.Errors = append(result.Errors, err)
			return nil
		}
		votes, ok := thumbVotes[raw.UUID]
		if !ok {
			result.Errors = append(result.Errors, newParseError(KindThumbnail, MissingSubobject{StructName: "ThumbnailVotes", UUID: raw.UUID}))
			return nil
		}
		var ts *rawThumbnailTimestamp
		if t, ok := thumbTimestamps[raw.UUID]; ok {
			ts = &t
		}
		merged, err := mergeThumbnail(pool, raw, ts, votes)
		if err != nil {
			result.Errors = append(result.Errors, err)
			return nil
		}
		result.Thumbnails = append(result.Thumbnails, merged)
		return nil
	}); err != nil {
		return nil, err
	}

	titleVotes := make(map[string]rawTitleVotes)
	if err := csvtable.Each(paths.TitleVotes, func(r csvtable.Row) error {
		v, err := parseTitleVotesRow(r)
		if err != nil {
			result.Errors = append(result.Errors, err)
			return nil
		}
		titleVotes[v.UUID] = v
		return nil
	}); err != nil {
		return nil, err
	}

	if err := csvtable.Each(paths.Titles, func(r csvtable.Row) error {
		raw, err := parseTitleRow(r)
		if err != nil {
			result.Errors = append(result.Errors, err)
			return nil
		}
		votes, ok := titleVotes[raw.UUID]
		if !ok {
			result.Errors = append(result.Errors, newParseError(KindTitle, MissingSubobject{StructName: "TitleVotes", UUID: raw.UUID}))
			return nil
		}
		merged, err := mergeTitle(pool, raw, votes)
		if err != nil {
			result.Errors = append(result.Errors, err)
			return nil
		}
		result.Titles = append(result.Titles, merged)
		return nil
	}); err != nil {
		return nil, err
	}

	if err := csvtable.Each(paths.Usernames, func(r csvtable.Row) error {
		raw := rawUsername{UserID: r.Get("userID"), Username: r.Get("userName")}
		locked, err := parseInt8(r.Get("locked"), "locked")
		if err != nil {
			result.Errors = append(result.Errors, err)
			return nil
		}
		raw.Locked = locked
		merged, err := mergeUsername(pool, raw)
		if err != nil {
			result.Errors = append(result.Errors, err)
			return nil
		}
		result.Usernames[raw.UserID] = merged
		return nil
	}); err != nil {
		return nil, err
	}

	if err := csvtable.Each(paths.VIPUsers, func(r csvtable.Row) error {
		result.VIPUsers[r.Get("userID")] = struct{}{}
		return nil
	}); err != nil {
		return nil, err
	}

	durations := make(map[uint16]map[string]*videoDurationAcc)
	rawSegments := make(map[uint16]map[string][]segments.Segment)
	if err := csvtable.Each(paths.SponsorTimes, func(r csvtable.Row) error {
		raw, err := parseSponsorTimeRow(r)
		if err != nil {
			result.Errors = append(result.Errors, err)
			return nil
		}
		if !sponsorTimeFiltered(raw) {
			return nil
		}
		prefix := hashindex.ComputeHashPrefix(raw.VideoID)

		if durations[prefix] == nil {
			durations[prefix] = make(map[string]*videoDurationAcc)
		}
		hasOutro := raw.Category == "outro"
		if acc, ok := durations[prefix][raw.VideoID]; ok {
			if acc.timeSubmitted < raw.TimeSubmitted {
				newHasOutro := hasOutro || acc.hasOutro
				durations[prefix][raw.VideoID] = &videoDurationAcc{
					videoID: raw.VideoID, timeSubmitted: raw.TimeSubmitted,
					videoDuration: raw.VideoDuration, hasOutro: newHasOutro,
				}
			} else {
				acc.hasOutro = acc.hasOutro || hasOutro
			}
		} else {
			durations[prefix][raw.VideoID] = &videoDurationAcc{
				videoID: raw.VideoID, timeSubmitted: raw.TimeSubmitted,
				videoDuration: raw.VideoDuration, hasOutro: hasOutro,
			}
		}

		if rawSegments[prefix] == nil {
			rawSegments[prefix] = make(map[string][]segments.Segment)
		}
		rawSegments[prefix][raw.VideoID] = append(rawSegments[prefix][raw.VideoID], segments.Segment{Start: raw.StartTime, End: raw.EndTime})
		return nil
	}); err != nil {
		return nil, err
	}

	for prefix, byVideo := range durations {
		for videoID, acc := range byVideo {
			resolvedDuration := acc.videoDuration
			if resolvedDuration <= 0 {
				max := 0.0
				found := false
				for _, s := range rawSegments[prefix][videoID] {
					if !found || s.End > max {
						max = s.End
						found = true
					}
				}
				if !found {
					continue // no duration, no segments: no data, matches original's skip
				}
				resolvedDuration = max
			}

			uncut := segments.Reduce(rawSegments[prefix][videoID], resolvedDuration)
			vi := &VideoInfo{
				VideoID:       pool.Intern(videoID),
				VideoDuration: acc.videoDuration,
				HasOutro:      acc.hasOutro,
			}
			vi.UncutSegments = make([]UncutSegment, len(uncut))
			for i, u := range uncut {
				vi.UncutSegments[i] = UncutSegment{Offset: u.Offset, Length: u.Length}
			}
			result.VideoInfos[prefix] = append(result.VideoInfos[prefix], vi)
		}
	}

	return result, nil
}

func checkReadable(path string) error {
	r, err := csvtable.Open(path)
	if err != nil {
		return err
	}
	return r.Close()
}

func parseThumbnailRow(r csvtable.Row) (rawThumbnail, error) {
	original, err := parseInt8(r.Get("original"), "original")
	if err != nil {
		return rawThumbnail{}, err
	}
	ts, err := parseInt64(r.Get("timeSubmitted"), "timeSubmitted")
	if err != nil {
		return rawThumbnail{}, err
	}
	return rawThumbnail{
		VideoID: r.Get("videoID"), Original: original, UserID: r.Get("userID"),
		TimeSubmitted: ts, UUID: r.Get("UUID"), HashedVideoID: r.Get("hashedVideoID"),
	}, nil
}

func parseThumbnailVotesRow(r csvtable.Row) (rawThumbnailVotes, error) {
	var v rawThumbnailVotes
	var err error
	v.UUID = r.Get("UUID")
	if v.Votes, err = parseInt8(r.Get("votes"), "votes"); err != nil {
		return v, err
	}
	if v.Locked, err = parseInt8(r.Get("locked"), "locked"); err != nil {
		return v, err
	}
	if v.ShadowHidden, err = parseInt8(r.Get("shadowHidden"), "shadowHidden"); err != nil {
		return v, err
	}
	if v.Downvotes, err = parseInt8(r.Get("downvotes"), "downvotes"); err != nil {
		return v, err
	}
	if v.Removed, err = parseInt8(r.Get("removed"), "removed"); err != nil {
		return v, err
	}
	return v, nil
}

func parseTitleRow(r csvtable.Row) (rawTitle, error) {
	original, err := parseInt8(r.Get("original"), "original")
	if err != nil {
		return rawTitle{}, err
	}
	ts, err := parseInt64(r.Get("timeSubmitted"), "timeSubmitted")
	if err != nil {
		return rawTitle{}, err
	}
	return rawTitle{
		VideoID: r.Get("videoID"), Title: r.Get("title"), Original: original,
		UserID: r.Get("userID"), TimeSubmitted: ts, UUID: r.Get("UUID"),
		HashedVideoID: r.Get("hashedVideoID"),
	}, nil
}

func parseTitleVotesRow(r csvtable.Row) (rawTitleVotes, error) {
	var v rawTitleVotes
	var err error
	v.UUID = r.Get("UUID")
	if v.Votes, err = parseInt8(r.Get("votes"), "votes"); err != nil {
		return v, err
	}
	if v.Locked, err = parseInt8(r.Get("locked"), "locked"); err != nil {
		return v, err
	}
	if v.ShadowHidden, err = parseInt8(r.Get("shadowHidden"), "shadowHidden"); err != nil {
		return v, err
	}
	if v.Verification, err = parseInt8(r.Get("verification"), "verification"); err != nil {
		return v, err
	}
	if v.Downvotes, err = parseInt8(r.Get("downvotes"), "downvotes"); err != nil {
		return v, err
	}
	if v.Removed, err = parseInt8(r.Get("removed"), "removed"); err != nil {
		return v, err
	}
	return v, nil
}

func parseSponsorTimeRow(r csvtable.Row) (rawSponsorTime, error) {
	var raw rawSponsorTime
	var err error
	raw.VideoID = r.Get("videoID")
	raw.Category = r.Get("category")
	raw.ActionType = r.Get("actionType")
	raw.HashedVideoID = r.Get("hashedVideoID")
	if raw.StartTime, err = parseFloat64(r.Get("startTime"), "startTime"); err != nil {
		return raw, err
	}
	if raw.EndTime, err = parseFloat64(r.Get("endTime"), "endTime"); err != nil {
		return raw, err
	}
	if raw.VideoDuration, err = parseFloat64(r.Get("videoDuration"), "videoDuration"); err != nil {
		return raw, err
	}
	if raw.Votes, err = parseInt16(r.Get("votes"), "votes"); err != nil {
		return raw, err
	}
	if raw.ShadowHidden, err = parseInt8(r.Get("shadowHidden"), "shadowHidden"); err != nil {
		return raw, err
	}
	if raw.Hidden, err = parseInt8(r.Get("hidden"), "hidden"); err != nil {
		return raw, err
	}
	if raw.TimeSubmitted, err = parseInt64(r.Get("timeSubmitted"), "timeSubmitted"); err != nil {
		return raw, err
	}
	return raw, nil
}
