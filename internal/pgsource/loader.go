package pgsource

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"dearrowbrowser.dev/server/internal/hashindex"
	"dearrowbrowser.dev/server/internal/ingest"
	"dearrowbrowser.dev/server/internal/stringpool"
)

// Load builds an ingest.Result directly from the Postgres mirror schema,
// using prepared-statement-shaped queries against titles/titleVotes/
// thumbnails/thumbnailVotes/thumbnailTimestamps/userNames/vipUsers and the
// precomputed video_infos view, grounded on
// original_source/dearrow-browser-server/src/main.rs's query set. Scan
// failures on titles, thumbnails, userNames, vipUsers and video_infos rows
// are collected into Result.Errors rather than aborting, matching the CSV
// pipeline's tolerance; a scan failure on a titleVotes, thumbnailVotes or
// thumbnailTimestamps row, like a query-level failure (bad connection,
// missing table), is fatal.
func Load(ctx context.Context, pool *pgxpool.Pool, sp *stringpool.Pool) (*ingest.Result, error) {
	result := &ingest.Result{
		Usernames: make(map[string]*ingest.Username),
		VIPUsers:  make(map[string]struct{}),
	}

	titleVotes, err := loadTitleVotes(ctx, pool)
	if err != nil {
		return nil, fmt.Errorf("load titleVotes: %w", err)
	}
	if err := loadTitles(ctx, pool, sp, titleVotes, result); err != nil {
		return nil, fmt.Errorf("load titles: %w", err)
	}

	thumbTimestamps, thumbVotes, err := loadThumbnailAux(ctx, pool)
	if err != nil {
		return nil, err
	}
	if err := loadThumbnails(ctx, pool, sp, thumbTimestamps, thumbVotes, result); err != nil {
		return nil, fmt.Errorf("load thumbnails: %w", err)
	}

	if err := loadUsernames(ctx, pool, sp, result); err != nil {
		return nil, fmt.Errorf("load userNames: %w", err)
	}
	if err := loadVIPUsers(ctx, pool, result); err != nil {
		return nil, fmt.Errorf("load vipUsers: %w", err)
	}
	if err := loadVideoInfos(ctx, pool, sp, result); err != nil {
		return nil, fmt.Errorf("load video_infos: %w", err)
	}

	return result, nil
}

type titleVoteRow struct {
	votes, downvotes, verification int8
	locked, shadowHidden, removed  bool
}

func loadTitleVotes(ctx context.Context, pool *pgxpool.Pool) (map[string]titleVoteRow, error) {
	rows, err := pool.Query(ctx, `SELECT "UUID", votes, locked, "shadowHidden", verification, downvotes, removed FROM "titleVotes"`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]titleVoteRow)
	for rows.Next() {
		var uuid string
		var v titleVoteRow
		if err := rows.Scan(&uuid, &v.votes, &v.locked, &v.shadowHidden, &v.verification, &v.downvotes, &v.removed); err != nil {
			return nil, err
		}
		out[uuid] = v
	}
	return out, rows.Err()
}

func loadTitles(ctx context.Context, pool *pgxpool.Pool, sp *stringpool.Pool, votes map[string]titleVoteRow, result *ingest.Result) error {
	rows, err := pool.Query(ctx, `SELECT "UUID", "videoID", title, original, "userID", "timeSubmitted", "hashedVideoID" FROM titles`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var uuid, videoID, title, userID, hashedVideoID string
		var original bool
		var timeSubmitted int64
		if err := rows.Scan(&uuid, &videoID, &title, &original, &userID, &timeSubmitted, &hashedVideoID); err != nil {
			result.Errors = append(result.Errors, err)
			continue
		}
		v, ok := votes[uuid]
		if !ok {
			result.Errors = append(result.Errors, ingest.MissingSubobjectError(ingest.KindTitle, "titleVotes", uuid))
			continue
		}

		flags := ingest.TitleFlags(0)
		if original {
			flags |= ingest.TitleOriginal
		}
		if v.locked {
			flags |= ingest.TitleLocked
		}
		if v.shadowHidden {
			flags |= ingest.TitleShadowHidden
		}
		if v.verification < 0 {
			flags |= ingest.TitleUnverified
		}
		if v.removed {
			flags |= ingest.TitleRemoved
		}

		result.Titles = append(result.Titles, &ingest.Title{
			UUID:          sp.Intern(uuid),
			VideoID:       sp.Intern(videoID),
			Title:         sp.Intern(title),
			UserID:        sp.Intern(userID),
			TimeSubmitted: timeSubmitted,
			Votes:         v.votes,
			Downvotes:     v.downvotes,
			Flags:         flags,
			HashPrefix:    hashindex.HashPrefixOf(hashedVideoID, videoID),
		})
	}
	return rows.Err()
}

type thumbnailVoteRow struct {
	votes, downvotes               int8
	locked, shadowHidden, removed  bool
}

func loadThumbnailAux(ctx context.Context, pool *pgxpool.Pool) (map[string]float64, map[string]thumbnailVoteRow, error) {
	tsRows, err := pool.Query(ctx, `SELECT "UUID", timestamp FROM "thumbnailTimestamps"`)
	if err != nil {
		return nil, nil, fmt.Errorf("load thumbnailTimestamps: %w", err)
	}
	timestamps := make(map[string]float64)
	for tsRows.Next() {
		var uuid string
		var ts float64
		if err := tsRows.Scan(&uuid, &ts); err != nil {
			tsRows.Close()
			return nil, nil, err
		}
		timestamps[uuid] = ts
	}
	tsRows.Close()
	if err := tsRows.Err(); err != nil {
		return nil, nil, err
	}

	voteRows, err := pool.Query(ctx, `SELECT "UUID", votes, locked, "shadowHidden", downvotes, removed FROM "thumbnailVotes"`)
	if err != nil {
		return nil, nil, fmt.Errorf("load thumbnailVotes: %w", err)
	}
	defer voteRows.Close()
	votes := make(map[string]thumbnailVoteRow)
	for voteRows.Next() {
		var uuid string
		var v thumbnailVoteRow
		if err := voteRows.Scan(&uuid, &v.votes, &v.locked, &v.shadowHidden, &v.downvotes, &v.removed); err != nil {
			return nil, nil, err
		}
		votes[uuid] = v
	}
	return timestamps, votes, voteRows.Err()
}

func loadThumbnails(ctx context.Context, pool *pgxpool.Pool, sp *stringpool.Pool, timestamps map[string]float64, votes map[string]thumbnailVoteRow, result *ingest.Result) error {
	rows, err := pool.Query(ctx, `SELECT "UUID", "videoID", original, "userID", "timeSubmitted", "hashedVideoID" FROM thumbnails`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var uuid, videoID, userID, hashedVideoID string
		var original bool
		var timeSubmitted int64
		if err := rows.Scan(&uuid, &videoID, &original, &userID, &timeSubmitted, &hashedVideoID); err != nil {
			result.Errors = append(result.Errors, err)
			continue
		}
		v, ok := votes[uuid]
		if !ok {
			result.Errors = append(result.Errors, ingest.MissingSubobjectError(ingest.KindThumbnail, "thumbnailVotes", uuid))
			continue
		}
		if !original {
			if _, ok := timestamps[uuid]; !ok {
				result.Errors = append(result.Errors, ingest.MissingSubobjectError(ingest.KindThumbnail, "thumbnailTimestamps", uuid))
				continue
			}
		}

		flags := ingest.ThumbnailFlags(0)
		if original {
			flags |= ingest.ThumbnailOriginal
		}
		if v.locked {
			flags |= ingest.ThumbnailLocked
		}
		if v.shadowHidden {
			flags |= ingest.ThumbnailShadowHidden
		}
		if v.removed {
			flags |= ingest.ThumbnailRemoved
		}

		var tsPtr *float64
		if ts, ok := timestamps[uuid]; ok {
			tsCopy := ts
			tsPtr = &tsCopy
		}

		result.Thumbnails = append(result.Thumbnails, &ingest.Thumbnail{
			UUID:          sp.Intern(uuid),
			VideoID:       sp.Intern(videoID),
			UserID:        sp.Intern(userID),
			TimeSubmitted: timeSubmitted,
			Timestamp:     tsPtr,
			Votes:         v.votes,
			Downvotes:     v.downvotes,
			Flags:         flags,
			HashPrefix:    hashindex.HashPrefixOf(hashedVideoID, videoID),
		})
	}
	return rows.Err()
}

func loadUsernames(ctx context.Context, pool *pgxpool.Pool, sp *stringpool.Pool, result *ingest.Result) error {
	rows, err := pool.Query(ctx, `SELECT "userID", "userName", locked FROM "userNames"`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var userID, username string
		var locked bool
		if err := rows.Scan(&userID, &username, &locked); err != nil {
			result.Errors = append(result.Errors, err)
			continue
		}
		result.Usernames[userID] = &ingest.Username{
			UserID:   sp.Intern(userID),
			Username: sp.Intern(username),
			Locked:   locked,
		}
	}
	return rows.Err()
}

func loadVIPUsers(ctx context.Context, pool *pgxpool.Pool, result *ingest.Result) error {
	rows, err := pool.Query(ctx, `SELECT "userID" FROM "vipUsers"`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			result.Errors = append(result.Errors, err)
			continue
		}
		result.VIPUsers[userID] = struct{}{}
	}
	return rows.Err()
}

func loadVideoInfos(ctx context.Context, pool *pgxpool.Pool, sp *stringpool.Pool, result *ingest.Result) error {
	rows, err := pool.Query(ctx, `SELECT "videoID", "videoDuration", "hasOutro", "uncutSegments" FROM video_infos`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var videoID string
		var duration float64
		var hasOutro bool
		var segmentsJSON []byte
		if err := rows.Scan(&videoID, &duration, &hasOutro, &segmentsJSON); err != nil {
			result.Errors = append(result.Errors, err)
			continue
		}
		var raw []struct {
			Offset float64 `json:"offset"`
			Length float64 `json:"length"`
		}
		if err := json.Unmarshal(segmentsJSON, &raw); err != nil {
			result.Errors = append(result.Errors, err)
			continue
		}
		uncut := make([]ingest.UncutSegment, len(raw))
		for i, s := range raw {
			uncut[i] = ingest.UncutSegment{Offset: s.Offset, Length: s.Length}
		}

		handle := sp.Intern(videoID)
		vi := &ingest.VideoInfo{VideoID: handle, VideoDuration: duration, HasOutro: hasOutro, UncutSegments: uncut}
		prefix := hashindex.ComputeHashPrefix(videoID)
		result.VideoInfos[prefix] = append(result.VideoInfos[prefix], vi)
	}
	return rows.Err()
}
