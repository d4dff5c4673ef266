// Package normalizer converts platform-specific actor items into canonical competitors.
package normalizer

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/competitor-discovery/internal/competitor"
)

// rule pairs a shape check with the mapper that runs when it matches.
// Rules are evaluated in order; the first match wins.
type rule struct {
	platform competitor.Platform
	handle   func(competitor.RawItem) string
	mapFn    func(competitor.RawItem) competitor.Competitor
}

var rules = []rule{
	{platform: competitor.PlatformInstagram, handle: instagramHandle, mapFn: mapInstagram},
	{platform: competitor.PlatformTikTok, handle: tiktokHandle, mapFn: mapTikTok},
}

// Normalizer maps raw dataset items onto competitor.Competitor.
type Normalizer struct {
	logger *zap.Logger
}

// New constructs a Normalizer.
func New(logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{logger: logger}
}

// Normalize returns the canonical record for item, or false when no platform
// shape matches. Score and inclusion reason are left for the selector.
func (n *Normalizer) Normalize(item competitor.RawItem) (competitor.Competitor, bool) {
	for _, r := range rules {
		handle := r.handle(item)
		if handle == "" {
			continue
		}
		record := r.mapFn(item)
		record.Handle = handle
		record.Platform = r.platform
		return record, true
	}
	n.logger.Warn("unrecognized dataset item", zap.Strings("keys", keysOf(item)))
	return competitor.Competitor{}, false
}

func instagramHandle(item competitor.RawItem) string {
	return stringAt(item, "username")
}

func mapInstagram(item competitor.RawItem) competitor.Competitor {
	return competitor.Competitor{
		FullName:       optString(item, "fullName"),
		Biography:      optString(item, "biography"),
		FollowersCount: optInt(item, "followersCount"),
		FollowingCount: optInt(item, "followsCount"),
		PostsCount:     optInt(item, "postsCount"),
		AvatarURL:      optString(item, "profilePicUrlHD", "profilePicUrl"),
	}
}

func tiktokHandle(item competitor.RawItem) string {
	return firstString(item, "uniqueId", "authorMeta.name", "author.uniqueId")
}

func mapTikTok(item competitor.RawItem) competitor.Competitor {
	return competitor.Competitor{
		FullName:       optString(item, "authorMeta.nickName", "author.nickname"),
		Biography:      optString(item, "authorMeta.signature", "author.signature"),
		FollowersCount: optInt(item, "authorMeta.fans", "authorStats.followerCount"),
		FollowingCount: optInt(item, "authorMeta.following", "authorStats.followingCount"),
		PostsCount:     optInt(item, "authorMeta.video", "authorStats.videoCount"),
		AvatarURL:      optString(item, "authorMeta.avatar", "author.avatarThumb"),
	}
}

// lookup resolves a dotted path through nested objects.
func lookup(item competitor.RawItem, path string) (any, bool) {
	var cur any = map[string]any(item)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[part]
		if !ok || cur == nil {
			return nil, false
		}
	}
	return cur, true
}

func stringAt(item competitor.RawItem, path string) string {
	v, ok := lookup(item, path)
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

func firstString(item competitor.RawItem, paths ...string) string {
	for _, p := range paths {
		if s := stringAt(item, p); s != "" {
			return s
		}
	}
	return ""
}

func optString(item competitor.RawItem, paths ...string) *string {
	s := firstString(item, paths...)
	if s == "" {
		return nil
	}
	return &s
}

func optInt(item competitor.RawItem, paths ...string) *int64 {
	for _, p := range paths {
		v, ok := lookup(item, p)
		if !ok {
			continue
		}
		if n, ok := toInt(v); ok {
			return &n
		}
	}
	return nil
}

// Bounds of int64 as exact float64 values; 2^63 itself does not fit.
const (
	minIntFloat = -(1 << 63)
	maxIntFloat = 1 << 63
)

// floatToInt accepts only whole values that fit in int64. Counts with a
// fraction or beyond range are malformed and read as absent.
func floatToInt(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f < minIntFloat || f >= maxIntFloat {
		return 0, false
	}
	return int64(f), true
}

func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return floatToInt(n)
	case int:
		return int64(n), true
	case int64:
		return n, true
	case json.Number:
		i, err := n.Int64()
		if err == nil {
			return i, true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return floatToInt(f)
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

func keysOf(item competitor.RawItem) []string {
	keys := make([]string, 0, len(item))
	for k := range item {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
