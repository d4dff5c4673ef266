package normalizer

import (
	"encoding/json"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/competitor-discovery/internal/competitor"
)

func decode(t *testing.T, raw string) competitor.RawItem {
	t.Helper()
	var item competitor.RawItem
	require.NoError(t, json.Unmarshal([]byte(raw), &item))
	return item
}

func TestNormalizeInstagramProfile(t *testing.T) {
	t.Parallel()

	item := decode(t, `{
		"username": "gymshark",
		"fullName": "Gymshark",
		"biography": "Be a visionary.",
		"followersCount": 6800000,
		"followsCount": 120,
		"postsCount": 4321,
		"profilePicUrl": "https://cdn/sd.jpg",
		"profilePicUrlHD": "https://cdn/hd.jpg"
	}`)

	got, ok := New(zap.NewNop()).Normalize(item)
	require.True(t, ok)
	require.Equal(t, "gymshark", got.Handle)
	require.Equal(t, competitor.PlatformInstagram, got.Platform)
	require.Equal(t, "Gymshark", *got.FullName)
	require.Equal(t, "Be a visionary.", *got.Biography)
	require.EqualValues(t, 6800000, *got.FollowersCount)
	require.EqualValues(t, 120, *got.FollowingCount)
	require.EqualValues(t, 4321, *got.PostsCount)
	require.Equal(t, "https://cdn/hd.jpg", *got.AvatarURL)
}

func TestNormalizeInstagramAvatarFallbackAndMissingFields(t *testing.T) {
	t.Parallel()

	item := decode(t, `{"username": "solo", "profilePicUrl": "https://cdn/sd.jpg"}`)

	got, ok := New(nil).Normalize(item)
	require.True(t, ok)
	require.Equal(t, "https://cdn/sd.jpg", *got.AvatarURL)
	require.Nil(t, got.FullName)
	require.Nil(t, got.Biography)
	require.Nil(t, got.FollowersCount)
	require.Nil(t, got.FollowingCount)
	require.Nil(t, got.PostsCount)
}

func TestNormalizeUsernameWinsOverTikTokFields(t *testing.T) {
	t.Parallel()

	item := decode(t, `{"username": "both", "uniqueId": "tt-both"}`)

	got, ok := New(nil).Normalize(item)
	require.True(t, ok)
	require.Equal(t, competitor.PlatformInstagram, got.Platform)
	require.Equal(t, "both", got.Handle)
}

func TestNormalizeTikTokVariants(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		raw       string
		handle    string
		fullName  string
		bio       string
		followers int64
		following int64
		posts     int64
		avatar    string
	}{
		{
			name: "authorMeta preferred",
			raw: `{
				"authorMeta": {"name": "chloeting", "nickName": "Chloe Ting", "signature": "workouts",
					"fans": 25000000, "following": 10, "video": 900, "avatar": "https://cdn/meta.jpg"},
				"author": {"uniqueId": "ignored", "nickname": "Other", "signature": "other", "avatarThumb": "https://cdn/thumb.jpg"},
				"authorStats": {"followerCount": 1, "followingCount": 2, "videoCount": 3}
			}`,
			handle: "chloeting", fullName: "Chloe Ting", bio: "workouts",
			followers: 25000000, following: 10, posts: 900, avatar: "https://cdn/meta.jpg",
		},
		{
			name: "author and authorStats fallback",
			raw: `{
				"author": {"uniqueId": "pamela_rf", "nickname": "Pamela Reif", "signature": "no ads", "avatarThumb": "https://cdn/thumb.jpg"},
				"authorStats": {"followerCount": 9000000, "followingCount": 50, "videoCount": 700}
			}`,
			handle: "pamela_rf", fullName: "Pamela Reif", bio: "no ads",
			followers: 9000000, following: 50, posts: 700, avatar: "https://cdn/thumb.jpg",
		},
		{
			name: "uniqueId first",
			raw: `{
				"uniqueId": "top-level",
				"authorMeta": {"name": "meta-name", "fans": 5},
				"authorStats": {"followingCount": 6, "videoCount": 7}
			}`,
			handle: "top-level", followers: 5, following: 6, posts: 7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := New(nil).Normalize(decode(t, tt.raw))
			require.True(t, ok)
			require.Equal(t, competitor.PlatformTikTok, got.Platform)
			require.Equal(t, tt.handle, got.Handle)
			if tt.fullName == "" {
				require.Nil(t, got.FullName)
			} else {
				require.Equal(t, tt.fullName, *got.FullName)
			}
			if tt.bio == "" {
				require.Nil(t, got.Biography)
			} else {
				require.Equal(t, tt.bio, *got.Biography)
			}
			require.Equal(t, tt.followers, *got.FollowersCount)
			require.Equal(t, tt.following, *got.FollowingCount)
			require.Equal(t, tt.posts, *got.PostsCount)
			if tt.avatar == "" {
				require.Nil(t, got.AvatarURL)
			} else {
				require.Equal(t, tt.avatar, *got.AvatarURL)
			}
		})
	}
}

func TestNormalizeUnrecognized(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{
		`{}`,
		`{"url": "https://example.com", "likes": 3}`,
		`{"username": ""}`,
		`{"username": 42}`,
		`{"authorMeta": "not-an-object"}`,
		`{"author": {"nickname": "no id"}}`,
	} {
		_, ok := New(nil).Normalize(decode(t, raw))
		require.False(t, ok, raw)
	}
}

func TestNormalizeNumericCoercion(t *testing.T) {
	t.Parallel()

	item := competitor.RawItem{
		"username":       "coerce",
		"followersCount": json.Number("1500"),
		"followsCount":   "42",
		"postsCount":     "n/a",
	}
	got, ok := New(nil).Normalize(item)
	require.True(t, ok)
	require.EqualValues(t, 1500, *got.FollowersCount)
	require.EqualValues(t, 42, *got.FollowingCount)
	require.Nil(t, got.PostsCount)
}

func TestNormalizeRejectsMalformedCounts(t *testing.T) {
	t.Parallel()

	item := competitor.RawItem{
		"username":       "counts",
		"followersCount": 1.5,
		"followsCount":   1e20,
		"postsCount":     json.Number("2.5e3"),
	}
	got, ok := New(nil).Normalize(item)
	require.True(t, ok)
	require.Nil(t, got.FollowersCount)
	require.Nil(t, got.FollowingCount)
	require.EqualValues(t, 2500, *got.PostsCount)
}

func TestToInt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   any
		want int64
		ok   bool
	}{
		{name: "whole float", in: 1.2e6, want: 1200000, ok: true},
		{name: "negative whole float", in: -3.0, want: -3, ok: true},
		{name: "fractional float", in: 1.5},
		{name: "float above int64", in: 1e20},
		{name: "two to the 63", in: float64(1 << 63)},
		{name: "min int64 float", in: float64(-(1 << 63)), want: -(1 << 63), ok: true},
		{name: "float below int64", in: -1e19},
		{name: "json integer", in: json.Number("7"), want: 7, ok: true},
		{name: "json exponent", in: json.Number("1e3"), want: 1000, ok: true},
		{name: "json fraction", in: json.Number("0.25")},
		{name: "json overflow", in: json.Number("9223372036854775808")},
		{name: "numeric string", in: " 12 ", want: 12, ok: true},
		{name: "fractional string", in: "1.5"},
		{name: "bool", in: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := toInt(tt.in)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeBlankUsernameFallsThrough(t *testing.T) {
	t.Parallel()

	got, ok := New(nil).Normalize(decode(t, `{"username": "   ", "uniqueId": "tt-user"}`))
	require.True(t, ok)
	require.Equal(t, competitor.PlatformTikTok, got.Platform)
	require.Equal(t, "tt-user", got.Handle)

	got, ok = New(nil).Normalize(decode(t, `{"username": ["ig"], "authorMeta": {"name": "meta-user"}}`))
	require.True(t, ok)
	require.Equal(t, competitor.PlatformTikTok, got.Platform)
	require.Equal(t, "meta-user", got.Handle)
}

func TestProperty_UsernameMeansInstagram(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)
	n := New(nil)

	properties.Property("items with a username normalize to that Instagram handle", prop.ForAll(
		func(username, uniqueID string) bool {
			got, ok := n.Normalize(competitor.RawItem{"username": username, "uniqueId": uniqueID})
			return ok && got.Platform == competitor.PlatformInstagram && got.Handle == username
		},
		gen.Identifier(),
		gen.AlphaString(),
	))

	properties.Property("items without any handle field are unrecognized", prop.ForAll(
		func(key, value string) bool {
			switch key {
			case "username", "uniqueId", "authorMeta", "author":
				return true
			}
			_, ok := n.Normalize(competitor.RawItem{key: value})
			return !ok
		},
		gen.Identifier(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
