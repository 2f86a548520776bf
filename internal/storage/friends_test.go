package storage

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kathyli05/kathboard/internal/models"
)

func TestCreateAndGetFriend(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateFriend(ctx, "Alice", map[string]any{
		"hometown":     "Boston",
		"email":        "alice@example.com",
		"is_favorite":  true,
		"languages":    []any{"English", "Spanish"},
		"social_media": map[string]any{"instagram": "@alice", "x": "@alice_x"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	f, err := s.GetFriend(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, id, f.ID)
	assert.Equal(t, "Alice", f.Name)
	require.NotNil(t, f.Hometown)
	assert.Equal(t, "Boston", *f.Hometown)
	require.NotNil(t, f.Email)
	assert.Equal(t, "alice@example.com", *f.Email)
	assert.Nil(t, f.Phone)
	assert.True(t, f.IsFavorite)
	assert.False(t, f.Hidden)

	assert.True(t, f.Languages.Valid)
	assert.Equal(t, []string{"English", "Spanish"}, f.Languages.Decoded)
	assert.Equal(t, map[string]string{"instagram": "@alice", "x": "@alice_x"}, f.SocialMedia.Decoded)
	assert.Equal(t, f.CreatedAt, f.UpdatedAt)
}

func TestCreateFriendIgnoresUnknownFields(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateFriend(ctx, "Bob", map[string]any{
		"favorite_food":    "pizza",
		"id; DROP TABLE x": "nope",
		"nickname":         "Bobby",
	})
	require.NoError(t, err)

	f, err := s.GetFriend(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, f.Nickname)
	assert.Equal(t, "Bobby", *f.Nickname)

	data, err := json.Marshal(f)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "favorite_food")
}

func TestCreateFriendRequiresName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"", "   "} {
		_, err := s.CreateFriend(ctx, name, nil)
		require.Error(t, err)
		assert.True(t, IsValidation(err), "got %T", err)
	}

	friends, err := s.ListFriends(ctx, models.FriendFilter{IncludeHidden: true})
	require.NoError(t, err)
	assert.Empty(t, friends)
}

func TestCreateFriendRejectsBadFlag(t *testing.T) {
	s := newTestStore(t)
	_, err := s.CreateFriend(context.Background(), "Carol", map[string]any{"hidden": "sometimes"})
	require.Error(t, err)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "hidden", ve.Field)
}

func TestGetFriendNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetFriend(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestUpdateFriendMergesFields(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateFriend(ctx, "Dana", map[string]any{
		"hometown":  "Denver",
		"languages": []string{"English"},
	})
	require.NoError(t, err)
	before, err := s.GetFriend(ctx, id)
	require.NoError(t, err)

	err = s.UpdateFriend(ctx, id, map[string]any{
		"current_city": "Chicago",
		"languages":    []any{"English", "French"},
		"unknown":      "ignored",
	})
	require.NoError(t, err)

	after, err := s.GetFriend(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, after.Hometown)
	assert.Equal(t, "Denver", *after.Hometown, "untouched field keeps its value")
	require.NotNil(t, after.CurrentCity)
	assert.Equal(t, "Chicago", *after.CurrentCity)
	assert.Equal(t, []string{"English", "French"}, after.Languages.Decoded)
	assert.Equal(t, before.CreatedAt, after.CreatedAt)
	assert.Greater(t, after.UpdatedAt, before.UpdatedAt)
}

func TestUpdateFriendRenameAndClear(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateFriend(ctx, "Eve", map[string]any{"phone": "555-0100"})
	require.NoError(t, err)

	require.NoError(t, s.UpdateFriend(ctx, id, map[string]any{"name": "Evelyn", "phone": nil}))

	f, err := s.GetFriend(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Evelyn", f.Name)
	assert.Nil(t, f.Phone)

	err = s.UpdateFriend(ctx, id, map[string]any{"name": " "})
	assert.True(t, IsValidation(err))
}

func TestUpdateFriendWithoutKnownFieldsIsNoop(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateFriend(ctx, "Finn", nil)
	require.NoError(t, err)
	before, err := s.GetFriend(ctx, id)
	require.NoError(t, err)

	require.NoError(t, s.UpdateFriend(ctx, id, map[string]any{}))
	require.NoError(t, s.UpdateFriend(ctx, id, map[string]any{"shoe_size": 44}))
	require.NoError(t, s.UpdateFriend(ctx, "missing", nil))

	after, err := s.GetFriend(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, before.UpdatedAt, after.UpdatedAt)
}

func TestUpdateFriendNotFound(t *testing.T) {
	s := newTestStore(t)
	err := s.UpdateFriend(context.Background(), "missing", map[string]any{"hometown": "Nowhere"})
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestListFriends(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice, err := s.CreateFriend(ctx, "Alice Smith", nil)
	require.NoError(t, err)
	bob, err := s.CreateFriend(ctx, "Bob", nil)
	require.NoError(t, err)
	hidden, err := s.CreateFriend(ctx, "Alicia Hidden", map[string]any{"hidden": true})
	require.NoError(t, err)

	all, err := s.ListFriends(ctx, models.FriendFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, bob, all[0].ID, "newest first")
	assert.Equal(t, alice, all[1].ID)

	withHidden, err := s.ListFriends(ctx, models.FriendFilter{IncludeHidden: true})
	require.NoError(t, err)
	require.Len(t, withHidden, 3)
	assert.Equal(t, hidden, withHidden[0].ID)
	assert.True(t, withHidden[0].Hidden)

	matched, err := s.ListFriends(ctx, models.FriendFilter{Query: "ALI", IncludeHidden: true})
	require.NoError(t, err)
	assert.Len(t, matched, 2)

	none, err := s.ListFriends(ctx, models.FriendFilter{Query: "100%"})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestListFriendsMatchesUnicodeCase(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateFriend(ctx, "Élodie Østergård", nil)
	require.NoError(t, err)
	_, err = s.CreateFriend(ctx, "Zoë", nil)
	require.NoError(t, err)

	for _, q := range []string{"Élodie", "élodie", "ÉLODIE", "lodie", "østergÅrd"} {
		friends, err := s.ListFriends(ctx, models.FriendFilter{Query: q})
		require.NoError(t, err)
		require.Len(t, friends, 1, "query %q", q)
		assert.Equal(t, id, friends[0].ID)
	}
}

func TestCompositeFieldsRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		languages []string
		social    map[string]string
	}{
		{"unicode", []string{"日本語", "Ελληνικά", "emoji 🎉"}, map[string]string{"微博": "@李"}},
		{"quotes and escapes", []string{`say "hi"`, `back\slash`, "tab\tnewline\n"}, map[string]string{`"x"`: `it's`}},
		{"html characters", []string{"<b>&amp;</b>"}, map[string]string{"<site>": "a&b"}},
		{"empty strings", []string{""}, map[string]string{"": ""}},
		{"empty collections", []string{}, map[string]string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := s.CreateFriend(ctx, "Round Trip", map[string]any{
				"languages":    tt.languages,
				"social_media": tt.social,
			})
			require.NoError(t, err)

			f, err := s.GetFriend(ctx, id)
			require.NoError(t, err)
			assert.False(t, f.Languages.Malformed())
			assert.Equal(t, tt.languages, f.Languages.Decoded)
			assert.Equal(t, tt.social, f.SocialMedia.Decoded)
		})
	}
}

func TestCreateFriendRejectsInvalidUTF8(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, fields := range []map[string]any{
		{"languages": []any{"ok", "bad\xff"}},
		{"languages": []string{"bad\xfe"}},
		{"social_media": map[string]any{"x": "bad\xff"}},
		{"social_media": map[string]string{"bad\xff": "@x"}},
	} {
		_, err := s.CreateFriend(ctx, "Zed", fields)
		require.Error(t, err)
		assert.True(t, IsValidation(err), "got %T", err)
	}

	friends, err := s.ListFriends(ctx, models.FriendFilter{IncludeHidden: true})
	require.NoError(t, err)
	assert.Empty(t, friends)
}

func TestMalformedCompositeIsReturnedRaw(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateFriend(ctx, "Gina", nil)
	require.NoError(t, err)

	_, err = s.DB().ExecContext(ctx,
		`UPDATE friends SET languages = ?, social_media = ? WHERE id = ?`,
		"English, Spanish", "{broken", id)
	require.NoError(t, err)

	f, err := s.GetFriend(ctx, id)
	require.NoError(t, err)
	assert.True(t, f.Languages.Malformed())
	assert.Equal(t, "English, Spanish", f.Languages.Raw)
	assert.True(t, f.SocialMedia.Malformed())

	data, err := json.Marshal(f)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"languages":"English, Spanish"`)
	assert.Contains(t, string(data), `"social_media":"{broken"`)

	friends, err := s.ListFriends(ctx, models.FriendFilter{})
	require.NoError(t, err)
	assert.Len(t, friends, 1)
}

func TestDeleteFriendCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateFriend(ctx, "Hank", nil)
	require.NoError(t, err)
	other, err := s.CreateFriend(ctx, "Ivy", nil)
	require.NoError(t, err)

	_, err = s.SetAttribute(ctx, id, "color", strPtr("red"))
	require.NoError(t, err)
	_, err = s.SetAttribute(ctx, other, "color", strPtr("blue"))
	require.NoError(t, err)
	_, err = s.CreateNote(ctx, id, models.NoteInput{Content: "hello"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteFriend(ctx, id))

	_, err = s.GetFriend(ctx, id)
	assert.True(t, IsNotFound(err))

	for _, table := range []string{"attributes", "notes"} {
		var n int
		require.NoError(t, s.DB().QueryRowContext(ctx,
			`SELECT COUNT(*) FROM `+table+` WHERE friend_id = ?`, id).Scan(&n))
		assert.Zero(t, n, "orphan rows in %s", table)
	}

	attrs, err := s.GetAttributes(ctx, other)
	require.NoError(t, err)
	assert.Len(t, attrs, 1, "other friend's attributes survive")

	err = s.DeleteFriend(ctx, id)
	assert.True(t, IsNotFound(err))
}

func TestForeignKeysCascadeOnRawDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateFriend(ctx, "Jules", nil)
	require.NoError(t, err)
	_, err = s.SetAttribute(ctx, id, "color", strPtr("teal"))
	require.NoError(t, err)
	_, err = s.CreateNote(ctx, id, models.NoteInput{Content: "hello"})
	require.NoError(t, err)

	_, err = s.DB().ExecContext(ctx, `DELETE FROM friends WHERE id = ?`, id)
	require.NoError(t, err)

	for _, table := range []string{"attributes", "notes"} {
		var n int
		require.NoError(t, s.DB().QueryRowContext(ctx,
			`SELECT COUNT(*) FROM `+table+` WHERE friend_id = ?`, id).Scan(&n))
		assert.Zero(t, n, "orphan rows in %s", table)
	}
}

func strPtr(s string) *string { return &s }
