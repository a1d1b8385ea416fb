package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugID(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"General", "general"},
		{"Tech Talk", "tech-talk"},
		{"  Music   Lovers  ", "music-lovers"},
		{"UPPER\tCASE", "upper-case"},
		{"already-slugged", "already-slugged"},
		{"   ", ""},
		{"", ""},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, SlugID(tc.name), "SlugID(%q)", tc.name)
	}
}

func TestNewRegistrySeedsDefaults(t *testing.T) {
	g := NewRegistry()

	require.Equal(t, 5, g.Len())

	listings := g.List()
	require.Len(t, listings, 5)

	// Insertion order is preserved in listings.
	assert.Equal(t, "general", listings[0].ID)
	assert.Equal(t, "General", listings[0].Name)
	assert.Equal(t, "music", listings[4].ID)
	assert.Equal(t, "Music Lovers", listings[4].Name)

	for _, listing := range listings {
		assert.Equal(t, 0, listing.UserCount)
		assert.False(t, listing.Created.IsZero())
	}
}

func TestRegistryCreateIsIdempotent(t *testing.T) {
	g := NewRegistry()

	id, created := g.Create("Study Group")
	require.True(t, created)
	require.Equal(t, "study-group", id)

	// Repeated creation attempts of the "same" name derive the same id and
	// change nothing.
	for _, name := range []string{"Study Group", "study group", "STUDY   GROUP"} {
		again, createdAgain := g.Create(name)
		assert.Equal(t, id, again)
		assert.False(t, createdAgain)
	}

	assert.Equal(t, 6, g.Len())
	assert.Equal(t, "Study Group", g.Name("study-group"))
}

func TestRegistryCreateBlankName(t *testing.T) {
	g := NewRegistry()

	id, created := g.Create("   ")
	assert.Empty(t, id)
	assert.False(t, created)
	assert.Equal(t, 5, g.Len())
}

func TestRegistryEnsure(t *testing.T) {
	g := NewRegistry()

	assert.True(t, g.Ensure("adhoc"))
	assert.False(t, g.Ensure("adhoc"))
	assert.False(t, g.Ensure("general"))

	// An ensured room uses its id as the display name.
	assert.Equal(t, "adhoc", g.Name("adhoc"))
	assert.Equal(t, 6, g.Len())
}

func TestRegistryMembership(t *testing.T) {
	g := NewRegistry()

	g.AddMember("general", "alice")
	g.AddMember("general", "bob")
	g.AddMember("general", "bob") // sets don't double-count

	assert.Equal(t, []string{"alice", "bob"}, g.MemberNames("general"))

	g.RemoveMember("general", "alice")
	assert.Equal(t, []string{"bob"}, g.MemberNames("general"))

	// Unknown rooms are tolerated on both paths; ids may be stale.
	g.AddMember("no-such-room", "alice")
	g.RemoveMember("no-such-room", "alice")
	assert.Empty(t, g.MemberNames("no-such-room"))

	// Removing an absent member is a no-op.
	g.RemoveMember("general", "ghost")
	assert.Equal(t, []string{"bob"}, g.MemberNames("general"))
}

func TestRegistryNameFallsBackToID(t *testing.T) {
	g := NewRegistry()

	assert.Equal(t, "Tech Talk", g.Name("tech"))
	assert.Equal(t, "mystery", g.Name("mystery"))
}

func TestRegistryOverviewCounts(t *testing.T) {
	g := NewRegistry()

	g.AddMember("random", "alice")
	g.AddMember("random", "bob")

	for _, overview := range g.Overview() {
		if overview.ID == "random" {
			assert.Equal(t, 2, overview.UserCount)
		} else {
			assert.Equal(t, 0, overview.UserCount)
		}
	}
}
