package performer

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDirectory is an in-memory Directory for testing.
type fakeDirectory struct {
	nextID       int64
	byName       map[string]int64
	byAlias      map[string]int64
	aliasCalls   []string
	profileCalls []string
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		nextID:  1,
		byName:  make(map[string]int64),
		byAlias: make(map[string]int64),
	}
}

func (d *fakeDirectory) FindPerformerByName(_ context.Context, name string) (int64, bool, error) {
	id, ok := d.byName[name]
	return id, ok, nil
}

func (d *fakeDirectory) FindPerformerByAlias(_ context.Context, alias string) (int64, bool, error) {
	id, ok := d.byAlias[alias]
	return id, ok, nil
}

func (d *fakeDirectory) CreatePerformer(_ context.Context, name string) (int64, error) {
	id := d.nextID
	d.nextID++
	d.byName[name] = id
	return id, nil
}

func (d *fakeDirectory) AddPerformerAlias(_ context.Context, performerID int64, alias, source string) error {
	d.byAlias[alias] = performerID
	d.aliasCalls = append(d.aliasCalls, alias+":"+source)
	return nil
}

func (d *fakeDirectory) UpdatePerformerProfile(_ context.Context, performerID int64, nameKana, nameEn string, heightCm int, cup string) error {
	d.profileCalls = append(d.profileCalls,
		fmt.Sprintf("%d:%s:%s:%d:%s", performerID, nameKana, nameEn, heightCm, cup))
	return nil
}

// fakeAliasSource returns canned wiki lookups.
type fakeAliasSource struct {
	aliases map[string][]string
}

func (f *fakeAliasSource) LookupAliases(_ context.Context, name string) ([]string, error) {
	return f.aliases[name], nil
}

// fakeProfileSource additionally serves canned profiles.
type fakeProfileSource struct {
	fakeAliasSource
	profiles map[string]Profile
}

func (f *fakeProfileSource) LookupProfile(_ context.Context, name string) (Profile, error) {
	return f.profiles[name], nil
}

func TestSplitNames(t *testing.T) {
	testCases := []struct {
		raw      string
		expected []string
	}{
		{"波多野結衣", []string{"波多野結衣"}},
		{"波多野結衣、桃乃木かな", []string{"波多野結衣", "桃乃木かな"}},
		{"A子 / B子 ／ C子", []string{"A子", "B子", "C子"}},
		{"a, b; c；d", []string{"a", "b", "c", "d"}},
		{"  ", nil},
		{"", nil},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, SplitNames(tc.raw), "input: %q", tc.raw)
	}
}

func TestIsGarbageName(t *testing.T) {
	testCases := []struct {
		name    string
		garbage bool
	}{
		{"波多野結衣", false},
		{"Yui Hatano", false},
		{"の", true},
		{"他", true},
		{"ほか", true},
		{"素人", true},
		{"---", true},
		{"不明", true},
		{"ア", true},
		{"→続きを見る", true},
		{"12345", true},
		{"", true},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.garbage, IsGarbageName(tc.name), "name: %q", tc.name)
	}
}

func TestLink_CreatesAndReuses(t *testing.T) {
	dir := newFakeDirectory()
	linker := NewLinker(dir, nil)

	res, err := linker.Link(context.Background(), "波多野結衣、桃乃木かな")
	require.NoError(t, err)
	assert.Len(t, res.PerformerIDs, 2)
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 0, res.Skipped)

	// A second pass over the same names reuses the existing rows
	res2, err := linker.Link(context.Background(), "波多野結衣、桃乃木かな")
	require.NoError(t, err)
	assert.Equal(t, res.PerformerIDs, res2.PerformerIDs)
	assert.Equal(t, 0, res2.Created)
}

func TestLink_SkipsGarbage(t *testing.T) {
	dir := newFakeDirectory()
	linker := NewLinker(dir, nil)

	res, err := linker.Link(context.Background(), "波多野結衣、他、→続きを見る")
	require.NoError(t, err)
	assert.Len(t, res.PerformerIDs, 1)
	assert.Equal(t, 2, res.Skipped)
	assert.Len(t, dir.byName, 1)
}

func TestLink_ResolvesViaAlias(t *testing.T) {
	dir := newFakeDirectory()
	dir.byName["波多野結衣"] = 7
	dir.byAlias["はたの ゆい"] = 7
	linker := NewLinker(dir, nil)

	res, err := linker.Link(context.Background(), "はたの ゆい")
	require.NoError(t, err)
	assert.Equal(t, []int64{7}, res.PerformerIDs)
	assert.Equal(t, 0, res.Created)
}

func TestLink_WikiEnrichment(t *testing.T) {
	dir := newFakeDirectory()
	dir.byName["波多野結衣"] = 7

	// The scraped spelling is unknown, but the wiki lists the canonical name
	// as one of its variants.
	wiki := &fakeAliasSource{aliases: map[string][]string{
		"はたのゆい": {"波多野結衣"},
	}}
	linker := NewLinker(dir, wiki)

	res, err := linker.Link(context.Background(), "はたのゆい")
	require.NoError(t, err)
	assert.Equal(t, []int64{7}, res.PerformerIDs)
	assert.Equal(t, 0, res.Created)

	// The new spelling is recorded as a wiki-sourced alias
	assert.Contains(t, dir.aliasCalls, "はたのゆい:wiki")
	id, ok, err := dir.FindPerformerByAlias(context.Background(), "はたのゆい")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(7), id)
}

func TestLink_ProfileEnrichmentOnCreate(t *testing.T) {
	dir := newFakeDirectory()
	wiki := &fakeProfileSource{
		profiles: map[string]Profile{
			"波多野結衣": {NameKana: "はたの ゆい", HeightCm: 163, Cup: "E"},
		},
	}
	linker := NewLinker(dir, wiki)

	res, err := linker.Link(context.Background(), "波多野結衣")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)

	require.Len(t, dir.profileCalls, 1)
	assert.Equal(t, "1:はたの ゆい::163:E", dir.profileCalls[0])
}

func TestLink_NoProfileUpdateForKnownPerformer(t *testing.T) {
	dir := newFakeDirectory()
	dir.byName["波多野結衣"] = 7
	wiki := &fakeProfileSource{
		profiles: map[string]Profile{
			"波多野結衣": {NameKana: "はたの ゆい"},
		},
	}
	linker := NewLinker(dir, wiki)

	_, err := linker.Link(context.Background(), "波多野結衣")
	require.NoError(t, err)
	assert.Empty(t, dir.profileCalls)
}

func TestLink_DeduplicatesIDs(t *testing.T) {
	dir := newFakeDirectory()
	dir.byName["波多野結衣"] = 7
	dir.byAlias["はたの ゆい"] = 7
	linker := NewLinker(dir, nil)

	res, err := linker.Link(context.Background(), "波多野結衣、はたの ゆい")
	require.NoError(t, err)
	assert.Equal(t, []int64{7}, res.PerformerIDs)
}
