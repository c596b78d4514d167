package reconcile

import (
	"bytes"
	"context"
	"testing"

	"rom-manager/core/container"
	"rom-manager/core/hashing"
	"rom-manager/core/library"
	"rom-manager/core/prompt"
	"rom-manager/core/prompt/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestResolver_DefersTiesToDecider(t *testing.T) {
	env := newTestEnv(t, prompt.Decline{})
	system := env.fx.System("Nintendo - Game Boy", false)
	data := payload(30, 64)
	env.rom(env.fx.Game(system, "A"), "A.gb", data)
	second := env.rom(env.fx.Game(system, "B"), "B.gb", data)

	decider := new(mocks.Decider)
	decider.On("Choose", mock.Anything, "tie.gb", mock.MatchedBy(func(c []prompt.Candidate) bool {
		return len(c) == 2 && c[0].Game == "A" && c[1].Game == "B"
	})).Return(1, true, nil).Once()

	resolver := NewResolver(decider, zap.NewNop())
	input := env.file("tie.gb", data)
	entries, err := container.Plain{}.List(env.ctx, input)
	require.NoError(t, err)

	results, err := resolver.Resolve(env.ctx, env.store, Request{
		Path:    input,
		Adapter: container.Plain{},
		Entries: entries,
		System:  *system,
		Algo:    hashing.MD5,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, Matched, results[0].Kind)
	assert.Equal(t, second.ID, results[0].Rom.ID)
	assert.Equal(t, int64(len(data)), results[0].Sum.Size)
	assert.FileExists(t, input)
	decider.AssertExpectations(t)
}

func TestResolver_UsesListingCRCWhenPossible(t *testing.T) {
	env := newTestEnv(t, prompt.Decline{})
	system := env.fx.System("Nintendo - Game Boy", false)
	data := payload(31, 64)
	rom := env.rom(env.fx.Game(system, "A"), "A.gb", data)

	// The renamed entry cannot be materialized, so only the listing CRC can resolve it.
	input := env.archive("a.7z", member{Name: "A.gb", Data: data})
	entries, err := jsonArchive{}.List(env.ctx, input)
	require.NoError(t, err)
	entries[0].Name = "renamed.gb"

	results, err := NewResolver(prompt.Decline{}, zap.NewNop()).Resolve(env.ctx, env.store, Request{
		Path:    input,
		Adapter: jsonArchive{},
		Entries: entries,
		System:  *system,
		Algo:    hashing.CRC,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, Matched, results[0].Kind)
	assert.Equal(t, rom.ID, results[0].Rom.ID)
	assert.Equal(t, rom.CRC, results[0].Sum.Digest)
}

func TestResolver_DigestWithoutSizeIsNoMatch(t *testing.T) {
	data := payload(33, 64)
	sum := func(algo hashing.Algorithm) string {
		s, err := hashing.Hash(bytes.NewReader(data), 0, algo)
		require.NoError(t, err)
		return s.Digest
	}

	tests := []struct {
		name    string
		algo    hashing.Algorithm
		archive bool
	}{
		{name: "listing crc", algo: hashing.CRC, archive: true},
		{name: "decoded entry", algo: hashing.MD5, archive: true},
		{name: "plain file", algo: hashing.SHA1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, prompt.First{})
			system := env.fx.System("Nintendo - Game Boy", false)
			game := env.fx.Game(system, "A")
			env.fx.Rom(game, "A.gb", int64(len(data))+1, sum(hashing.CRC), sum(hashing.MD5), sum(hashing.SHA1))

			var (
				input   string
				adapter container.Adapter
			)
			if tt.archive {
				input, adapter = env.archive("a.7z", member{Name: "A.gb", Data: data}), jsonArchive{}
			} else {
				input, adapter = env.file("A.gb", data), container.Plain{}
			}
			entries, err := adapter.List(env.ctx, input)
			require.NoError(t, err)

			scratch, err := env.layout.NewScratch()
			require.NoError(t, err)
			defer scratch.Close()

			results, err := NewResolver(prompt.First{}, zap.NewNop()).Resolve(env.ctx, env.store, Request{
				Path:    input,
				Adapter: adapter,
				Entries: entries,
				System:  *system,
				Algo:    tt.algo,
				Scratch: scratch,
			})
			require.NoError(t, err)
			require.Len(t, results, 1)
			assert.Equal(t, NoMatch, results[0].Kind)
			assert.Nil(t, results[0].Rom)
			assert.Equal(t, int64(len(data)), results[0].Sum.Size)
		})
	}
}

// countingArchive records how many members each extraction asks for.
type countingArchive struct {
	jsonArchive
	calls []int
}

func (c *countingArchive) Materialize(ctx context.Context, path string, names []string, scratch *library.Scratch) ([]string, error) {
	c.calls = append(c.calls, len(names))
	return c.jsonArchive.Materialize(ctx, path, names, scratch)
}

func TestResolver_ExtractsOneEntryAtATime(t *testing.T) {
	env := newTestEnv(t, prompt.Decline{})
	system := env.fx.System("Nintendo - Game Boy", false)
	game := env.fx.Game(system, "Multi")
	members := []member{
		{Name: "a.gb", Data: payload(34, 64)},
		{Name: "b.gb", Data: payload(35, 64)},
		{Name: "c.gb", Data: payload(36, 64)},
	}
	for _, m := range members {
		env.rom(game, m.Name, m.Data)
	}
	input := env.archive("multi.7z", members...)

	adapter := &countingArchive{}
	entries, err := adapter.List(env.ctx, input)
	require.NoError(t, err)

	scratch, err := env.layout.NewScratch()
	require.NoError(t, err)
	defer scratch.Close()

	results, err := NewResolver(prompt.Decline{}, zap.NewNop()).Resolve(env.ctx, env.store, Request{
		Path:    input,
		Adapter: adapter,
		Entries: entries,
		System:  *system,
		Algo:    hashing.SHA1,
		Scratch: scratch,
	})
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, res := range results {
		assert.Equal(t, Matched, res.Kind)
	}
	assert.Equal(t, []int{1, 1, 1}, adapter.calls)
	for _, m := range members {
		assert.NoFileExists(t, scratch.Path(m.Name))
	}
}

func TestResolver_AlreadyFiled(t *testing.T) {
	env := newTestEnv(t, prompt.Decline{})
	system := env.fx.System("Nintendo - Game Boy", false)
	data := payload(32, 64)
	rom := env.rom(env.fx.Game(system, "A"), "A.gb", data)

	romfile, err := env.store.UpsertRomfile(env.ctx, "/library/A.gb", int64(len(data)))
	require.NoError(t, err)
	require.NoError(t, env.store.SetRomRomfile(env.ctx, rom.ID, romfile.ID))

	input := env.file("copy.gb", data)
	entries, err := container.Plain{}.List(env.ctx, input)
	require.NoError(t, err)

	results, err := NewResolver(prompt.Decline{}, zap.NewNop()).Resolve(env.ctx, env.store, Request{
		Path:    input,
		Adapter: container.Plain{},
		Entries: entries,
		System:  *system,
		Algo:    hashing.CRC,
	})
	require.NoError(t, err)
	assert.Equal(t, AlreadyFiled, results[0].Kind)
	assert.Equal(t, rom.ID, results[0].Rom.ID)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "no_match", NoMatch.String())
	assert.Equal(t, "matched", Matched.String())
	assert.Equal(t, "ambiguous", Ambiguous.String())
	assert.Equal(t, "already_filed", AlreadyFiled.String())
}
