package settings

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/e7canasta/rawplay/modules/clip"
	"github.com/e7canasta/rawplay/modules/colorpipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLoadMissing(t *testing.T) {
	s := openStore(t)
	_, ok, err := s.Load("/clips/none")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSaveLoad(t *testing.T) {
	s := openStore(t)

	exposure := 0.75
	tm := colorpipeline.ToneMappingNone
	want := clip.RawParameters{
		Exposure:     &exposure,
		ToneMapping:  &tm,
		WhiteBalance: &colorpipeline.WhiteBalance{Temperature: 5600, Tint: 4},
	}
	require.NoError(t, s.Save("/clips/A001/", want))

	got, ok, err := s.Load("/clips/A001")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)

	// overwrite
	exposure2 := -1.0
	require.NoError(t, s.Save("/clips/A001", clip.RawParameters{Exposure: &exposure2}))
	got, ok, err = s.Load("/clips/A001")
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, got.Exposure)
	assert.Equal(t, -1.0, *got.Exposure)
	assert.Nil(t, got.WhiteBalance)

	require.NoError(t, s.Delete("/clips/A001"))
	_, ok, err = s.Load("/clips/A001")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRecent(t *testing.T) {
	s := openStore(t)
	for _, c := range []string{"/clips/a", "/clips/b", "/clips/c"} {
		require.NoError(t, s.Save(c, clip.RawParameters{}))
		time.Sleep(time.Millisecond)
	}

	recent, err := s.Recent(2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "/clips/c", recent[0].Clip)
	assert.Equal(t, "/clips/b", recent[1].Clip)
}

func TestPersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.db")
	s, err := Open(path)
	require.NoError(t, err)
	ev := 2.0
	require.NoError(t, s.Save("/clips/x", clip.RawParameters{Exposure: &ev}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	got, ok, err := s.Load("/clips/x")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2.0, *got.Exposure)
}
