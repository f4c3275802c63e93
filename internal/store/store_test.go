package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryOnlyStore(t *testing.T) {
	s, err := NewSlotStore("", "")
	require.NoError(t, err)
	defer s.Close()

	assert.False(t, s.Persistent())

	_, ok := s.Load("imo_marks")
	assert.False(t, ok)

	require.NoError(t, s.Save("imo_marks", []byte(`{"a":"loved"}`)))
	data, ok := s.Load("imo_marks")
	require.True(t, ok)
	assert.JSONEq(t, `{"a":"loved"}`, string(data))
	assert.Equal(t, []string{"imo_marks"}, s.Slots())

	require.NoError(t, s.Delete("imo_marks"))
	_, ok = s.Load("imo_marks")
	assert.False(t, ok)
}

func TestBoltStorePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	s, err := NewSlotStore(dir, "http://localhost:5000")
	require.NoError(t, err)
	assert.True(t, s.Persistent())
	require.NoError(t, s.Save("imo_ui", []byte(`{"hide_discarded":1,"only_loved":0}`)))
	require.NoError(t, s.Save("imo_marks", []byte(`{}`)))
	require.NoError(t, s.Close())

	s, err = NewSlotStore(dir, "http://localhost:5000/")
	require.NoError(t, err)
	defer s.Close()

	data, ok := s.Load("imo_ui")
	require.True(t, ok)
	assert.JSONEq(t, `{"hide_discarded":1,"only_loved":0}`, string(data))
	assert.Equal(t, []string{"imo_marks", "imo_ui"}, s.Slots())
}

func TestBoltDeleteSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	s, err := NewSlotStore(dir, "http://localhost:5000")
	require.NoError(t, err)
	require.NoError(t, s.Save("imo_ui", []byte(`{}`)))
	require.NoError(t, s.Save("imo_marks", []byte(`{}`)))
	require.NoError(t, s.Delete("imo_ui"))
	require.NoError(t, s.Close())

	s, err = NewSlotStore(dir, "http://localhost:5000")
	require.NoError(t, err)
	defer s.Close()

	_, ok := s.Load("imo_ui")
	assert.False(t, ok)
	assert.Equal(t, []string{"imo_marks"}, s.Slots())
	assert.NoError(t, s.Delete("never_saved"))
}

func TestStoresAreSeparatedPerServer(t *testing.T) {
	dir := t.TempDir()

	a, err := NewSlotStore(dir, "http://one")
	require.NoError(t, err)
	defer a.Close()
	b, err := NewSlotStore(dir, "http://two")
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, a.Save("imo_marks", []byte(`{"x":"loved"}`)))
	_, ok := b.Load("imo_marks")
	assert.False(t, ok)
}

func TestLoadReturnsCopy(t *testing.T) {
	s, err := NewSlotStore("", "")
	require.NoError(t, err)

	require.NoError(t, s.Save("slot", []byte("abc")))
	data, _ := s.Load("slot")
	data[0] = 'z'

	again, _ := s.Load("slot")
	assert.Equal(t, "abc", string(again))
}
