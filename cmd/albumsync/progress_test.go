package main

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/albumsync/internal/album"
	"github.com/mmcdole/albumsync/internal/domain"
)

func TestProgressModelTracksResults(t *testing.T) {
	m := newProgressModel(2, func() {})
	assert.Contains(t, m.View(), "0/2")

	next, cmd := m.Update(syncResultMsg(album.Result{AlbumID: "A1", Outcome: album.OutcomeInserted}))
	assert.Nil(t, cmd)
	m = next.(progressModel)
	assert.Contains(t, m.View(), "inserted A1")
	assert.Contains(t, m.View(), "1/2")
	assert.Equal(t, 0.5, m.percent())

	next, _ = m.Update(syncResultMsg(album.Result{
		AlbumID:  "A2",
		Outcome:  album.OutcomeKept,
		FetchErr: errors.New("TIMEOUT"),
		Kind:     domain.KindOther,
	}))
	m = next.(progressModel)

	next, cmd = m.Update(syncDoneMsg{})
	m = next.(progressModel)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())

	view := m.View()
	assert.Contains(t, view, "kept A2")
	assert.NotContains(t, view, "2/2", "progress line is dropped once done")
}

func TestProgressModelCancelOnKey(t *testing.T) {
	canceled := false
	m := newProgressModel(3, func() { canceled = true })

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.Nil(t, cmd, "the program waits for the batch to return")
	assert.True(t, canceled)
	assert.Contains(t, next.(progressModel).View(), "stopping")
}

func TestCountDistinct(t *testing.T) {
	assert.Equal(t, 2, countDistinct([]string{"A", "B", "A"}))
	assert.Equal(t, 0, countDistinct(nil))
}
