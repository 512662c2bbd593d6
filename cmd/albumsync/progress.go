package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/albumsync/internal/album"
)

// syncResultMsg carries one finished album into the program
type syncResultMsg album.Result

// syncDoneMsg is sent once the whole batch has returned
type syncDoneMsg struct{}

// progressModel shows a batch sync as it runs: finished albums scroll above
// a spinner and a bar counting distinct IDs.
type progressModel struct {
	spinner  spinner.Model
	bar      progress.Model
	total    int
	finished []album.Result
	cancel   context.CancelFunc
	stopping bool
	done     bool
}

func newProgressModel(total int, cancel context.CancelFunc) progressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = accentStyle
	return progressModel{
		spinner: s,
		bar:     progress.New(progress.WithSolidFill(string(accent)), progress.WithWidth(40)),
		total:   total,
		cancel:  cancel,
	}
}

func (m progressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			// Keep running until the batch returns its canceled results
			m.stopping = true
			m.cancel()
		}
		return m, nil

	case syncResultMsg:
		m.finished = append(m.finished, album.Result(msg))
		return m, nil

	case syncDoneMsg:
		m.done = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m progressModel) View() string {
	var b strings.Builder
	p := &printer{w: &b, styled: true}
	for _, r := range m.finished {
		p.result(r)
	}
	if m.done {
		return b.String()
	}

	label := "syncing"
	if m.stopping {
		label = "stopping"
	}
	fmt.Fprintf(&b, "%s %s %d/%d %s\n", m.spinner.View(), label, len(m.finished), m.total, m.bar.ViewAs(m.percent()))
	return b.String()
}

func (m progressModel) percent() float64 {
	if m.total == 0 {
		return 1
	}
	return float64(len(m.finished)) / float64(m.total)
}

// syncWithProgress runs a batch under a bubbletea program. The returned
// results come from the batch itself, not the view.
func (a *app) syncWithProgress(ctx context.Context, ids []string, deps album.Deps) ([]album.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	prog := tea.NewProgram(newProgressModel(countDistinct(ids), cancel), tea.WithOutput(a.out))

	type batch struct {
		results []album.Result
		err     error
	}
	finished := make(chan batch, 1)
	go func() {
		results, err := album.SyncAllFunc(ctx, ids, deps, a.cfg.Sync.Workers, func(r album.Result) {
			prog.Send(syncResultMsg(r))
		})
		finished <- batch{results: results, err: err}
		prog.Send(syncDoneMsg{})
	}()

	if _, err := prog.Run(); err != nil {
		// The view is cosmetic; the batch still completes.
		a.logger.Warn("progress view failed", "error", err)
	}
	out := <-finished
	return out.results, out.err
}

func countDistinct(ids []string) int {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	return len(seen)
}
