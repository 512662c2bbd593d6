package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/mmcdole/albumsync/internal/album"
	"github.com/mmcdole/albumsync/internal/domain"
	"github.com/mmcdole/albumsync/internal/search"
)

// Color palette
var (
	accent  = lipgloss.Color("#E5A00D")
	dimGray = lipgloss.Color("#6B7280")
	white   = lipgloss.Color("#F9FAFB")
	green   = lipgloss.Color("#10B981")
	red     = lipgloss.Color("#EF4444")
	blue    = lipgloss.Color("#3B82F6")
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(white).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(dimGray)
	accentStyle  = lipgloss.NewStyle().Foreground(accent)
	successStyle = lipgloss.NewStyle().Foreground(green)
	errorStyle   = lipgloss.NewStyle().Foreground(red)
	infoStyle    = lipgloss.NewStyle().Foreground(blue)

	headerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 1)
)

// printer writes command output, styled only when w is a terminal
type printer struct {
	w      io.Writer
	styled bool
}

func newPrinter(w io.Writer) *printer {
	styled := false
	if f, ok := w.(*os.File); ok {
		styled = term.IsTerminal(int(f.Fd()))
	}
	return &printer{w: w, styled: styled}
}

func (p *printer) render(s lipgloss.Style, text string) string {
	if !p.styled {
		return text
	}
	return s.Render(text)
}

func (p *printer) dim(text string) string { return p.render(dimStyle, text) }

func (p *printer) line(parts ...string) {
	fmt.Fprintln(p.w, strings.Join(parts, " "))
}

func (p *printer) cached(rec *domain.AlbumWithSongs) {
	p.line(p.dim("cached"), rec.Album.Title, p.dim(fmt.Sprintf("(%d songs)", len(rec.Songs))))
}

func (p *printer) result(res album.Result) {
	var label string
	switch res.Outcome {
	case album.OutcomeInserted, album.OutcomeUpdated:
		label = p.render(successStyle, res.Outcome.String())
	case album.OutcomeDeleted:
		label = p.render(infoStyle, res.Outcome.String())
	default:
		label = p.render(errorStyle, res.Outcome.String())
	}

	parts := []string{label, res.AlbumID}
	if res.FetchErr != nil {
		parts = append(parts, p.dim(fmt.Sprintf("[%s] %v", res.Kind, res.FetchErr)))
	}
	if res.StoreErr != nil {
		parts = append(parts, p.render(errorStyle, "save failed: "+res.StoreErr.Error()))
	}
	p.line(parts...)
}

func (p *printer) album(rec *domain.AlbumWithSongs) {
	a := rec.Album

	header := a.Title
	if p.styled {
		header = headerStyle.Render(titleStyle.Render(a.Title))
	}
	fmt.Fprintln(p.w, header)

	meta := []string{}
	if names := a.ArtistNames(); names != "" {
		meta = append(meta, names)
	}
	if a.Year > 0 {
		meta = append(meta, fmt.Sprintf("%d", a.Year))
	}
	meta = append(meta, fmt.Sprintf("%d songs", a.SongCount), a.FormattedDuration())
	if a.Explicit {
		meta = append(meta, "explicit")
	}
	p.line(p.dim(strings.Join(meta, " · ")))

	if a.BookmarkedAt != nil {
		p.line(p.render(accentStyle, "bookmarked"), a.BookmarkedAt.Local().Format(time.DateOnly))
	}

	for _, s := range rec.Songs {
		title := s.Title
		if names := s.ArtistNames(); names != "" && names != a.ArtistNames() {
			title += p.dim(" - " + names)
		}
		p.line(fmt.Sprintf("%3d.", s.Index+1), title, p.dim(s.FormattedDuration()))
	}
}

func (p *printer) listEntry(a domain.Album) {
	parts := []string{p.render(titleStyle, a.Title)}
	if names := a.ArtistNames(); names != "" {
		parts = append(parts, names)
	}
	if a.Year > 0 {
		parts = append(parts, fmt.Sprintf("(%d)", a.Year))
	}
	if a.BookmarkedAt != nil {
		parts = append(parts, p.render(accentStyle, "★"))
	}
	parts = append(parts, p.dim(a.ID))
	p.line(parts...)
}

func (p *printer) versions(items []domain.AlbumItem) {
	if len(items) == 0 {
		return
	}
	p.line(p.render(accentStyle, "other versions"))
	for _, v := range items {
		entry := v.Title
		if v.Year > 0 {
			entry += fmt.Sprintf(" (%d)", v.Year)
		}
		p.line("  ", entry, p.dim(v.BrowseID))
	}
}

// match prints a search hit with matched characters highlighted
func (p *printer) match(r search.Result) {
	target := r.Target
	if p.styled && len(r.MatchedIndexes) > 0 {
		target = highlight(target, r.MatchedIndexes)
	}
	p.line(target, p.dim(r.Album.ID))
}

func highlight(s string, indexes []int) string {
	marked := make(map[int]bool, len(indexes))
	for _, i := range indexes {
		marked[i] = true
	}
	var b strings.Builder
	for i, r := range s {
		if marked[i] {
			b.WriteString(accentStyle.Render(string(r)))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// albumView is the YAML shape of a cached album
type albumView struct {
	ID           string     `yaml:"id"`
	PlaylistID   string     `yaml:"playlist_id,omitempty"`
	Title        string     `yaml:"title"`
	Artists      []string   `yaml:"artists,omitempty"`
	Year         int        `yaml:"year,omitempty"`
	Duration     string     `yaml:"duration"`
	Explicit     bool       `yaml:"explicit,omitempty"`
	InLibrary    bool       `yaml:"in_library"`
	BookmarkedAt *time.Time `yaml:"bookmarked_at,omitempty"`
	LastUpdated  time.Time  `yaml:"last_updated"`
	Songs        []songView `yaml:"songs"`
}

type songView struct {
	Index    int    `yaml:"index"`
	ID       string `yaml:"id"`
	Title    string `yaml:"title"`
	Duration string `yaml:"duration"`
}

func newAlbumView(rec *domain.AlbumWithSongs) albumView {
	a := rec.Album
	v := albumView{
		ID:           a.ID,
		PlaylistID:   a.PlaylistID,
		Title:        a.Title,
		Year:         a.Year,
		Duration:     a.Duration.String(),
		Explicit:     a.Explicit,
		InLibrary:    a.InLibrary,
		BookmarkedAt: a.BookmarkedAt,
		LastUpdated:  a.LastUpdated,
		Songs:        make([]songView, 0, len(rec.Songs)),
	}
	for _, artist := range a.Artists {
		v.Artists = append(v.Artists, artist.Name)
	}
	for _, s := range rec.Songs {
		v.Songs = append(v.Songs, songView{Index: s.Index, ID: s.ID, Title: s.Title, Duration: s.FormattedDuration()})
	}
	return v
}
