package search

import (
	"sort"
	"strings"

	fuzzysearch "github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/mmcdole/albumsync/internal/domain"
	"github.com/sahilm/fuzzy"
)

// Result is a cached album matching a query
type Result struct {
	Album          domain.Album
	Target         string // Lowercased "title artists" string that was matched
	MatchedIndexes []int  // Byte offsets in Target (for highlighting)
	Score          int    // Higher is better
}

// albumIndex implements sahilm/fuzzy.Source over precomputed lowercase keys
type albumIndex struct {
	albums []domain.Album
	keys   []string
}

func newAlbumIndex(albums []domain.Album) *albumIndex {
	keys := make([]string, len(albums))
	for i, a := range albums {
		keys[i] = searchKey(a)
	}
	return &albumIndex{albums: albums, keys: keys}
}

// String returns the lowercase key at index i (implements fuzzy.Source)
func (idx *albumIndex) String(i int) string { return idx.keys[i] }

// Len returns the number of albums (implements fuzzy.Source)
func (idx *albumIndex) Len() int { return len(idx.albums) }

// Albums ranks cached albums against query.
//
// Subsequence matching (sahilm/fuzzy) runs first. If it finds nothing, a
// unicode-normalized pass (lithammer/fuzzysearch) catches queries that only
// differ by accents, e.g. "beyonce" for "Beyoncé".
func Albums(query string, albums []domain.Album) []Result {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" || len(albums) == 0 {
		return nil
	}

	idx := newAlbumIndex(albums)
	matches := fuzzy.FindFrom(query, idx)
	if len(matches) > 0 {
		results := make([]Result, len(matches))
		for i, m := range matches {
			results[i] = Result{
				Album:          idx.albums[m.Index],
				Target:         m.Str,
				MatchedIndexes: m.MatchedIndexes,
				Score:          m.Score,
			}
		}
		rank(results, query)
		return results
	}

	return normalizedSearch(query, idx)
}

func normalizedSearch(query string, idx *albumIndex) []Result {
	ranks := fuzzysearch.RankFindNormalizedFold(query, idx.keys)
	if len(ranks) == 0 {
		return nil
	}
	sort.Sort(ranks)

	results := make([]Result, len(ranks))
	for i, r := range ranks {
		results[i] = Result{
			Album:  idx.albums[r.OriginalIndex],
			Target: r.Target,
			Score:  -r.Distance,
		}
	}
	return results
}

// rank orders results: exact title first, then title prefix, then fuzzy score,
// then edit distance to the title.
func rank(results []Result, query string) {
	tier := func(r Result) int {
		title := strings.ToLower(r.Album.Title)
		switch {
		case title == query:
			return 0
		case strings.HasPrefix(title, query):
			return 1
		default:
			return 2
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		ti, tj := tier(results[i]), tier(results[j])
		if ti != tj {
			return ti < tj
		}
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		di := fuzzysearch.LevenshteinDistance(query, strings.ToLower(results[i].Album.Title))
		dj := fuzzysearch.LevenshteinDistance(query, strings.ToLower(results[j].Album.Title))
		return di < dj
	})
}

func searchKey(a domain.Album) string {
	key := a.Title
	if names := a.ArtistNames(); names != "" {
		key += " " + names
	}
	return strings.ToLower(key)
}
