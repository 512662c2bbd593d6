package musicapi

// ClientContext identifies the calling client to the metadata service
type ClientContext struct {
	ClientName    string `json:"clientName"`
	ClientVersion string `json:"clientVersion"`
	HL            string `json:"hl,omitempty"` // Interface language, e.g. "en"
	GL            string `json:"gl,omitempty"` // Content region, e.g. "US"
}

type requestContext struct {
	Client ClientContext `json:"client"`
}

// BrowseRequest is the body of a browse call
type BrowseRequest struct {
	Context  requestContext `json:"context"`
	BrowseID string         `json:"browseId"`
}

// BrowseResponse is the album browse payload
type BrowseResponse struct {
	Album         AlbumDTO   `json:"album"`
	Tracks        []TrackDTO `json:"tracks"`
	OtherVersions []AlbumDTO `json:"otherVersions,omitempty"`
}

// AlbumDTO is an album header or album summary
type AlbumDTO struct {
	BrowseID   string         `json:"browseId"`
	PlaylistID string         `json:"playlistId,omitempty"`
	Title      string         `json:"title"`
	Year       string         `json:"year,omitempty"` // Free text, usually "2013"
	Explicit   bool           `json:"explicit,omitempty"`
	Artists    []ArtistDTO    `json:"artists,omitempty"`
	Thumbnails []ThumbnailDTO `json:"thumbnails,omitempty"`
}

// TrackDTO is one song of an album
type TrackDTO struct {
	VideoID    string         `json:"videoId"`
	Title      string         `json:"title"`
	Duration   string         `json:"duration,omitempty"` // "m:ss" or "h:mm:ss"
	Explicit   bool           `json:"explicit,omitempty"`
	Artists    []ArtistDTO    `json:"artists,omitempty"`
	Thumbnails []ThumbnailDTO `json:"thumbnails,omitempty"`
}

// ArtistDTO is a credited artist; ID is empty for unlinked credits
type ArtistDTO struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// ThumbnailDTO is one rendition of a cover image
type ThumbnailDTO struct {
	URL    string `json:"url"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// errorEnvelope is the body of non-2xx responses
type errorEnvelope struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}
