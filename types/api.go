package types

// Song represents one audio file discovered in the music library
type Song struct {
	ID          string `json:"id"` // absolute file path
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	Album       string `json:"album"`
	Duration    int    `json:"duration"` // whole seconds
	Path        string `json:"path"`
	CoverURL    string `json:"coverUrl,omitempty"` // data: URI of the embedded picture
	TrackNumber int    `json:"trackNumber"`
	Format      string `json:"format"` // "flac", "mp3"
}

// Album groups the songs sharing an album name
type Album struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Cover  string `json:"cover,omitempty"`
	Songs  []Song `json:"songs"`
}
