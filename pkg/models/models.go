package models

// Category represents a category of galleries
type Category struct {
	Name      string    `json:"name"`
	Stub      string    `json:"stub"`
	Galleries []Gallery `json:"galleries"`
}

// Gallery represents a collection of videos
type Gallery struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Stub     string  `json:"-"`
	Videos   []Video `json:"videos"`
}

// Link returns the public address of the gallery page
func (g Gallery) Link() string {
	return "/gallery/" + g.Stub
}

// Video represents a video file with an optional thumbnail.
// MediaKey and ThumbnailKey are the object keys the URLs were resolved from.
type Video struct {
	Name         string  `json:"name"`
	Category     string  `json:"-"`
	Gallery      string  `json:"-"`
	Url          string  `json:"url"`
	Thumbnail    *string `json:"thumbnail,omitempty"`
	MediaKey     string  `json:"-"`
	ThumbnailKey string  `json:"-"`
}

// Playable reports whether the video has a resolved media object
func (v Video) Playable() bool {
	return v.MediaKey != "" && v.Url != ""
}

// Index represents the main index page data
type Index struct {
	Categories []Category
}

// Admin represents the admin page data
type Admin struct {
	Categories []Category
	Orphans    []Video
	SecretKey  string
}
