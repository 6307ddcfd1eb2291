package extract

// ImageRef is a candidate image found in the page. Width and height come
// from element attributes and are only used as a pre-filter; zero means the
// page did not declare a size.
type ImageRef struct {
	URL    string `json:"url"`
	Alt    string `json:"alt"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// ExtractedContent is the readable content of a single page. Built once per
// pipeline run and treated as immutable afterwards.
type ExtractedContent struct {
	Title       string     `json:"title"`
	Text        string     `json:"text"`
	HTML        string     `json:"html"`
	URL         string     `json:"url"`
	Images      []ImageRef `json:"images"`
	Author      string     `json:"author"`
	PublishDate string     `json:"publish_date"`
	Excerpt     string     `json:"excerpt"`
}
