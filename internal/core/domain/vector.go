package domain

import "fmt"

// VectorMetadata is the metadata stored alongside each vector.
// Images are referenced by filename and local path, never inlined.
type VectorMetadata struct {
	DocSource        string `json:"doc_source"`
	PageNumber       int    `json:"page_number"`
	Text             string `json:"text"`
	ImageIsReference bool   `json:"image_is_reference,omitempty"`
	ImageReference   string `json:"image_reference,omitempty"`
	ImagePath        string `json:"image_path,omitempty"`
}

// HasImage reports whether the entry references a page image.
func (m VectorMetadata) HasImage() bool {
	return m.ImageReference != ""
}

// VectorEntry is the unit stored in the vector database.
type VectorEntry struct {
	ID       string
	Vector   []float32
	Metadata VectorMetadata
}

// VectorID builds the entry id for a document position.
func VectorID(docSource string, index int) string {
	return fmt.Sprintf("%s_%d", docSource, index)
}

// PageImageName builds the image filename for a page number.
func PageImageName(docName string, pageNumber int, ext string) string {
	return fmt.Sprintf("%s_page_%d.%s", docName, pageNumber, ext)
}

// PageImageNameAt builds the filename of the idx-th (0-based) image on a
// page. The first image keeps the plain page name.
func PageImageNameAt(docName string, pageNumber, idx int, ext string) string {
	if idx == 0 {
		return PageImageName(docName, pageNumber, ext)
	}
	return fmt.Sprintf("%s_page_%d_%d.%s", docName, pageNumber, idx+1, ext)
}

// PageImagePattern returns the glob matching every image of a document.
func PageImagePattern(docName string) string {
	return docName + "_page_*"
}

// RangeRequest asks the vector store for one page of stored entries.
type RangeRequest struct {
	// Cursor is "" for the first page.
	Cursor string

	// Limit is the page size.
	Limit int

	// IncludeMetadata returns metadata with each entry.
	IncludeMetadata bool

	// IncludeVectors returns the raw vectors with each entry.
	IncludeVectors bool
}

// RangePage is one page of a cursor scan over the index.
type RangePage struct {
	// Vectors holds the entries on this page.
	Vectors []VectorEntry

	// NextCursor is "" when the scan is complete.
	NextCursor string
}

// VectorQuery is a similarity search request.
type VectorQuery struct {
	Vector          []float32
	TopK            int
	Namespace       string
	IncludeMetadata bool
}

// QueryMatch is one ranked similarity search result.
type QueryMatch struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score"`
	Metadata VectorMetadata `json:"metadata"`
}

// Distance converts the similarity score to a distance (1 - score).
func (m QueryMatch) Distance() float64 {
	return 1 - m.Score
}
