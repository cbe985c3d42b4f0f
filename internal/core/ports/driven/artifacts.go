package driven

// ArtifactKind selects one of the per-document checkpoint files.
type ArtifactKind string

// Checkpoint files, one of each per doc name.
const (
	// ArtifactPayload is the embedding request written by the parse stage.
	ArtifactPayload ArtifactKind = "payload"

	// ArtifactEmbeddings is the embedding response written by the embed stage.
	ArtifactEmbeddings ArtifactKind = "embeddings"
)

// ArtifactStore persists the checkpoint files that make every stage
// re-runnable from a doc name alone.
type ArtifactStore interface {
	// Path returns where the checkpoint of the given kind lives.
	Path(kind ArtifactKind, docName string) string

	// Exists reports whether the checkpoint is present.
	Exists(kind ArtifactKind, docName string) bool

	// WriteJSON encodes v as indented UTF-8 JSON without HTML escaping
	// and returns the written path.
	WriteJSON(kind ArtifactKind, docName string, v any) (string, error)

	// Read returns the checkpoint content, or an error wrapping
	// domain.ErrNotFound if it is absent.
	Read(kind ArtifactKind, docName string) ([]byte, error)

	// Remove deletes the checkpoint. A missing file is not an error.
	Remove(kind ArtifactKind, docName string) error

	// SaveImage writes an image file and returns its path.
	SaveImage(filename string, data []byte) (string, error)

	// ImagePath returns the path an image filename would be saved under.
	ImagePath(filename string) string

	// RemoveImages deletes every image of a document and returns the count.
	RemoveImages(docName string) (int, error)
}
