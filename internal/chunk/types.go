package chunk

// Chunk size defaults. A 256-word window with 50 words of overlap keeps
// each fragment inside the encoder's 512-token budget while preserving
// context across fragment boundaries.
const (
	DefaultMaxChunkWords = 256
	DefaultOverlapWords  = 50
)

// Document is one source legal text and its citation. Immutable once loaded.
type Document struct {
	// Text is the full document text.
	Text string
	// Reference is the citation identifying the document.
	Reference string
}

// Chunk is a retrievable unit derived from a Document.
//
// A Chunk carries its own text and reference so the chunk sequence, the
// reference sequence, and the vector positions cannot drift apart. Position
// is assigned at index-build time and equals the chunk's 0-based insertion
// rank in the vector index.
type Chunk struct {
	// Text is the chunk content.
	Text string
	// Reference is the source citation. For a fragmented document it is
	// the original reference suffixed with " - Fragment <n>" (1-based).
	Reference string
	// Position is the 0-based rank in the vector index, assigned during
	// the build. It is the only handle used to recover the chunk at
	// query time.
	Position int
}

// Texts returns the chunk texts in order.
func Texts(chunks []Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Text
	}
	return out
}

// References returns the chunk references in order.
func References(chunks []Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Reference
	}
	return out
}
