package scanning

// Recognizer turns a receipt photo into plain text
type Recognizer interface {
	// Recognize reads all text from a receipt image or PDF. An empty string
	// with a nil error means the image held no legible text.
	Recognize(imageData []byte, contentType string) (string, error)
	// Close releases the backend
	Close() error
}
