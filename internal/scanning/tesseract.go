package scanning

import (
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// Tesseract implements the Recognizer interface with a local Tesseract
// install through gosseract
type Tesseract struct {
	languages  []string
	preprocess Preprocess
}

// NewTesseract creates a Tesseract recognizer. languages default to jpn.
func NewTesseract(pre Preprocess, languages ...string) *Tesseract {
	if len(languages) == 0 {
		languages = []string{"jpn"}
	}
	return &Tesseract{languages: languages, preprocess: pre}
}

// Recognize runs OCR on the receipt. A fresh client per call keeps
// concurrent calls independent.
func (t *Tesseract) Recognize(imageData []byte, contentType string) (string, error) {
	finalImageData, err := prepareImageData(imageData, contentType, t.preprocess)
	if err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.languages...); err != nil {
		return "", fmt.Errorf("setting tesseract language: %w", err)
	}
	if err := client.SetImageFromBytes(finalImageData); err != nil {
		return "", fmt.Errorf("loading image into tesseract: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("running tesseract: %w", err)
	}
	return text, nil
}

// Close is a no-op; clients are per call
func (t *Tesseract) Close() error {
	return nil
}
