// Package convert defines the converter contract: request options, the
// uniform result envelope, the validation/timeout pipeline every converter
// runs through, and the format-based dispatch registry.
package convert

import "time"

// Options is the per-request conversion configuration. It is owned by the
// caller and never mutated by a converter.
type Options struct {
	ExtractImages      bool   `json:"extract_images"`
	PreserveFormatting bool   `json:"preserve_formatting"`
	ExtractHyperlinks  bool   `json:"extract_hyperlinks"`
	ExtractMetadata    bool   `json:"extract_metadata"`
	ExtractTables      bool   `json:"extract_tables"`
	OutputFormat       string `json:"output_format"`
	ImageFormat        string `json:"image_format"`
	MaxImageSize       int64  `json:"max_image_size"`
	TimeoutSeconds     int    `json:"timeout_seconds"`
}

// DefaultOptions returns the standard conversion configuration.
func DefaultOptions() Options {
	return Options{
		ExtractImages:      true,
		PreserveFormatting: true,
		ExtractHyperlinks:  true,
		ExtractMetadata:    true,
		ExtractTables:      true,
		OutputFormat:       "markdown",
		ImageFormat:        "png",
		MaxImageSize:       5 * 1024 * 1024,
		TimeoutSeconds:     300,
	}
}

// Timeout returns TimeoutSeconds as a duration, falling back to def when the
// field is zero or negative.
func (o Options) Timeout(def time.Duration) time.Duration {
	if o.TimeoutSeconds <= 0 {
		return def
	}
	return time.Duration(o.TimeoutSeconds) * time.Second
}

// Metadata holds document properties reported by the engine. A nil pointer
// field means the engine did not report that property, not that it is empty.
type Metadata struct {
	Title            *string           `json:"title,omitempty"`
	Author           *string           `json:"author,omitempty"`
	Subject          *string           `json:"subject,omitempty"`
	Creator          *string           `json:"creator,omitempty"`
	Producer         *string           `json:"producer,omitempty"`
	CreationDate     *string           `json:"creation_date,omitempty"`
	ModificationDate *string           `json:"modification_date,omitempty"`
	PageCount        *int              `json:"page_count,omitempty"`
	WordCount        *int              `json:"word_count,omitempty"`
	CharacterCount   *int              `json:"character_count,omitempty"`
	Language         *string           `json:"language,omitempty"`
	Keywords         []string          `json:"keywords,omitempty"`
	CustomProperties map[string]string `json:"custom_properties,omitempty"`
	ExtractionError  *string           `json:"extraction_error,omitempty"`
}

// ExtractedImage describes one image the engine reported. Entries are written
// once at extraction time and read-only afterward.
type ExtractedImage struct {
	Filename   string             `json:"filename"`
	Path       string             `json:"path,omitempty"`
	Format     string             `json:"format"`
	Width      *int               `json:"width,omitempty"`
	Height     *int               `json:"height,omitempty"`
	SizeBytes  *int64             `json:"size_bytes,omitempty"`
	PageNumber *int               `json:"page_number,omitempty"`
	Position   map[string]float64 `json:"position,omitempty"`
}

// Hyperlink is one link found in the document.
type Hyperlink struct {
	Text       string `json:"text"`
	URL        string `json:"url"`
	PageNumber *int   `json:"page_number,omitempty"`
}

// Result is the uniform outcome of one conversion attempt. Invariant:
// Success=false implies ErrorMessage is set and MarkdownContent is empty;
// Success=true implies ErrorMessage is empty.
type Result struct {
	Success               bool             `json:"success"`
	MarkdownContent       string           `json:"markdown_content"`
	Metadata              Metadata         `json:"metadata"`
	ExtractedImages       []ExtractedImage `json:"extracted_images,omitempty"`
	Hyperlinks            []Hyperlink      `json:"hyperlinks,omitempty"`
	ProcessingTimeSeconds float64          `json:"processing_time_seconds"`
	ConverterUsed         string           `json:"converter_used"`
	ErrorMessage          string           `json:"error_message,omitempty"`
	// ErrorCode is the errdefs code of the failure when one applies.
	ErrorCode string   `json:"error_code,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}

func failure(name, message string, elapsed time.Duration) Result {
	return Result{
		Success:               false,
		ConverterUsed:         name,
		ErrorMessage:          message,
		ProcessingTimeSeconds: elapsed.Seconds(),
	}
}
