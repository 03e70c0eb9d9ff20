package ledger

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zombor/fuel-ledger/internal/extraction"
	"github.com/zombor/fuel-ledger/internal/scanning"
)

// IDGenerator generates unique IDs for records and photos
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type uuidGenerator struct{}

func (g *uuidGenerator) Generate() string {
	return uuid.NewString()
}

type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service handles ledger operations
type Service struct {
	db          DB
	recognizer  scanning.Recognizer
	extractor   *extraction.Extractor
	storage     Storage
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with UUIDs and the wall clock
func NewService(db DB, recognizer scanning.Recognizer, extractor *extraction.Extractor, storage Storage) *Service {
	return NewServiceWithDeps(db, recognizer, extractor, storage, &uuidGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, recognizer scanning.Recognizer, extractor *extraction.Extractor, storage Storage, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		recognizer:  recognizer,
		extractor:   extractor,
		storage:     storage,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

var (
	unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	repeatedSpaces      = regexp.MustCompile(`\s+`)
)

// sanitizeFilename shortens phone-generated names to something safe to
// store
func sanitizeFilename(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if unsafeFilenameChars.MatchString(strings.TrimPrefix(ext, ".")) {
		ext = ""
	}
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))

	base = unsafeFilenameChars.ReplaceAllString(base, "")
	base = repeatedSpaces.ReplaceAllString(base, " ")
	base = strings.TrimSpace(base)

	if len(base) > 50 {
		base = base[:50]
	}
	if base == "" {
		base = "receipt"
	}

	return base + ext
}

func (s *Service) today() string {
	return s.timeSource.Now().Format(dateLayout)
}

// ScanReceipt stores the photo, reads it and extracts the receipt fields.
// Nothing is booked until the draft is confirmed with CreateRecord.
func (s *Service) ScanReceipt(filename string, data []byte, contentType string) (*Draft, error) {
	id := s.idGenerator.Generate()

	savedName, err := s.storage.Save(fmt.Sprintf("%s_%s", id, sanitizeFilename(filename)), data)
	if err != nil {
		return nil, fmt.Errorf("saving photo: %w", err)
	}

	text, err := s.recognizer.Recognize(data, contentType)
	if err != nil {
		slog.Error("Failed to recognize receipt",
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		if delErr := s.storage.Delete(savedName); delErr != nil {
			slog.Warn("Failed to delete photo", "photo", savedName, "error", delErr)
		}
		return nil, fmt.Errorf("%w: %w", ErrRecognition, err)
	}

	fields := s.extractor.Extract(text)
	slog.Debug("Extracted receipt fields",
		"photo", savedName,
		"text_length", len(text),
		"total_source", fields.TotalSource,
		"date", fields.Date,
	)

	return &Draft{
		PhotoID:     id,
		Photo:       savedName,
		ContentType: contentType,
		Text:        text,
		Fields:      fields,
	}, nil
}

// Extract runs the field extractor over already recognized text
func (s *Service) Extract(text string) extraction.Result {
	return s.extractor.Extract(text)
}

// CreateRecord validates and books a record. With exactly one of amount,
// liters and unit price missing, it is derived from the other two.
func (s *Service) CreateRecord(in RecordInput) (*Record, error) {
	if in.Amount < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidAmount, in.Amount)
	}
	if in.Amount == 0 && in.Liters == nil && in.UnitPrice == nil {
		return nil, ErrEmptyRecord
	}

	date := strings.TrimSpace(in.Date)
	if date == "" {
		date = s.today()
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, in.Date)
	}

	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = DefaultCategory
	}

	fields := extraction.Result{Liters: in.Liters, UnitPrice: in.UnitPrice, Tax: in.Tax}
	if in.Amount > 0 {
		amount := in.Amount
		fields.Total = &amount
	}
	fields = extraction.Reconcile(fields, s.extractor.Config())

	now := s.timeSource.Now()
	record := &Record{
		ID:          s.idGenerator.Generate(),
		Date:        date,
		Liters:      fields.Liters,
		UnitPrice:   fields.UnitPrice,
		Tax:         fields.Tax,
		Category:    category,
		Memo:        in.Memo,
		Photo:       in.Photo,
		ContentType: in.ContentType,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if fields.Total != nil {
		record.Amount = *fields.Total
	}

	if err := s.db.SaveRecord(record); err != nil {
		return nil, fmt.Errorf("saving record to database: %w", err)
	}
	return record, nil
}

// GetRecord retrieves a record by ID
func (s *Service) GetRecord(id string) (*Record, error) {
	record, err := s.db.GetRecord(id)
	if err != nil {
		return nil, fmt.Errorf("getting record: %w", err)
	}
	return record, nil
}

// ListRecords returns the records of one day, or all records when date is
// empty, newest first
func (s *Service) ListRecords(date string) ([]*Record, error) {
	var (
		records []*Record
		err     error
	)
	if date == "" {
		records, err = s.db.ListRecords()
	} else {
		if _, perr := time.Parse(dateLayout, date); perr != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidDate, date)
		}
		records, err = s.db.ListRecordsInRange(date, date)
	}
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

// DeleteRecord removes a record and its photo
func (s *Service) DeleteRecord(id string) error {
	record, err := s.db.GetRecord(id)
	if err != nil {
		return fmt.Errorf("getting record for deletion: %w", err)
	}

	if record.Photo != "" && !s.photoShared(record) {
		if err := s.storage.Delete(record.Photo); err != nil {
			// Log error but continue with database deletion
			slog.Warn("Failed to delete photo", "photo", record.Photo, "error", err)
		}
	}

	if err := s.db.DeleteRecord(id); err != nil {
		return fmt.Errorf("deleting record from database: %w", err)
	}
	return nil
}

// photoShared reports whether another record points at the same photo. A
// listing failure counts as shared so the photo is kept.
func (s *Service) photoShared(record *Record) bool {
	records, err := s.db.ListRecords()
	if err != nil {
		slog.Warn("Failed to check photo references", "photo", record.Photo, "error", err)
		return true
	}
	for _, r := range records {
		if r.ID != record.ID && r.Photo == record.Photo {
			return true
		}
	}
	return false
}

// GetRecordPhoto retrieves the receipt photo of a record
func (s *Service) GetRecordPhoto(id string) ([]byte, string, error) {
	record, err := s.db.GetRecord(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting record: %w", err)
	}
	if record.Photo == "" {
		return nil, "", fmt.Errorf("%w: record %s has no photo", ErrNotFound, id)
	}

	data, err := s.storage.Get(record.Photo)
	if err != nil {
		return nil, "", fmt.Errorf("getting record photo: %w", err)
	}

	contentType := record.ContentType
	if contentType == "" {
		contentType = scanning.ContentTypeFromFilename(record.Photo)
	}
	return data, contentType, nil
}

// Export returns every record in date order
func (s *Service) Export() ([]*Record, error) {
	records, err := s.db.ListRecords()
	if err != nil {
		return nil, fmt.Errorf("exporting records: %w", err)
	}
	return records, nil
}
