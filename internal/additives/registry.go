// Package additives holds the additive reference data and turns a product's
// additive identifiers into a capped risk penalty.
package additives

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/franckalain/nutritionscore/internal/models"
)

//go:embed data/additives.json
var dataFS embed.FS

// ErrInvalidRecord is returned when reference data fails validation
var ErrInvalidRecord = errors.New("invalid additive record")

// Registry is the read-only additive reference table. It is built once and
// shared by every scoring call.
type Registry struct {
	records []models.AdditiveRecord
	index   map[string]int
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
	defaultErr      error
)

// NewRegistry validates records and builds a registry over a private copy.
// Keys are normalized with NormalizeID; duplicates are rejected.
func NewRegistry(records []models.AdditiveRecord) (*Registry, error) {
	validate := validator.New()

	r := &Registry{
		records: make([]models.AdditiveRecord, 0, len(records)),
		index:   make(map[string]int, len(records)),
	}
	for i, rec := range records {
		if err := validate.Struct(rec); err != nil {
			return nil, fmt.Errorf("%w at %d (%s): %v", ErrInvalidRecord, i, rec.ENumber, err)
		}
		rec.ENumber = NormalizeID(rec.ENumber)
		if _, dup := r.index[rec.ENumber]; dup {
			return nil, fmt.Errorf("%w: duplicate e-number %s", ErrInvalidRecord, rec.ENumber)
		}
		if rec.EFSARisk != nil {
			risk := *rec.EFSARisk
			rec.EFSARisk = &risk
		}
		r.index[rec.ENumber] = len(r.records)
		r.records = append(r.records, rec)
	}
	return r, nil
}

// Decode reads reference records in the JSON list format
func Decode(rd io.Reader) ([]models.AdditiveRecord, error) {
	var records []models.AdditiveRecord
	if err := json.NewDecoder(rd).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode additives: %w", err)
	}
	return records, nil
}

// Embedded returns the reference records bundled with the binary
func Embedded() ([]models.AdditiveRecord, error) {
	f, err := dataFS.Open("data/additives.json")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded additives: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Default returns the registry built from the embedded reference data
func Default() (*Registry, error) {
	defaultOnce.Do(func() {
		records, err := Embedded()
		if err != nil {
			defaultErr = err
			return
		}
		defaultRegistry, defaultErr = NewRegistry(records)
	})
	return defaultRegistry, defaultErr
}

// Len returns the number of records
func (r *Registry) Len() int {
	return len(r.records)
}

// Records returns a copy of the records in reference order
func (r *Registry) Records() []models.AdditiveRecord {
	out := make([]models.AdditiveRecord, len(r.records))
	copy(out, r.records)
	return out
}

// Lookup finds a record by its e-number
func (r *Registry) Lookup(eNumber string) (models.AdditiveRecord, bool) {
	i, ok := r.index[NormalizeID(eNumber)]
	if !ok {
		return models.AdditiveRecord{}, false
	}
	return r.records[i], true
}

// NormalizeID lower-cases an identifier and strips a language prefix such
// as the "en:" of Open Food Facts tags.
func NormalizeID(id string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	if i := strings.IndexByte(id, ':'); i >= 0 {
		id = id[i+1:]
	}
	return id
}
