package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fieldforce/punchkit-go/internal/domain/firm"
	"github.com/fieldforce/punchkit-go/internal/domain/punch"
)

const firmsFileName = "customers.json"

// DefaultFirmsTTL is how long a cached firms list stays servable.
const DefaultFirmsTTL = 5 * time.Minute

type firmsDocument struct {
	CapturedAt time.Time        `json:"captured_at"`
	Firms      []firm.APIRecord `json:"firms"`
}

// Firms is the short-TTL cached firm list. Expired or absent entries
// read as punch.ErrCacheMiss.
type Firms struct {
	path string
	ttl  time.Duration
	now  func() time.Time
}

func NewFirms(dir string, ttl time.Duration) (*Firms, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	if ttl <= 0 {
		ttl = DefaultFirmsTTL
	}
	return &Firms{path: filepath.Join(dir, firmsFileName), ttl: ttl, now: time.Now}, nil
}

func (c *Firms) Read() ([]firm.Firm, error) {
	raw, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, punch.ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to read firms cache: %w", err)
	}
	var doc firmsDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, punch.ErrCacheMiss
	}
	if c.now().Sub(doc.CapturedAt) > c.ttl {
		return nil, punch.ErrCacheMiss
	}
	firms := make([]firm.Firm, 0, len(doc.Firms))
	for _, rec := range doc.Firms {
		firms = append(firms, firm.FromAPI(rec))
	}
	return firms, nil
}

func (c *Firms) Write(records []firm.APIRecord) error {
	raw, err := json.Marshal(firmsDocument{CapturedAt: c.now(), Firms: records})
	if err != nil {
		return fmt.Errorf("failed to encode firms cache: %w", err)
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("failed to write firms cache: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace firms cache: %w", err)
	}
	return nil
}
