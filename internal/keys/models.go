package keys

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrKeyNotFound    = errors.New("key not found")
	ErrInvalidKeyType = errors.New("invalid key type: must be trial/month/year/lifetime")
)

// KeyRecord is a license token and its binding/expiry state. The machine
// fields stay nil until the first successful validation from a client.
type KeyRecord struct {
	ID           int64
	KeyValue     string
	IsActive     bool
	CreatedAt    time.Time
	ExpiredAt    *time.Time
	Note         *string
	MachineName  *string
	OSVersion    *string
	RevitVersion *string
	CPUInfo      *string
	IPAddress    *string
	MachineHash  *string
	LastCheck    *time.Time
}

// keyTypeDays maps a key type to the number of days of validity added at
// issuance. Lifetime is modeled as a far-future expiry rather than NULL so
// every issued key carries a concrete expiry.
var keyTypeDays = map[string]int{
	"trial":    7,
	"month":    30,
	"year":     365,
	"lifetime": 365000,
}

// ExpiryForType computes the expiry timestamp for a key type issued at now.
func ExpiryForType(keyType string, now time.Time) (time.Time, error) {
	days, ok := keyTypeDays[strings.ToLower(strings.TrimSpace(keyType))]
	if !ok {
		return time.Time{}, ErrInvalidKeyType
	}
	// AddDate, not a Duration: the lifetime span overflows time.Duration.
	return now.AddDate(0, 0, days), nil
}
