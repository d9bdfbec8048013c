package keys

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func TestDecideNotFound(t *testing.T) {
	d := Decide(nil, time.Now())

	assert.False(t, d.Valid)
	assert.False(t, d.IsActive)
	assert.Nil(t, d.ExpiredAt)
	assert.Equal(t, "Key not found", d.Note)
	assert.False(t, d.Refresh)
}

func TestDecideLocked(t *testing.T) {
	now := time.Now()
	rec := &KeyRecord{
		KeyValue:  "abc",
		IsActive:  false,
		ExpiredAt: timePtr(now.Add(24 * time.Hour)),
	}

	d := Decide(rec, now)

	assert.False(t, d.Valid)
	assert.False(t, d.IsActive)
	assert.Equal(t, "Key is locked", d.Note)
	assert.False(t, d.Refresh, "locked keys must not refresh metadata")
}

func TestDecideExpired(t *testing.T) {
	now := time.Now()
	rec := &KeyRecord{
		KeyValue:  "abc",
		IsActive:  true,
		ExpiredAt: timePtr(now.Add(-time.Minute)),
	}

	d := Decide(rec, now)

	assert.False(t, d.Valid)
	assert.True(t, d.IsActive, "expired key reports is_active as stored")
	assert.Equal(t, "Key expired", d.Note)
	assert.False(t, d.Refresh, "expired keys must not refresh metadata")
}

func TestDecideLockedBeforeExpired(t *testing.T) {
	// A key that is both locked and expired reports locked: first match wins.
	now := time.Now()
	rec := &KeyRecord{
		IsActive:  false,
		ExpiredAt: timePtr(now.Add(-time.Hour)),
	}

	d := Decide(rec, now)
	assert.Equal(t, "Key is locked", d.Note)
}

func TestDecideValid(t *testing.T) {
	now := time.Now()
	rec := &KeyRecord{
		KeyValue:  "abc",
		IsActive:  true,
		ExpiredAt: timePtr(now.Add(24 * time.Hour)),
	}

	d := Decide(rec, now)

	assert.True(t, d.Valid)
	assert.True(t, d.IsActive)
	assert.Equal(t, "Valid license", d.Note)
	assert.True(t, d.Refresh)
}

func TestDecideValidWithNote(t *testing.T) {
	rec := &KeyRecord{
		IsActive: true,
		Note:     strPtr("issued for ACME"),
	}

	d := Decide(rec, time.Now())

	assert.True(t, d.Valid)
	assert.Equal(t, "issued for ACME", d.Note)
}

func TestDecideNilExpiryNeverExpires(t *testing.T) {
	rec := &KeyRecord{IsActive: true}

	d := Decide(rec, time.Now().Add(100*365*24*time.Hour))

	assert.True(t, d.Valid)
}

func TestExpiryForType(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	trial, err := ExpiryForType("trial", now)
	assert.NoError(t, err)
	assert.Equal(t, now.AddDate(0, 0, 7), trial)

	month, err := ExpiryForType("month", now)
	assert.NoError(t, err)
	assert.Equal(t, now.AddDate(0, 0, 30), month)

	year, err := ExpiryForType("YEAR", now)
	assert.NoError(t, err)
	assert.Equal(t, now.AddDate(0, 0, 365), year)

	lifetime, err := ExpiryForType(" lifetime ", now)
	assert.NoError(t, err)
	assert.Equal(t, now.AddDate(0, 0, 365000), lifetime)

	_, err = ExpiryForType("weekly", now)
	assert.ErrorIs(t, err, ErrInvalidKeyType)
}

func TestGenerateKeyValue(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		key, err := GenerateKeyValue()
		assert.NoError(t, err)
		assert.GreaterOrEqual(t, len(key), 32, "24 bytes of entropy encode to 32 URL-safe chars")
		assert.NotContains(t, key, "+")
		assert.NotContains(t, key, "/")
		assert.NotContains(t, key, "=")
		assert.False(t, seen[key], "generated tokens must not repeat")
		seen[key] = true
	}
}
