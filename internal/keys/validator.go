package keys

import "time"

// ValidatePayload carries the machine metadata a client sends alongside its
// license token. Empty fields mean "no value supplied" and never overwrite
// previously stored metadata.
type ValidatePayload struct {
	KeyValue     string
	MachineName  string
	OSVersion    string
	RevitVersion string
	CPUInfo      string
	IPAddress    string
	MachineHash  string
}

// Decision is the outcome of the validation state machine. Invalid outcomes
// are business results, not errors: the client is an unattended background
// process that must tell "key locked" apart from a network failure.
type Decision struct {
	Valid     bool
	IsActive  bool
	ExpiredAt *time.Time
	Note      string
	// Refresh is true only on the valid path: machine metadata and the
	// last-check stamp must be persisted in the same transaction as the read.
	Refresh bool
}

// Decide runs the validation state machine over a key record. A nil record
// means the token was not found. First match wins: locked before expired,
// expired before valid. Pure function, the caller owns persistence.
func Decide(rec *KeyRecord, now time.Time) Decision {
	if rec == nil {
		return Decision{Valid: false, IsActive: false, Note: "Key not found"}
	}

	if !rec.IsActive {
		return Decision{Valid: false, IsActive: false, ExpiredAt: rec.ExpiredAt, Note: "Key is locked"}
	}

	if rec.ExpiredAt != nil && rec.ExpiredAt.Before(now) {
		return Decision{Valid: false, IsActive: rec.IsActive, ExpiredAt: rec.ExpiredAt, Note: "Key expired"}
	}

	note := "Valid license"
	if rec.Note != nil && *rec.Note != "" {
		note = *rec.Note
	}
	return Decision{Valid: true, IsActive: true, ExpiredAt: rec.ExpiredAt, Note: note, Refresh: true}
}
