package dto

import "time"

type CreateKeyRequest struct {
	Type string  `json:"type" binding:"required"`
	Note *string `json:"note"`
}

type UpdateKeyRequest struct {
	IsActive *bool   `json:"is_active"`
	Note     *string `json:"note"`
}

type KeyResponse struct {
	KeyValue     string     `json:"key_value"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	ExpiredAt    *time.Time `json:"expired_at"`
	Note         *string    `json:"note"`
	MachineName  *string    `json:"machine_name"`
	OSVersion    *string    `json:"os_version"`
	RevitVersion *string    `json:"revit_version"`
	CPUInfo      *string    `json:"cpu_info"`
	IPAddress    *string    `json:"ip_address"`
	MachineHash  *string    `json:"machine_hash"`
	LastCheck    *time.Time `json:"last_check"`
}

type ValidateKeyRequest struct {
	KeyValue     string `json:"key_value" binding:"required"`
	MachineName  string `json:"machine_name"`
	OSVersion    string `json:"os_version"`
	RevitVersion string `json:"revit_version"`
	CPUInfo      string `json:"cpu_info"`
	IPAddress    string `json:"ip_address"`
	MachineHash  string `json:"machine_hash"`
}

// ValidateKeyResponse is always returned with HTTP 200; the valid flag is
// the discriminant so unattended clients can tell business outcomes from
// transport failures.
type ValidateKeyResponse struct {
	Valid       bool       `json:"valid"`
	IsActive    bool       `json:"is_active"`
	ExpiredAt   *time.Time `json:"expired_at"`
	MachineHash *string    `json:"machine_hash,omitempty"`
	Note        string     `json:"note"`
}
