package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// AlertRequest is the body of an inbound dispatch request. The legacy
// /send_alert body uses email, tipo_usuario and risk_level; each is read only
// when its current counterpart is empty.
type AlertRequest struct {
	Identity     string       `json:"identity"`
	UserType     UserType     `json:"userType,omitempty"`
	Zone         string       `json:"zone,omitempty"`
	RiskLevel    string       `json:"riskLevel,omitempty"`
	Contaminants Contaminants `json:"contaminants,omitempty"`

	Email           string   `json:"email,omitempty"`
	LegacyUserType  UserType `json:"tipo_usuario,omitempty"`
	LegacyRiskLevel string   `json:"risk_level,omitempty"`
}

// legacyUserTypes maps the user types legacy callers send.
var legacyUserTypes = map[UserType]UserType{
	"persona":  UserTypePerson,
	"empresa":  UserTypeCompany,
	"gobierno": UserTypeGovernment,
}

// TargetIdentity returns the normalised identity the request is addressed to.
func (r *AlertRequest) TargetIdentity() string {
	if id := NormalizeIdentity(r.Identity); id != "" {
		return id
	}
	return NormalizeIdentity(r.Email)
}

// Profile returns the recipient profile with defaults applied.
func (r *AlertRequest) Profile(identity string) Profile {
	userType := normalizeUserType(r.UserType)
	if userType == "" {
		userType = normalizeUserType(r.LegacyUserType)
	}
	if userType == "" {
		userType = DefaultUserType
	}
	return Profile{Identity: identity, UserType: userType}
}

func normalizeUserType(t UserType) UserType {
	t = UserType(strings.ToLower(strings.TrimSpace(string(t))))
	if mapped, ok := legacyUserTypes[t]; ok {
		return mapped
	}
	return t
}

// Conditions returns the environmental conditions with defaults applied.
func (r *AlertRequest) Conditions() Conditions {
	c := Conditions{
		Zone:         strings.TrimSpace(r.Zone),
		RiskLevel:    strings.TrimSpace(r.RiskLevel),
		Contaminants: r.Contaminants.String(),
	}
	if c.Zone == "" {
		c.Zone = DefaultZone
	}
	if c.RiskLevel == "" {
		c.RiskLevel = strings.TrimSpace(r.LegacyRiskLevel)
	}
	if c.RiskLevel == "" {
		c.RiskLevel = DefaultRiskLevel
	}
	if c.Contaminants == "" {
		c.Contaminants = DefaultContaminants
	}
	return c
}

// Profile describes who an advisory is written for.
type Profile struct {
	Identity string   `json:"identity"`
	UserType UserType `json:"userType"`
}

// Conditions describes the situation an advisory is about.
type Conditions struct {
	Zone         string `json:"zone"`
	RiskLevel    string `json:"riskLevel"`
	Contaminants string `json:"contaminants"`
}

// AlertReceipt confirms a delivered alert.
type AlertReceipt struct {
	OK          bool      `json:"ok"`
	Identity    string    `json:"identity"`
	Message     string    `json:"message"`
	DeliveredAt time.Time `json:"delivered_at"`
}

// Contaminants accepts either a single string or a list of strings.
type Contaminants []string

// UnmarshalJSON implements json.Unmarshaler.
func (c *Contaminants) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if strings.TrimSpace(s) == "" {
			*c = nil
			return nil
		}
		*c = Contaminants{s}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("contaminants must be a string or a list of strings")
	}
	*c = list
	return nil
}

// String joins the non-empty entries with commas.
func (c Contaminants) String() string {
	parts := make([]string, 0, len(c))
	for _, item := range c {
		if item = strings.TrimSpace(item); item != "" {
			parts = append(parts, item)
		}
	}
	return strings.Join(parts, ", ")
}
