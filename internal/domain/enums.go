// Package domain defines the core domain models for alertlink.
package domain

// Channel names a conversational messaging channel.
type Channel string

const (
	ChannelTelegram  Channel = "telegram"
	ChannelWebSocket Channel = "ws"
)

// UserType selects the audience an advisory is written for.
type UserType string

const (
	UserTypePerson     UserType = "person"
	UserTypeCompany    UserType = "company"
	UserTypeGovernment UserType = "government"
)

// Defaults applied to dispatch requests that omit a field.
const (
	DefaultUserType     = UserTypePerson
	DefaultZone         = "your area"
	DefaultRiskLevel    = "elevated"
	DefaultContaminants = "unspecified"
)
