package redaction

import "slices"

// DataTypes lists the categories collected by the logger app, in the order
// the settings screen shows them.
var DataTypes = []string{
	"bluetooth",
	"wifi",
	"battery",
	"data_traffic",
	"device_event",
	"message",
	"call_log",
	"installed_app",
	"location",
	"fitness",
	"physical_activity",
	"physical_activity_transition",
	"survey",
	"media",
	"app_usage_event",
	"notification",
}

// IsDataType reports whether name is one of DataTypes.
func IsDataType(name string) bool {
	return slices.Contains(DataTypes, name)
}

// NewUser returns the initial membership document for email: every data
// type visible and empty filter placeholders.
func NewUser(email string) *User {
	u := &User{
		Email:             email,
		Status:            make(map[string]Mode, len(DataTypes)),
		TimeFiltering:     make(map[string]TimeFilter, len(DataTypes)),
		LocationFiltering: make(map[string]LocationFilter, len(DataTypes)),
	}
	for _, dt := range DataTypes {
		u.Status[dt] = ModeOn
		u.TimeFiltering[dt] = TimeFilter{}
		u.LocationFiltering[dt] = LocationFilter{}
	}
	return u
}
