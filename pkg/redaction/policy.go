package redaction

import (
	"errors"
	"fmt"

	"privacyviz/redactor/pkg/geo"
	"privacyviz/redactor/pkg/redaction/wallclock"
)

// Policy is the resolved privacy setting of one data type. It is one of
// Visible, Hidden, *TimePolicy or *LocationPolicy.
type Policy interface {
	Mode() Mode
	isPolicy()
}

// Visible is the policy of a data type in mode on.
type Visible struct{}

// Mode implements Policy.
func (Visible) Mode() Mode { return ModeOn }
func (Visible) isPolicy()  {}

// Hidden is the policy of a data type in mode off.
type Hidden struct{}

// Mode implements Policy.
func (Hidden) Mode() Mode { return ModeOff }
func (Hidden) isPolicy()  {}

// TimePolicy hides records inside a daily window. Start and End are the
// stored UTC clock values; the window is computed per day by the
// wallclock package. ApplyTS is the retroactivity floor.
type TimePolicy struct {
	Start   wallclock.Clock
	End     wallclock.Clock
	ApplyTS int64
}

// Mode implements Policy.
func (*TimePolicy) Mode() Mode { return ModeTime }
func (*TimePolicy) isPolicy()  {}

// LocationPolicy hides records captured while the user was inside Fence.
type LocationPolicy struct {
	Fence   geo.Fence
	ApplyTS int64
}

// Mode implements Policy.
func (*LocationPolicy) Mode() Mode { return ModeLocation }
func (*LocationPolicy) isPolicy()  {}

// Policy resolves the setting of one data type. A data type absent from
// Status is visible. A time or location mode without its policy object
// yields a *MissingPolicyError; malformed parameters yield a
// *PolicyParseError.
func (u *User) Policy(dataType string) (Policy, error) {
	mode, ok := u.Status[dataType]
	if !ok {
		return Visible{}, nil
	}

	switch mode {
	case ModeOn:
		return Visible{}, nil
	case ModeOff:
		return Hidden{}, nil
	case ModeTime:
		raw, ok := u.TimeFiltering[dataType]
		if !ok || raw.IsZero() {
			return nil, NewMissingPolicyError(u.Email, dataType, mode)
		}
		return parseTimePolicy(u.Email, dataType, raw)
	case ModeLocation:
		raw, ok := u.LocationFiltering[dataType]
		if !ok || raw.IsZero() {
			return nil, NewMissingPolicyError(u.Email, dataType, mode)
		}
		return parseLocationPolicy(u.Email, dataType, raw)
	default:
		return nil, NewPolicyParseError(u.Email, dataType,
			fmt.Errorf("unknown mode %q", mode))
	}
}

var errMissingApplyTS = errors.New("applyTS: missing")

func parseTimePolicy(email, dataType string, raw TimeFilter) (*TimePolicy, error) {
	start, err := wallclock.Parse(raw.StartingTime)
	if err != nil {
		return nil, NewPolicyParseError(email, dataType, fmt.Errorf("startingTime: %w", err))
	}
	end, err := wallclock.Parse(raw.EndingTime)
	if err != nil {
		return nil, NewPolicyParseError(email, dataType, fmt.Errorf("endingTime: %w", err))
	}
	// Day windows are stepped from ApplyTS; zero would mean every day
	// since 1970.
	if raw.ApplyTS <= 0 {
		return nil, NewPolicyParseError(email, dataType, errMissingApplyTS)
	}
	return &TimePolicy{Start: start, End: end, ApplyTS: raw.ApplyTS}, nil
}

func parseLocationPolicy(email, dataType string, raw LocationFilter) (*LocationPolicy, error) {
	if raw.Radius < 0 {
		return nil, NewPolicyParseError(email, dataType, fmt.Errorf("negative radius %v", raw.Radius))
	}
	return &LocationPolicy{
		Fence: geo.Fence{
			Center:       geo.Point{Latitude: raw.Latitude, Longitude: raw.Longitude},
			RadiusMeters: raw.Radius,
		},
		ApplyTS: raw.ApplyTS,
	}, nil
}

// ApplyTS returns the retroactivity floor of p, or 0 for policies without
// one.
func ApplyTS(p Policy) int64 {
	switch v := p.(type) {
	case *TimePolicy:
		return v.ApplyTS
	case *LocationPolicy:
		return v.ApplyTS
	}
	return 0
}
