package models

// TransportMode is the traveler's primary mode of transport for a trip.
type TransportMode string

const (
	TransportWalking      TransportMode = "walking"
	TransportPublicTransit TransportMode = "public_transit"
	TransportTaxi         TransportMode = "taxi"
	TransportDriving      TransportMode = "driving"
)

// Pace is how densely a traveler wants their days packed.
type Pace string

const (
	PaceRelaxed   Pace = "relaxed"
	PaceModerate  Pace = "moderate"
	PaceIntensive Pace = "intensive"
)

// TravelersType describes the composition of the traveling party.
type TravelersType string

const (
	TravelersSolo     TravelersType = "solo"
	TravelersCouple   TravelersType = "couple"
	TravelersFamily   TravelersType = "family"
	TravelersFriends  TravelersType = "friends"
	TravelersElderly  TravelersType = "elderly"
)

// TripConstraints are the hard requirements extracted from the user's
// request by Intake. Immutable once the orchestrator moves past Intake.
type TripConstraints struct {
	City          string          `json:"city" validate:"required"`
	Days          int             `json:"days" validate:"required,min=1"`
	DateStart     *string         `json:"date_start,omitempty"` // RFC3339 date, optional
	DateEnd       *string         `json:"date_end,omitempty"`
	DailyBudget   *float64        `json:"daily_budget,omitempty"`
	TransportMode TransportMode   `json:"transport_mode"`
	Pace          Pace            `json:"pace"`
	MustVisit     []string        `json:"must_visit,omitempty"`
	Avoid         []string        `json:"avoid,omitempty"`
}

// Validate checks that the required fields are present and well-formed.
// It does not check date_start/date_end consistency with Days; that is
// the scheduler's concern once it needs concrete calendar dates.
func (c *TripConstraints) Validate() []string {
	var missing []string
	if c.City == "" {
		missing = append(missing, "city")
	}
	if c.Days < 1 {
		missing = append(missing, "days")
	}
	return missing
}

// PaceMultiplier returns the candidate-pool sizing multiplier for the
// pace, per the Retriever's pool-sizing rule (§4.4).
func (c *TripConstraints) PaceMultiplier() float64 {
	switch c.Pace {
	case PaceRelaxed:
		return 2
	case PaceIntensive:
		return 4
	default:
		return 3
	}
}

// UserProfile captures soft preferences that influence ranking and
// scheduling but never gate feasibility the way TripConstraints does.
type UserProfile struct {
	TravelersType     TravelersType `json:"travelers_type,omitempty"`
	Themes            []string      `json:"themes,omitempty"`
	DietaryRestrictions []string    `json:"dietary_restrictions,omitempty"`
	MobilityLimits    []string      `json:"mobility_limits,omitempty"`
}

// TravelersCount estimates the party size for food/budget accounting.
// The source message rarely states a headcount explicitly, so this is a
// deliberately coarse mapping from travelers_type.
func (p *UserProfile) TravelersCount() int {
	switch p.TravelersType {
	case TravelersSolo:
		return 1
	case TravelersCouple:
		return 2
	case TravelersFamily:
		return 4
	case TravelersFriends:
		return 3
	case TravelersElderly:
		return 2
	default:
		return 1
	}
}
