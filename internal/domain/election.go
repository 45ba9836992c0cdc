package domain

type ElectoralSystem string

const (
	SystemSingleSeat   ElectoralSystem = "single-seat-constituency"
	SystemProportional ElectoralSystem = "proportional-representation"
)

// ElectionDescriptor is the typed form of a constituency cell. Exactly one
// branch is populated: single-seat carries Prefecture and an optional
// DistrictNumber, proportional carries Area. DistrictNumber stays a digit
// string, never an int, so the cell survives round-trips exactly as scraped.
type ElectionDescriptor struct {
	System         ElectoralSystem `json:"system"`
	Prefecture     string          `json:"prefecture,omitempty"`
	DistrictNumber string          `json:"districtNumber,omitempty"`
	Area           string          `json:"area,omitempty"`
}

func NewSingleSeatDescriptor(prefecture, districtNumber string) ElectionDescriptor {
	return ElectionDescriptor{
		System:         SystemSingleSeat,
		Prefecture:     prefecture,
		DistrictNumber: districtNumber,
	}
}

func NewProportionalDescriptor(area string) ElectionDescriptor {
	return ElectionDescriptor{
		System: SystemProportional,
		Area:   area,
	}
}

// ElectionCount records how many times a member has been elected. Senate is
// the compound component from cells like 5（参2）. Valid components lie in
// [1,25], so Senate == 0 is unambiguous absence.
type ElectionCount struct {
	House  int `json:"house"`
	Senate int `json:"senate,omitempty"`
}

func (c ElectionCount) HasSenate() bool {
	return c.Senate > 0
}
