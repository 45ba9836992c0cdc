package domain

// PositionSet groups held positions by sphere: cabinet/ministry posts,
// party posts, Diet posts.
type PositionSet struct {
	Government []string `json:"government,omitempty"`
	Party      []string `json:"party,omitempty"`
	Diet       []string `json:"diet,omitempty"`
}

func (p PositionSet) IsZero() bool {
	return len(p.Government) == 0 && len(p.Party) == 0 && len(p.Diet) == 0
}

// Profile is a sparse bag of biographical fields pulled from a member's
// profile page. Every field is optional; a profile in which nothing was
// extracted is represented as absence (nil) at the Member level, which
// HasAnyField decides.
type Profile struct {
	NameReading         string            `json:"nameReading,omitempty"`
	BirthDate           string            `json:"birthDate,omitempty"`
	BirthPlace          string            `json:"birthPlace,omitempty"`
	Education           []string          `json:"education,omitempty"`
	University          string            `json:"university,omitempty"`
	Occupations         []string          `json:"occupations,omitempty"`
	PreviousOccupations []string          `json:"previousOccupations,omitempty"`
	CurrentPositions    PositionSet       `json:"currentPositions,omitzero"`
	PreviousPositions   PositionSet       `json:"previousPositions,omitzero"`
	Committees          []string          `json:"committees,omitempty"`
	TimesElected        int               `json:"timesElected,omitempty"`
	Terms               []string          `json:"terms,omitempty"`
	Honors              []string          `json:"honors,omitempty"`
	Website             string            `json:"website,omitempty"`
	Email               string            `json:"email,omitempty"`
	Biography           string            `json:"biography,omitempty"`
	AdditionalInfo      map[string]string `json:"additionalInfo,omitempty"`
}

// HasAnyField reports whether any probe populated anything. Callers drop
// the profile entirely when this is false.
func (p *Profile) HasAnyField() bool {
	if p == nil {
		return false
	}
	return p.NameReading != "" ||
		p.BirthDate != "" ||
		p.BirthPlace != "" ||
		len(p.Education) > 0 ||
		p.University != "" ||
		len(p.Occupations) > 0 ||
		len(p.PreviousOccupations) > 0 ||
		!p.CurrentPositions.IsZero() ||
		!p.PreviousPositions.IsZero() ||
		len(p.Committees) > 0 ||
		p.TimesElected > 0 ||
		len(p.Terms) > 0 ||
		len(p.Honors) > 0 ||
		p.Website != "" ||
		p.Email != "" ||
		p.Biography != "" ||
		len(p.AdditionalInfo) > 0
}
