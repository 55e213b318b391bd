package report

import "timesheets/internal/sheets"

// Template cells, in A1 notation relative to the timesheet sheet.
const (
	RangeTime                 = "B11:C22"
	RangeSignatures           = "E11:F22"
	RangeSupervisorSignatures = "G11:I22"
	RangeProjectLine          = "B1:D1"
	CellAcronym               = "C5"
	CellParticipant           = "C6"
	CellPerson                = "C7"
	CellProjectNumber         = "H5"
	CellYear                  = "I3"
)

// TimeGrid is the 12x2 days / work packages block.
func (r Report) TimeGrid() [][]any {
	out := make([][]any, len(r.Months))
	for i, m := range r.Months {
		out[i] = []any{m.Days.InexactFloat64(), m.WorkPackages}
	}
	return out
}

// SignatureGrid is the 12x2 collaborator signature block.
func (r Report) SignatureGrid() [][]any {
	out := make([][]any, len(r.Signatures))
	for i, s := range r.Signatures {
		out[i] = []any{s[0], s[1]}
	}
	return out
}

// SupervisorGrid is the 12x3 supervisor signature block.
func (r Report) SupervisorGrid() [][]any {
	out := make([][]any, len(r.SupervisorSignatures))
	for i, s := range r.SupervisorSignatures {
		out[i] = []any{s[0], s[1], s[2]}
	}
	return out
}

// Ranges lists every write needed to fill a fresh copy of the template.
func (r Report) Ranges() []sheets.Range {
	h := r.Header
	return []sheets.Range{
		{A1: RangeTime, Values: r.TimeGrid()},
		{A1: RangeSignatures, Values: r.SignatureGrid()},
		{A1: RangeSupervisorSignatures, Values: r.SupervisorGrid()},
		{A1: RangeProjectLine, Values: [][]any{{h.ProjectNumber, h.Acronym, h.CallIdentifier}}},
		{A1: CellAcronym, Values: [][]any{{h.Acronym}}},
		{A1: CellParticipant, Values: [][]any{{h.ParticipantName}}},
		{A1: CellPerson, Values: [][]any{{h.Person}}},
		{A1: CellProjectNumber, Values: [][]any{{h.ProjectNumber}}},
		{A1: CellYear, Values: [][]any{{h.Year}}},
	}
}
