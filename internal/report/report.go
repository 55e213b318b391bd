// Package report lays one person's year out on the timesheet template.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"timesheets/internal/core"
	"timesheets/internal/ledger"
)

// CollaboratorSignatureFormula looks the collaborator's signature up in
// the parameter sheet, keyed by the name in C7.
const CollaboratorSignatureFormula = "=vlookup($C$7; Accueil!$A$17:$C$36; 3; false)"

type (
	// MonthRow is one line of the declared-time block.
	MonthRow struct {
		Days         decimal.Decimal
		WorkPackages string
	}

	// Header holds the discrete cells at the top of the timesheet.
	Header struct {
		ProjectNumber   string
		Acronym         string
		CallIdentifier  string
		ParticipantName string
		Person          string
		Year            int
	}

	// Report is the content of one (person, year) timesheet.
	Report struct {
		Name                 string
		Header               Header
		Months               [12]MonthRow
		Signatures           [12][2]string
		SupervisorSignatures [12][3]string
	}
)

// Name is the sheet name of a person's timesheet for a year.
func Name(person string, year int) string {
	return fmt.Sprintf("%s %d", person, year)
}

// FileName is the exported file name of a timesheet.
func FileName(sheetName string) string {
	return sheetName + ".pdf"
}

// Assemble builds the timesheet of person for year. The boolean is false
// when the person declared nothing that year; no timesheet should exist
// then.
func Assemble(person ledger.PersonLedger, year int, params core.RunParameters) (Report, bool) {
	r := Report{
		Name: Name(person.Name, year),
		Header: Header{
			ProjectNumber:   params.ProjectNumber,
			Acronym:         params.Acronym,
			CallIdentifier:  params.CallIdentifier,
			ParticipantName: params.ParticipantName,
			Person:          person.Name,
			Year:            year,
		},
	}

	date := params.SignatureDateText()
	signature := [2]string{"Date: " + date + "\n\nSignature:", CollaboratorSignatureFormula}
	supervisor := [3]string{
		"Date: " + date + "\nName: " + params.Supervisor + "\n\nSignature:",
		"",
		imageCell(params.SupervisorSignatureURL),
	}

	hasData := false
	for m := time.January; m <= time.December; m++ {
		i := int(m) - 1
		if entry, ok := person.Month(year, m); ok {
			hasData = true
			r.Months[i] = MonthRow{
				Days:         core.RoundDays(entry.Days),
				WorkPackages: strings.Join(entry.WorkPackages, "\n"),
			}
		} else {
			r.Months[i] = MonthRow{Days: decimal.Zero}
		}
		r.Signatures[i] = signature
		r.SupervisorSignatures[i] = supervisor
	}
	return r, hasData
}

// imageCell renders the supervisor signature image. Without a source the
// cell stays empty rather than holding an IMAGE formula with no URL.
func imageCell(url string) string {
	if url == "" {
		return ""
	}
	return `=IMAGE("` + strings.ReplaceAll(url, `"`, `""`) + `")`
}

// TotalDays sums the rendered days of the year.
func (r Report) TotalDays() decimal.Decimal {
	total := decimal.Zero
	for _, m := range r.Months {
		total = total.Add(m.Days)
	}
	return total
}
