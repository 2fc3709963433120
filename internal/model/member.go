package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrBackendParse is returned when a directory response has an unexpected shape.
var ErrBackendParse = errors.New("model: could not parse member response")

const dateLayout = "2006-01-02"

// EndDate is one membership fact: whether it is active and when it ends.
// End is nil only when the directory never had a date for it.
type EndDate struct {
	Active bool
	End    *time.Time
}

// String renders the active glyph.
func (e EndDate) String() string {
	if e.Active {
		return "✓"
	}
	return "✕"
}

// Format renders the glyph followed by the end date.
func (e EndDate) Format() string {
	if e.End == nil {
		return e.String() + " never"
	}
	return e.String() + " " + e.End.Format(dateLayout)
}

// Member is the identity returned by a directory lookup
type Member struct {
	FirstName          string
	LastName           string
	Number             int
	Membership         EndDate
	LabAccess          EndDate
	SpecialLabAccess   EndDate
	EffectiveLabAccess EndDate
}

// Name returns "First Last"
func (m Member) Name() string {
	return m.FirstName + " " + m.LastName
}

func (m Member) String() string {
	return fmt.Sprintf("#%d, %q, %s,%s(%s%s)", m.Number, m.Name(),
		m.Membership, m.EffectiveLabAccess, m.LabAccess, m.SpecialLabAccess)
}

// MembershipData is the wire form of the four membership facts.
type MembershipData struct {
	MembershipActive         bool    `json:"membership_active"`
	MembershipEnd            *string `json:"membership_end"`
	LabAccessActive          bool    `json:"labaccess_active"`
	LabAccessEnd             *string `json:"labaccess_end"`
	SpecialLabAccessActive   bool    `json:"special_labaccess_active"`
	SpecialLabAccessEnd      *string `json:"special_labaccess_end"`
	EffectiveLabAccessActive bool    `json:"effective_labaccess_active"`
	EffectiveLabAccessEnd    *string `json:"effective_labaccess_end"`
}

// MemberData is the wire form of a member.
type MemberData struct {
	FirstName      string          `json:"firstname"`
	LastName       string          `json:"lastname"`
	MemberNumber   *int            `json:"member_number"`
	MembershipData *MembershipData `json:"membership_data"`
}

// MemberResponse wraps MemberData. A null Data means no matching identity.
type MemberResponse struct {
	Data *MemberData `json:"data"`
}

// ParseMemberResponse decodes a directory member response. It returns a nil
// member and nil error when the response carries no identity.
func ParseMemberResponse(body []byte) (*Member, error) {
	var resp MemberResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendParse, err)
	}
	if resp.Data == nil {
		return nil, nil
	}
	m, err := resp.Data.Member()
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Member converts the wire form. Every end date becomes that day at 23:59:59
// local time.
func (d MemberData) Member() (Member, error) {
	if d.MemberNumber == nil {
		return Member{}, fmt.Errorf("%w: missing member_number", ErrBackendParse)
	}
	if d.MembershipData == nil {
		return Member{}, fmt.Errorf("%w: missing membership_data", ErrBackendParse)
	}
	md := d.MembershipData

	var firstErr error
	end := func(active bool, s *string) EndDate {
		t, err := endOfDay(s)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		return EndDate{Active: active, End: t}
	}

	m := Member{
		FirstName:          d.FirstName,
		LastName:           d.LastName,
		Number:             *d.MemberNumber,
		Membership:         end(md.MembershipActive, md.MembershipEnd),
		LabAccess:          end(md.LabAccessActive, md.LabAccessEnd),
		SpecialLabAccess:   end(md.SpecialLabAccessActive, md.SpecialLabAccessEnd),
		EffectiveLabAccess: end(md.EffectiveLabAccessActive, md.EffectiveLabAccessEnd),
	}
	if firstErr != nil {
		return Member{}, firstErr
	}
	return m, nil
}

// Data converts a member back to its wire form.
func (m Member) Data() MemberData {
	number := m.Number
	return MemberData{
		FirstName:    m.FirstName,
		LastName:     m.LastName,
		MemberNumber: &number,
		MembershipData: &MembershipData{
			MembershipActive:         m.Membership.Active,
			MembershipEnd:            formatDate(m.Membership.End),
			LabAccessActive:          m.LabAccess.Active,
			LabAccessEnd:             formatDate(m.LabAccess.End),
			SpecialLabAccessActive:   m.SpecialLabAccess.Active,
			SpecialLabAccessEnd:      formatDate(m.SpecialLabAccess.End),
			EffectiveLabAccessActive: m.EffectiveLabAccess.Active,
			EffectiveLabAccessEnd:    formatDate(m.EffectiveLabAccess.End),
		},
	}
}

func endOfDay(s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	// The directory sometimes sends full timestamps; only the date matters.
	raw := *s
	if len(raw) > len(dateLayout) {
		raw = raw[:len(dateLayout)]
	}
	d, err := time.ParseInLocation(dateLayout, raw, time.Local)
	if err != nil {
		return nil, fmt.Errorf("%w: bad date %q", ErrBackendParse, *s)
	}
	t := time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 0, time.Local)
	return &t, nil
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

// DateOf truncates t to midnight in its own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
