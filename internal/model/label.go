package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
)

// Kind identifies a label variant on the wire and in file names.
type Kind string

const (
	KindBox        Kind = "box"
	KindTemporary  Kind = "temp"
	KindFireSafety Kind = "fire"
	KindPrinter3D  Kind = "3d"
	KindNameTag    Kind = "name"
	KindMeetup     Kind = "meetup"
	KindDrying     Kind = "drying"
	KindRotating   Kind = "rotating"
	KindWarning    Kind = "warning"
)

// LabelVersion is the schema version written into every label.
const LabelVersion = 3

const (
	minLabelID           = 1_000_000_000_000
	labelIDSpan          = 9_000_000_000_000
	timestampLayout      = "2006-01-02T15:04:05"
	approximateTolerance = 5 * time.Minute
)

// Kinds lists every label kind in menu order.
var Kinds = []Kind{
	KindBox, KindTemporary, KindFireSafety, KindPrinter3D, KindNameTag,
	KindMeetup, KindDrying, KindRotating, KindWarning,
}

// ParseKind accepts a kind name, case-insensitively.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown label kind %q", s)
}

// ErrUnknownKind is returned when decoding a label with an unrecognised type tag.
var ErrUnknownKind = errors.New("model: unknown label kind")

// LabelBase is the header shared by every printed label.
type LabelBase struct {
	ID                    uint64
	CreatedByMemberNumber int
	MemberNumber          int
	MemberName            string
	CreatedAt             time.Time
	Version               int
}

// NewLabelBase creates a header for a label about m, created by m.
// The id is 13 random decimal digits; it is not a secret.
func NewLabelBase(m Member, now time.Time) LabelBase {
	return LabelBase{
		ID:                    minLabelID + rand.Uint64N(labelIDSpan),
		CreatedByMemberNumber: m.Number,
		MemberNumber:          m.Number,
		MemberName:            m.Name(),
		CreatedAt:             now.Truncate(time.Second),
		Version:               LabelVersion,
	}
}

// Base returns the shared header.
func (b LabelBase) Base() LabelBase { return b }

func (LabelBase) label() {}

func (b LabelBase) approximatelyEqual(o LabelBase) bool {
	d := b.CreatedAt.Sub(o.CreatedAt)
	if d < 0 {
		d = -d
	}
	return b.MemberNumber == o.MemberNumber &&
		b.MemberName == o.MemberName &&
		b.CreatedByMemberNumber == o.CreatedByMemberNumber &&
		d < approximateTolerance
}

// Label is one of the label variants below.
type Label interface {
	Base() LabelBase
	Kind() Kind
	label()
}

type BoxLabel struct {
	LabelBase
}

type TemporaryStorageLabel struct {
	LabelBase
	Description string
	ExpiresAt   time.Time // date
}

type FireSafetyLabel struct {
	LabelBase
	ExpiresAt time.Time // date
}

type Printer3DLabel struct {
	LabelBase
}

type NameTag struct {
	LabelBase
	MembershipExpiresAt *time.Time // date, nil when the member never had a membership
}

type MeetupNameTag struct {
	LabelBase
}

// DryingLabel expires on a whole hour.
type DryingLabel struct {
	LabelBase
	ExpiresAt time.Time
}

type RotatingStorageLabel struct {
	LabelBase
	Description string
}

type WarningLabel struct {
	LabelBase
	Description *string
	ExpiresAt   time.Time // date
}

func (BoxLabel) Kind() Kind              { return KindBox }
func (TemporaryStorageLabel) Kind() Kind { return KindTemporary }
func (FireSafetyLabel) Kind() Kind       { return KindFireSafety }
func (Printer3DLabel) Kind() Kind        { return KindPrinter3D }
func (NameTag) Kind() Kind               { return KindNameTag }
func (MeetupNameTag) Kind() Kind         { return KindMeetup }
func (DryingLabel) Kind() Kind           { return KindDrying }
func (RotatingStorageLabel) Kind() Kind  { return KindRotating }
func (WarningLabel) Kind() Kind          { return KindWarning }

// Options carries the operator supplied and policy fields a label may need.
type Options struct {
	Description string
	StorageDays int // temp, fire and warning labels
	DryingHours int
}

// NewLabel builds a label of kind k about m.
func NewLabel(k Kind, m Member, opts Options, now time.Time) (Label, error) {
	base := NewLabelBase(m, now)
	today := DateOf(now)

	switch k {
	case KindBox:
		return BoxLabel{base}, nil
	case KindTemporary:
		return TemporaryStorageLabel{base, opts.Description, today.AddDate(0, 0, opts.StorageDays)}, nil
	case KindFireSafety:
		return FireSafetyLabel{base, today.AddDate(0, 0, opts.StorageDays)}, nil
	case KindPrinter3D:
		return Printer3DLabel{base}, nil
	case KindNameTag:
		var expires *time.Time
		if m.Membership.End != nil {
			d := DateOf(*m.Membership.End)
			expires = &d
		}
		return NameTag{base, expires}, nil
	case KindMeetup:
		return MeetupNameTag{base}, nil
	case KindDrying:
		return DryingLabel{base, RoundUpHour(base.CreatedAt.Add(time.Duration(opts.DryingHours) * time.Hour))}, nil
	case KindRotating:
		return RotatingStorageLabel{base, opts.Description}, nil
	case KindWarning:
		var desc *string
		if d := strings.TrimSpace(opts.Description); d != "" {
			desc = &d
		}
		return WarningLabel{base, desc, today.AddDate(0, 0, opts.StorageDays)}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, k)
}

// RoundUpHour moves t to the next whole hour unless its minute is already zero,
// in which case it only drops seconds.
func RoundUpHour(t time.Time) time.Time {
	h := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
	if t.Minute() > 0 {
		h = h.Add(time.Hour)
	}
	return h
}

// ApproximatelyEqual reports whether two labels describe the same print
// request: same kind, subject, creator and payload, created within five
// minutes of each other. Drying expiries get the same tolerance.
func ApproximatelyEqual(a, b Label) bool {
	if a == nil || b == nil || a.Kind() != b.Kind() || !a.Base().approximatelyEqual(b.Base()) {
		return false
	}
	switch x := a.(type) {
	case TemporaryStorageLabel:
		y := b.(TemporaryStorageLabel)
		return x.Description == y.Description && x.ExpiresAt.Equal(y.ExpiresAt)
	case FireSafetyLabel:
		return x.ExpiresAt.Equal(b.(FireSafetyLabel).ExpiresAt)
	case NameTag:
		y := b.(NameTag)
		if x.MembershipExpiresAt == nil || y.MembershipExpiresAt == nil {
			return x.MembershipExpiresAt == nil && y.MembershipExpiresAt == nil
		}
		return x.MembershipExpiresAt.Equal(*y.MembershipExpiresAt)
	case DryingLabel:
		d := x.ExpiresAt.Sub(b.(DryingLabel).ExpiresAt)
		return d < approximateTolerance && d > -approximateTolerance
	case RotatingStorageLabel:
		return x.Description == b.(RotatingStorageLabel).Description
	case WarningLabel:
		y := b.(WarningLabel)
		if (x.Description == nil) != (y.Description == nil) {
			return false
		}
		if x.Description != nil && *x.Description != *y.Description {
			return false
		}
		return x.ExpiresAt.Equal(y.ExpiresAt)
	}
	return true
}

// wireLabel is the flattened JSON form shared by all variants.
type wireLabel struct {
	Type                  Kind    `json:"type"`
	ID                    uint64  `json:"id"`
	CreatedByMemberNumber int     `json:"created_by_member_number"`
	MemberNumber          int     `json:"member_number"`
	MemberName            string  `json:"member_name"`
	CreatedAt             string  `json:"created_at"`
	Version               int     `json:"version"`
	Description           *string `json:"description,omitempty"`
	ExpiresAt             *string `json:"expires_at,omitempty"`
	MembershipExpiresAt   *string `json:"membership_expires_at,omitempty"`
}

// MarshalLabel encodes a label in its flattened wire form.
func MarshalLabel(l Label) ([]byte, error) {
	b := l.Base()
	w := wireLabel{
		Type:                  l.Kind(),
		ID:                    b.ID,
		CreatedByMemberNumber: b.CreatedByMemberNumber,
		MemberNumber:          b.MemberNumber,
		MemberName:            b.MemberName,
		CreatedAt:             b.CreatedAt.Format(timestampLayout),
		Version:               b.Version,
	}
	str := func(s string) *string { return &s }

	switch v := l.(type) {
	case TemporaryStorageLabel:
		w.Description = str(v.Description)
		w.ExpiresAt = str(v.ExpiresAt.Format(dateLayout))
	case FireSafetyLabel:
		w.ExpiresAt = str(v.ExpiresAt.Format(dateLayout))
	case NameTag:
		w.MembershipExpiresAt = formatDate(v.MembershipExpiresAt)
	case DryingLabel:
		w.ExpiresAt = str(v.ExpiresAt.Format(timestampLayout))
	case RotatingStorageLabel:
		w.Description = str(v.Description)
	case WarningLabel:
		w.Description = v.Description
		w.ExpiresAt = str(v.ExpiresAt.Format(dateLayout))
	}
	return json.Marshal(w)
}

// UnmarshalLabel decodes a label from its flattened wire form.
func UnmarshalLabel(data []byte) (Label, error) {
	var w wireLabel
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode label: %w", err)
	}
	created, err := parseTimestamp(w.CreatedAt)
	if err != nil {
		return nil, err
	}
	base := LabelBase{
		ID:                    w.ID,
		CreatedByMemberNumber: w.CreatedByMemberNumber,
		MemberNumber:          w.MemberNumber,
		MemberName:            w.MemberName,
		CreatedAt:             created,
		Version:               w.Version,
	}
	desc := ""
	if w.Description != nil {
		desc = *w.Description
	}
	date := func() (time.Time, error) {
		if w.ExpiresAt == nil {
			return time.Time{}, fmt.Errorf("decode %s label: missing expires_at", w.Type)
		}
		return time.ParseInLocation(dateLayout, *w.ExpiresAt, time.Local)
	}

	switch w.Type {
	case KindBox:
		return BoxLabel{base}, nil
	case KindTemporary:
		d, err := date()
		if err != nil {
			return nil, err
		}
		return TemporaryStorageLabel{base, desc, d}, nil
	case KindFireSafety:
		d, err := date()
		if err != nil {
			return nil, err
		}
		return FireSafetyLabel{base, d}, nil
	case KindPrinter3D:
		return Printer3DLabel{base}, nil
	case KindNameTag:
		var expires *time.Time
		if w.MembershipExpiresAt != nil {
			d, err := time.ParseInLocation(dateLayout, *w.MembershipExpiresAt, time.Local)
			if err != nil {
				return nil, fmt.Errorf("decode name tag: %w", err)
			}
			expires = &d
		}
		return NameTag{base, expires}, nil
	case KindMeetup:
		return MeetupNameTag{base}, nil
	case KindDrying:
		if w.ExpiresAt == nil {
			return nil, errors.New("decode drying label: missing expires_at")
		}
		t, err := parseTimestamp(*w.ExpiresAt)
		if err != nil {
			return nil, err
		}
		return DryingLabel{base, t}, nil
	case KindRotating:
		return RotatingStorageLabel{base, desc}, nil
	case KindWarning:
		d, err := date()
		if err != nil {
			return nil, err
		}
		return WarningLabel{base, w.Description, d}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, w.Type)
}

func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.ParseInLocation(timestampLayout, s, time.Local); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("decode timestamp %q: %w", s, err)
	}
	return t, nil
}

// UploadedLabel is a label the directory has stored, with the public URL
// that its QR code points at.
type UploadedLabel struct {
	PublicURL string
	Label     Label
}

type wireUploaded struct {
	PublicURL string          `json:"public_url"`
	Label     json.RawMessage `json:"label"`
}

func (u UploadedLabel) MarshalJSON() ([]byte, error) {
	raw, err := MarshalLabel(u.Label)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireUploaded{PublicURL: u.PublicURL, Label: raw})
}

func (u *UploadedLabel) UnmarshalJSON(data []byte) error {
	var w wireUploaded
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	l, err := UnmarshalLabel(w.Label)
	if err != nil {
		return err
	}
	u.PublicURL = w.PublicURL
	u.Label = l
	return nil
}
