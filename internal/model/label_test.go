package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func testMember() Member {
	end := time.Date(2025, 12, 31, 23, 59, 59, 0, time.Local)
	return Member{
		FirstName:  "Firstname",
		LastName:   "Lastname",
		Number:     9999,
		Membership: EndDate{Active: true, End: &end},
	}
}

func TestLabelIDIsThirteenDigits(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 100000).Draw(t, "number")
		base := NewLabelBase(Member{FirstName: "A", LastName: "B", Number: n}, time.Now())
		if base.ID < 1_000_000_000_000 || base.ID >= 10_000_000_000_000 {
			t.Fatalf("id %d is not 13 digits", base.ID)
		}
	})
}

func TestApproximatelyEqual(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.Local)
	m := testMember()

	a, err := NewLabel(KindBox, m, Options{}, now)
	require.NoError(t, err)
	b, err := NewLabel(KindBox, m, Options{}, now.Add(5*time.Minute-time.Second))
	require.NoError(t, err)
	c, err := NewLabel(KindBox, m, Options{}, now.Add(6*time.Minute))
	require.NoError(t, err)

	assert.True(t, ApproximatelyEqual(a, b))
	assert.False(t, ApproximatelyEqual(a, c))

	other := m
	other.Number = 1
	d, err := NewLabel(KindBox, other, Options{}, now)
	require.NoError(t, err)
	assert.False(t, ApproximatelyEqual(a, d))

	e, err := NewLabel(KindMeetup, m, Options{}, now)
	require.NoError(t, err)
	assert.False(t, ApproximatelyEqual(a, e))
}

func TestRoundUpHour(t *testing.T) {
	at := func(h, m, s int) time.Time { return time.Date(2024, 3, 1, h, m, s, 0, time.UTC) }

	assert.Equal(t, at(13, 0, 0), RoundUpHour(at(12, 1, 0)))
	assert.Equal(t, at(13, 0, 0), RoundUpHour(at(12, 59, 59)))
	assert.Equal(t, at(12, 0, 0), RoundUpHour(at(12, 0, 30)))
	assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), RoundUpHour(at(23, 30, 0)))
}

func TestNewLabelVariants(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 20, 0, 0, time.Local)
	m := testMember()

	l, err := NewLabel(KindDrying, m, Options{DryingHours: 24}, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 2, 13, 0, 0, 0, time.Local), l.(DryingLabel).ExpiresAt)

	l, err = NewLabel(KindTemporary, m, Options{Description: "Bike wheels", StorageDays: 60}, now)
	require.NoError(t, err)
	tmp := l.(TemporaryStorageLabel)
	assert.Equal(t, "Bike wheels", tmp.Description)
	assert.Equal(t, time.Date(2024, 4, 30, 0, 0, 0, 0, time.Local), tmp.ExpiresAt)

	l, err = NewLabel(KindNameTag, m, Options{}, now)
	require.NoError(t, err)
	require.NotNil(t, l.(NameTag).MembershipExpiresAt)
	assert.Equal(t, time.Date(2025, 12, 31, 0, 0, 0, 0, time.Local), *l.(NameTag).MembershipExpiresAt)

	l, err = NewLabel(KindWarning, m, Options{Description: "   ", StorageDays: 90}, now)
	require.NoError(t, err)
	assert.Nil(t, l.(WarningLabel).Description)

	assert.Equal(t, 9999, l.Base().CreatedByMemberNumber)
	assert.Equal(t, "Firstname Lastname", l.Base().MemberName)
	assert.Equal(t, LabelVersion, l.Base().Version)

	_, err = NewLabel("sticker", m, Options{}, now)
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestLabelWireForm(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 20, 0, 0, time.Local)
	m := testMember()

	for _, k := range Kinds {
		t.Run(string(k), func(t *testing.T) {
			l, err := NewLabel(k, m, Options{Description: "Paint cans", StorageDays: 30, DryingHours: 3}, now)
			require.NoError(t, err)

			data, err := MarshalLabel(l)
			require.NoError(t, err)
			assert.Contains(t, string(data), `"type":"`+string(k)+`"`)
			assert.Contains(t, string(data), `"created_at":"2024-03-01T12:20:00"`)

			back, err := UnmarshalLabel(data)
			require.NoError(t, err)
			assert.Equal(t, l.Base().ID, back.Base().ID)
			assert.True(t, ApproximatelyEqual(l, back))
		})
	}
}

func TestUploadedLabelJSON(t *testing.T) {
	body := `{"public_url": "HTTP://API.MAKERSPACE.SE/L/1234567890123", "label": {
		"type": "temp", "id": 1234567890123, "created_by_member_number": 1, "member_number": 9999,
		"member_name": "Firstname Lastname", "created_at": "2024-03-01T12:20:00+01:00", "version": 3,
		"description": "Bike", "expires_at": "2024-04-30"}}`

	var u UploadedLabel
	require.NoError(t, u.UnmarshalJSON([]byte(body)))
	assert.Equal(t, "HTTP://API.MAKERSPACE.SE/L/1234567890123", u.PublicURL)
	tmp, ok := u.Label.(TemporaryStorageLabel)
	require.True(t, ok)
	assert.Equal(t, uint64(1234567890123), tmp.ID)
	assert.Equal(t, 1, tmp.CreatedByMemberNumber)
	assert.Equal(t, "Bike", tmp.Description)

	_, err := UnmarshalLabel([]byte(`{"type": "sticker", "created_at": "2024-03-01T12:20:00"}`))
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" Temp ")
	require.NoError(t, err)
	assert.Equal(t, KindTemporary, k)

	_, err = ParseKind("sticker")
	assert.Error(t, err)
}
