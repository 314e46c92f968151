package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "moment/errors"
)

func TestRoom_AddParticipant_CapacityBound(t *testing.T) {
	req := require.New(t)
	room := NewRoom("AAAAAA", "", time.Hour, GroupRoom, 2)

	// Given a room one seat short of capacity
	req.NoError(room.AddParticipant(NewParticipant("Blue", "#3B82F6")))

	// When the last seat is taken
	req.NoError(room.AddParticipant(NewParticipant("Red", "#EF4444")))
	req.Equal(2, room.ActiveCount())

	// Then the next join fails
	err := room.AddParticipant(NewParticipant("Green", "#10B981"))
	req.ErrorIs(err, apperrors.ErrCapacityExceeded)
}

func TestRoom_AddParticipant_ColorConflictIsCaseInsensitive(t *testing.T) {
	req := require.New(t)
	room := NewRoom("AAAAAA", "", time.Hour, GroupRoom, 0)

	req.NoError(room.AddParticipant(NewParticipant("Blue", "#3B82F6")))

	// When a second participant claims the same color in another case
	err := room.AddParticipant(NewParticipant("Navy", "#3b82f6"))

	// Then the join is rejected
	req.ErrorIs(err, apperrors.ErrIdentityConflict)

	// Same for the display name
	err = room.AddParticipant(NewParticipant("bLuE", "#EF4444"))
	req.ErrorIs(err, apperrors.ErrIdentityConflict)
}

func TestRoom_Departure_FreesIdentityAndSeat(t *testing.T) {
	req := require.New(t)
	room := NewRoom("AAAAAA", "", time.Hour, GroupRoom, 2)

	blue := NewParticipant("Blue", "#3B82F6")
	req.NoError(room.AddParticipant(blue))
	req.NoError(room.AddParticipant(NewParticipant("Red", "#EF4444")))

	// When Blue departs
	_, allDeparted, err := room.MarkDeparted(blue.ID)
	req.NoError(err)
	req.False(allDeparted)

	// Then the name, color, and seat are usable again
	req.NoError(room.AddParticipant(NewParticipant("Blue", "#3B82F6")))
}

func TestRoom_MarkDeparted_LastActiveMemberReportsEmptyRoom(t *testing.T) {
	req := require.New(t)
	room := NewRoom("AAAAAA", "", time.Hour, PairRoom, 0)

	p := NewParticipant("Blue", "#3B82F6")
	req.NoError(room.AddParticipant(p))

	_, allDeparted, err := room.MarkDeparted(p.ID)
	req.NoError(err)
	req.True(allDeparted)
}

func TestRoom_Attach_FirstConnectionFlagFlipsOnce(t *testing.T) {
	req := require.New(t)
	room := NewRoom("AAAAAA", "", time.Hour, GroupRoom, 0)

	p := NewParticipant("Blue", "#3B82F6")
	req.NoError(room.AddParticipant(p))

	// First attach reports a first join
	attached, first, err := room.Attach(p.ID, "conn-1")
	req.NoError(err)
	req.True(first)
	req.Equal("conn-1", attached.ConnectionID)
	req.Equal(Online, attached.Status)

	// A reconnect with a new connection id is silent
	attached, first, err = room.Attach(p.ID, "conn-2")
	req.NoError(err)
	req.False(first)
	req.Equal("conn-2", attached.ConnectionID)
}

func TestRoom_Attach_DepartedIdentityCannotReturn(t *testing.T) {
	req := require.New(t)
	room := NewRoom("AAAAAA", "", time.Hour, GroupRoom, 0)

	p := NewParticipant("Blue", "#3B82F6")
	other := NewParticipant("Red", "#EF4444")
	req.NoError(room.AddParticipant(p))
	req.NoError(room.AddParticipant(other))

	_, _, err := room.MarkDeparted(p.ID)
	req.NoError(err)

	_, _, err = room.Attach(p.ID, "conn-9")
	req.ErrorIs(err, apperrors.ErrParticipantDeparted)
}

func TestRoom_UpdateActivity_ForcesBackOnline(t *testing.T) {
	req := require.New(t)
	room := NewRoom("AAAAAA", "", time.Hour, GroupRoom, 0)

	p := NewParticipant("Blue", "#3B82F6")
	req.NoError(room.AddParticipant(p))
	req.NoError(room.SetStatus(p.ID, Away))

	// When any activity arrives
	req.NoError(room.UpdateActivity(p.ID))

	// Then the participant is Online again
	member, ok := room.Member(p.ID)
	req.True(ok)
	req.Equal(Online, member.Status)
}

func TestRoom_MessageAttribution_SurvivesSenderDeparture(t *testing.T) {
	req := require.New(t)
	room := NewRoom("AAAAAA", "", time.Hour, GroupRoom, 0)

	blue := NewParticipant("Blue", "#3B82F6")
	red := NewParticipant("Red", "#EF4444")
	req.NoError(room.AddParticipant(blue))
	req.NoError(room.AddParticipant(red))

	room.AppendMessage(NewMessage(*blue, "see you"))

	_, _, err := room.MarkDeparted(blue.ID)
	req.NoError(err)

	// The sender snapshot on the message is untouched by the departure
	messages := room.Messages()
	req.Len(messages, 1)
	req.Equal("Blue", messages[0].SenderName)
	req.Equal("#3B82F6", messages[0].SenderColor)

	// But display-facing views no longer include the departed member
	req.Len(room.ActiveParticipants(), 1)
}

func TestRoom_Tick_WarningsFireExactlyOnce(t *testing.T) {
	req := require.New(t)
	room := NewRoom("AAAAAA", "", 4*time.Minute, GroupRoom, 0)
	now := time.Now().UTC()

	// First tick inside the 5-minute band fires the warning
	report := room.Tick(now, 5*time.Minute, 10*time.Minute)
	req.Equal([]int{5}, report.Warnings)
	req.False(report.Expired)

	// Subsequent ticks stay silent even though the band still matches
	report = room.Tick(now.Add(10*time.Second), 5*time.Minute, 10*time.Minute)
	req.Empty(report.Warnings)

	// Crossing into the 1-minute band fires once more, once
	report = room.Tick(now.Add(3*time.Minute+10*time.Second), 5*time.Minute, 10*time.Minute)
	req.Equal([]int{1}, report.Warnings)
	report = room.Tick(now.Add(3*time.Minute+20*time.Second), 5*time.Minute, 10*time.Minute)
	req.Empty(report.Warnings)
}

func TestRoom_Tick_ExpiryAndNegativeCountdown(t *testing.T) {
	req := require.New(t)
	room := NewRoom("AAAAAA", "", -time.Second, GroupRoom, 0)

	report := room.Tick(time.Now().UTC(), 5*time.Minute, 10*time.Minute)
	req.True(report.Expired)
	req.Negative(report.RemainingSeconds)
}

func TestRoom_Tick_InactivityTransitions(t *testing.T) {
	req := require.New(t)
	room := NewRoom("AAAAAA", "", time.Hour, GroupRoom, 0)
	now := time.Now().UTC()

	idle := NewParticipant("Blue", "#3B82F6")
	idle.LastActivity = now.Add(-6 * time.Minute)
	gone := NewParticipant("Red", "#EF4444")
	gone.LastActivity = now.Add(-11 * time.Minute)
	gone.Status = Offline
	fresh := NewParticipant("Green", "#10B981")

	req.NoError(room.AddParticipant(idle))
	req.NoError(room.AddParticipant(gone))
	req.NoError(room.AddParticipant(fresh))

	report := room.Tick(now, 5*time.Minute, 10*time.Minute)

	req.Len(report.ToDemote, 1)
	req.Equal(idle.ID, report.ToDemote[0].ID)
	req.Len(report.ToEvict, 1)
	req.Equal(gone.ID, report.ToEvict[0].ID)
}
