package workers

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"moment/domain"
	"moment/domain/event"
	"moment/mocks"
	"moment/runtime"
)

type schedulerFixture struct {
	registry  *runtime.Registry
	presence  *runtime.Presence
	voting    *runtime.Voting
	scheduler *ExpiryScheduler
	events    *[]event.DomainEvent
}

func newSchedulerFixture(t *testing.T) schedulerFixture {
	t.Helper()
	log := slog.Default()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	registry := runtime.NewRegistry(log, 0)
	presence := runtime.NewPresence(registry, log)
	voting := runtime.NewVoting(registry, log)

	var events []event.DomainEvent
	broadcaster := mocks.NewMockBroadcaster(ctrl)
	broadcaster.EXPECT().
		Publish(gomock.Any(), gomock.Any()).
		Do(func(_ string, evt event.DomainEvent) {
			events = append(events, evt)
		}).
		AnyTimes()

	scheduler := NewExpiryScheduler(log, registry, presence, voting, broadcaster, 0, 0, 0)
	return schedulerFixture{
		registry:  registry,
		presence:  presence,
		voting:    voting,
		scheduler: scheduler,
		events:    &events,
	}
}

func (f schedulerFixture) countByName(name string) int {
	count := 0
	for _, evt := range *f.events {
		if evt.Name() == name {
			count++
		}
	}
	return count
}

func TestExpiryScheduler_ExpiredRoomClosedExactlyOnce(t *testing.T) {
	req := require.New(t)
	f := newSchedulerFixture(t)

	room, err := f.registry.CreateRoom("", -time.Second, domain.GroupRoom)
	req.NoError(err)

	// When two sweeps run
	f.scheduler.sweep()
	f.scheduler.sweep()

	// Then the room is gone and the closed event went out once
	_, ok := f.registry.GetRoom(room.Code)
	req.False(ok)
	req.Equal(1, f.countByName("RoomClosed"))
}

func TestExpiryScheduler_CountdownPublishedEveryTick(t *testing.T) {
	req := require.New(t)
	f := newSchedulerFixture(t)

	_, err := f.registry.CreateRoom("", time.Hour, domain.GroupRoom)
	req.NoError(err)

	f.scheduler.sweep()
	f.scheduler.sweep()
	f.scheduler.sweep()

	req.Equal(3, f.countByName("TimerUpdate"))
}

func TestExpiryScheduler_WarningsFireOncePerBand(t *testing.T) {
	req := require.New(t)
	f := newSchedulerFixture(t)

	_, err := f.registry.CreateRoom("", 4*time.Minute, domain.GroupRoom)
	req.NoError(err)

	// The room sits inside the 5-minute band on every sweep, but the
	// warning is edge-triggered and fires only on the first
	f.scheduler.sweep()
	f.scheduler.sweep()
	f.scheduler.sweep()

	req.Equal(1, f.countByName("ExpiryWarning"))
}

func TestExpiryScheduler_InactivityDemotionAndEviction(t *testing.T) {
	req := require.New(t)
	f := newSchedulerFixture(t)

	room, err := f.registry.CreateRoom("", time.Hour, domain.GroupRoom)
	req.NoError(err)

	now := time.Now().UTC()
	idle := domain.NewParticipant("Blue", "#3B82F6")
	idle.LastActivity = now.Add(-6 * time.Minute)
	gone := domain.NewParticipant("Red", "#EF4444")
	gone.LastActivity = now.Add(-11 * time.Minute)
	gone.Status = domain.Offline
	req.NoError(room.AddParticipant(idle))
	req.NoError(room.AddParticipant(gone))

	f.scheduler.sweep()

	// The idle Online member is Away now; the long-offline one departed
	member, ok := room.Member(idle.ID)
	req.True(ok)
	req.Equal(domain.Away, member.Status)

	member, ok = room.Member(gone.ID)
	req.True(ok)
	req.True(member.Departed)
	req.Equal(1, f.countByName("UserLeft"))
}

func TestExpiryScheduler_EvictionOfLastMemberDeletesRoom(t *testing.T) {
	req := require.New(t)
	f := newSchedulerFixture(t)

	room, err := f.registry.CreateRoom("", time.Hour, domain.PairRoom)
	req.NoError(err)

	gone := domain.NewParticipant("Red", "#EF4444")
	gone.LastActivity = time.Now().UTC().Add(-11 * time.Minute)
	gone.Status = domain.Offline
	req.NoError(room.AddParticipant(gone))

	f.scheduler.sweep()

	_, ok := f.registry.GetRoom(room.Code)
	req.False(ok)
}

func TestExpiryScheduler_EvictionCanFlipOpenVote(t *testing.T) {
	req := require.New(t)
	f := newSchedulerFixture(t)

	room, err := f.registry.CreateRoom("", time.Hour, domain.GroupRoom)
	req.NoError(err)

	now := time.Now().UTC()
	blue := domain.NewParticipant("Blue", "#3B82F6")
	red := domain.NewParticipant("Red", "#EF4444")
	gone := domain.NewParticipant("Green", "#10B981")
	gone.LastActivity = now.Add(-11 * time.Minute)
	gone.Status = domain.Offline
	req.NoError(room.AddParticipant(blue))
	req.NoError(room.AddParticipant(red))
	req.NoError(room.AddParticipant(gone))

	// Given an open vote one ballot short: 3 active, 3 required, 2 cast
	req.NoError(f.voting.InitiateVote(room.Code, blue.ID))
	_, err = f.voting.CastVote(room.Code, blue.ID, true)
	req.NoError(err)
	_, err = f.voting.CastVote(room.Code, red.ID, true)
	req.NoError(err)
	req.False(room.InGracePeriod())

	// When the scheduler evicts the non-voter
	f.scheduler.sweep()

	// Then the shrunken denominator lets the vote pass
	req.True(room.InGracePeriod())
	req.Equal(1, f.countByName("VotePassed"))
}

func TestExpiryScheduler_DeletedRoomMidIterationIsBenign(t *testing.T) {
	req := require.New(t)
	f := newSchedulerFixture(t)

	room, err := f.registry.CreateRoom("", time.Hour, domain.GroupRoom)
	req.NoError(err)

	// Simulate a room vanishing between snapshot and inspection
	f.registry.DeleteRoom(room.Code)
	f.scheduler.checkRoom(room)

	req.Empty(*f.events)
}
