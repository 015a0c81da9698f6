package services

import (
	"taskboard/internal/models"
)

func userIDs(users []models.User) []uint {
	ids := make([]uint, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	return ids
}

func (s *ServiceSuite) TestTeamInviteAndAccept() {
	alice := s.signup("Alice", "alice@example.com")
	bob := s.signup("Bob", "bob@example.com")

	target, err := s.teams.InviteMember(s.db, alice.ID, "BOB@example.com")
	s.Require().NoError(err)
	s.Equal(bob.ID, target.ID)
	s.Equal([]string{"Sent you a team invite request"}, s.notificationTexts(bob.ID))

	invites, err := s.teams.Invites(s.db, bob.ID)
	s.Require().NoError(err)
	s.Equal([]uint{alice.ID}, userIDs(invites))

	_, err = s.teams.InviteMember(s.db, alice.ID, "bob@example.com")
	s.ErrorIs(err, ErrDuplicateInvite)

	s.Require().NoError(s.teams.AcceptRequest(s.db, bob.ID, alice.ID))

	aliceTeam, err := s.teams.Team(s.db, alice.ID)
	s.Require().NoError(err)
	bobTeam, err := s.teams.Team(s.db, bob.ID)
	s.Require().NoError(err)
	s.Equal([]uint{bob.ID}, userIDs(aliceTeam))
	s.Equal([]uint{alice.ID}, userIDs(bobTeam))

	invites, err = s.teams.Invites(s.db, bob.ID)
	s.Require().NoError(err)
	s.Empty(invites)
	s.Equal([]string{"Accepted your request"}, s.notificationTexts(alice.ID))
	s.Equal(int64(1), s.count(&models.TeamMembership{}))

	_, err = s.teams.InviteMember(s.db, bob.ID, "alice@example.com")
	s.ErrorIs(err, ErrAlreadyMember)
}

func (s *ServiceSuite) TestTeamAcceptConsumesCrossingInvite() {
	alice := s.signup("Alice", "alice@example.com")
	bob := s.signup("Bob", "bob@example.com")

	_, err := s.teams.InviteMember(s.db, alice.ID, "bob@example.com")
	s.Require().NoError(err)
	_, err = s.teams.InviteMember(s.db, bob.ID, "alice@example.com")
	s.Require().NoError(err)

	s.Require().NoError(s.teams.AcceptRequest(s.db, bob.ID, alice.ID))
	s.Equal(int64(0), s.count(&models.PendingInvite{}))
	s.Equal(int64(1), s.count(&models.TeamMembership{}))
}

func (s *ServiceSuite) TestTeamReject() {
	alice := s.signup("Alice", "alice@example.com")
	bob := s.signup("Bob", "bob@example.com")

	_, err := s.teams.InviteMember(s.db, alice.ID, "bob@example.com")
	s.Require().NoError(err)
	s.Require().NoError(s.teams.RejectRequest(s.db, bob.ID, alice.ID))

	team, err := s.teams.Team(s.db, bob.ID)
	s.Require().NoError(err)
	s.Empty(team)
	s.Equal(int64(0), s.count(&models.PendingInvite{}))
	s.Equal([]string{"Rejected request"}, s.notificationTexts(alice.ID))

	// rejecting again finds nothing to reject
	err = s.teams.RejectRequest(s.db, bob.ID, alice.ID)
	s.ErrorIs(err, ErrNoPendingInvite)
	s.ErrorIs(err, ErrNotFound)
}

func (s *ServiceSuite) TestTeamInviteErrors() {
	alice := s.signup("Alice", "alice@example.com")
	bob := s.signup("Bob", "bob@example.com")

	_, err := s.teams.InviteMember(s.db, alice.ID, "nobody@example.com")
	s.ErrorIs(err, ErrNotFound)

	_, err = s.teams.InviteMember(s.db, alice.ID, "alice@example.com")
	s.ErrorIs(err, ErrValidation)

	_, err = s.teams.InviteMember(s.db, alice.ID, "  ")
	s.ErrorIs(err, ErrValidation)

	err = s.teams.AcceptRequest(s.db, bob.ID, alice.ID)
	s.ErrorIs(err, ErrNoPendingInvite)

	err = s.teams.AcceptRequest(s.db, bob.ID, 9999)
	s.ErrorIs(err, ErrNotFound)

	s.Empty(s.notificationTexts(bob.ID))
	s.Equal(int64(0), s.count(&models.TeamMembership{}))
}

func (s *ServiceSuite) TestAcceptRequest_RollsBackWhenNotifyFails() {
	alice := s.signup("Alice", "alice@example.com")
	bob := s.signup("Bob", "bob@example.com")
	_, err := s.teams.InviteMember(s.db, alice.ID, "bob@example.com")
	s.Require().NoError(err)

	s.Require().NoError(s.db.Migrator().DropTable(&models.Notification{}))

	err = s.teams.AcceptRequest(s.db, bob.ID, alice.ID)
	s.Require().Error(err)
	s.Contains(err.Error(), "failed to create notification")

	s.Equal(int64(1), s.count(&models.PendingInvite{}), "invite must survive a failed accept")
	s.Equal(int64(0), s.count(&models.TeamMembership{}))
}
