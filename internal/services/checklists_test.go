package services

import (
	"taskboard/internal/models"
)

func (s *ServiceSuite) TestAddChecklist() {
	alice := s.signup("Alice", "alice@example.com")
	bob := s.signup("Bob", "bob@example.com")
	task := s.addTask(alice.ID, "Write docs")

	checklist, err := s.checklists.AddChecklist(s.db, alice.ID, task.ID, ChecklistInput{
		Description:  "Outline chapters",
		DueDate:      "Monday",
		AssignedToID: bob.ID,
	})
	s.Require().NoError(err)
	s.Equal(models.StatusInProgress, checklist.Status)
	s.Equal(bob.ID, checklist.AssignedTo.ID)
	s.Equal([]string{"Assigned you a checklist: Outline chapters"}, s.notificationTexts(bob.ID))

	_, err = s.checklists.AddChecklist(s.db, alice.ID, task.ID, ChecklistInput{Description: "x", AssignedToID: 9999})
	s.ErrorIs(err, ErrNotFound)
	_, err = s.checklists.AddChecklist(s.db, alice.ID, 9999, ChecklistInput{Description: "x", AssignedToID: bob.ID})
	s.ErrorIs(err, ErrNotFound)
	_, err = s.checklists.AddChecklist(s.db, alice.ID, task.ID, ChecklistInput{AssignedToID: bob.ID})
	s.ErrorIs(err, ErrValidation)
	_, err = s.checklists.AddChecklist(s.db, alice.ID, task.ID, ChecklistInput{Description: "Unassigned"})
	s.ErrorIs(err, ErrValidation)
	s.NotErrorIs(err, ErrNotFound)

	s.Equal(int64(1), s.count(&models.Checklist{}))
}

func (s *ServiceSuite) TestSaveEditedChecklist() {
	alice := s.signup("Alice", "alice@example.com")
	bob := s.signup("Bob", "bob@example.com")
	task := s.addTask(alice.ID, "Write docs")

	checklist, err := s.checklists.AddChecklist(s.db, alice.ID, task.ID, ChecklistInput{Description: "Outline", AssignedToID: bob.ID})
	s.Require().NoError(err)

	edited, err := s.checklists.SaveEditedChecklist(s.db, alice.ID, checklist.ID, ChecklistInput{
		Description:  "Outline v2",
		Status:       models.StatusCompleted,
		DueDate:      "Tuesday",
		AssignedToID: bob.ID,
	})
	s.Require().NoError(err)
	s.Equal("Outline v2", edited.Description)
	s.Len(s.notificationTexts(bob.ID), 1, "same assignee is not notified again")

	_, err = s.checklists.SaveEditedChecklist(s.db, bob.ID, checklist.ID, ChecklistInput{
		Description:  "Outline v3",
		Status:       models.StatusInProgress,
		AssignedToID: alice.ID,
	})
	s.Require().NoError(err)
	s.Equal([]string{"Assigned you a checklist: Outline v3"}, s.notificationTexts(alice.ID))

	var stored models.Checklist
	s.Require().NoError(s.db.First(&stored, checklist.ID).Error)
	s.Equal("Outline v3", stored.Description)
	s.Equal(models.StatusInProgress, stored.Status)
	s.Equal("", stored.DueDate)
	s.Equal(alice.ID, stored.AssignedToID)

	_, err = s.checklists.SaveEditedChecklist(s.db, alice.ID, checklist.ID, ChecklistInput{
		Description: "x", Status: "done", AssignedToID: bob.ID,
	})
	s.ErrorIs(err, ErrValidation)

	_, err = s.checklists.SaveEditedChecklist(s.db, alice.ID, checklist.ID, ChecklistInput{
		Description: "x", Status: models.StatusNew,
	})
	s.ErrorIs(err, ErrValidation)
	s.NotErrorIs(err, ErrNotFound)

	_, err = s.checklists.SaveEditedChecklist(s.db, alice.ID, 9999, ChecklistInput{
		Description: "x", Status: models.StatusNew, AssignedToID: bob.ID,
	})
	s.ErrorIs(err, ErrNotFound)
}

func (s *ServiceSuite) TestAddComment_NotifiesTaskAuthorOnce() {
	alice := s.signup("Alice", "alice@example.com")
	bob := s.signup("Bob", "bob@example.com")
	task := s.addTask(alice.ID, "Write docs")

	comment, err := s.comments.AddComment(s.db, bob.ID, task.ID, "Looks good")
	s.Require().NoError(err)
	s.Equal(task.ID, comment.TaskID)

	s.Equal([]string{"Added a new comment: Looks good on Write docs"}, s.notificationTexts(alice.ID))
	s.Empty(s.notificationTexts(bob.ID))

	_, err = s.comments.AddComment(s.db, bob.ID, 9999, "Hello")
	s.ErrorIs(err, ErrNotFound)
	_, err = s.comments.AddComment(s.db, bob.ID, task.ID, " ")
	s.ErrorIs(err, ErrValidation)
}

func (s *ServiceSuite) TestAddReply_NotifiesCommentAuthor() {
	alice := s.signup("Alice", "alice@example.com")
	bob := s.signup("Bob", "bob@example.com")
	task := s.addTask(alice.ID, "Write docs")
	comment, err := s.comments.AddComment(s.db, bob.ID, task.ID, "Looks good")
	s.Require().NoError(err)

	reply, err := s.comments.AddReply(s.db, alice.ID, comment.ID, "Thanks")
	s.Require().NoError(err)
	s.Equal(comment.ID, reply.CommentID)
	s.Equal([]string{"Replied Thanks to your comment"}, s.notificationTexts(bob.ID))

	_, err = s.comments.AddReply(s.db, alice.ID, 9999, "Thanks")
	s.ErrorIs(err, ErrNotFound)
}
