package services

import (
	"errors"
	"sync"

	"taskboard/internal/models"
)

func (s *ServiceSuite) addTask(authorID uint, description string) *models.Task {
	task, err := s.tasks.AddTask(s.db, authorID, TaskInput{Description: description, Type: "feature", DueDate: "Friday"})
	s.Require().NoError(err)
	return task
}

func (s *ServiceSuite) TestAddTask_AssignsAuthor() {
	alice := s.signup("Alice", "alice@example.com")

	task := s.addTask(alice.ID, "Write docs")
	s.Equal(models.StatusNew, task.Status)

	got, err := s.tasks.GetTaskByID(s.db, task.ID)
	s.Require().NoError(err)
	s.True(got.IsAssigned(alice.ID))
	s.Equal("feature", got.Type)
	s.Equal("Friday", got.DueDate)

	_, err = s.tasks.AddTask(s.db, alice.ID, TaskInput{Description: "   "})
	s.ErrorIs(err, ErrValidation)
}

func (s *ServiceSuite) TestChangeStatus_Transitions() {
	alice := s.signup("Alice", "alice@example.com")
	task := s.addTask(alice.ID, "Write docs")

	_, err := s.tasks.ChangeStatus(s.db, task.ID, models.ActionReopen)
	s.ErrorIs(err, ErrInvalidStateTransition)

	steps := []struct {
		action models.TaskAction
		status string
	}{
		{models.ActionMoveToInProgress, models.StatusInProgress},
		{models.ActionMoveToCompleted, models.StatusCompleted},
		{models.ActionReopen, models.StatusInProgress},
	}
	for _, step := range steps {
		updated, err := s.tasks.ChangeStatus(s.db, task.ID, step.action)
		s.Require().NoError(err, step.action)
		s.Equal(step.status, updated.Status)

		stored, err := s.tasks.GetTaskByID(s.db, task.ID)
		s.Require().NoError(err)
		s.Equal(step.status, stored.Status)
	}

	_, err = s.tasks.ChangeStatus(s.db, task.ID, models.ActionMoveToInProgress)
	s.ErrorIs(err, ErrInvalidStateTransition)

	_, err = s.tasks.ChangeStatus(s.db, 9999, models.ActionMoveToCompleted)
	s.ErrorIs(err, ErrNotFound)
}

func (s *ServiceSuite) TestAddUserToTask() {
	alice := s.signup("Alice", "alice@example.com")
	bob := s.signup("Bob", "bob@example.com")
	task := s.addTask(alice.ID, "Write docs")

	s.Require().NoError(s.tasks.AddUserToTask(s.db, alice.ID, task.ID, bob.ID))
	s.Require().NoError(s.tasks.AddUserToTask(s.db, alice.ID, task.ID, bob.ID))

	var rows int64
	s.Require().NoError(s.db.Model(&models.TaskAssignment{}).
		Where("task_id = ? AND user_id = ?", task.ID, bob.ID).Count(&rows).Error)
	s.Equal(int64(1), rows)

	texts := s.notificationTexts(bob.ID)
	s.Require().NotEmpty(texts)
	s.Equal("Added You to a task: Write docs", texts[0])

	s.ErrorIs(s.tasks.AddUserToTask(s.db, alice.ID, task.ID, 9999), ErrNotFound)
	s.ErrorIs(s.tasks.AddUserToTask(s.db, alice.ID, 9999, bob.ID), ErrNotFound)
}

func (s *ServiceSuite) TestDeleteUserFromTask() {
	alice := s.signup("Alice", "alice@example.com")
	bob := s.signup("Bob", "bob@example.com")
	task := s.addTask(alice.ID, "Write docs")

	s.ErrorIs(s.tasks.DeleteUserFromTask(s.db, alice.ID, task.ID, bob.ID), ErrNotFound)
	s.Empty(s.notificationTexts(bob.ID))

	s.Require().NoError(s.tasks.AddUserToTask(s.db, alice.ID, task.ID, bob.ID))
	s.Require().NoError(s.tasks.DeleteUserFromTask(s.db, alice.ID, task.ID, bob.ID))

	got, err := s.tasks.GetTaskByID(s.db, task.ID)
	s.Require().NoError(err)
	s.False(got.IsAssigned(bob.ID))
	s.True(got.IsAssigned(alice.ID))
	s.Equal("Removed you from a task: Write docs", s.notificationTexts(bob.ID)[0])
}

func (s *ServiceSuite) TestDeleteTask_Cascades() {
	alice := s.signup("Alice", "alice@example.com")
	bob := s.signup("Bob", "bob@example.com")
	task := s.addTask(alice.ID, "Write docs")
	keep := s.addTask(alice.ID, "Keep me")

	_, err := s.checklists.AddChecklist(s.db, alice.ID, task.ID, ChecklistInput{Description: "Outline", AssignedToID: bob.ID})
	s.Require().NoError(err)
	comment, err := s.comments.AddComment(s.db, bob.ID, task.ID, "Looks good")
	s.Require().NoError(err)
	_, err = s.comments.AddReply(s.db, alice.ID, comment.ID, "Thanks")
	s.Require().NoError(err)
	keptComment, err := s.comments.AddComment(s.db, bob.ID, keep.ID, "Still here")
	s.Require().NoError(err)
	_, err = s.comments.AddReply(s.db, alice.ID, keptComment.ID, "Indeed")
	s.Require().NoError(err)
	notificationsBefore := s.count(&models.Notification{})

	s.Require().NoError(s.tasks.DeleteTask(s.db, task.ID))

	_, err = s.tasks.GetTaskByID(s.db, task.ID)
	s.ErrorIs(err, ErrNotFound)
	s.Equal(int64(0), s.count(&models.Checklist{}))
	s.Equal(int64(1), s.count(&models.Comment{}))
	s.Equal(int64(1), s.count(&models.Reply{}))
	s.Equal(int64(1), s.count(&models.TaskAssignment{}))
	s.Equal(notificationsBefore, s.count(&models.Notification{}))

	s.ErrorIs(s.tasks.DeleteTask(s.db, task.ID), ErrNotFound)
}

func (s *ServiceSuite) TestChangeStatus_ConcurrentMovesOneWins() {
	alice := s.signup("Alice", "alice@example.com")
	task := s.addTask(alice.ID, "Race")

	const movers = 2
	errs := make(chan error, movers)
	var start sync.WaitGroup
	start.Add(1)
	for i := 0; i < movers; i++ {
		go func() {
			start.Wait()
			_, err := s.tasks.ChangeStatus(s.db, task.ID, models.ActionMoveToInProgress)
			errs <- err
		}()
	}
	start.Done()

	var succeeded, rejected int
	for i := 0; i < movers; i++ {
		err := <-errs
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrInvalidStateTransition):
			rejected++
		default:
			s.Failf("unexpected error", "%v", err)
		}
	}
	s.Equal(1, succeeded)
	s.Equal(1, rejected)

	stored, err := s.tasks.GetTaskByID(s.db, task.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusInProgress, stored.Status)
}
