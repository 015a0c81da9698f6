package services

import (
	"errors"
	"sync/atomic"
	"time"

	"taskboard/internal/cache"
	"taskboard/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const boardTasksKey = "board:tasks"

// boardCache holds the shared task list the board renders. Any write that
// changes what a task shows drops it. generation is bumped on every
// invalidation so a list read before a write is never stored after it.
type boardCache struct {
	cache      cache.Cache
	ttl        time.Duration
	logger     *zap.Logger
	generation atomic.Uint64
}

func (b *boardCache) invalidate(db *gorm.DB) {
	b.generation.Add(1)
	b.drop(db)
}

func (b *boardCache) drop(db *gorm.DB) {
	if err := b.cache.Delete(dbContext(db), boardTasksKey); err != nil && !errors.Is(err, cache.ErrCacheDown) {
		b.logger.Warn("failed to invalidate board cache", zap.Error(err))
	}
}

// store caches tasks unless an invalidation happened since gen was taken.
// An invalidation racing the Set is caught by the second check.
func (b *boardCache) store(db *gorm.DB, gen uint64, tasks []models.Task) {
	if b.generation.Load() != gen {
		return
	}
	if err := b.cache.Set(dbContext(db), boardTasksKey, tasks, b.ttl); err != nil && !errors.Is(err, cache.ErrCacheDown) {
		b.logger.Warn("board cache write failed", zap.Error(err))
	}
	if b.generation.Load() != gen {
		b.drop(db)
	}
}

// CachedTaskService caches ListTasks and invalidates it on every task write.
type CachedTaskService struct {
	taskService TaskService
	board       *boardCache
}

// NewCachedServices wraps the services whose writes change the board so they
// share one cache entry.
func NewCachedServices(tasks TaskService, checklists ChecklistService, comments CommentService,
	cacheInstance cache.Cache, ttl time.Duration, logger *zap.Logger) (*CachedTaskService, *CachedChecklistService, *CachedCommentService) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	board := &boardCache{cache: cacheInstance, ttl: ttl, logger: logger}
	return &CachedTaskService{taskService: tasks, board: board},
		&CachedChecklistService{checklistService: checklists, board: board},
		&CachedCommentService{commentService: comments, board: board}
}

func (s *CachedTaskService) ListTasks(db *gorm.DB) ([]models.Task, error) {
	ctx := dbContext(db)

	var cachedTasks []models.Task
	err := s.board.cache.Get(ctx, boardTasksKey, &cachedTasks)
	if err == nil {
		return cachedTasks, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) && !errors.Is(err, cache.ErrCacheDown) {
		s.board.logger.Warn("board cache read failed", zap.Error(err))
	}

	gen := s.board.generation.Load()
	tasks, err := s.taskService.ListTasks(db)
	if err != nil {
		return nil, err
	}

	s.board.store(db, gen, tasks)
	return tasks, nil
}

func (s *CachedTaskService) GetTaskByID(db *gorm.DB, id uint) (*models.Task, error) {
	return s.taskService.GetTaskByID(db, id)
}

func (s *CachedTaskService) AddTask(db *gorm.DB, authorID uint, input TaskInput) (*models.Task, error) {
	task, err := s.taskService.AddTask(db, authorID, input)
	if err == nil {
		s.board.invalidate(db)
	}
	return task, err
}

func (s *CachedTaskService) ChangeStatus(db *gorm.DB, id uint, action models.TaskAction) (*models.Task, error) {
	task, err := s.taskService.ChangeStatus(db, id, action)
	if err == nil {
		s.board.invalidate(db)
	}
	return task, err
}

func (s *CachedTaskService) AddUserToTask(db *gorm.DB, actorID, taskID, userID uint) error {
	err := s.taskService.AddUserToTask(db, actorID, taskID, userID)
	if err == nil {
		s.board.invalidate(db)
	}
	return err
}

func (s *CachedTaskService) DeleteUserFromTask(db *gorm.DB, actorID, taskID, userID uint) error {
	err := s.taskService.DeleteUserFromTask(db, actorID, taskID, userID)
	if err == nil {
		s.board.invalidate(db)
	}
	return err
}

func (s *CachedTaskService) DeleteTask(db *gorm.DB, id uint) error {
	err := s.taskService.DeleteTask(db, id)
	if err == nil {
		s.board.invalidate(db)
	}
	return err
}

func (s *CachedTaskService) GetCacheStats() map[string]interface{} {
	return s.board.cache.Stats()
}

type CachedChecklistService struct {
	checklistService ChecklistService
	board            *boardCache
}

func (s *CachedChecklistService) AddChecklist(db *gorm.DB, authorID, taskID uint, input ChecklistInput) (*models.Checklist, error) {
	checklist, err := s.checklistService.AddChecklist(db, authorID, taskID, input)
	if err == nil {
		s.board.invalidate(db)
	}
	return checklist, err
}

func (s *CachedChecklistService) SaveEditedChecklist(db *gorm.DB, actorID, checklistID uint, input ChecklistInput) (*models.Checklist, error) {
	checklist, err := s.checklistService.SaveEditedChecklist(db, actorID, checklistID, input)
	if err == nil {
		s.board.invalidate(db)
	}
	return checklist, err
}

type CachedCommentService struct {
	commentService CommentService
	board          *boardCache
}

func (s *CachedCommentService) AddComment(db *gorm.DB, authorID, taskID uint, text string) (*models.Comment, error) {
	comment, err := s.commentService.AddComment(db, authorID, taskID, text)
	if err == nil {
		s.board.invalidate(db)
	}
	return comment, err
}

func (s *CachedCommentService) AddReply(db *gorm.DB, authorID, commentID uint, text string) (*models.Reply, error) {
	reply, err := s.commentService.AddReply(db, authorID, commentID, text)
	if err == nil {
		s.board.invalidate(db)
	}
	return reply, err
}
