package services

import (
	"fmt"
	"strings"

	"github.com/overtq/blesk/internal/models"
)

// PhotoRef points at a blob already persisted in the media store.
type PhotoRef struct {
	FileID   string
	FilePath string
}

// Notification is an outbound delivery intent. The engine only produces
// intents; a Dispatcher owns the transport and its failures.
type Notification struct {
	UserID int64
	Text   string
	// PhotoIDs optionally attaches an album to the message.
	PhotoIDs []string
}

type TaskStore interface {
	Create(createdBy int64, photoID string, photoPath string, comment string, category string) (int, error)
	Find(taskID int) (models.Task, bool, error)
	List(status string, category string) ([]models.Task, error)
	CountOpen(category string) (int64, error)
	UpdateStatus(taskID int, status string, completedBy *int64, photoAfterID string, photoAfterPath string) error
	ResetToNew(taskID int) error
	UpdateComment(taskID int, comment string) error
	UpdateBeforePhoto(taskID int, photoID string, photoPath string) error
	Delete(taskID int) error
}

type PhotoStore interface {
	Add(taskID int, kind string, fileID string, filePath string) error
	ListByTask(taskID int) ([]models.TaskPhoto, error)
	ListByTaskAndKind(taskID int, kind string) ([]models.TaskPhoto, error)
	DeleteByTask(taskID int) error
	DeleteByTaskAndKind(taskID int, kind string) error
}

type UserStore interface {
	Role(userID int64) (string, error)
	Username(userID int64) (string, error)
	Touch(userID int64) error
	ListByCategory(category string) ([]models.User, error)
	ListExecutorIDs() ([]int64, error)
	ListManagerIDs() ([]int64, error)
}

// MediaStore is the slice of the blob store the engine needs: best-effort
// deletion during purges and reopens.
type MediaStore interface {
	Delete(fileID string) error
}

type Dispatcher interface {
	// Dispatch delivers each intent best-effort and reports how many
	// recipients were actually reached.
	Dispatch(notifications []Notification) int
}

// WorkflowService is the task lifecycle state machine. Every event
// validates the current status against the transition table before
// touching storage; illegal events fail with ErrInvalidTransition.
type WorkflowService struct {
	tasks      TaskStore
	photos     PhotoStore
	users      UserStore
	media      MediaStore
	dispatcher Dispatcher
}

func NewWorkflowService(tasks TaskStore, photos PhotoStore, users UserStore, media MediaStore, dispatcher Dispatcher) *WorkflowService {
	return &WorkflowService{
		tasks:      tasks,
		photos:     photos,
		users:      users,
		media:      media,
		dispatcher: dispatcher,
	}
}

// CreateTask files a new task with its before album and notifies the
// executors of the category.
func (service *WorkflowService) CreateTask(actor int64, category string, comment string, photos []PhotoRef) (int, error) {
	if err := service.requireManager(actor); err != nil {
		return 0, err
	}
	if !models.ValidCategory(category) {
		return 0, ErrUnknownCategory
	}
	if len(photos) == 0 {
		return 0, fmt.Errorf("%w: creation requires a before photo", ErrInvalidTransition)
	}

	primary := photos[0]
	taskID, err := service.tasks.Create(actor, primary.FileID, primary.FilePath, comment, category)
	if err != nil {
		return 0, fmt.Errorf("create task: %w", err)
	}
	for _, photo := range photos {
		if err := service.photos.Add(taskID, models.PhotoKindBefore, photo.FileID, photo.FilePath); err != nil {
			return 0, fmt.Errorf("attach before photo: %w", err)
		}
	}
	service.touch(actor)

	audience, err := service.categoryAudience(category)
	if err != nil {
		return taskID, err
	}
	text := fmt.Sprintf("New task #%d (%s): %s", taskID, category, comment)
	service.dispatcher.Dispatch(intentsFor(audience, text, photoIDs(photos)))
	return taskID, nil
}

// CompleteTask moves a task from new/redo to completed, recording the
// completion payload and the after album, and notifies all managers.
func (service *WorkflowService) CompleteTask(actor int64, taskID int, photos []PhotoRef) error {
	task, err := service.findTask(taskID)
	if err != nil {
		return err
	}
	if task.Status != models.StatusNew && task.Status != models.StatusRedo {
		return fmt.Errorf("%w: complete from %q", ErrInvalidTransition, task.Status)
	}
	if len(photos) == 0 {
		return fmt.Errorf("%w: completion requires an after photo", ErrInvalidTransition)
	}

	primary := photos[0]
	if err := service.tasks.UpdateStatus(taskID, models.StatusCompleted, &actor, primary.FileID, primary.FilePath); err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	for _, photo := range photos {
		if err := service.photos.Add(taskID, models.PhotoKindAfter, photo.FileID, photo.FilePath); err != nil {
			return fmt.Errorf("attach after photo: %w", err)
		}
	}
	service.touch(actor)

	managers, err := service.users.ListManagerIDs()
	if err != nil {
		return fmt.Errorf("list managers: %w", err)
	}
	who := service.displayName(actor)
	text := fmt.Sprintf("Task #%d (%s) completed by %s, awaiting review.", taskID, task.Category, who)
	service.dispatcher.Dispatch(intentsFor(managers, text, photoIDs(photos)))
	return nil
}

// Approve accepts a completed task. The task stays stored until a manager
// deletes it explicitly.
func (service *WorkflowService) Approve(actor int64, taskID int) error {
	if err := service.requireManager(actor); err != nil {
		return err
	}
	task, err := service.findTask(taskID)
	if err != nil {
		return err
	}
	if task.Status != models.StatusCompleted {
		return fmt.Errorf("%w: approve from %q", ErrInvalidTransition, task.Status)
	}

	if err := service.tasks.UpdateStatus(taskID, models.StatusApproved, nil, "", ""); err != nil {
		return fmt.Errorf("mark approved: %w", err)
	}
	service.touch(actor)

	if task.CompletedBy != nil {
		text := fmt.Sprintf("Task #%d approved. Thank you!", taskID)
		service.dispatcher.Dispatch([]Notification{{UserID: *task.CompletedBy, Text: text}})
	}
	return nil
}

// RequestRedo rejects a completed task. The manager's note is appended to
// the task comment so earlier instructions survive repeated redo rounds.
func (service *WorkflowService) RequestRedo(actor int64, taskID int, note string) error {
	if err := service.requireManager(actor); err != nil {
		return err
	}
	task, err := service.findTask(taskID)
	if err != nil {
		return err
	}
	if task.Status != models.StatusCompleted {
		return fmt.Errorf("%w: redo from %q", ErrInvalidTransition, task.Status)
	}

	who := service.displayName(actor)
	combined := fmt.Sprintf("%s\n\nRedo - %s: %s", task.Comment, who, note)
	if err := service.tasks.UpdateComment(taskID, combined); err != nil {
		return fmt.Errorf("append redo note: %w", err)
	}
	if err := service.tasks.UpdateStatus(taskID, models.StatusRedo, nil, "", ""); err != nil {
		return fmt.Errorf("mark redo: %w", err)
	}
	service.touch(actor)

	audience, err := service.categoryAudience(task.Category)
	if err != nil {
		return err
	}
	text := fmt.Sprintf("Task #%d needs rework. %s: %s", taskID, who, note)
	service.dispatcher.Dispatch(intentsFor(audience, text, nil))
	return nil
}

// EditComment replaces the task comment. Editing a completed or approved
// task reopens it: after photos are discarded and status returns to new.
func (service *WorkflowService) EditComment(actor int64, taskID int, comment string) error {
	if err := service.requireManager(actor); err != nil {
		return err
	}
	task, err := service.findTask(taskID)
	if err != nil {
		return err
	}

	if err := service.tasks.UpdateComment(taskID, comment); err != nil {
		return fmt.Errorf("update comment: %w", err)
	}
	service.touch(actor)
	return service.reopenIfFinished(actor, task, comment)
}

// EditBeforePhoto supersedes the before album with a single new photo.
// Like EditComment, it reopens a completed or approved task.
func (service *WorkflowService) EditBeforePhoto(actor int64, taskID int, photo PhotoRef) error {
	if err := service.requireManager(actor); err != nil {
		return err
	}
	task, err := service.findTask(taskID)
	if err != nil {
		return err
	}

	before, err := service.photos.ListByTaskAndKind(taskID, models.PhotoKindBefore)
	if err != nil {
		return fmt.Errorf("list before photos: %w", err)
	}
	for _, old := range before {
		service.deleteBlob(old.FileID)
	}
	service.deleteLegacyBlob(task.PhotoBeforeID, before)
	if err := service.photos.DeleteByTaskAndKind(taskID, models.PhotoKindBefore); err != nil {
		return fmt.Errorf("drop before photos: %w", err)
	}

	if err := service.tasks.UpdateBeforePhoto(taskID, photo.FileID, photo.FilePath); err != nil {
		return fmt.Errorf("update before photo: %w", err)
	}
	if err := service.photos.Add(taskID, models.PhotoKindBefore, photo.FileID, photo.FilePath); err != nil {
		return fmt.Errorf("attach before photo: %w", err)
	}
	service.touch(actor)
	return service.reopenIfFinished(actor, task, task.Comment)
}

// Delete purges the task: every recorded blob handle is deleted best
// effort, then attachments and the row are removed.
func (service *WorkflowService) Delete(actor int64, taskID int) error {
	if err := service.requireManager(actor); err != nil {
		return err
	}
	task, err := service.findTask(taskID)
	if err != nil {
		return err
	}

	photos, err := service.photos.ListByTask(taskID)
	if err != nil {
		return fmt.Errorf("list photos: %w", err)
	}
	for _, photo := range photos {
		service.deleteBlob(photo.FileID)
	}
	service.deleteLegacyBlob(task.PhotoBeforeID, photos)
	service.deleteLegacyBlob(task.PhotoAfterID, photos)

	if err := service.tasks.Delete(taskID); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	service.touch(actor)
	return nil
}

// Broadcast sends a manager's message to every executor and reports how
// many deliveries went through.
func (service *WorkflowService) Broadcast(actor int64, text string) (int, error) {
	if err := service.requireManager(actor); err != nil {
		return 0, err
	}
	executors, err := service.users.ListExecutorIDs()
	if err != nil {
		return 0, fmt.Errorf("list executors: %w", err)
	}
	service.touch(actor)

	message := fmt.Sprintf("Message from manager:\n\n%s", text)
	return service.dispatcher.Dispatch(intentsFor(executors, message, nil)), nil
}

// Task returns the task with its albums loaded.
func (service *WorkflowService) Task(taskID int) (models.Task, []models.TaskPhoto, error) {
	task, err := service.findTask(taskID)
	if err != nil {
		return models.Task{}, nil, err
	}
	photos, err := service.photos.ListByTask(taskID)
	if err != nil {
		return models.Task{}, nil, fmt.Errorf("list photos: %w", err)
	}
	return task, photos, nil
}

func (service *WorkflowService) ListTasks(status string, category string) ([]models.Task, error) {
	return service.tasks.List(status, category)
}

// OpenCounts reports how many open tasks each category currently holds.
func (service *WorkflowService) OpenCounts() (map[string]int64, error) {
	counts := make(map[string]int64, len(models.Categories()))
	for _, category := range models.Categories() {
		count, err := service.tasks.CountOpen(category)
		if err != nil {
			return nil, fmt.Errorf("count open tasks for %s: %w", category, err)
		}
		counts[category] = count
	}
	return counts, nil
}

func (service *WorkflowService) reopenIfFinished(actor int64, task models.Task, comment string) error {
	if task.Status != models.StatusCompleted && task.Status != models.StatusApproved {
		return nil
	}

	after, err := service.photos.ListByTaskAndKind(task.TaskID, models.PhotoKindAfter)
	if err != nil {
		return fmt.Errorf("list after photos: %w", err)
	}
	for _, photo := range after {
		service.deleteBlob(photo.FileID)
	}
	service.deleteLegacyBlob(task.PhotoAfterID, after)
	if err := service.photos.DeleteByTaskAndKind(task.TaskID, models.PhotoKindAfter); err != nil {
		return fmt.Errorf("drop after photos: %w", err)
	}
	if err := service.tasks.ResetToNew(task.TaskID); err != nil {
		return fmt.Errorf("reset task: %w", err)
	}

	audience, err := service.categoryAudience(task.Category)
	if err != nil {
		return err
	}
	who := service.displayName(actor)
	text := fmt.Sprintf("Task #%d was changed by %s and returned to work. Comment: %s", task.TaskID, who, comment)
	service.dispatcher.Dispatch(intentsFor(audience, text, nil))
	return nil
}

// categoryAudience resolves who gets notified about a task in the given
// category: its executors, or every executor for the catch-all.
func (service *WorkflowService) categoryAudience(category string) ([]int64, error) {
	if category == models.CategoryOther {
		ids, err := service.users.ListExecutorIDs()
		if err != nil {
			return nil, fmt.Errorf("list executors: %w", err)
		}
		return ids, nil
	}

	users, err := service.users.ListByCategory(category)
	if err != nil {
		return nil, fmt.Errorf("list category executors: %w", err)
	}
	ids := make([]int64, 0, len(users))
	for _, user := range users {
		if user.Role == models.RoleExecutor {
			ids = append(ids, user.UserID)
		}
	}
	return ids, nil
}

func (service *WorkflowService) findTask(taskID int) (models.Task, error) {
	task, found, err := service.tasks.Find(taskID)
	if err != nil {
		return models.Task{}, fmt.Errorf("load task: %w", err)
	}
	if !found {
		return models.Task{}, fmt.Errorf("%w: #%d", ErrTaskNotFound, taskID)
	}
	return task, nil
}

func (service *WorkflowService) requireManager(actor int64) error {
	role, err := service.users.Role(actor)
	if err != nil {
		return fmt.Errorf("load role: %w", err)
	}
	if role != models.RoleManager {
		return ErrAccessDenied
	}
	return nil
}

func (service *WorkflowService) displayName(userID int64) string {
	username, err := service.users.Username(userID)
	if err != nil || username == "" {
		return fmt.Sprintf("ID %d", userID)
	}
	return "@" + username
}

func (service *WorkflowService) touch(userID int64) {
	// Activity bookkeeping is advisory, never part of the transition.
	_ = service.users.Touch(userID)
}

// deleteBlob removes a stored blob. A missing handle is a no-op and a
// failed delete never blocks the transition; the row is authoritative.
func (service *WorkflowService) deleteBlob(fileID string) {
	if fileID == "" {
		return
	}
	if err := service.media.Delete(fileID); err != nil {
		logMediaDeleteFailure(fileID, err)
	}
}

// deleteLegacyBlob purges a legacy single-photo column handle unless the
// album rows already covered it.
func (service *WorkflowService) deleteLegacyBlob(fileID string, covered []models.TaskPhoto) {
	if fileID == "" {
		return
	}
	for _, photo := range covered {
		if photo.FileID == fileID {
			return
		}
	}
	service.deleteBlob(fileID)
}

func intentsFor(audience []int64, text string, photoIDs []string) []Notification {
	notifications := make([]Notification, 0, len(audience))
	for _, userID := range audience {
		notifications = append(notifications, Notification{
			UserID:   userID,
			Text:     text,
			PhotoIDs: photoIDs,
		})
	}
	return notifications
}

func photoIDs(photos []PhotoRef) []string {
	if len(photos) == 0 {
		return nil
	}
	ids := make([]string, 0, len(photos))
	for _, photo := range photos {
		if strings.TrimSpace(photo.FileID) != "" {
			ids = append(ids, photo.FileID)
		}
	}
	return ids
}
