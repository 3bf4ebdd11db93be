package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/overtq/blesk/internal/models"
)

type memTaskStore struct {
	tasks map[int]models.Task
}

func newMemTaskStore() *memTaskStore {
	return &memTaskStore{tasks: make(map[int]models.Task)}
}

func (store *memTaskStore) Create(createdBy int64, photoID string, photoPath string, comment string, category string) (int, error) {
	taskID := 1
	for {
		if _, used := store.tasks[taskID]; !used {
			break
		}
		taskID++
	}
	store.tasks[taskID] = models.Task{
		TaskID:          taskID,
		CreatedBy:       createdBy,
		PhotoBeforeID:   photoID,
		PhotoBeforePath: photoPath,
		Comment:         comment,
		Status:          models.StatusNew,
		Category:        category,
		CreatedAt:       time.Now(),
	}
	return taskID, nil
}

func (store *memTaskStore) Find(taskID int) (models.Task, bool, error) {
	task, found := store.tasks[taskID]
	return task, found, nil
}

func (store *memTaskStore) List(status string, category string) ([]models.Task, error) {
	ids := make([]int, 0, len(store.tasks))
	for id := range store.tasks {
		ids = append(ids, id)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ids)))

	tasks := make([]models.Task, 0, len(ids))
	for _, id := range ids {
		task := store.tasks[id]
		if status != "" && task.Status != status {
			continue
		}
		if category != "" && task.Category != category {
			continue
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func (store *memTaskStore) CountOpen(category string) (int64, error) {
	var count int64
	for _, task := range store.tasks {
		if task.Category == category && task.Open() {
			count++
		}
	}
	return count, nil
}

func (store *memTaskStore) UpdateStatus(taskID int, status string, completedBy *int64, photoAfterID string, photoAfterPath string) error {
	task, found := store.tasks[taskID]
	if !found {
		return fmt.Errorf("no task %d", taskID)
	}
	task.Status = status
	if status == models.StatusCompleted {
		now := time.Now()
		task.CompletedBy = completedBy
		task.PhotoAfterID = photoAfterID
		task.PhotoAfterPath = photoAfterPath
		task.CompletedAt = &now
	}
	store.tasks[taskID] = task
	return nil
}

func (store *memTaskStore) ResetToNew(taskID int) error {
	task, found := store.tasks[taskID]
	if !found {
		return fmt.Errorf("no task %d", taskID)
	}
	task.Status = models.StatusNew
	task.CompletedBy = nil
	task.PhotoAfterID = ""
	task.PhotoAfterPath = ""
	task.CompletedAt = nil
	store.tasks[taskID] = task
	return nil
}

func (store *memTaskStore) UpdateComment(taskID int, comment string) error {
	task, found := store.tasks[taskID]
	if !found {
		return fmt.Errorf("no task %d", taskID)
	}
	task.Comment = comment
	store.tasks[taskID] = task
	return nil
}

func (store *memTaskStore) UpdateBeforePhoto(taskID int, photoID string, photoPath string) error {
	task, found := store.tasks[taskID]
	if !found {
		return fmt.Errorf("no task %d", taskID)
	}
	task.PhotoBeforeID = photoID
	task.PhotoBeforePath = photoPath
	store.tasks[taskID] = task
	return nil
}

func (store *memTaskStore) Delete(taskID int) error {
	delete(store.tasks, taskID)
	return nil
}

type memPhotoStore struct {
	photos []models.TaskPhoto
	nextID uint
}

func (store *memPhotoStore) Add(taskID int, kind string, fileID string, filePath string) error {
	store.nextID++
	store.photos = append(store.photos, models.TaskPhoto{
		ID:       store.nextID,
		TaskID:   taskID,
		Kind:     kind,
		FileID:   fileID,
		FilePath: filePath,
	})
	return nil
}

func (store *memPhotoStore) ListByTask(taskID int) ([]models.TaskPhoto, error) {
	matched := make([]models.TaskPhoto, 0)
	for _, photo := range store.photos {
		if photo.TaskID == taskID {
			matched = append(matched, photo)
		}
	}
	return matched, nil
}

func (store *memPhotoStore) ListByTaskAndKind(taskID int, kind string) ([]models.TaskPhoto, error) {
	matched := make([]models.TaskPhoto, 0)
	for _, photo := range store.photos {
		if photo.TaskID == taskID && photo.Kind == kind {
			matched = append(matched, photo)
		}
	}
	return matched, nil
}

func (store *memPhotoStore) DeleteByTask(taskID int) error {
	kept := store.photos[:0]
	for _, photo := range store.photos {
		if photo.TaskID != taskID {
			kept = append(kept, photo)
		}
	}
	store.photos = kept
	return nil
}

func (store *memPhotoStore) DeleteByTaskAndKind(taskID int, kind string) error {
	kept := store.photos[:0]
	for _, photo := range store.photos {
		if photo.TaskID != taskID || photo.Kind != kind {
			kept = append(kept, photo)
		}
	}
	store.photos = kept
	return nil
}

type memUserStore struct {
	users map[int64]models.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[int64]models.User)}
}

func (store *memUserStore) add(userID int64, username string, role string, category string) {
	user := models.User{UserID: userID, Username: username, Role: role}
	if category != "" {
		user.Category = &category
	}
	store.users[userID] = user
}

func (store *memUserStore) Role(userID int64) (string, error) {
	user, found := store.users[userID]
	if !found {
		return models.RoleExecutor, nil
	}
	return user.Role, nil
}

func (store *memUserStore) Username(userID int64) (string, error) {
	return store.users[userID].Username, nil
}

func (store *memUserStore) Touch(int64) error {
	return nil
}

func (store *memUserStore) ListByCategory(category string) ([]models.User, error) {
	matched := make([]models.User, 0)
	for _, user := range store.users {
		if user.Category != nil && *user.Category == category {
			matched = append(matched, user)
		}
	}
	return matched, nil
}

func (store *memUserStore) ListExecutorIDs() ([]int64, error) {
	return store.listIDs(models.RoleExecutor), nil
}

func (store *memUserStore) ListManagerIDs() ([]int64, error) {
	return store.listIDs(models.RoleManager), nil
}

func (store *memUserStore) listIDs(role string) []int64 {
	ids := make([]int64, 0)
	for _, user := range store.users {
		if user.Role == role {
			ids = append(ids, user.UserID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

type recordingMedia struct {
	deleted []string
	failAll bool
}

func (media *recordingMedia) Delete(fileID string) error {
	media.deleted = append(media.deleted, fileID)
	if media.failAll {
		return errors.New("blob store unavailable")
	}
	return nil
}

type recordingDispatcher struct {
	batches [][]Notification
}

func (dispatcher *recordingDispatcher) Dispatch(notifications []Notification) int {
	dispatcher.batches = append(dispatcher.batches, notifications)
	return len(notifications)
}

func (dispatcher *recordingDispatcher) recipients() []int64 {
	ids := make([]int64, 0)
	for _, batch := range dispatcher.batches {
		for _, notification := range batch {
			ids = append(ids, notification.UserID)
		}
	}
	return ids
}

type workflowFixture struct {
	tasks      *memTaskStore
	photos     *memPhotoStore
	users      *memUserStore
	media      *recordingMedia
	dispatcher *recordingDispatcher
	service    *WorkflowService
}

func newWorkflowFixture() *workflowFixture {
	fixture := &workflowFixture{
		tasks:      newMemTaskStore(),
		photos:     &memPhotoStore{},
		users:      newMemUserStore(),
		media:      &recordingMedia{},
		dispatcher: &recordingDispatcher{},
	}
	fixture.service = NewWorkflowService(fixture.tasks, fixture.photos, fixture.users, fixture.media, fixture.dispatcher)
	return fixture
}

const (
	managerID  = int64(100)
	hallExecID = int64(1)
	strExecID  = int64(2)
)

func seedUsers(fixture *workflowFixture) {
	fixture.users.add(managerID, "boss", models.RoleManager, "")
	fixture.users.add(hallExecID, "hall_exec", models.RoleExecutor, models.CategoryHall)
	fixture.users.add(strExecID, "street_exec", models.RoleExecutor, models.CategoryStreet)
}

func containsID(ids []int64, wanted int64) bool {
	for _, id := range ids {
		if id == wanted {
			return true
		}
	}
	return false
}

func TestCreateTaskNotifiesOnlyCategoryExecutors(t *testing.T) {
	fixture := newWorkflowFixture()
	seedUsers(fixture)

	taskID, err := fixture.service.CreateTask(managerID, models.CategoryStreet, "sweep the entrance", []PhotoRef{{FileID: "p1", FilePath: "photos/p1.jpg"}})
	if err != nil {
		t.Fatalf("CreateTask() unexpected error: %v", err)
	}
	if taskID != 1 {
		t.Fatalf("CreateTask() id = %d, want 1", taskID)
	}

	recipients := fixture.dispatcher.recipients()
	if !containsID(recipients, strExecID) {
		t.Fatalf("street executor missing from audience %v", recipients)
	}
	if containsID(recipients, hallExecID) {
		t.Fatalf("hall executor must not be notified about a street task, got %v", recipients)
	}
	if containsID(recipients, managerID) {
		t.Fatalf("manager must not be in the executor audience, got %v", recipients)
	}
}

func TestCreateTaskOtherCategoryReachesEveryExecutor(t *testing.T) {
	fixture := newWorkflowFixture()
	seedUsers(fixture)

	if _, err := fixture.service.CreateTask(managerID, models.CategoryOther, "misc", []PhotoRef{{FileID: "b0"}}); err != nil {
		t.Fatalf("CreateTask() unexpected error: %v", err)
	}

	recipients := fixture.dispatcher.recipients()
	if !containsID(recipients, hallExecID) || !containsID(recipients, strExecID) {
		t.Fatalf("catch-all category must reach all executors, got %v", recipients)
	}
}

func TestCreateTaskRequiresManagerRole(t *testing.T) {
	fixture := newWorkflowFixture()
	seedUsers(fixture)

	_, err := fixture.service.CreateTask(hallExecID, models.CategoryHall, "nope", nil)
	if !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
}

func TestCreateTaskRequiresBeforePhoto(t *testing.T) {
	fixture := newWorkflowFixture()
	seedUsers(fixture)

	_, err := fixture.service.CreateTask(managerID, models.CategoryHall, "no photo at all", nil)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("creation without a before photo must fail, got %v", err)
	}
	if len(fixture.tasks.tasks) != 0 {
		t.Fatalf("no task row may be written, got %d", len(fixture.tasks.tasks))
	}
}

func TestCreateTaskRejectsUnknownCategory(t *testing.T) {
	fixture := newWorkflowFixture()
	seedUsers(fixture)

	_, err := fixture.service.CreateTask(managerID, "garage", "nope", nil)
	if !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
}

func TestCompleteTaskRecordsPayloadAndNotifiesManagers(t *testing.T) {
	fixture := newWorkflowFixture()
	seedUsers(fixture)

	taskID, _ := fixture.service.CreateTask(managerID, models.CategoryHall, "wipe tables", []PhotoRef{{FileID: "before1"}})
	fixture.dispatcher.batches = nil

	err := fixture.service.CompleteTask(hallExecID, taskID, []PhotoRef{{FileID: "after1"}, {FileID: "after2"}})
	if err != nil {
		t.Fatalf("CompleteTask() unexpected error: %v", err)
	}

	task := fixture.tasks.tasks[taskID]
	if task.Status != models.StatusCompleted {
		t.Fatalf("status = %q, want completed", task.Status)
	}
	if task.CompletedBy == nil || *task.CompletedBy != hallExecID {
		t.Fatalf("completed_by = %v, want %d", task.CompletedBy, hallExecID)
	}
	if task.CompletedAt == nil {
		t.Fatal("completed_at must be set")
	}

	after, _ := fixture.photos.ListByTaskAndKind(taskID, models.PhotoKindAfter)
	if len(after) != 2 {
		t.Fatalf("after album has %d photos, want 2", len(after))
	}

	recipients := fixture.dispatcher.recipients()
	if !containsID(recipients, managerID) {
		t.Fatalf("managers must be notified about completion, got %v", recipients)
	}
}

func TestCompleteTaskLegalFromRedoOnly(t *testing.T) {
	fixture := newWorkflowFixture()
	seedUsers(fixture)

	taskID, _ := fixture.service.CreateTask(managerID, models.CategoryHall, "wipe tables", []PhotoRef{{FileID: "b0"}})
	if err := fixture.service.CompleteTask(hallExecID, taskID, []PhotoRef{{FileID: "a1"}}); err != nil {
		t.Fatalf("first completion failed: %v", err)
	}

	err := fixture.service.CompleteTask(hallExecID, taskID, []PhotoRef{{FileID: "a2"}})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("completing a completed task must fail, got %v", err)
	}

	if err := fixture.service.RequestRedo(managerID, taskID, "smudges left"); err != nil {
		t.Fatalf("RequestRedo() unexpected error: %v", err)
	}
	if err := fixture.service.CompleteTask(hallExecID, taskID, []PhotoRef{{FileID: "a3"}}); err != nil {
		t.Fatalf("completion after redo must be legal, got %v", err)
	}
}

func TestCompleteTaskRequiresAfterPhoto(t *testing.T) {
	fixture := newWorkflowFixture()
	seedUsers(fixture)

	taskID, _ := fixture.service.CreateTask(managerID, models.CategoryHall, "wipe tables", []PhotoRef{{FileID: "b0"}})
	err := fixture.service.CompleteTask(hallExecID, taskID, nil)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestApproveRejectedUnlessCompleted(t *testing.T) {
	fixture := newWorkflowFixture()
	seedUsers(fixture)

	taskID, _ := fixture.service.CreateTask(managerID, models.CategoryHall, "wipe tables", []PhotoRef{{FileID: "b0"}})
	err := fixture.service.Approve(managerID, taskID)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("approving a new task must fail, got %v", err)
	}
}

func TestApproveNotifiesCompletingExecutor(t *testing.T) {
	fixture := newWorkflowFixture()
	seedUsers(fixture)

	taskID, _ := fixture.service.CreateTask(managerID, models.CategoryHall, "wipe tables", []PhotoRef{{FileID: "b0"}})
	if err := fixture.service.CompleteTask(hallExecID, taskID, []PhotoRef{{FileID: "a1"}}); err != nil {
		t.Fatalf("CompleteTask() unexpected error: %v", err)
	}
	fixture.dispatcher.batches = nil

	if err := fixture.service.Approve(managerID, taskID); err != nil {
		t.Fatalf("Approve() unexpected error: %v", err)
	}
	if fixture.tasks.tasks[taskID].Status != models.StatusApproved {
		t.Fatalf("status = %q, want approved", fixture.tasks.tasks[taskID].Status)
	}
	if !containsID(fixture.dispatcher.recipients(), hallExecID) {
		t.Fatalf("completing executor must hear about approval, got %v", fixture.dispatcher.recipients())
	}
}

func TestRedoAppendsNoteAndKeepsHistory(t *testing.T) {
	fixture := newWorkflowFixture()
	seedUsers(fixture)

	taskID, _ := fixture.service.CreateTask(managerID, models.CategoryHall, "Clean window", []PhotoRef{{FileID: "b0"}})
	if err := fixture.service.CompleteTask(hallExecID, taskID, []PhotoRef{{FileID: "a1"}}); err != nil {
		t.Fatalf("CompleteTask() unexpected error: %v", err)
	}

	if err := fixture.service.RequestRedo(managerID, taskID, "missed corner"); err != nil {
		t.Fatalf("RequestRedo() unexpected error: %v", err)
	}

	comment := fixture.tasks.tasks[taskID].Comment
	if !strings.HasPrefix(comment, "Clean window") {
		t.Fatalf("original instruction lost: %q", comment)
	}
	if !strings.HasSuffix(comment, "missed corner") {
		t.Fatalf("redo note must be appended as a suffix: %q", comment)
	}
	if fixture.tasks.tasks[taskID].Status != models.StatusRedo {
		t.Fatalf("status = %q, want redo", fixture.tasks.tasks[taskID].Status)
	}
}

func TestRedoFromNewFails(t *testing.T) {
	fixture := newWorkflowFixture()
	seedUsers(fixture)

	taskID, _ := fixture.service.CreateTask(managerID, models.CategoryHall, "wipe tables", []PhotoRef{{FileID: "b0"}})
	err := fixture.service.RequestRedo(managerID, taskID, "nope")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("redo is only reachable from completed, got %v", err)
	}
}

func TestEditCommentReopensApprovedTaskAndPurgesAfterPhotos(t *testing.T) {
	fixture := newWorkflowFixture()
	seedUsers(fixture)

	taskID, _ := fixture.service.CreateTask(managerID, models.CategoryHall, "wipe tables", []PhotoRef{{FileID: "b0"}})
	if err := fixture.service.CompleteTask(hallExecID, taskID, []PhotoRef{{FileID: "p1"}, {FileID: "p2"}}); err != nil {
		t.Fatalf("CompleteTask() unexpected error: %v", err)
	}
	if err := fixture.service.Approve(managerID, taskID); err != nil {
		t.Fatalf("Approve() unexpected error: %v", err)
	}

	if err := fixture.service.EditComment(managerID, taskID, "also the chairs"); err != nil {
		t.Fatalf("EditComment() unexpected error: %v", err)
	}

	task := fixture.tasks.tasks[taskID]
	if task.Status != models.StatusNew {
		t.Fatalf("status = %q, want new after edit", task.Status)
	}
	if task.CompletedBy != nil || task.CompletedAt != nil {
		t.Fatal("completion fields must be cleared on reopen")
	}

	after, _ := fixture.photos.ListByTaskAndKind(taskID, models.PhotoKindAfter)
	if len(after) != 0 {
		t.Fatalf("after album must be discarded, %d rows remain", len(after))
	}
	if !containsString(fixture.media.deleted, "p1") || !containsString(fixture.media.deleted, "p2") {
		t.Fatalf("after blobs must be deleted, got %v", fixture.media.deleted)
	}
}

func TestEditCommentOnNewTaskDoesNotTouchMedia(t *testing.T) {
	fixture := newWorkflowFixture()
	seedUsers(fixture)

	taskID, _ := fixture.service.CreateTask(managerID, models.CategoryHall, "wipe tables", []PhotoRef{{FileID: "b1"}})
	if err := fixture.service.EditComment(managerID, taskID, "tables and chairs"); err != nil {
		t.Fatalf("EditComment() unexpected error: %v", err)
	}

	if len(fixture.media.deleted) != 0 {
		t.Fatalf("editing a new task must not delete blobs, got %v", fixture.media.deleted)
	}
	if fixture.tasks.tasks[taskID].Status != models.StatusNew {
		t.Fatalf("status changed unexpectedly to %q", fixture.tasks.tasks[taskID].Status)
	}
}

func TestEditBeforePhotoSupersedesBeforeAlbum(t *testing.T) {
	fixture := newWorkflowFixture()
	seedUsers(fixture)

	taskID, _ := fixture.service.CreateTask(managerID, models.CategoryHall, "wipe tables", []PhotoRef{{FileID: "old1"}, {FileID: "old2"}})
	if err := fixture.service.EditBeforePhoto(managerID, taskID, PhotoRef{FileID: "fresh"}); err != nil {
		t.Fatalf("EditBeforePhoto() unexpected error: %v", err)
	}

	before, _ := fixture.photos.ListByTaskAndKind(taskID, models.PhotoKindBefore)
	if len(before) != 1 || before[0].FileID != "fresh" {
		t.Fatalf("before album must hold only the new photo, got %+v", before)
	}
	if !containsString(fixture.media.deleted, "old1") || !containsString(fixture.media.deleted, "old2") {
		t.Fatalf("superseded blobs must be deleted, got %v", fixture.media.deleted)
	}
	if fixture.tasks.tasks[taskID].PhotoBeforeID != "fresh" {
		t.Fatalf("legacy before column = %q, want fresh", fixture.tasks.tasks[taskID].PhotoBeforeID)
	}
}

func TestDeletePurgesEveryRecordedBlob(t *testing.T) {
	fixture := newWorkflowFixture()
	seedUsers(fixture)

	taskID, _ := fixture.service.CreateTask(managerID, models.CategoryHall, "wipe tables",
		[]PhotoRef{{FileID: "b1"}, {FileID: "b2"}, {FileID: "b3"}})
	if err := fixture.service.CompleteTask(hallExecID, taskID, []PhotoRef{{FileID: "a1"}, {FileID: "a2"}}); err != nil {
		t.Fatalf("CompleteTask() unexpected error: %v", err)
	}

	if err := fixture.service.Delete(managerID, taskID); err != nil {
		t.Fatalf("Delete() unexpected error: %v", err)
	}

	for _, fileID := range []string{"b1", "b2", "b3", "a1", "a2"} {
		if !containsString(fixture.media.deleted, fileID) {
			t.Fatalf("blob %s was not purged, deleted: %v", fileID, fixture.media.deleted)
		}
	}
	if len(fixture.media.deleted) != 5 {
		t.Fatalf("expected exactly 5 blob deletions, got %v", fixture.media.deleted)
	}
	if _, found := fixture.tasks.tasks[taskID]; found {
		t.Fatal("task row must be gone")
	}
}

func TestDeleteWithoutPhotosSkipsMediaStore(t *testing.T) {
	fixture := newWorkflowFixture()
	seedUsers(fixture)

	// A row without any recorded blob handle, as written by older
	// deployments.
	fixture.tasks.tasks[1] = models.Task{
		TaskID:   1,
		Status:   models.StatusNew,
		Category: models.CategoryHall,
	}

	if err := fixture.service.Delete(managerID, 1); err != nil {
		t.Fatalf("Delete() unexpected error: %v", err)
	}
	if len(fixture.media.deleted) != 0 {
		t.Fatalf("no blobs recorded, no deletions expected, got %v", fixture.media.deleted)
	}
}

func TestDeleteSurvivesMediaFailures(t *testing.T) {
	fixture := newWorkflowFixture()
	seedUsers(fixture)
	fixture.media.failAll = true

	taskID, _ := fixture.service.CreateTask(managerID, models.CategoryHall, "wipe tables", []PhotoRef{{FileID: "b1"}})
	if err := fixture.service.Delete(managerID, taskID); err != nil {
		t.Fatalf("blob failures must not block task deletion, got %v", err)
	}
	if _, found := fixture.tasks.tasks[taskID]; found {
		t.Fatal("task row must be gone despite blob failures")
	}
}

func TestOperationsOnUnknownTaskReturnNotFound(t *testing.T) {
	fixture := newWorkflowFixture()
	seedUsers(fixture)

	if err := fixture.service.Approve(managerID, 42); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("Approve() = %v, want ErrTaskNotFound", err)
	}
	if err := fixture.service.CompleteTask(hallExecID, 42, []PhotoRef{{FileID: "a"}}); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("CompleteTask() = %v, want ErrTaskNotFound", err)
	}
	if err := fixture.service.Delete(managerID, 42); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("Delete() = %v, want ErrTaskNotFound", err)
	}
}

func TestBroadcastReportsDeliveredCount(t *testing.T) {
	fixture := newWorkflowFixture()
	seedUsers(fixture)

	sent, err := fixture.service.Broadcast(managerID, "deep clean on friday")
	if err != nil {
		t.Fatalf("Broadcast() unexpected error: %v", err)
	}
	if sent != 2 {
		t.Fatalf("Broadcast() sent = %d, want 2 executors", sent)
	}
}

func containsString(values []string, wanted string) bool {
	for _, value := range values {
		if value == wanted {
			return true
		}
	}
	return false
}
