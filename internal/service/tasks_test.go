package service

import (
	"testing"
	"time"

	"github.com/psds-microservice/meeting-service/internal/errs"
	"github.com/psds-microservice/meeting-service/internal/model"
	"github.com/psds-microservice/meeting-service/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTaskFixture(t *testing.T) (*memStore, *TaskService) {
	t.Helper()
	store := newMemStore()
	return store, NewTaskService(store, zap.NewNop())
}

func TestTaskCreateDefaults(t *testing.T) {
	store, svc := newTaskFixture(t)
	u := store.addUser("Worker")

	task, err := svc.Create(&model.CreateTaskRequest{
		Title:      "prepare agenda",
		AssigneeID: u.ID,
		AssignerID: u.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, model.TaskPending, task.Status)
	assert.Equal(t, model.PriorityMedium, task.Priority)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 7), task.Deadline, time.Minute)
}

func TestTaskCreateUnknownUsers(t *testing.T) {
	_, svc := newTaskFixture(t)
	_, err := svc.Create(&model.CreateTaskRequest{Title: "x", AssigneeID: 1, AssignerID: 2})
	assert.ErrorIs(t, err, errs.ErrUserNotFound)
}

func TestTaskOverduePromotionOnRead(t *testing.T) {
	store, svc := newTaskFixture(t)
	u := store.addUser("Worker")

	past := time.Now().Add(-time.Hour)
	pending := &model.Task{Title: "late", Deadline: past, Status: model.TaskPending, Priority: model.PriorityMedium, AssigneeID: u.ID, AssignerID: u.ID}
	require.NoError(t, store.CreateTask(pending))
	completed := &model.Task{Title: "done", Deadline: past, Status: model.TaskCompleted, Priority: model.PriorityMedium, AssigneeID: u.ID, AssignerID: u.ID}
	require.NoError(t, store.CreateTask(completed))

	got, err := svc.Get(pending.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskOverdue, got.Status)

	// the promotion was persisted, not just reported
	persisted, _ := store.GetTask(pending.ID)
	assert.Equal(t, model.TaskOverdue, persisted.Status)

	// non-pending tasks are never touched
	gotDone, err := svc.Get(completed.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskCompleted, gotDone.Status)
}

func TestTaskOverduePromotionOnList(t *testing.T) {
	store, svc := newTaskFixture(t)
	u := store.addUser("Worker")
	late := &model.Task{Title: "late", Deadline: time.Now().Add(-time.Minute), Status: model.TaskPending, Priority: model.PriorityMedium, AssigneeID: u.ID, AssignerID: u.ID}
	require.NoError(t, store.CreateTask(late))

	tasks, err := svc.List(storage.TaskFilter{AssigneeID: &u.ID})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, model.TaskOverdue, tasks[0].Status)
}

func TestTaskCompleteStampsTimestamp(t *testing.T) {
	store, svc := newTaskFixture(t)
	u := store.addUser("Worker")
	task := &model.Task{Title: "x", Deadline: time.Now().Add(time.Hour), Status: model.TaskPending, Priority: model.PriorityMedium, AssigneeID: u.ID, AssignerID: u.ID}
	require.NoError(t, store.CreateTask(task))

	done := model.TaskCompleted
	got, err := svc.Update(task.ID, &model.UpdateTaskRequest{Status: &done})
	require.NoError(t, err)
	require.NotNil(t, got.CompletedAt)
	assert.WithinDuration(t, time.Now(), *got.CompletedAt, time.Minute)
}

func TestTaskUpdateRejectsUnknownStatus(t *testing.T) {
	store, svc := newTaskFixture(t)
	u := store.addUser("Worker")
	task := &model.Task{Title: "x", Deadline: time.Now().Add(time.Hour), Status: model.TaskPending, Priority: model.PriorityMedium, AssigneeID: u.ID, AssignerID: u.ID}
	require.NoError(t, store.CreateTask(task))

	bogus := "someday"
	_, err := svc.Update(task.ID, &model.UpdateTaskRequest{Status: &bogus})
	assert.ErrorIs(t, err, errs.ErrInvalidTransition)
}
