package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskflow/task-tracker-api/internal/models"
)

func status(s models.TaskStatus) *models.TaskStatus { return &s }
func flag(b bool) *bool                            { return &b }

func TestApply_CompletingSetsStatus(t *testing.T) {
	for _, start := range models.TaskStatuses {
		task := &models.Task{Status: start, Completed: start == models.TaskStatusCompleted}

		_, err := Apply(task, Change{Completed: flag(true)})
		require.NoError(t, err)

		assert.Equal(t, models.TaskStatusCompleted, task.Status, start)
		assert.True(t, task.Completed, start)
	}
}

func TestApply_CompletingIsIdempotent(t *testing.T) {
	task := &models.Task{Status: models.TaskStatusNew}

	changed, err := Apply(task, Change{Completed: flag(true)})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"status", "completed"}, changed)
	once := *task

	changed, err = Apply(task, Change{Completed: flag(true)})
	require.NoError(t, err)
	assert.Empty(t, changed)
	assert.Equal(t, once, *task)
}

func TestApply_UncompletingReopensInProgress(t *testing.T) {
	task := &models.Task{Status: models.TaskStatusCompleted, Completed: true}

	changed, err := Apply(task, Change{Completed: flag(false)})
	require.NoError(t, err)

	assert.Equal(t, models.TaskStatusInProgress, task.Status)
	assert.False(t, task.Completed)
	assert.ElementsMatch(t, []string{"status", "completed"}, changed)
}

func TestApply_UncompletingOpenTaskKeepsStatus(t *testing.T) {
	for _, start := range []models.TaskStatus{models.TaskStatusNew, models.TaskStatusInProgress} {
		task := &models.Task{Status: start}

		changed, err := Apply(task, Change{Completed: flag(false)})
		require.NoError(t, err)
		assert.Equal(t, start, task.Status)
		assert.Empty(t, changed)
	}
}

func TestApply_DirectStatusKeepsFlagInSync(t *testing.T) {
	task := &models.Task{Status: models.TaskStatusCompleted, Completed: true}

	_, err := Apply(task, Change{Status: status(models.TaskStatusNew)})
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusNew, task.Status)
	assert.False(t, task.Completed)

	_, err = Apply(task, Change{Status: status(models.TaskStatusCompleted)})
	require.NoError(t, err)
	assert.True(t, task.Completed)
}

func TestApply_NewCanSkipInProgress(t *testing.T) {
	task := &models.Task{Status: models.TaskStatusNew}

	_, err := Apply(task, Change{Status: status(models.TaskStatusCompleted), Completed: flag(true)})
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusCompleted, task.Status)
	assert.True(t, task.Completed)
}

func TestApply_ConflictingPairIsRejected(t *testing.T) {
	task := &models.Task{Status: models.TaskStatusInProgress}

	_, err := Apply(task, Change{Status: status(models.TaskStatusNew), Completed: flag(true)})
	assert.ErrorIs(t, err, ErrStatusConflict)

	_, err = Apply(task, Change{Status: status(models.TaskStatusCompleted), Completed: flag(false)})
	assert.ErrorIs(t, err, ErrStatusConflict)

	assert.Equal(t, models.TaskStatusInProgress, task.Status)
	assert.False(t, task.Completed)
}

func TestApply_InvalidStatus(t *testing.T) {
	task := &models.Task{Status: models.TaskStatusNew}

	_, err := Apply(task, Change{Status: status("done")})
	assert.ErrorIs(t, err, ErrInvalidStatus)
	assert.Equal(t, models.TaskStatusNew, task.Status)
}

func TestApply_RepairsDesynchronisedRow(t *testing.T) {
	// Rows written before the pairing was enforced may disagree.
	task := &models.Task{Status: models.TaskStatusInProgress, Completed: true}

	changed, err := Apply(task, Change{})
	require.NoError(t, err)
	assert.False(t, task.Completed)
	assert.Equal(t, []string{"completed"}, changed)
}

func TestInitialize(t *testing.T) {
	task := &models.Task{}
	require.NoError(t, Initialize(task, Change{}))
	assert.Equal(t, models.TaskStatusNew, task.Status)
	assert.False(t, task.Completed)

	task = &models.Task{}
	require.NoError(t, Initialize(task, Change{Completed: flag(true)}))
	assert.Equal(t, models.TaskStatusCompleted, task.Status)
	assert.True(t, task.Completed)

	task = &models.Task{}
	require.NoError(t, Initialize(task, Change{Status: status(models.TaskStatusInProgress)}))
	assert.Equal(t, models.TaskStatusInProgress, task.Status)
}

func TestActionFor(t *testing.T) {
	done := &models.Task{Status: models.TaskStatusCompleted}
	open := &models.Task{Status: models.TaskStatusInProgress}

	assert.Equal(t, models.AuditActionComplete, ActionFor(done, []string{"status", "completed"}))
	assert.Equal(t, models.AuditActionStatusChange, ActionFor(open, []string{"status"}))
	assert.Equal(t, models.AuditActionUpdate, ActionFor(done, []string{"title", "status"}))
	assert.Equal(t, models.AuditActionUpdate, ActionFor(open, nil))
}
