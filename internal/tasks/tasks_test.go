package tasks_test

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minimal-blog/internal/domain"
	"minimal-blog/internal/tasks"
)

type recordingEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (r *recordingEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.tasks = append(r.tasks, task)
	return &asynq.TaskInfo{ID: "t1", Queue: tasks.QueueNotifications}, nil
}

func TestAsyncDispatcher_EnqueuesFanoutTask(t *testing.T) {
	enq := &recordingEnqueuer{}
	d := tasks.NewAsyncDispatcher(enq)

	err := d.Dispatch(context.Background(), domain.Post{ID: 10, AuthorID: 1, Title: "Hello"})
	require.NoError(t, err)
	require.Len(t, enq.tasks, 1)

	task := enq.tasks[0]
	assert.Equal(t, tasks.TypeNotificationFanout, task.Type())
	payload, err := tasks.ParseFanoutPayload(task)
	require.NoError(t, err)
	assert.Equal(t, tasks.FanoutPayload{PostID: 10, AuthorID: 1, Attempt: 1}, payload)
}

func TestAsyncDispatcher_EnqueueError(t *testing.T) {
	boom := errors.New("redis down")
	d := tasks.NewAsyncDispatcher(&recordingEnqueuer{err: boom})

	err := d.Dispatch(context.Background(), domain.Post{ID: 10, AuthorID: 1})
	assert.ErrorIs(t, err, boom)
}

func TestParseFanoutPayload_Invalid(t *testing.T) {
	_, err := tasks.ParseFanoutPayload(asynq.NewTask(tasks.TypeNotificationFanout, []byte("oops")))
	assert.Error(t, err)
}
