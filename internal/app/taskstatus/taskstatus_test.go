package taskstatus_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/slok/glmcp/internal/app/taskstatus"
	"github.com/slok/glmcp/internal/model"
	"github.com/slok/glmcp/internal/storage"
	"github.com/slok/glmcp/internal/storage/storagemock"
)

func TestNewService(t *testing.T) {
	_, err := taskstatus.NewService(taskstatus.ServiceConfig{})
	assert.Error(t, err)

	svc, err := taskstatus.NewService(taskstatus.ServiceConfig{Repository: &storagemock.MockTaskRepository{}})
	assert.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestService_Run(t *testing.T) {
	task := model.Task{ID: "01H2QWERTYASDFGZXCVBNMLKJH", InvocationID: "01H2QWERTYASDFGZXCVBNMLKJI", State: model.TaskStateWorking}

	tests := map[string]struct {
		mockRepo func(m *storagemock.MockTaskRepository)
		req      taskstatus.Request
		expTask  *model.Task
		expErr   bool
		expErrIs error
	}{
		"get task by ID": {
			mockRepo: func(m *storagemock.MockTaskRepository) {
				m.On("GetTask", mock.Anything, task.ID).Once().Return(&task, nil)
			},
			req:     taskstatus.Request{ID: task.ID},
			expTask: &task,
		},
		"get task by invocation ID": {
			mockRepo: func(m *storagemock.MockTaskRepository) {
				m.On("GetTask", mock.Anything, task.InvocationID).Once().Return(nil, model.ErrNotFound)
				m.On("ListTasks", mock.Anything, storage.ListTasksOpts{InvocationID: task.InvocationID}).Once().Return([]model.Task{task}, nil)
			},
			req:     taskstatus.Request{ID: task.InvocationID},
			expTask: &task,
		},
		"missing task should fail with not found": {
			mockRepo: func(m *storagemock.MockTaskRepository) {
				m.On("GetTask", mock.Anything, "missing").Once().Return(nil, model.ErrNotFound)
				m.On("ListTasks", mock.Anything, storage.ListTasksOpts{InvocationID: "missing"}).Once().Return([]model.Task{}, nil)
			},
			req:      taskstatus.Request{ID: "missing"},
			expErr:   true,
			expErrIs: model.ErrNotFound,
		},
		"empty ID should fail": {
			mockRepo: func(m *storagemock.MockTaskRepository) {},
			req:      taskstatus.Request{},
			expErr:   true,
			expErrIs: model.ErrNotValid,
		},
		"repository error should not fall back": {
			mockRepo: func(m *storagemock.MockTaskRepository) {
				m.On("GetTask", mock.Anything, task.ID).Once().Return(nil, fmt.Errorf("db error"))
			},
			req:    taskstatus.Request{ID: task.ID},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			mRepo := storagemock.NewMockTaskRepository(t)
			test.mockRepo(mRepo)

			svc, err := taskstatus.NewService(taskstatus.ServiceConfig{Repository: mRepo})
			require.NoError(err)

			got, err := svc.Run(context.Background(), test.req)
			if test.expErr {
				require.Error(err)
				if test.expErrIs != nil {
					assert.ErrorIs(err, test.expErrIs)
				}
				return
			}
			require.NoError(err)
			assert.Equal(test.expTask, got)
		})
	}
}
