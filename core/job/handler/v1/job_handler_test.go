package v1_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/goto/salt/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/goto/batchboard/core/job"
	v1 "github.com/goto/batchboard/core/job/handler/v1"
	"github.com/goto/batchboard/core/job/planner"
	"github.com/goto/batchboard/core/job/service"
	"github.com/goto/batchboard/internal/errors"
)

var secret = []byte("test-secret")

func init() {
	gin.SetMode(gin.TestMode)
}

func signedToken(t *testing.T, key []byte, expiresAt time.Time) string {
	t.Helper()
	claims := v1.UserClaims{
		DisplayName:   "Jane Doe",
		UserPrincipal: "jane@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

type response struct {
	Status bool              `json:"status"`
	Msg    string            `json:"msg"`
	Error  string            `json:"error"`
	Events []json.RawMessage `json:"events"`
	Jobs   []map[string]any  `json:"jobs"`
}

func serve(t *testing.T, router http.Handler, method, path, body string) (int, response) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: v1.TokenCookie, Value: signedToken(t, secret, time.Now().Add(time.Hour))})
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	var resp response
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec.Code, resp
}

func TestJobHandler(t *testing.T) {
	logger := log.NewNoop()
	root, _ := job.NewSpecBuilder("job-A", 300, nil).Build()
	prereqs, _ := job.NewPrerequisites(1)
	dependent, _ := job.NewSpecBuilder("job-B", 600, prereqs).Build()

	t.Run("CreateJob", func(t *testing.T) {
		t.Run("should create job and report its id", func(t *testing.T) {
			jobService := NewJobService(t)
			jobService.On("Create", mock.Anything, job.EventID(1), mock.MatchedBy(func(s *job.Spec) bool {
				return s.Name() == "job-B" && s.Prerequisites().Contains(1) && s.AverageDuration() == 600
			})).Return(job.NewJob(2, 1, dependent, 300), nil)

			router := v1.NewRouter(logger, v1.NewJobHandler(jobService, NewEventService(t), logger), secret, nil)
			code, resp := serve(t, router, http.MethodPost, "/setup/jobs",
				`{"eventID":1,"name":"job-B","avgTime":600,"maxTime":900,"frequency":"1,2,3","prereq":"1"}`)

			assert.Equal(t, http.StatusOK, code)
			assert.True(t, resp.Status)
			assert.Equal(t, "create job success: job 2", resp.Msg)
		})
		t.Run("returns 422 when body is missing", func(t *testing.T) {
			router := v1.NewRouter(logger, v1.NewJobHandler(NewJobService(t), NewEventService(t), logger), secret, nil)

			code, resp := serve(t, router, http.MethodPost, "/setup/jobs", "")

			assert.Equal(t, http.StatusUnprocessableEntity, code)
			assert.False(t, resp.Status)
			assert.Equal(t, "request body missing", resp.Error)
		})
		t.Run("returns 404 when a prerequisite does not exist", func(t *testing.T) {
			jobService := NewJobService(t)
			jobService.On("Create", mock.Anything, job.EventID(1), mock.Anything).Return(nil,
				&errors.DomainError{ErrorType: errors.ErrNotFound, Entity: job.EntityJob, Message: service.MsgDanglingPrerequisite})

			router := v1.NewRouter(logger, v1.NewJobHandler(jobService, NewEventService(t), logger), secret, nil)
			code, resp := serve(t, router, http.MethodPost, "/setup/jobs", `{"eventID":1,"name":"job-C","avgTime":10,"prereq":"99"}`)

			assert.Equal(t, http.StatusNotFound, code)
			assert.Equal(t, service.MsgDanglingPrerequisite, resp.Error)
		})
		t.Run("returns 422 for malformed prerequisites", func(t *testing.T) {
			router := v1.NewRouter(logger, v1.NewJobHandler(NewJobService(t), NewEventService(t), logger), secret, nil)

			code, _ := serve(t, router, http.MethodPost, "/setup/jobs", `{"eventID":1,"name":"job-C","avgTime":10,"prereq":"0,abc"}`)

			assert.Equal(t, http.StatusUnprocessableEntity, code)
		})
	})
	t.Run("UpdateJob", func(t *testing.T) {
		t.Run("returns 422 when the update would cause a loop", func(t *testing.T) {
			jobService := NewJobService(t)
			jobService.On("Update", mock.Anything, job.ID(1), mock.Anything).Return(nil,
				&errors.DomainError{ErrorType: errors.ErrInvalidArgument, Entity: job.EntityJob, Message: service.MsgPrerequisiteLoop})

			router := v1.NewRouter(logger, v1.NewJobHandler(jobService, NewEventService(t), logger), secret, nil)
			code, resp := serve(t, router, http.MethodPut, "/setup/jobs/1", `{"name":"job-A","avgTime":300,"prereq":"2"}`)

			assert.Equal(t, http.StatusUnprocessableEntity, code)
			assert.Equal(t, service.MsgPrerequisiteLoop, resp.Error)
		})
		t.Run("returns 422 for invalid job id", func(t *testing.T) {
			router := v1.NewRouter(logger, v1.NewJobHandler(NewJobService(t), NewEventService(t), logger), secret, nil)

			code, _ := serve(t, router, http.MethodPut, "/setup/jobs/abc", `{"name":"job-A","avgTime":300}`)

			assert.Equal(t, http.StatusUnprocessableEntity, code)
		})
	})
	t.Run("Recovery", func(t *testing.T) {
		t.Run("returns 500 when a handler panics", func(t *testing.T) {
			jobService := NewJobService(t)
			jobService.On("Delete", mock.Anything, job.ID(3)).Run(func(mock.Arguments) {
				panic("boom")
			}).Return(nil)

			router := v1.NewRouter(logger, v1.NewJobHandler(jobService, NewEventService(t), logger), secret, nil)
			code, resp := serve(t, router, http.MethodDelete, "/setup/jobs/3", "")

			assert.Equal(t, http.StatusInternalServerError, code)
			assert.False(t, resp.Status)
			assert.Equal(t, "internal error", resp.Error)
		})
	})
	t.Run("DeleteJob", func(t *testing.T) {
		t.Run("should delete job", func(t *testing.T) {
			jobService := NewJobService(t)
			jobService.On("Delete", mock.Anything, job.ID(1)).Return(nil)

			router := v1.NewRouter(logger, v1.NewJobHandler(jobService, NewEventService(t), logger), secret, nil)
			code, resp := serve(t, router, http.MethodDelete, "/setup/jobs/1", "")

			assert.Equal(t, http.StatusOK, code)
			assert.Equal(t, "delete job success: job 1", resp.Msg)
		})
	})
	t.Run("PlanEvent", func(t *testing.T) {
		t.Run("should list jobs in resolution order with finish time", func(t *testing.T) {
			jobs := job.Jobs{job.NewJob(2, 1, dependent, 0), job.NewJob(1, 1, root, 0)}
			g, result, err := planner.Plan(jobs)
			require.NoError(t, err)
			jobService := NewJobService(t)
			jobService.On("Preview", mock.Anything, job.EventID(1)).Return(&service.EventPlan{
				EventID: 1, Jobs: result.Apply(jobs), Graph: g, Result: result,
			}, nil)

			router := v1.NewRouter(logger, v1.NewJobHandler(jobService, NewEventService(t), logger), secret, nil)
			code, resp := serve(t, router, http.MethodGet, "/setup/events/1/plan", "")

			assert.Equal(t, http.StatusOK, code)
			require.Len(t, resp.Jobs, 2)
			assert.EqualValues(t, 1, resp.Jobs[0]["jobID"])
			assert.EqualValues(t, 300, resp.Jobs[0]["finish"])
			assert.EqualValues(t, 300, resp.Jobs[1]["prereq_offset"])
			assert.EqualValues(t, 900, resp.Jobs[1]["finish"])
		})
	})
	t.Run("Events", func(t *testing.T) {
		t.Run("should create event", func(t *testing.T) {
			created, _ := job.NewEvent(3, "VPS", "VPSEARND")
			eventService := NewEventService(t)
			eventService.On("Create", mock.Anything, "VPS", "VPSEARND").Return(created, nil)

			router := v1.NewRouter(logger, v1.NewJobHandler(NewJobService(t), eventService, logger), secret, nil)
			code, resp := serve(t, router, http.MethodPost, "/setup/events", `{"type":"VPS","name":"VPSEARND"}`)

			assert.Equal(t, http.StatusOK, code)
			assert.Equal(t, "create event success: event 3", resp.Msg)
		})
		t.Run("returns 422 when event name is missing", func(t *testing.T) {
			router := v1.NewRouter(logger, v1.NewJobHandler(NewJobService(t), NewEventService(t), logger), secret, nil)

			code, _ := serve(t, router, http.MethodPost, "/setup/events", `{"type":"VPS"}`)

			assert.Equal(t, http.StatusUnprocessableEntity, code)
		})
		t.Run("should list events with jobs", func(t *testing.T) {
			nightly, _ := job.NewEvent(1, "VPS", "VPSEARND")
			eventService := NewEventService(t)
			eventService.On("List", mock.Anything).Return([]*job.EventWithJobs{
				{Event: nightly, Jobs: job.Jobs{job.NewJob(1, 1, root, 0)}},
			}, nil)

			router := v1.NewRouter(logger, v1.NewJobHandler(NewJobService(t), eventService, logger), secret, nil)
			code, resp := serve(t, router, http.MethodGet, "/setup/events", "")

			assert.Equal(t, http.StatusOK, code)
			require.Len(t, resp.Events, 1)
			assert.Contains(t, string(resp.Events[0]), `"prereq":"0"`)
		})
		t.Run("returns 404 when deleting unknown event", func(t *testing.T) {
			eventService := NewEventService(t)
			eventService.On("Delete", mock.Anything, job.EventID(9)).Return(errors.NotFound(job.EntityEvent, "event 9 not found"))

			router := v1.NewRouter(logger, v1.NewJobHandler(NewJobService(t), eventService, logger), secret, nil)
			code, resp := serve(t, router, http.MethodDelete, "/setup/events/9", "")

			assert.Equal(t, http.StatusNotFound, code)
			assert.Equal(t, "event 9 not found", resp.Error)
		})
		t.Run("should update event", func(t *testing.T) {
			updated, _ := job.NewEvent(3, "VPS", "renamed")
			eventService := NewEventService(t)
			eventService.On("Update", mock.Anything, job.EventID(3), "VPS", "renamed").Return(updated, nil)

			router := v1.NewRouter(logger, v1.NewJobHandler(NewJobService(t), eventService, logger), secret, nil)
			code, _ := serve(t, router, http.MethodPut, "/setup/events/3", `{"type":"VPS","name":"renamed"}`)

			assert.Equal(t, http.StatusOK, code)
		})
	})
}

func TestAuthMiddleware(t *testing.T) {
	logger := log.NewNoop()
	router := v1.NewRouter(logger, v1.NewJobHandler(NewJobService(t), NewEventService(t), logger), secret, nil)

	request := func(setup func(*http.Request)) int {
		req := httptest.NewRequest(http.MethodDelete, "/setup/jobs/1", nil)
		setup(req)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	t.Run("returns 401 without token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, request(func(*http.Request) {}))
	})
	t.Run("returns 401 for token signed with another key", func(t *testing.T) {
		token := signedToken(t, []byte("other"), time.Now().Add(time.Hour))
		assert.Equal(t, http.StatusUnauthorized, request(func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+token)
		}))
	})
	t.Run("returns 401 for expired token", func(t *testing.T) {
		token := signedToken(t, secret, time.Now().Add(-time.Hour))
		assert.Equal(t, http.StatusUnauthorized, request(func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: v1.TokenCookie, Value: token})
		}))
	})
	t.Run("should keep health public", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

func TestHealth(t *testing.T) {
	logger := log.NewNoop()
	router := v1.NewRouter(logger, v1.NewJobHandler(NewJobService(t), NewEventService(t), logger), nil, failingPinger{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

// JobService is a mock type for the JobService type
type JobService struct {
	mock.Mock
}

func (_m *JobService) Create(ctx context.Context, eventID job.EventID, spec *job.Spec) (*job.Job, error) {
	ret := _m.Called(ctx, eventID, spec)

	var r0 *job.Job
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*job.Job)
	}
	return r0, ret.Error(1)
}

func (_m *JobService) Update(ctx context.Context, id job.ID, spec *job.Spec) (*job.Job, error) {
	ret := _m.Called(ctx, id, spec)

	var r0 *job.Job
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*job.Job)
	}
	return r0, ret.Error(1)
}

func (_m *JobService) Delete(ctx context.Context, id job.ID) error {
	return _m.Called(ctx, id).Error(0)
}

func (_m *JobService) Preview(ctx context.Context, eventID job.EventID) (*service.EventPlan, error) {
	ret := _m.Called(ctx, eventID)

	var r0 *service.EventPlan
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*service.EventPlan)
	}
	return r0, ret.Error(1)
}

func NewJobService(t interface {
	mock.TestingT
	Cleanup(func())
},
) *JobService {
	m := &JobService{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// EventService is a mock type for the EventService type
type EventService struct {
	mock.Mock
}

func (_m *EventService) Create(ctx context.Context, eventType, name string) (*job.Event, error) {
	ret := _m.Called(ctx, eventType, name)

	var r0 *job.Event
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*job.Event)
	}
	return r0, ret.Error(1)
}

func (_m *EventService) Update(ctx context.Context, id job.EventID, eventType, name string) (*job.Event, error) {
	ret := _m.Called(ctx, id, eventType, name)

	var r0 *job.Event
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*job.Event)
	}
	return r0, ret.Error(1)
}

func (_m *EventService) Delete(ctx context.Context, id job.EventID) error {
	return _m.Called(ctx, id).Error(0)
}

func (_m *EventService) List(ctx context.Context) ([]*job.EventWithJobs, error) {
	ret := _m.Called(ctx)

	var r0 []*job.EventWithJobs
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*job.EventWithJobs)
	}
	return r0, ret.Error(1)
}

func NewEventService(t interface {
	mock.TestingT
	Cleanup(func())
},
) *EventService {
	m := &EventService{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
