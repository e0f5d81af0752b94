package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"statusboard/internal/status"
	"statusboard/internal/store"
	"statusboard/pkg/api"
)

func decodeJobs(t *testing.T, rr *httptest.ResponseRecorder) []api.JobResponse {
	t.Helper()
	var jobs []api.JobResponse
	if err := json.NewDecoder(rr.Body).Decode(&jobs); err != nil {
		t.Fatalf("failed to decode jobs: %v", err)
	}
	return jobs
}

func TestGetUserJobs_PurgesAfterDelivery(t *testing.T) {
	f := newFixture(t)
	active := f.addJob(t, "u1", store.JobTypeValidateFeed, store.Status{Message: "running"})
	done := f.addJob(t, "u1", store.JobTypeExportGIS, store.Status{Completed: true})
	f.addJob(t, "u2", store.JobTypeExportGIS, store.Status{})

	get := func() []api.JobResponse {
		req := asUser(httptest.NewRequest(http.MethodGet, "/api/secure/status/jobs", nil), &store.User{ID: "u1"})
		rr := httptest.NewRecorder()
		f.h.GetUserJobs(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("got status %d, want %d", rr.Code, http.StatusOK)
		}
		return decodeJobs(t, rr)
	}

	first := get()
	if len(first) != 2 {
		t.Fatalf("expected 2 jobs on first read, got %d", len(first))
	}
	ids := map[string]bool{first[0].ID: true, first[1].ID: true}
	if !ids[active.ID] || !ids[done.ID] {
		t.Errorf("expected both u1 jobs, got %v", ids)
	}

	second := get()
	if len(second) != 1 || second[0].ID != active.ID {
		t.Errorf("expected only the active job on second read, got %+v", second)
	}
}

func TestGetUserJobs_UnknownOwnerGetsEmptyArray(t *testing.T) {
	f := newFixture(t)
	req := asUser(httptest.NewRequest(http.MethodGet, "/api/secure/status/jobs", nil), &store.User{ID: "nobody"})
	rr := httptest.NewRecorder()

	f.h.GetUserJobs(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d", rr.Code, http.StatusOK)
	}
	if body := rr.Body.String(); body != "[]\n" {
		t.Errorf("expected empty JSON array, got %q", body)
	}
}

func TestGetAllJobs(t *testing.T) {
	tests := []struct {
		name           string
		user           *store.User
		query          string
		expectedStatus int
		expectedCount  int
	}{
		{"admin sees all", &store.User{ID: "root", Admin: true}, "", http.StatusOK, 3},
		{"admin filters by type", &store.User{ID: "root", Admin: true}, "?type=deploy", http.StatusOK, 1},
		{"admin filters by several types", &store.User{ID: "root", Admin: true}, "?type=deploy,export-gis", http.StatusOK, 3},
		{"repeated type params", &store.User{ID: "root", Admin: true}, "?type=deploy&type=validate-feed", http.StatusOK, 1},
		{"unknown type", &store.User{ID: "root", Admin: true}, "?type=rocket", http.StatusBadRequest, 0},
		{"non-admin denied", &store.User{ID: "u1"}, "", http.StatusUnauthorized, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.addJob(t, "u1", store.JobTypeDeploy, store.Status{})
			f.addJob(t, "u1", store.JobTypeExportGIS, store.Status{Completed: true})
			f.addJob(t, "u2", store.JobTypeExportGIS, store.Status{})

			req := asUser(httptest.NewRequest(http.MethodGet, "/api/secure/status/jobs/all"+tt.query, nil), tt.user)
			rr := httptest.NewRecorder()
			f.h.GetAllJobs(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Fatalf("got status %d, want %d", rr.Code, tt.expectedStatus)
			}
			if tt.expectedStatus == http.StatusOK {
				if got := len(decodeJobs(t, rr)); got != tt.expectedCount {
					t.Errorf("expected %d jobs, got %d", tt.expectedCount, got)
				}
			}

			// the admin view never purges
			if got := len(f.board.ListAllJobs()); got != 3 {
				t.Errorf("expected registry to keep 3 jobs, got %d", got)
			}
		})
	}
}

func TestGetJob(t *testing.T) {
	f := newFixture(t)
	active := f.addJob(t, "u1", store.JobTypeValidateFeed, store.Status{})
	failed := f.addJob(t, "u2", store.JobTypeProcessSnapshot, store.Status{Error: true, Message: "boom"})

	get := func(owner, id string) *httptest.ResponseRecorder {
		req := asUser(httptest.NewRequest(http.MethodGet, "/api/secure/status/jobs/"+id, nil), &store.User{ID: owner})
		req.SetPathValue("jobId", id)
		rr := httptest.NewRecorder()
		f.h.GetJob(rr, req)
		return rr
	}

	rr := get("u1", active.ID)
	if rr.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d", rr.Code, http.StatusOK)
	}
	var job api.JobResponse
	if err := json.NewDecoder(rr.Body).Decode(&job); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if job.ID != active.ID || job.Type != "validate-feed" {
		t.Errorf("unexpected job: %+v", job)
	}

	if rr := get("u1", failed.ID); rr.Code != http.StatusNotFound {
		t.Errorf("other owner's job: got status %d, want %d", rr.Code, http.StatusNotFound)
	}

	rr = get("u2", failed.ID)
	if rr.Code != http.StatusOK {
		t.Fatalf("errored job first read: got status %d, want %d", rr.Code, http.StatusOK)
	}
	if err := json.NewDecoder(rr.Body).Decode(&job); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !job.Status.Error || job.Status.Message != "boom" {
		t.Errorf("expected errored status, got %+v", job.Status)
	}

	if rr := get("u2", failed.ID); rr.Code != http.StatusNotFound {
		t.Errorf("errored job second read: got status %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestReportJobStatus(t *testing.T) {
	tests := []struct {
		name           string
		jobType        store.JobType
		initial        store.Status
		query          func(job *store.Job) string
		expectedStatus int
		expectedBody   string
		check          func(t *testing.T, s store.Status)
	}{
		{
			name:    "graph build success",
			jobType: store.JobTypeDeploy,
			query: func(j *store.Job) string {
				return "?user=u1&token=" + j.Token() + "&graphBuildSuccess=true"
			},
			expectedStatus: http.StatusOK,
			expectedBody:   "true\n",
			check: func(t *testing.T, s store.Status) {
				if !s.GraphBuilt || s.BundleDownloaded {
					t.Errorf("expected only GraphBuilt, got %+v", s)
				}
			},
		},
		{
			name:    "first recognised parameter wins",
			jobType: store.JobTypeDeploy,
			query: func(j *store.Job) string {
				return "?user=u1&token=" + j.Token() + "&foo=1&bundleDownloadSuccess=true&graphBuildSuccess=true"
			},
			expectedStatus: http.StatusOK,
			expectedBody:   "true\n",
			check: func(t *testing.T, s store.Status) {
				if !s.BundleDownloaded || s.GraphBuilt {
					t.Errorf("expected only BundleDownloaded, got %+v", s)
				}
			},
		},
		{
			name:    "no recognised parameter",
			jobType: store.JobTypeDeploy,
			query: func(j *store.Job) string {
				return "?user=u1&token=" + j.Token() + "&progress=50"
			},
			expectedStatus: http.StatusOK,
			expectedBody:   "false\n",
		},
		{
			name:    "wrong token",
			jobType: store.JobTypeDeploy,
			query: func(j *store.Job) string {
				return "?user=u1&token=nope&graphBuildSuccess=true"
			},
			expectedStatus: http.StatusUnauthorized,
			check: func(t *testing.T, s store.Status) {
				if s.GraphBuilt {
					t.Error("wrong token must not change status")
				}
			},
		},
		{
			name:    "missing user",
			jobType: store.JobTypeDeploy,
			query: func(j *store.Job) string {
				return "?token=" + j.Token() + "&graphBuildSuccess=true"
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:    "wrong owner is not found",
			jobType: store.JobTypeDeploy,
			query: func(j *store.Job) string {
				return "?user=u2&token=" + j.Token() + "&graphBuildSuccess=true"
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:    "kind without reports",
			jobType: store.JobTypeValidateFeed,
			query: func(j *store.Job) string {
				return "?user=u1&token=anything&graphBuildSuccess=true"
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:    "malformed query",
			jobType: store.JobTypeDeploy,
			query: func(j *store.Job) string {
				return "?user=u1&token=" + j.Token() + "&graph%zz=true"
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			job := f.addJob(t, "u1", tt.jobType, tt.initial)

			req := httptest.NewRequest(http.MethodPost, "/api/public/status/jobs/"+job.ID+tt.query(job), nil)
			req.SetPathValue("jobId", job.ID)
			rr := httptest.NewRecorder()

			f.h.ReportJobStatus(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Fatalf("got status %d, want %d, body %s", rr.Code, tt.expectedStatus, rr.Body.String())
			}
			if tt.expectedBody != "" && rr.Body.String() != tt.expectedBody {
				t.Errorf("expected body %q, got %q", tt.expectedBody, rr.Body.String())
			}
			if tt.check != nil {
				tt.check(t, job.Status())
			}
		})
	}
}

func TestReportJobStatus_UnknownJob(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodPost, "/api/public/status/jobs/missing?user=u1&token=t&graphBuildSuccess=true", nil)
	req.SetPathValue("jobId", "missing")
	rr := httptest.NewRecorder()

	f.h.ReportJobStatus(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("got status %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestOrderedParams(t *testing.T) {
	params, err := orderedParams("user=u1&b=2&&a=1&token=t&c%20d=x%2By&flag")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []status.Param{{Name: "b", Value: "2"}, {Name: "a", Value: "1"}, {Name: "c d", Value: "x+y"}, {Name: "flag"}}
	if len(params) != len(want) {
		t.Fatalf("expected %d params, got %+v", len(want), params)
	}
	for i := range want {
		if params[i] != want[i] {
			t.Errorf("param %d: got %+v, want %+v", i, params[i], want[i])
		}
	}
}
