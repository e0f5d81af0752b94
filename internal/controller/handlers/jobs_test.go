package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"statusboard/internal/engine"
	"statusboard/internal/store"
	"statusboard/pkg/api"
)

func TestSubmitJob(t *testing.T) {
	user := &store.User{ID: "u1"}

	tests := []struct {
		name           string
		body           any
		submitErr      error
		expectedStatus int
		wantToken      bool
	}{
		{
			name:           "Deploy returns token",
			body:           api.SubmitJobRequest{Type: "deploy", Name: "Deploy to production"},
			expectedStatus: http.StatusAccepted,
			wantToken:      true,
		},
		{
			name:           "Validate has no token",
			body:           api.SubmitJobRequest{Type: "validate-feed"},
			expectedStatus: http.StatusAccepted,
		},
		{
			name:           "Command with command",
			body:           api.SubmitJobRequest{Type: "command", Command: []string{"echo", "hi"}},
			expectedStatus: http.StatusAccepted,
		},
		{
			name:           "Command without command",
			body:           api.SubmitJobRequest{Type: "command"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Unknown type",
			body:           api.SubmitJobRequest{Type: "launch-rocket"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Invalid JSON",
			body:           "{",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Engine stopped",
			body:           api.SubmitJobRequest{Type: "export-gis"},
			submitErr:      engine.ErrStopped,
			expectedStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.exec.submitErr = tt.submitErr

			var body = jsonBody(t, tt.body)
			if s, ok := tt.body.(string); ok {
				body = strings.NewReader(s)
			}
			req := asUser(httptest.NewRequest(http.MethodPost, "/api/secure/jobs", body), user)
			rr := httptest.NewRecorder()

			f.h.SubmitJob(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Fatalf("handler returned wrong status code: got %v want %v, body %s", rr.Code, tt.expectedStatus, rr.Body.String())
			}
			if tt.expectedStatus != http.StatusAccepted {
				if len(f.board.ListJobs("u1", false)) != 0 {
					t.Error("rejected submission must not register a job")
				}
				return
			}

			var resp api.SubmitJobResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.JobID == "" {
				t.Error("expected job id")
			}
			if (resp.Token != "") != tt.wantToken {
				t.Errorf("token presence = %v, want %v", resp.Token != "", tt.wantToken)
			}
			if len(f.exec.submitted) != 1 || f.exec.submitted[0].Job.ID != resp.JobID {
				t.Errorf("expected job to be handed to the engine, got %+v", f.exec.submitted)
			}

			jobs := f.board.ListJobs("u1", false)
			if len(jobs) != 1 || jobs[0].ID != resp.JobID {
				t.Errorf("expected job to be registered for u1, got %+v", jobs)
			}
		})
	}
}

func TestSubmitJob_DefaultName(t *testing.T) {
	f := newFixture(t)
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/secure/jobs",
		jsonBody(t, api.SubmitJobRequest{Type: "export-gis"})), &store.User{ID: "u1"})
	rr := httptest.NewRecorder()

	f.h.SubmitJob(rr, req)

	jobs := f.board.ListJobs("u1", false)
	if len(jobs) != 1 {
		t.Fatalf("expected one job, got %d", len(jobs))
	}
	kind, _ := store.Kind(store.JobTypeExportGIS)
	if jobs[0].Name != kind.Description {
		t.Errorf("expected default name %q, got %q", kind.Description, jobs[0].Name)
	}
}

func TestSubmitJob_Unauthenticated(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodPost, "/api/secure/jobs",
		jsonBody(t, api.SubmitJobRequest{Type: "deploy"}))
	rr := httptest.NewRecorder()

	f.h.SubmitJob(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("got status %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}
