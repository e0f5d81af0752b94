package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"statusboard/pkg/api"

	"github.com/spf13/viper"
)

func TestJobsCommand_ListsOwnJobs(t *testing.T) {
	resetViper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/secure/status/jobs" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode([]api.JobResponse{
			{ID: "j1", Type: "deploy", Name: "prod", Status: api.JobStatus{Message: "Waiting"}},
			{ID: "j2", Type: "export-gis", Name: "stops", Status: api.JobStatus{Completed: true, PercentComplete: 100}},
		})
	}))
	defer server.Close()

	viper.Set("url", server.URL)
	viper.Set("token", "test-token")

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetArgs([]string{"jobs"})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := stdout.String()
	for _, want := range []string{"ID", "j1", "j2", "PENDING", "COMPLETED", "100%"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
	if strings.Contains(output, "OWNER") {
		t.Errorf("expected no owner column, got: %s", output)
	}
}

func TestJobsCommand_Empty(t *testing.T) {
	resetViper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("[]"))
	}))
	defer server.Close()

	viper.Set("url", server.URL)
	viper.Set("token", "test-token")

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetArgs([]string{"jobs"})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output := stdout.String(); !strings.Contains(output, "No jobs found") {
		t.Errorf("expected empty message, got: %s", output)
	}
}

func TestJobsAllCommand_TypeFilter(t *testing.T) {
	resetViper()
	resetFlags(jobsAllCmd, "type")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/secure/status/jobs/all" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("type"); got != "deploy,export-gis" {
			t.Errorf("expected type filter, got %q", got)
		}
		json.NewEncoder(w).Encode([]api.JobResponse{
			{ID: "j1", OwnerID: "u1", Type: "deploy"},
		})
	}))
	defer server.Close()

	viper.Set("url", server.URL)
	viper.Set("token", "admin-token")

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetArgs([]string{"jobs", "all", "--type", "deploy", "--type", "export-gis"})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	output := stdout.String()
	if !strings.Contains(output, "OWNER") || !strings.Contains(output, "u1") {
		t.Errorf("expected owner column, got: %s", output)
	}
}

func TestJobsAllCommand_NotAdmin(t *testing.T) {
	resetViper()
	resetFlags(jobsAllCmd, "type")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.RawQuery != "" {
			t.Errorf("expected no filter, got %q", r.URL.RawQuery)
		}
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(api.ErrorResponse{Error: "User is not authorized to perform administrative action", Code: "401"})
	}))
	defer server.Close()

	viper.Set("url", server.URL)
	viper.Set("token", "user-token")

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetArgs([]string{"jobs", "all"})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output := stdout.String(); !strings.Contains(output, "List failed (401)") {
		t.Errorf("expected API error in output, got: %s", output)
	}
}
