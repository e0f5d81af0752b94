package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// JobType is the kind of work a job performs.
type JobType string

const (
	JobTypeDeploy            JobType = "deploy"
	JobTypeValidateFeed      JobType = "validate-feed"
	JobTypeProcessSnapshot   JobType = "process-snapshot"
	JobTypeMergeFeedVersions JobType = "merge-feed-versions"
	JobTypeExportGIS         JobType = "export-gis"
	JobTypeCommand           JobType = "command"
)

// Report names accepted from a provisioned deploy instance.
const (
	ReportGraphBuildSuccess     = "graphBuildSuccess"
	ReportBundleDownloadSuccess = "bundleDownloadSuccess"
)

// ReportUpdate applies one external progress report to a status.
type ReportUpdate func(s *Status, success bool)

// KindSpec describes what a job kind can do.
// Only kinds with a non-empty Reports table carry a capability token.
type KindSpec struct {
	Type        JobType
	Description string
	Reports     map[string]ReportUpdate
}

// Reportable reports whether jobs of this kind accept external updates.
func (k KindSpec) Reportable() bool {
	return len(k.Reports) > 0
}

var kinds = map[JobType]KindSpec{
	JobTypeDeploy: {
		Type:        JobTypeDeploy,
		Description: "Deploy a transit network to a provisioned routing server",
		Reports: map[string]ReportUpdate{
			ReportGraphBuildSuccess:     updateGraphBuild,
			ReportBundleDownloadSuccess: updateBundleDownload,
		},
	},
	JobTypeValidateFeed:      {Type: JobTypeValidateFeed, Description: "Validate a feed version"},
	JobTypeProcessSnapshot:   {Type: JobTypeProcessSnapshot, Description: "Create an editor snapshot"},
	JobTypeMergeFeedVersions: {Type: JobTypeMergeFeedVersions, Description: "Merge feed versions"},
	JobTypeExportGIS:         {Type: JobTypeExportGIS, Description: "Export routes or stops as GIS shapefiles"},
	JobTypeCommand:           {Type: JobTypeCommand, Description: "Run a local command"},
}

func updateGraphBuild(s *Status, success bool) {
	s.GraphBuilt = success
	if success {
		s.Message = "Graph build complete"
		return
	}
	s.Message = "Graph build failed on the deploy instance"
	s.Error = true
}

func updateBundleDownload(s *Status, success bool) {
	s.BundleDownloaded = success
	if success {
		s.Message = "Bundle downloaded by the deploy instance"
		return
	}
	s.Message = "Bundle download failed on the deploy instance"
	s.Error = true
}

// Kind returns the descriptor for t.
func Kind(t JobType) (KindSpec, bool) {
	k, ok := kinds[t]
	return k, ok
}

// JobTypes returns every known job type.
func JobTypes() []JobType {
	return []JobType{
		JobTypeDeploy,
		JobTypeValidateFeed,
		JobTypeProcessSnapshot,
		JobTypeMergeFeedVersions,
		JobTypeExportGIS,
		JobTypeCommand,
	}
}

// ParseJobType validates a job type name.
func ParseJobType(s string) (JobType, error) {
	t := JobType(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := kinds[t]; !ok {
		return "", fmt.Errorf("unknown job type %q", s)
	}
	return t, nil
}

// JobOption customises a job at construction time.
type JobOption func(*Job)

// WithID overrides the generated job id.
func WithID(id string) JobOption {
	return func(j *Job) { j.ID = id }
}

// WithToken overrides the generated capability token.
// It has no effect on kinds that do not accept reports.
func WithToken(token string) JobOption {
	return func(j *Job) { j.token = token }
}

// WithStatus sets the initial status.
func WithStatus(s Status) JobOption {
	return func(j *Job) { j.status = s }
}

// NewJob creates a job owned by ownerID. Reportable kinds get a random
// capability token.
func NewJob(ownerID string, t JobType, name string, opts ...JobOption) (*Job, error) {
	kind, ok := kinds[t]
	if !ok {
		return nil, fmt.Errorf("unknown job type %q", t)
	}
	if ownerID == "" {
		return nil, fmt.Errorf("owner id is required")
	}

	j := &Job{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Type:      t,
		Name:      name,
		CreatedAt: time.Now().UTC(),
		status:    Status{Message: "Waiting to begin job..."},
	}
	if kind.Reportable() {
		j.token = uuid.NewString()
	}
	for _, opt := range opts {
		opt(j)
	}
	if !kind.Reportable() {
		j.token = ""
	}
	return j, nil
}
