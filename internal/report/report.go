package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/caltechlibrary/archivesspace-docker-mgmt/internal/verify"
)

// ReportVersion is the current report format version.
const ReportVersion = "1"

// Step outcome values.
const (
	StepOK      = "ok"
	StepFailed  = "failed"
	StepSkipped = "skipped"
)

// Report records one restore run: which artifact went in, what each step
// did, and how the post-restore checks came out.
type Report struct {
	Version      string               `json:"version"`
	ID           string               `json:"id"`
	Timestamp    time.Time            `json:"timestamp"`
	BackupSource string               `json:"backup_source"`
	Artifact     ArtifactInfo         `json:"artifact"`
	ReindexMode  string               `json:"reindex_mode"`
	Steps        []Step               `json:"steps"`
	Checks       []verify.CheckResult `json:"checks,omitempty"`
	Summary      Summary              `json:"summary"`
}

// ArtifactInfo identifies the restored backup.
type ArtifactInfo struct {
	Date string `json:"date"`
	Name string `json:"name"`
	Size int64  `json:"size_bytes,omitempty"`
}

// Step is one pipeline step's outcome.
type Step struct {
	Name     string `json:"name"`
	Status   string `json:"status"`
	Duration string `json:"duration,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

// Summary provides an overview of the run.
type Summary struct {
	Success    bool   `json:"success"`
	FailedStep string `json:"failed_step,omitempty"`
	// StaleIndex is set when the restore succeeded but the reindex did
	// not: the database is updated, the index is not. Recoverable by
	// re-running the reindex alone.
	StaleIndex bool `json:"stale_index,omitempty"`
}

// Builder assembles a report step by step as the run progresses.
type Builder struct {
	report *Report
}

// NewBuilder creates a report builder with a fresh timestamp.
func NewBuilder(id string) *Builder {
	return &Builder{
		report: &Report{
			Version:   ReportVersion,
			ID:        id,
			Timestamp: time.Now().UTC(),
		},
	}
}

func (b *Builder) WithBackupSource(source string) *Builder {
	b.report.BackupSource = source
	return b
}

func (b *Builder) WithArtifact(date, name string, size int64) *Builder {
	b.report.Artifact = ArtifactInfo{Date: date, Name: name, Size: size}
	return b
}

func (b *Builder) WithReindexMode(mode string) *Builder {
	b.report.ReindexMode = mode
	return b
}

func (b *Builder) AddStep(name, status string, duration time.Duration, detail string) *Builder {
	step := Step{Name: name, Status: status, Detail: detail}
	if duration > 0 {
		step.Duration = duration.Round(time.Millisecond).String()
	}
	b.report.Steps = append(b.report.Steps, step)
	return b
}

func (b *Builder) WithChecks(checks []verify.CheckResult) *Builder {
	b.report.Checks = checks
	return b
}

// Build finalizes the report and computes the summary.
func (b *Builder) Build() *Report {
	summary := Summary{Success: true}
	restored := false
	for _, s := range b.report.Steps {
		if s.Status == StepOK && s.Name == "restore" {
			restored = true
		}
		if s.Status == StepFailed {
			summary.Success = false
			if summary.FailedStep == "" {
				summary.FailedStep = s.Name
			}
		}
	}
	if critical, _, _ := verify.CountFailures(b.report.Checks); critical > 0 {
		summary.Success = false
		if summary.FailedStep == "" {
			summary.FailedStep = "verify"
		}
	}
	summary.StaleIndex = restored && summary.FailedStep == "reindex"
	b.report.Summary = summary
	return b.report
}

// WriteJSON writes the report to a JSON file in dir and returns the path.
func WriteJSON(report *Report, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	filename := fmt.Sprintf("%s_%s.json", report.Timestamp.Format("20060102_150405"), report.ID)
	path := filepath.Join(dir, filename)

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}

	return path, nil
}

// Load reads a report from a JSON file.
func Load(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report file: %w", err)
	}

	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return &report, nil
}

// ListSummary is a lightweight entry for listing reports.
type ListSummary struct {
	ID        string
	Timestamp time.Time
	Date      string
	Success   bool
	Path      string
}

// List returns all reports in dir, newest first. A missing directory
// means no reports yet, not an error.
func List(dir string) ([]*ListSummary, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read reports directory: %w", err)
	}

	var reports []*ListSummary
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		report, err := Load(path)
		if err != nil {
			continue // Skip invalid reports
		}

		reports = append(reports, &ListSummary{
			ID:        report.ID,
			Timestamp: report.Timestamp,
			Date:      report.Artifact.Date,
			Success:   report.Summary.Success,
			Path:      path,
		})
	}

	sort.Slice(reports, func(i, j int) bool {
		return reports[i].Timestamp.After(reports[j].Timestamp)
	})

	return reports, nil
}
