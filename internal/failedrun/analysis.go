package failedrun

import (
	"encoding/json"

	"github.com/temirov/ghtools/internal/githubcli"
)

const (
	currentRepositoryLabelConstant = "current"
	noFailedRunsMessageConstant    = "No failed runs found"
	successConclusionConstant      = "success"
	skippedConclusionConstant      = "skipped"
)

// RunSummary describes the analyzed run.
type RunSummary struct {
	Number     int64  `json:"number"`
	DatabaseID int64  `json:"database_id"`
	URL        string `json:"url"`
	Workflow   string `json:"workflow"`
	Conclusion string `json:"conclusion"`
	Status     string `json:"status"`
	CreatedAt  string `json:"created_at"`
	Branch     string `json:"branch"`
	Commit     string `json:"commit"`
	Event      string `json:"event"`
}

// JobSummary describes one failed job and the error lines found in its log.
type JobSummary struct {
	Name          string   `json:"name"`
	Conclusion    string   `json:"conclusion"`
	Status        string   `json:"status"`
	StartedAt     string   `json:"started_at"`
	CompletedAt   string   `json:"completed_at"`
	ErrorExcerpts []string `json:"error_excerpts"`
}

// Analysis is the outcome of inspecting a repository. Found is false when the
// repository has no failed runs.
type Analysis struct {
	Found      bool
	Run        RunSummary
	FailedJobs []JobSummary
	Repository string
}

type foundDocument struct {
	Run        RunSummary   `json:"run"`
	FailedJobs []JobSummary `json:"failed_jobs"`
	Repository string       `json:"repository"`
}

type notFoundDocument struct {
	Error      string `json:"error"`
	Repository string `json:"repository"`
}

// MarshalJSON renders the run report, or an error object when no failed run exists.
func (analysis Analysis) MarshalJSON() ([]byte, error) {
	repository := analysis.Repository
	if len(repository) == 0 {
		repository = currentRepositoryLabelConstant
	}
	if !analysis.Found {
		return json.Marshal(notFoundDocument{Error: noFailedRunsMessageConstant, Repository: repository})
	}

	failedJobs := analysis.FailedJobs
	if failedJobs == nil {
		failedJobs = []JobSummary{}
	}
	return json.Marshal(foundDocument{Run: analysis.Run, FailedJobs: failedJobs, Repository: repository})
}

// SummarizeRun converts a gh run listing into the reported shape.
func SummarizeRun(run githubcli.WorkflowRun) RunSummary {
	return RunSummary{
		Number:     run.Number,
		DatabaseID: run.DatabaseID,
		URL:        run.URL,
		Workflow:   run.DisplayTitle,
		Conclusion: run.Conclusion,
		Status:     run.Status,
		CreatedAt:  run.CreatedAt,
		Branch:     run.HeadBranch,
		Commit:     run.HeadSHA,
		Event:      run.Event,
	}
}

// SelectFailedJobs keeps jobs that finished with a conclusion other than
// success or skipped.
func SelectFailedJobs(jobs []githubcli.WorkflowJob) []githubcli.WorkflowJob {
	failed := make([]githubcli.WorkflowJob, 0, len(jobs))
	for _, job := range jobs {
		if job.Conclusion == nil {
			continue
		}
		switch *job.Conclusion {
		case successConclusionConstant, skippedConclusionConstant:
			continue
		}
		failed = append(failed, job)
	}
	return failed
}
