package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/piwi3910/StickerImposer/internal/model"
)

// JobFileVersion is written into every job file.
const JobFileVersion = "1.0.0"

// JobFile is the saved record of one imposition run: the execution spec it came from,
// the resulting layout and the warnings raised while planning it.
type JobFile struct {
	Version   string              `json:"version"`
	CreatedAt string              `json:"created_at"`
	Spec      model.ExecutionSpec `json:"spec"`
	Job       model.Job           `json:"job"`
	Warnings  []model.Warning     `json:"warnings"`
	Outputs   []string            `json:"outputs,omitempty"`
}

// SaveJobFile writes a job record to path as indented JSON.
func SaveJobFile(path string, spec model.ExecutionSpec, job model.Job, warnings []model.Warning, outputs []string) error {
	record := JobFile{
		Version:   JobFileVersion,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Spec:      spec,
		Job:       job,
		Warnings:  warnings,
		Outputs:   outputs,
	}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal job file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create job directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write job file: %w", err)
	}
	return nil
}

// LoadJobFile reads a job record written by SaveJobFile.
func LoadJobFile(path string) (JobFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return JobFile{}, fmt.Errorf("failed to read job file: %w", err)
	}
	var record JobFile
	if err := json.Unmarshal(data, &record); err != nil {
		return JobFile{}, fmt.Errorf("failed to parse job file: %w", err)
	}
	if record.Version == "" {
		return JobFile{}, fmt.Errorf("invalid job file: missing version field")
	}
	if record.Warnings == nil {
		record.Warnings = []model.Warning{}
	}
	return record, nil
}
