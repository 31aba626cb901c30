package output

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/MyCarrier-DevOps/verhdr/internal/domain"
)

// Report is the YAML document printed by `verhdr describe`.
type Report struct {
	Branch     string       `yaml:"branch"`
	Commit     string       `yaml:"commit"`
	CommitTime time.Time    `yaml:"commit_time"`
	Version    string       `yaml:"version"`
	Dirty      bool         `yaml:"dirty"`
	Files      []FileReport `yaml:"files"`
	Repository string       `yaml:"repository"`
	Tag        string       `yaml:"tag,omitempty"`
}

// FileReport is one working tree status entry of a Report.
type FileReport struct {
	Path string `yaml:"path"`
	Code string `yaml:"code"`
}

// NewReport converts a descriptor to its report form.
func NewReport(desc *domain.VersionDescriptor) *Report {
	files := make([]FileReport, 0, len(desc.Files))
	for _, f := range desc.Files {
		files = append(files, FileReport{Path: f.Path(), Code: f.Code()})
	}

	return &Report{
		Branch:     desc.Branch,
		Commit:     desc.Commit,
		CommitTime: desc.Time,
		Version:    desc.Version,
		Dirty:      desc.Dirty,
		Files:      files,
		Repository: desc.Repository,
		Tag:        desc.Tag.OrElse(""),
	}
}

// YAMLRenderer renders descriptors as YAML reports.
type YAMLRenderer struct{}

// NewYAMLRenderer creates a new YAMLRenderer.
func NewYAMLRenderer() *YAMLRenderer {
	return &YAMLRenderer{}
}

// Render returns the YAML document for desc.
func (r *YAMLRenderer) Render(desc *domain.VersionDescriptor) ([]byte, error) {
	data, err := yaml.Marshal(NewReport(desc))
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return data, nil
}
