package output

import (
	"github.com/sonemaro/dtaprep/pkg/logger"
	"gopkg.in/yaml.v3"
)

func (f *formatter) formatYAML(report *Report) (string, error) {
	f.log.Debug("Formatting YAML output")

	// same document as the JSON report
	bytes, err := yaml.Marshal(f.toDocument(report))
	if err != nil {
		f.log.WithFields(logger.Fields{
			"error": err,
		}).Error("Failed to marshal YAML")
		return "", err
	}

	return string(bytes), nil
}
