package report

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/xiaoquanidea/fast-clean-x/internal/domain"
)

func (g *Generator) writeJSON(w io.Writer, result *domain.ScanResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func (g *Generator) writeYAML(w io.Writer, result *domain.ScanResult) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(result); err != nil {
		return err
	}
	return encoder.Close()
}
