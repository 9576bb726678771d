package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/piwi3910/SlabNest/internal/model"
)

// WriteSolutionJSON writes sol as indented JSON.
func WriteSolutionJSON(w io.Writer, sol *model.Solution) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(sol)
}

// SaveSolution writes sol to path as JSON.
func SaveSolution(path string, sol *model.Solution) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := WriteSolutionJSON(f, sol); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// LoadSolution reads a solution written by SaveSolution.
func LoadSolution(path string) (*model.Solution, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var sol model.Solution
	if err := json.Unmarshal(data, &sol); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &sol, nil
}
