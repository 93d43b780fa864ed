// Package catalog holds the read-only reference data the pipeline consults:
// the expert registry, per-document field templates and the generic strategy
// rules. Everything is loaded once at startup and never mutated, so the same
// instances are safe to share across documents processed concurrently.
package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sindlinger/operpdf-align-sub001/internal/pipeline"
	"github.com/sindlinger/operpdf-align-sub001/internal/textnorm"
)

// ExpertEntry is one row of the curated expert registry.
type ExpertEntry struct {
	Name          string `yaml:"name"`
	CPF           string `yaml:"cpf"`
	Especialidade string `yaml:"especialidade"`
}

// Experts is the expert lookup table, indexed by normalized name key and by
// CPF digits.
type Experts struct {
	entries []ExpertEntry
	byName  map[string]int
	byCPF   map[string]int
}

type expertsDoc struct {
	Experts []ExpertEntry `yaml:"experts"`
}

// LoadExperts reads the YAML expert registry. A missing file yields an empty
// catalog, not an error: lookups then report "not found".
func LoadExperts(path string) (*Experts, error) {
	e := &Experts{byName: map[string]int{}, byCPF: map[string]int{}}
	if path == "" {
		return e, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return e, nil
		}
		return nil, fmt.Errorf("read expert catalog: %w", err)
	}
	var doc expertsDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse expert catalog %s: %w", path, err)
	}
	for _, entry := range doc.Experts {
		e.add(entry)
	}
	return e, nil
}

// NewExperts builds an in-memory catalog, mainly for tests and fakes.
func NewExperts(entries ...ExpertEntry) *Experts {
	e := &Experts{byName: map[string]int{}, byCPF: map[string]int{}}
	for _, entry := range entries {
		e.add(entry)
	}
	return e
}

func (e *Experts) add(entry ExpertEntry) {
	e.entries = append(e.entries, entry)
	idx := len(e.entries) - 1
	if key := textnorm.NormalizeNameKey(entry.Name); key != "" {
		e.byName[key] = idx
	}
	if digits := textnorm.NormalizeCPF(entry.CPF); digits != "" {
		e.byCPF[digits] = idx
	}
}

// Len returns the number of catalog entries.
func (e *Experts) Len() int {
	return len(e.entries)
}

// LookupExpert finds an expert by name or CPF, name key first.
func (e *Experts) LookupExpert(name, cpf string) (pipeline.Expert, bool, error) {
	if key := textnorm.NormalizeNameKey(name); key != "" {
		if idx, ok := e.byName[key]; ok {
			return e.expertAt(idx), true, nil
		}
	}
	if digits := textnorm.NormalizeCPF(cpf); digits != "" {
		if idx, ok := e.byCPF[digits]; ok {
			return e.expertAt(idx), true, nil
		}
	}
	return pipeline.Expert{}, false, nil
}

func (e *Experts) expertAt(idx int) pipeline.Expert {
	entry := e.entries[idx]
	return pipeline.Expert{
		Name:          entry.Name,
		CPF:           entry.CPF,
		Especialidade: entry.Especialidade,
	}
}
