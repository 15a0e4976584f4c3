package domain

import (
	"strings"
	"time"
)

// Status substrings the portal puts in a demand's situacao.
const (
	SituacaoExtended     = "Prorrogada"
	SituacaoSupplemented = "Complementada"
)

// Demand is one tracked request scraped from the portal. Numero is the key;
// re-scraping the same numero overwrites the record.
type Demand struct {
	Numero             string
	Prazo              string
	DataCadastro       string
	Situacao           string
	Responsaveis       []string
	PossivelRespondida bool
	PossivelObservacao bool
	Href               string

	// Day-granularity timestamps derived from Prazo and DataCadastro on write.
	PrazoTimestamp    *int64
	CadastroTimestamp *int64

	UpdatedAt time.Time
}

// IsExtended reports whether the status marks the demand as extended.
func (d *Demand) IsExtended() bool {
	return strings.Contains(d.Situacao, SituacaoExtended)
}

// IsSupplemented reports whether the status marks the demand as supplemented.
func (d *Demand) IsSupplemented() bool {
	return strings.Contains(d.Situacao, SituacaoSupplemented)
}

// AssignedTo matches user against the assignees, ignoring case and
// surrounding whitespace.
func (d *Demand) AssignedTo(user string) bool {
	want := strings.ToLower(strings.TrimSpace(user))
	if want == "" {
		return false
	}
	for _, r := range d.Responsaveis {
		if strings.ToLower(strings.TrimSpace(r)) == want {
			return true
		}
	}
	return false
}

// CompletionMark records that the user marked a demand done.
type CompletionMark struct {
	Numero    string
	Timestamp time.Time
}

// MigrationMetadata is the single record written after the legacy store has
// been imported.
type MigrationMetadata struct {
	RunID             string    `json:"runId"`
	Timestamp         time.Time `json:"timestamp"`
	Version           string    `json:"version"`
	DemandsMigrated   int       `json:"demandasMigrated"`
	CompletedMigrated int       `json:"concluidasMigrated"`
}

// DemandFilter narrows List results. Zero fields do not filter.
type DemandFilter struct {
	PrazoFrom          *int64
	PrazoTo            *int64
	CadastroFrom       *int64
	CadastroTo         *int64
	SituacaoContains   string
	Assignee           string
	PossivelRespondida *bool
	PossivelObservacao *bool
	Limit              int
}
