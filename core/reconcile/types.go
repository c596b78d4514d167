package reconcile

import (
	"rom-manager/core/catalog"
	"rom-manager/core/container"
	"rom-manager/core/hashing"
)

// Kind classifies how one container entry relates to the catalog.
type Kind int

const (
	// NoMatch means no rom of the system has the entry's identity.
	NoMatch Kind = iota
	// Matched means exactly one unfiled rom was selected.
	Matched
	// Ambiguous means several roms qualified and none was chosen.
	Ambiguous
	// AlreadyFiled means the identity belongs to a rom that already has a romfile.
	AlreadyFiled
)

func (k Kind) String() string {
	switch k {
	case Matched:
		return "matched"
	case Ambiguous:
		return "ambiguous"
	case AlreadyFiled:
		return "already_filed"
	default:
		return "no_match"
	}
}

// Resolution is the outcome of resolving one entry.
type Resolution struct {
	// Entry is the listing record that was resolved.
	Entry container.Entry
	// Sum is the identity used for the lookup.
	Sum hashing.Sum
	// Kind classifies the result.
	Kind Kind
	// Rom is set for Matched and AlreadyFiled.
	Rom *catalog.Rom
	// Candidates holds every rom considered when Kind is Ambiguous.
	Candidates []catalog.Rom
}

// Verdict is the result of verifying one romfile.
type Verdict string

const (
	VerdictValid   Verdict = "valid"
	VerdictInvalid Verdict = "invalid"
	VerdictMissing Verdict = "missing"
	// VerdictSkipped means the file could not be read because its
	// container tool is not installed.
	VerdictSkipped Verdict = "skipped"
)

// CheckResult is the verification outcome of one romfile.
type CheckResult struct {
	RomfileID int64   `yaml:"romfile_id"`
	Path      string  `yaml:"path"`
	Roms      int     `yaml:"roms"`
	Verdict   Verdict `yaml:"verdict"`
	Reason    string  `yaml:"reason,omitempty"`
}

// Move relocates an invalid romfile into quarantine.
type Move struct {
	RomfileID int64  `yaml:"romfile_id"`
	From      string `yaml:"from"`
	To        string `yaml:"to"`
	Reason    string `yaml:"reason"`
}

// CheckPlan contains verification results and the planned quarantine moves
// for one system.
type CheckPlan struct {
	SystemID   int64         `yaml:"system_id"`
	SystemName string        `yaml:"system"`
	Algorithm  string        `yaml:"algorithm"`
	Results    []CheckResult `yaml:"results"`
	Moves      []Move        `yaml:"moves"`
	Summary    CheckSummary  `yaml:"summary"`
}

// CheckSummary provides aggregate counts for a check plan.
type CheckSummary struct {
	Romfiles int `yaml:"romfiles"`
	Valid    int `yaml:"valid"`
	Invalid  int `yaml:"invalid"`
	Missing  int `yaml:"missing"`
	Skipped  int `yaml:"skipped"`
}

// CheckOptions controls whether a check plan is applied.
type CheckOptions struct {
	// DryRun prevents execution of any move if true.
	DryRun bool
	// Confirmed indicates the user approved the moves.
	// If false, nothing is moved regardless of DryRun.
	Confirmed bool
}

// Outcome is the terminal state of one import input.
type Outcome string

const (
	OutcomePlaced      Outcome = "placed"
	OutcomeQuarantined Outcome = "quarantined"
	OutcomeSkipped     Outcome = "skipped"
	OutcomeFailed      Outcome = "failed"
)

// Placement records a file written to its canonical location.
type Placement struct {
	Path string   `yaml:"path"`
	Roms []string `yaml:"roms"`
}

// ImportReport summarizes what happened to one input file.
type ImportReport struct {
	Input       string      `yaml:"input"`
	Outcome     Outcome     `yaml:"outcome"`
	Placements  []Placement `yaml:"placements,omitempty"`
	Quarantined string      `yaml:"quarantined,omitempty"`
	// Dropped lists unmatched entries of multi-entry containers.
	Dropped []string `yaml:"dropped,omitempty"`
	Reason  string   `yaml:"reason,omitempty"`
}
