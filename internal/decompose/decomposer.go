// Package decompose turns a business task into a dependency graph of
// single-capability subtasks based on task complexity.
package decompose

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ShayCichocki/stratum/internal/graph"
	"github.com/ShayCichocki/stratum/pkg/models"
)

// CapabilitySynthesis is the capability required by generated synthesis
// subtasks.
const CapabilitySynthesis models.Capability = "synthesis"

// CapabilityResearch is the capability required by generated research
// subtasks.
const CapabilityResearch models.Capability = "research"

// Estimated durations in minutes per generated stage.
const (
	simpleMinutes     = 30
	analysisMinutes   = 45
	synthesisMinutes  = 20
	researchMinutes   = 30
	domainMinutes     = 40
	chainSynthMinutes = 25
)

// Decomposer breaks business tasks into subtask graphs.
type Decomposer struct {
	// enricher supplies context snapshots for each subtask.
	enricher Enricher
	// defaultCapability is used when a task declares no required
	// capabilities. Empty means no fallback exists.
	defaultCapability models.Capability
}

// New creates a Decomposer. A nil enricher disables enrichment.
func New(enricher Enricher, defaultCapability models.Capability) *Decomposer {
	if enricher == nil {
		enricher = NoopEnricher{}
	}
	return &Decomposer{
		enricher:          enricher,
		defaultCapability: defaultCapability,
	}
}

// Decompose turns a task into an ordered subtask list forming a DAG.
// Simple tasks yield one subtask, moderate tasks an analysis subtask
// followed by a dependent synthesis subtask, and complex or enterprise
// tasks a four-stage linear chain. The resulting graph is validated for
// cycles before it is returned.
func (d *Decomposer) Decompose(ctx context.Context, task *models.BusinessTask) ([]*models.Subtask, error) {
	primary, err := d.primaryCapability(task)
	if err != nil {
		return nil, err
	}

	var subtasks []*models.Subtask
	switch task.Complexity {
	case models.ComplexitySimple:
		subtasks = d.decomposeSimple(task, primary)
	case models.ComplexityModerate:
		subtasks = d.decomposeModerate(task, primary)
	case models.ComplexityComplex, models.ComplexityEnterprise:
		subtasks = d.decomposeChain(task, primary)
	default:
		return nil, &DecompositionError{
			TaskID: task.ID,
			Reason: fmt.Sprintf("unknown complexity %q", task.Complexity),
		}
	}

	d.enrichAll(ctx, task, subtasks)

	// Generated chains are acyclic by construction, but the check stays
	// so future branching policies cannot ship a cyclic graph.
	if err := graph.New().Build(subtasks); err != nil {
		return nil, &DecompositionError{
			TaskID: task.ID,
			Reason: "invalid subtask graph",
			Err:    err,
		}
	}

	return subtasks, nil
}

// primaryCapability resolves the capability for the task's main
// analysis stage: the first required capability, falling back to the
// configured default.
func (d *Decomposer) primaryCapability(task *models.BusinessTask) (models.Capability, error) {
	if len(task.RequiredCapabilities) > 0 {
		return task.RequiredCapabilities[0], nil
	}
	if d.defaultCapability != "" {
		return d.defaultCapability, nil
	}
	return "", &DecompositionError{
		TaskID: task.ID,
		Reason: "no capability mapping for task and no default capability configured",
	}
}

func (d *Decomposer) decomposeSimple(task *models.BusinessTask, primary models.Capability) []*models.Subtask {
	return []*models.Subtask{
		d.newSubtask(task, fmt.Sprintf("%s analysis", primary), primary, simpleMinutes),
	}
}

func (d *Decomposer) decomposeModerate(task *models.BusinessTask, primary models.Capability) []*models.Subtask {
	analysis := d.newSubtask(task, fmt.Sprintf("%s analysis", primary), primary, analysisMinutes)
	synthesis := d.newSubtask(task, "result synthesis", CapabilitySynthesis, synthesisMinutes)
	synthesis.DependsOn = []string{analysis.ID}
	return []*models.Subtask{analysis, synthesis}
}

// decomposeChain builds the fixed research -> analysis -> domain
// intelligence -> synthesis chain, each stage depending on the previous.
// A strict linear chain for now; branching pipelines are a future
// extension point.
func (d *Decomposer) decomposeChain(task *models.BusinessTask, primary models.Capability) []*models.Subtask {
	research := d.newSubtask(task, "background research", CapabilityResearch, researchMinutes)
	analysis := d.newSubtask(task, fmt.Sprintf("%s analysis", primary), primary, analysisMinutes)
	domain := d.newSubtask(task, "domain intelligence", domainCapability(task.Domain), domainMinutes)
	synthesis := d.newSubtask(task, "result synthesis", CapabilitySynthesis, chainSynthMinutes)

	analysis.DependsOn = []string{research.ID}
	domain.DependsOn = []string{analysis.ID}
	synthesis.DependsOn = []string{domain.ID}

	return []*models.Subtask{research, analysis, domain, synthesis}
}

// domainCapability returns the capability for the domain-intelligence
// stage, e.g. "sales-intelligence" for the "sales" domain.
func domainCapability(domain string) models.Capability {
	if domain == "" {
		return models.Capability("domain-intelligence")
	}
	return models.Capability(domain + "-intelligence")
}

func (d *Decomposer) newSubtask(task *models.BusinessTask, title string, c models.Capability, minutes int) *models.Subtask {
	return &models.Subtask{
		ID:               uuid.New().String(),
		ParentID:         task.ID,
		Title:            title,
		Capability:       c,
		Priority:         task.Priority,
		EstimatedMinutes: minutes,
	}
}

// enrichAll attaches enrichment context to each subtask. A failing or
// missing enrichment collaborator degrades to an empty context.
func (d *Decomposer) enrichAll(ctx context.Context, task *models.BusinessTask, subtasks []*models.Subtask) {
	for _, st := range subtasks {
		query := fmt.Sprintf("%s: %s", task.Title, st.Title)
		enrichment, err := d.enricher.Enrich(ctx, query, task.Domain)
		if err != nil {
			// Degraded result: empty context, decomposition continues.
			continue
		}
		st.Enrichment = enrichment
	}
}
