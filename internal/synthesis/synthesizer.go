// Package synthesis merges subtask executions into a single
// orchestration result.
package synthesis

import (
	"time"

	"github.com/ShayCichocki/stratum/pkg/models"
)

// maxRecommendations caps the merged recommendation list.
const maxRecommendations = 5

// Synthesize merges the execution list for a task into one result.
// The task completes if at least one subtask succeeded; confidence is
// the mean over successful executions, zero when none succeeded.
func Synthesize(task *models.BusinessTask, executions []*models.TaskExecution, duration time.Duration) *models.OrchestrationResult {
	result := &models.OrchestrationResult{
		TaskID:     task.ID,
		Status:     models.ResultFailed,
		Duration:   duration,
		Executions: executions,
	}

	var confidenceSum float64
	for _, exec := range executions {
		result.Summary.Total++
		switch exec.Status {
		case models.ExecutionCompleted:
			result.Summary.Succeeded++
			if exec.Result != nil {
				confidenceSum += exec.Result.Confidence
				result.Insights = appendUnique(result.Insights, exec.Result.Insights, 0)
				result.Recommendations = appendUnique(result.Recommendations, exec.Result.Recommendations, maxRecommendations)
			}
		case models.ExecutionFailed:
			result.Summary.Failed++
		}
	}

	if result.Summary.Succeeded > 0 {
		result.Status = models.ResultCompleted
		result.Confidence = confidenceSum / float64(result.Summary.Succeeded)
	}

	result.Impact = classifyImpact(task, result.Confidence)
	return result
}

// classifyImpact derives the coarse business-impact label from result
// confidence, task priority, and task complexity.
func classifyImpact(task *models.BusinessTask, confidence float64) models.ImpactLevel {
	switch {
	case confidence >= 0.8 && task.Priority == models.PriorityCritical:
		return models.ImpactHigh
	case confidence >= 0.8:
		if task.Complexity == models.ComplexityComplex || task.Complexity == models.ComplexityEnterprise {
			return models.ImpactSignificant
		}
		return models.ImpactPositive
	case confidence >= 0.6:
		return models.ImpactModerate
	default:
		return models.ImpactLimited
	}
}

// appendUnique appends items not already present, preserving first-seen
// order. A limit of zero means unlimited.
func appendUnique(dst []string, items []string, limit int) []string {
	for _, item := range items {
		if limit > 0 && len(dst) >= limit {
			break
		}
		seen := false
		for _, have := range dst {
			if have == item {
				seen = true
				break
			}
		}
		if !seen {
			dst = append(dst, item)
		}
	}
	return dst
}
