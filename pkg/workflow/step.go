// Package workflow implements the four workflow patterns (spec.md
// section 4.4): Sequential, Parallel, Conditional, and Loop, sharing one
// StepExecutor and the deterministic state-key templates that hand a
// step's output off to the next.
//
// The pattern shapes are grounded in the teacher's
// pkg/agent/workflowagent (sequential.go implements Sequential as a Loop
// with MaxIterations=1; parallel.go fans sub-agents out over
// golang.org/x/sync/errgroup with a results channel; loop.go drives
// iteration with an escalate-to-break signal). Orin keeps that
// structure but replaces the teacher's iter.Seq2 event-streaming body
// with the state-key-driven execute_impl contract spec.md requires, and
// adds Conditional, which the teacher does not have.
package workflow

import (
	"fmt"
	"time"
)

// StepType discriminates what a Step resolves to in the registry.
type StepType int

const (
	StepTool StepType = iota
	StepAgent
	StepWorkflow
)

// Step is one named unit of work in a workflow.
type Step struct {
	Name          string
	Type          StepType
	ComponentName string
	Required      bool // Parallel: false marks an optional branch
	Retry         RetryConfig
}

// BackoffStrategy controls the delay between retry attempts.
type BackoffStrategy int

const (
	BackoffFixed BackoffStrategy = iota
	BackoffExponential
)

// RetryConfig bounds how many times a failed step is retried and how
// the delay between attempts grows.
type RetryConfig struct {
	MaxAttempts int
	Backoff     BackoffStrategy
	Delay       time.Duration
}

func (r RetryConfig) delayFor(attempt int) time.Duration {
	if r.Backoff == BackoffExponential {
		return r.Delay * time.Duration(1<<uint(attempt))
	}
	return r.Delay
}

// ErrorStrategyKind names how a Sequential (or per-step) failure is
// handled.
type ErrorStrategyKind int

const (
	ErrorFail ErrorStrategyKind = iota
	ErrorContinue
	ErrorRetry
)

// ErrorStrategy is the tagged error-handling policy spec.md section
// 4.4.1 names: Fail, Continue, or Retry{n, backoff}.
type ErrorStrategy struct {
	Kind  ErrorStrategyKind
	Retry RetryConfig
}

// State key templates (spec.md section 4.4, "deterministic templates").
// These are the single place every workflow pattern builds a state key,
// so the exact string format never drifts between Sequential, Parallel,
// Conditional, and Loop.

func StepOutputKey(workflowID, step string) string {
	return fmt.Sprintf("workflow:%s:step:%s:output", workflowID, step)
}

func StepMetadataKey(workflowID, step string) string {
	return fmt.Sprintf("workflow:%s:step:%s:metadata", workflowID, step)
}

func AgentOutputKey(workflowID, agent string) string {
	return fmt.Sprintf("workflow:%s:agent:%s:output", workflowID, agent)
}

func AgentMetadataKey(workflowID, agent string) string {
	return fmt.Sprintf("workflow:%s:agent:%s:metadata", workflowID, agent)
}

func NestedOutputKey(workflowID, child string) string {
	return fmt.Sprintf("workflow:%s:nested:%s:output", workflowID, child)
}

func NestedMetadataKey(workflowID, child string) string {
	return fmt.Sprintf("workflow:%s:nested:%s:metadata", workflowID, child)
}

func FinalKey(workflowID string) string { return fmt.Sprintf("workflow:%s:final", workflowID) }
func StateKey(workflowID string) string { return fmt.Sprintf("workflow:%s:state", workflowID) }
func ErrorKey(workflowID string) string { return fmt.Sprintf("workflow:%s:error", workflowID) }

// SharedDataKey is the workflow-private shared-data key SharedDataEquals
// and SharedDataExists check first, before falling back to
// GlobalSharedDataKey (spec.md's documented workflow-private-shadows-
// global precedence).
func SharedDataKey(workflowID, key string) string {
	return fmt.Sprintf("workflow:%s:shared:%s", workflowID, key)
}

// GlobalSharedDataKey is the process-wide shared-data key consulted when
// no workflow-scoped value exists for key.
func GlobalSharedDataKey(key string) string {
	return fmt.Sprintf("shared:%s", key)
}

// SetSharedData seeds shared data for a running workflow, writing it
// under the workflow-scoped key SharedDataEquals/SharedDataExists look
// up first.
func SetSharedData(state StateWriter, workflowID, key string, value any) error {
	return state.Write(SharedDataKey(workflowID, key), value)
}

// StateWriter is the narrow write capability SetSharedData needs,
// satisfied by component.StateAccess.
type StateWriter interface {
	Write(key string, value any) error
}

func IterationStepKey(workflowID string, iteration int, step string) string {
	return fmt.Sprintf("workflow:%s:iteration_%d:%s", workflowID, iteration, step)
}

func IterationAggregatedKey(workflowID string, iteration int) string {
	return fmt.Sprintf("workflow:%s:iteration_%d:aggregated", workflowID, iteration)
}
