package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Validate checks the invariants spec §3 places on a WorkflowDefinition
// before it may be persisted (spec §7: "the pipeline never partially writes
// a WorkflowDefinition: either a complete definition is produced... or an
// error is raised before any persistence").
//
// sensitiveValues, when supplied, are the actual credential-bearing header/
// cookie/token substrings captured from the source session(s); Validate
// confirms none of them occurs anywhere in the serialized definition (spec
// §3 invariant 7, §8 "Property — redaction"). Callers that have no such
// values to check (e.g. a definition built without any captured headers)
// may omit the argument.
func (w *WorkflowDefinition) Validate(sensitiveValues ...string) error {
	if err := w.validateStepOrder(); err != nil {
		return err
	}
	if err := w.validateInputMappingOrdering(); err != nil {
		return err
	}
	if err := w.validateParameterCoverage(); err != nil {
		return err
	}
	if err := w.validateAcyclicChains(); err != nil {
		return err
	}
	if err := w.validateExecutionOrderPermutation(); err != nil {
		return err
	}
	if err := w.validateInputMappingSourcePaths(); err != nil {
		return err
	}
	if err := w.validateNoCredentialLeak(sensitiveValues); err != nil {
		return err
	}
	return nil
}

// validateStepOrder enforces a dense, 0-based step.order with no gaps
// (spec §8 "Property — ordering": steps[i].order == i).
func (w *WorkflowDefinition) validateStepOrder() error {
	for i, step := range w.Steps {
		if step.Order != i {
			return fmt.Errorf("step order invariant violated: step at index %d has order %d", i, step.Order)
		}
	}
	return nil
}

// validateInputMappingOrdering enforces StepInputMapping.sourceStep < step
// (spec §8 "Property — chain acyclicity").
func (w *WorkflowDefinition) validateInputMappingOrdering() error {
	for _, step := range w.Steps {
		for _, mapping := range step.InputMappings {
			if mapping.SourceStep >= step.Order {
				return fmt.Errorf("input mapping invariant violated: step %d has mapping from sourceStep %d", step.Order, mapping.SourceStep)
			}
		}
	}
	return nil
}

// validateParameterCoverage enforces that every ParameterDef.usedIn entry
// references an existing step order (spec §8 "Property — parameter
// coverage").
func (w *WorkflowDefinition) validateParameterCoverage() error {
	maxOrder := len(w.Steps) - 1
	for _, param := range w.Parameters {
		for _, usage := range param.UsedIn {
			if usage.Step < 0 || usage.Step > maxOrder {
				return fmt.Errorf("parameter coverage invariant violated: parameter %q references nonexistent step %d", param.Name, usage.Step)
			}
		}
	}
	return nil
}

// validateAcyclicChains enforces fromStep < toStep on every dependsOn edge
// (spec §4.4 "Output invariants": for every chain, fromStep < toStep).
func (w *WorkflowDefinition) validateAcyclicChains() error {
	for _, step := range w.Steps {
		for _, dep := range step.DependsOn {
			if dep >= step.Order {
				return fmt.Errorf("chain acyclicity invariant violated: step %d depends on step %d", step.Order, dep)
			}
		}
	}
	return nil
}

// validateExecutionOrderPermutation enforces that executionOrder is a
// permutation of {0..N-1} (spec §4.4 "Output invariants").
func (w *WorkflowDefinition) validateExecutionOrderPermutation() error {
	n := len(w.Steps)
	if len(w.ExecutionOrder) != n {
		return fmt.Errorf("execution order invariant violated: expected %d entries, got %d", n, len(w.ExecutionOrder))
	}
	seen := make([]bool, n)
	for _, order := range w.ExecutionOrder {
		if order < 0 || order >= n || seen[order] {
			return fmt.Errorf("execution order invariant violated: not a permutation of {0..%d}", n-1)
		}
		seen[order] = true
	}
	return nil
}

// validateInputMappingSourcePaths enforces that every StepInputMapping's
// sourceJsonPath is plausibly present in its sourceStep's extractFields
// (spec §3 invariant 5). A sourceStep recorded with no extractFields at all
// can't be checked and is treated as plausible rather than rejected. Paths
// compare with any leading "$." stripped, so "$.id" matches the field "id".
func (w *WorkflowDefinition) validateInputMappingSourcePaths() error {
	for _, step := range w.Steps {
		for _, mapping := range step.InputMappings {
			if mapping.SourceStep < 0 || mapping.SourceStep >= len(w.Steps) {
				continue
			}
			source := w.Steps[mapping.SourceStep]
			if len(source.ExtractFields) == 0 {
				continue
			}
			mappingPath := strings.TrimPrefix(mapping.SourceJSONPath, "$.")
			plausible := false
			for _, field := range source.ExtractFields {
				fieldPath := strings.TrimPrefix(field.Path, "$.")
				if fieldPath == mappingPath || strings.HasPrefix(mappingPath, fieldPath+".") {
					plausible = true
					break
				}
			}
			if !plausible {
				return fmt.Errorf("input mapping source path invariant violated: step %d maps from step %d's %q, which is not among its extracted fields",
					step.Order, mapping.SourceStep, mapping.SourceJSONPath)
			}
		}
	}
	return nil
}

// validateNoCredentialLeak enforces that none of the actual credential
// values captured from the source session(s) — Authorization/Cookie/token
// values the masking pass was supposed to strip — survives into the
// serialized definition (spec §3 invariant 7, §8 "Property — redaction").
// Values shorter than 6 bytes are skipped: they are too common as ordinary
// substrings (ids, short params) to serve as reliable leak signals.
func (w *WorkflowDefinition) validateNoCredentialLeak(sensitiveValues []string) error {
	var toCheck []string
	for _, v := range sensitiveValues {
		if len(v) >= 6 {
			toCheck = append(toCheck, v)
		}
	}
	if len(toCheck) == 0 {
		return nil
	}

	raw, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("serializing workflow definition: %w", err)
	}
	serialized := string(raw)
	for _, value := range toCheck {
		if strings.Contains(serialized, value) {
			return fmt.Errorf("credential leak invariant violated: serialized definition contains a captured sensitive value")
		}
	}
	return nil
}
