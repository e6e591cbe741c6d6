package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDefinition() *WorkflowDefinition {
	return &WorkflowDefinition{
		ID:          "wf-1",
		Description: "fetch an order by id",
		Steps: []WorkflowStep{
			{Order: 0, Method: "GET", BaseURL: "https://example.com", PathTemplate: "/api/orders"},
			{Order: 1, Method: "POST", BaseURL: "https://example.com", PathTemplate: "/api/orders",
				DependsOn: []int{0},
				InputMappings: []StepInputMapping{
					{SourceStep: 0, SourceJSONPath: "$.id", TargetLocation: LocationBody, TargetKey: "customer_id"},
				},
			},
		},
		Parameters: []ParameterDef{
			{Name: "orderId", Type: ParamTypeString, UsedIn: []ParamUsage{{Step: 0, Location: LocationQuery, Key: "q"}}},
		},
		ExecutionOrder: []int{0, 1},
		Confidence:     ConfidenceLow,
	}
}

func TestValidateAcceptsWellFormedDefinition(t *testing.T) {
	require.NoError(t, validDefinition().Validate())
}

func TestValidateRejectsStepOrderGap(t *testing.T) {
	def := validDefinition()
	def.Steps[1].Order = 5

	err := def.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step order")
}

func TestValidateRejectsForwardInputMapping(t *testing.T) {
	def := validDefinition()
	def.Steps[1].InputMappings[0].SourceStep = 1

	err := def.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input mapping")
}

func TestValidateRejectsParameterReferencingMissingStep(t *testing.T) {
	def := validDefinition()
	def.Parameters[0].UsedIn[0].Step = 99

	err := def.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parameter coverage")
}

func TestValidateRejectsCyclicDependency(t *testing.T) {
	def := validDefinition()
	def.Steps[1].DependsOn = []int{1}

	err := def.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chain acyclicity")
}

func TestValidateRejectsNonPermutationExecutionOrder(t *testing.T) {
	def := validDefinition()
	def.ExecutionOrder = []int{0, 0}

	err := def.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "execution order")
}

func TestValidateRejectsCredentialValueLeak(t *testing.T) {
	def := validDefinition()
	def.Auth = AuthPattern{
		Scheme: AuthSchemeBearer,
		Fields: []AuthCredentialField{{Name: "Authorization", Location: AuthLocationHeader}},
	}
	def.Returns.Description = "the session token abcd1234efgh leaked into a free-text field"

	err := def.Validate("abcd1234efgh")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "credential leak")
}

func TestValidateIgnoresShortSensitiveValues(t *testing.T) {
	def := validDefinition()
	def.Returns.Description = "order id"

	require.NoError(t, def.Validate("id"))
}

// TestValidateNoFalsePositiveOnUnrelatedDOMActionValue guards against the
// credential-leak check tripping on an ordinary recorded input value that
// merely coexists with a detected auth scheme — the two are unrelated.
func TestValidateNoFalsePositiveOnUnrelatedDOMActionValue(t *testing.T) {
	def := validDefinition()
	def.Auth = AuthPattern{
		Scheme: AuthSchemeBearer,
		Fields: []AuthCredentialField{{Name: "Authorization", Location: AuthLocationHeader}},
	}
	def.Steps[0].DOMAction = &DOMAction{Kind: DOMEventInput, Selector: "#quantity", Value: "42"}

	require.NoError(t, def.Validate("the-actual-bearer-token-value"))
}

func TestValidateRejectsInputMappingSourcePathNotExtracted(t *testing.T) {
	def := validDefinition()
	def.Steps[0].ExtractFields = []FieldExtraction{{Path: "$.id"}}
	def.Steps[1].InputMappings[0].SourceJSONPath = "$.unrelated_field"

	err := def.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input mapping source path")
}

func TestValidateAcceptsInputMappingSourcePathWhenExtractFieldsUnknown(t *testing.T) {
	def := validDefinition()
	// Steps[0].ExtractFields left empty: nothing recorded to check against,
	// so the mapping is treated as plausible rather than rejected.
	require.NoError(t, def.Validate())
}

func TestValidateAcceptsNestedInputMappingSourcePath(t *testing.T) {
	def := validDefinition()
	def.Steps[0].ExtractFields = []FieldExtraction{{Path: "$.customer"}}
	def.Steps[1].InputMappings[0].SourceJSONPath = "$.customer.id"

	require.NoError(t, def.Validate())
}
