package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/scout-cli/api/schemas"
	"github.com/xkilldash9x/scout-cli/internal/llmutil"
)

func TestPlanner_GeneratePlan(t *testing.T) {
	client := new(MockLLMClient)
	client.On("Generate", mock.Anything, mock.MatchedBy(func(req schemas.GenerationRequest) bool {
		return req.Tier == schemas.TierPowerful &&
			req.Options.ForceJSONFormat &&
			req.Options.Temperature == oracleTemperature &&
			req.SystemPrompt == plannerSystemPrompt
	})).Return("Sure! Here is the plan:\n```json\n"+testPlanJSON+"\n```", nil).Once()

	plan, err := NewPlanner(client, testCatalog, zaptest.NewLogger(t)).GeneratePlan(context.Background(), "find X")
	require.NoError(t, err)

	assert.Equal(t, Plan{
		Objective:       "find X",
		Steps:           []string{"search X", "open result"},
		SuccessCriteria: []string{"page about X open"},
	}, plan)
	client.AssertExpectations(t)
}

func TestPlanner_AcceptsEmptyLists(t *testing.T) {
	client := new(MockLLMClient)
	client.On("Generate", mock.Anything, mock.Anything).
		Return(`{"objective":"find X","plan":["search X", "  "],"success_criteria":[]}`, nil).Once()

	plan, err := NewPlanner(client, testCatalog, zaptest.NewLogger(t)).GeneratePlan(context.Background(), "find X")
	require.NoError(t, err)

	assert.Equal(t, []string{"search X"}, plan.Steps)
	assert.Empty(t, plan.SuccessCriteria)
}

func TestPlanner_PromptAdvertisesCatalog(t *testing.T) {
	var prompt string
	client := new(MockLLMClient)
	client.On("Generate", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		prompt = args.Get(1).(schemas.GenerationRequest).UserPrompt
	}).Return(testPlanJSON, nil)

	_, err := NewPlanner(client, testCatalog, zaptest.NewLogger(t)).GeneratePlan(context.Background(), "who won the 1998 world cup")
	require.NoError(t, err)

	assert.Contains(t, prompt, `"who won the 1998 world cup"`)
	assert.Contains(t, prompt, "- search_on_google(query: string): Search for a query.")
	assert.Contains(t, prompt, `"success_criteria"`)
}

func TestPlanner_Failures(t *testing.T) {
	testCases := []struct {
		name      string
		response  string
		oracleErr error
		malformed bool
		contains  string
	}{
		{name: "oracle error", oracleErr: errors.New("503"), contains: "oracle call failed: 503"},
		{name: "no json", response: "I cannot help with that.", malformed: true},
		{name: "missing objective", response: `{"plan":["a"],"success_criteria":["b"]}`, contains: "'objective' is missing"},
		{name: "blank objective", response: `{"objective":"  ","plan":["a"],"success_criteria":["b"]}`, contains: "'objective' is empty"},
		{name: "plan not a list", response: `{"objective":"o","plan":"a","success_criteria":["b"]}`, contains: "'plan' must be a list"},
		{name: "plan with non-string", response: `{"objective":"o","plan":["a", 3],"success_criteria":["b"]}`, contains: "'plan[1]' must be a string"},
		{name: "missing criteria", response: `{"objective":"o","plan":["a"]}`, contains: "'success_criteria' is missing"},
		{name: "criteria not a list", response: `{"objective":"o","plan":["a"],"success_criteria":{}}`, contains: "'success_criteria' must be a list"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			client := new(MockLLMClient)
			client.On("Generate", mock.Anything, mock.Anything).Return(tc.response, tc.oracleErr).Once()

			_, err := NewPlanner(client, testCatalog, zaptest.NewLogger(t)).GeneratePlan(context.Background(), "find X")

			var planErr *PlanGenerationError
			require.ErrorAs(t, err, &planErr)
			if tc.malformed {
				assert.ErrorIs(t, err, llmutil.ErrMalformedOracleOutput)
			}
			if tc.contains != "" {
				assert.ErrorContains(t, err, tc.contains)
			}
			client.AssertNumberOfCalls(t, "Generate", 1)
		})
	}
}
