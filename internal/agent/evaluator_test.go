package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/scout-cli/api/schemas"
	"github.com/xkilldash9x/scout-cli/internal/llmutil"
)

func executingSnapshot() TaskState {
	s := newTaskState("task-1", "find X please", 5)
	_ = s.applyPlan(Plan{Objective: "find X", Steps: []string{"search X"}, SuccessCriteria: []string{"X found"}})
	s.beginIteration()
	s.recordStep(NextAction{ActionName: "search_on_google", Arguments: map[string]any{"query": "X"}}, okResult("searched"))
	s.recordError("Failed to get page content: boom")
	s.beginIteration()
	return s.Snapshot()
}

func TestEvaluator_Evaluate(t *testing.T) {
	testCases := []struct {
		name     string
		response string
		want     Evaluation
	}{
		{
			name:     "next action",
			response: `{"objective_achieved":false,"should_continue":true,"next_action":{"function_name":"get_page_content","arguments":{"extract_text":true},"reasoning":"read it"},"status_update":"searching"}`,
			want: Evaluation{
				ShouldContinue: true,
				NextAction:     &NextAction{ActionName: "get_page_content", Arguments: map[string]any{"extract_text": true}, Reasoning: "read it"},
				StatusNote:     "searching",
			},
		},
		{
			name:     "action_name alias and missing arguments",
			response: `{"objective_achieved":false,"should_continue":true,"next_action":{"action_name":"search_on_google"}}`,
			want: Evaluation{
				ShouldContinue: true,
				NextAction:     &NextAction{ActionName: "search_on_google", Arguments: map[string]any{}},
			},
		},
		{
			name:     "achieved without action",
			response: "Done.\n" + `{"objective_achieved":true,"should_continue":false,"next_action":null}`,
			want:     Evaluation{ObjectiveAchieved: true},
		},
		{
			name:     "continue without action",
			response: `{"objective_achieved":false,"should_continue":true}`,
			want:     Evaluation{ShouldContinue: true},
		},
		{
			name:     "should_continue defaults to true",
			response: `{"objective_achieved":true,"status_update":"done"}`,
			want:     Evaluation{ObjectiveAchieved: true, ShouldContinue: true, StatusNote: "done"},
		},
		{
			name:     "empty next_action is no action",
			response: `{"objective_achieved":false,"should_continue":true,"next_action":{}}`,
			want:     Evaluation{ShouldContinue: true},
		},
		{
			name:     "next_action without a name is no action",
			response: `{"objective_achieved":false,"next_action":{"arguments":{"query":"X"}}}`,
			want:     Evaluation{ShouldContinue: true},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			client := new(MockLLMClient)
			client.On("Generate", mock.Anything, mock.Anything).Return(tc.response, nil).Once()

			got, err := NewEvaluator(client, testCatalog, zaptest.NewLogger(t)).Evaluate(context.Background(), executingSnapshot())
			require.NoError(t, err)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Evaluate() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEvaluator_PromptCarriesState(t *testing.T) {
	var req schemas.GenerationRequest
	client := new(MockLLMClient)
	client.On("Generate", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		req = args.Get(1).(schemas.GenerationRequest)
	}).Return(evalJSON(true, false, ""), nil)

	_, err := NewEvaluator(client, testCatalog, zaptest.NewLogger(t)).Evaluate(context.Background(), executingSnapshot())
	require.NoError(t, err)

	assert.Equal(t, schemas.TierFast, req.Tier)
	assert.True(t, req.Options.ForceJSONFormat)
	for _, fragment := range []string{
		`"objective": "find X"`,
		`"iteration_count": 2`,
		`"max_iterations": 5`,
		`"function": "search_on_google"`,
		`"Failed to get page content: boom"`,
		`"success_criteria"`,
		"get_page_content(extract_text: boolean (optional))",
	} {
		assert.Contains(t, req.UserPrompt, fragment)
	}
}

func TestEvaluator_Failures(t *testing.T) {
	testCases := []struct {
		name      string
		response  string
		oracleErr error
		malformed bool
		contains  string
	}{
		{name: "oracle error", oracleErr: errors.New("timeout"), contains: "oracle call failed"},
		{name: "prose", response: "Let me think about it.", malformed: true},
		{name: "missing achieved", response: `{"should_continue":true}`, contains: "'objective_achieved' is missing"},
		{name: "non-bool should_continue", response: `{"objective_achieved":false,"should_continue":"yes"}`, contains: "'should_continue' must be a boolean"},
		{name: "non-bool achieved", response: `{"objective_achieved":"no","should_continue":true}`, contains: "'objective_achieved' must be a boolean"},
		{name: "action not object", response: `{"objective_achieved":false,"should_continue":true,"next_action":"search"}`, contains: "must be an object or null"},
		{name: "arguments not object", response: `{"objective_achieved":false,"should_continue":true,"next_action":{"function_name":"x","arguments":[1]}}`, contains: "'next_action.arguments' must be an object"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			client := new(MockLLMClient)
			client.On("Generate", mock.Anything, mock.Anything).Return(tc.response, tc.oracleErr).Once()

			_, err := NewEvaluator(client, testCatalog, zaptest.NewLogger(t)).Evaluate(context.Background(), executingSnapshot())

			var evalErr *EvaluationError
			require.ErrorAs(t, err, &evalErr)
			assert.Equal(t, 2, evalErr.Iteration)
			if tc.malformed {
				assert.ErrorIs(t, err, llmutil.ErrMalformedOracleOutput)
			}
			if tc.contains != "" {
				assert.ErrorContains(t, err, tc.contains)
			}
		})
	}
}
