package agent

import (
	"context"
	"fmt"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/scout-cli/api/schemas"
)

// -- LLM Client Mock --

// MockLLMClient mocks the schemas.LLMClient interface.
type MockLLMClient struct {
	mock.Mock
}

func (m *MockLLMClient) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockLLMClient) Close() error {
	return m.Called().Error(0)
}

// -- Action Executor Mock --

// MockExecutor mocks the schemas.ActionExecutor interface.
type MockExecutor struct {
	mock.Mock
}

func (m *MockExecutor) Invoke(ctx context.Context, name string, arguments map[string]any) schemas.ActionResult {
	args := m.Called(ctx, name, arguments)
	return args.Get(0).(schemas.ActionResult)
}

// -- Archiver Mock --

// MockArchiver mocks the schemas.Archiver interface.
type MockArchiver struct {
	mock.Mock
}

func (m *MockArchiver) Archive(ctx context.Context, record schemas.TaskRecord) error {
	return m.Called(ctx, record).Error(0)
}

// -- Scripted Oracle --

// scriptedOracle answers planner requests with plan and evaluator requests
// with the next entry of evaluations. Once the script runs out it keeps
// returning the last entry.
type scriptedOracle struct {
	mu          sync.Mutex
	plan        string
	planErr     error
	evaluations []string
	evalCalls   int
	requests    []schemas.GenerationRequest
}

func (s *scriptedOracle) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if req.Tier == schemas.TierPowerful {
		return s.plan, s.planErr
	}
	if len(s.evaluations) == 0 {
		return "", fmt.Errorf("no evaluation scripted")
	}
	i := s.evalCalls
	if i >= len(s.evaluations) {
		i = len(s.evaluations) - 1
	}
	s.evalCalls++
	return s.evaluations[i], nil
}

func (s *scriptedOracle) Close() error { return nil }

// -- Fixtures --

var testCatalog = []schemas.ActionDefinition{
	{
		Name:        "search_on_google",
		Description: "Search for a query.",
		Parameters:  []schemas.ActionParameter{{Name: "query", Type: "string", Required: true}},
	},
	{
		Name:        "get_page_content",
		Description: "Read the current page.",
		Parameters:  []schemas.ActionParameter{{Name: "extract_text", Type: "boolean"}},
	},
}

const testPlanJSON = `{"objective":"find X","plan":["search X","open result"],"success_criteria":["page about X open"]}`

func evalJSON(achieved, cont bool, action string) string {
	next := "null"
	if action != "" {
		next = fmt.Sprintf(`{"function_name":%q,"arguments":{"query":"X"},"reasoning":"because"}`, action)
	}
	return fmt.Sprintf(`{"objective_achieved":%t,"should_continue":%t,"next_action":%s,"status_update":"working"}`, achieved, cont, next)
}
