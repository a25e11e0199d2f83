package observability

const (
	AttrAgentName      = "agent.name"
	AttrAgentBranch    = "agent.branch"
	AttrToolName       = "tool.name"
	AttrToolCallID     = "tool.call_id"
	AttrLLMModel       = "llm.model"
	AttrLLMTokensInput = "llm.tokens.input"
	AttrLLMTokensOut   = "llm.tokens.output"
	AttrLoopIteration  = "loop.iteration"
	AttrLoopState      = "loop.state"
	AttrInvocationID   = "invocation.id"

	SpanInvocation    = "tribunal.invocation"
	SpanAgentRun      = "agent.run"
	SpanLLMRequest    = "agent.llm_request"
	SpanToolExecution = "agent.tool_execution"

	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"

	DefaultServiceName  = "tribunal"
	DefaultSamplingRate = 1.0
	DefaultOTLPEndpoint = "localhost:4317"
	DefaultMetricsAddr  = ":9090"
	DefaultMetricsPath  = "/metrics"
)
