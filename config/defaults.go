package config

import (
	"os"
	"strings"
)

const (
	defaultAddr             = "0.0.0.0:8000"
	defaultProvider         = "openai"
	defaultAPIURL           = "http://127.0.0.1:8081/v1/chat/completions"
	defaultModel            = "local-model"
	defaultTimeout          = 120
	defaultMaxTokens        = 200
	defaultTemperature      = 0.2
	defaultAgentModeSubject = "Agent Mode"
	defaultSubject          = "Coding"
	defaultNotesDir         = "./notes"
	defaultClientServer     = "http://127.0.0.1:8000"
)

// DefaultSystemPrompt drives the tool-using agent mode.
const DefaultSystemPrompt = `You are an offline AI tutoring AGENT. You can either answer normally,
or call ONE tool when useful. To call a tool, output EXACTLY one line:
<tool_call>{"name":"TOOL_NAME","arguments":{...}}</tool_call>

Available tools:
1) calculator(expression: str) #calculates numeric operations
2) search_notes(query: str) # searches local ./notes. output should return file name also

MANDATORY: If the user's message is a math expression containing only
digits, spaces, and + - * / ( ), you MUST call the calculator tool with
the exact expression. Do NOT compute it yourself. Output only the
<tool_call> line and nothing else.

RULES:
- If the user's message CONTAINS any arithmetic expression (digits and + - * / ( )),
  EXTRACT the expression (e.g., "8/2", "(2+3)*4") and call the calculator with it.
  Do NOT compute yourself. Output only the <tool_call>.
- Use search_notes only when the user asks to find/read notes or mentions chapters/pages
  without a solvable expression.

Examples:
User: "Simplify 8/2 from Chapter 3 fractions"
<tool_call>{"name":"calculator","arguments":{"expression":"8/2"}}</tool_call>

User: "Find Chapter 3 fractions"
<tool_call>{"name":"search_notes","arguments":{"query":"Chapter 3 fractions"}}</tool_call>

After the tool returns, write a clear final answer using the tool result.
Keep outputs concise in less than 100 words and helpful for students.
`

// DefaultSubjects returns the built-in tutoring subjects.
func DefaultSubjects() []Subject {
	return []Subject{
		{Name: "Coding", Primer: "You are tutoring Coding. Answer in under 100 words. Prefer step-by-step explanation with tiny examples (≤15 lines)."},
		{Name: "Math", Primer: "You are tutoring Math. Answer in under 100 words. Use concrete objects. Keep reasoning short."},
		{Name: "Science", Primer: "You are tutoring Science. Answer in under 100 words. Use everyday phenomena."},
		{Name: "English", Primer: "You are tutoring English. Answer in under 100 words. Teach with short examples, then give one tiny practice."},
	}
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	c := &Config{
		Tutor: TutorConfig{
			System:   DefaultSystemPrompt,
			Subjects: DefaultSubjects(),
		},
		Logging: defaultLoggingConfig(),
	}
	c.applyDefaults()
	return c
}

func defaultLoggingConfig() LoggingConfig {
	enabled := true
	return LoggingConfig{
		Enabled: &enabled,
		Level:   "info",
		Stdout:  true,
		File:    "logs/tutorbot.log",
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = defaultAddr
	}

	if c.LLM.Provider == "" {
		c.LLM.Provider = defaultProvider
	}
	if c.LLM.APIURL == "" {
		c.LLM.APIURL = envOr("LLAMA_URL", defaultAPIURL)
	}
	if c.LLM.Model == "" {
		c.LLM.Model = envOr("LLAMA_MODEL", defaultModel)
	}
	if c.LLM.Timeout <= 0 {
		c.LLM.Timeout = defaultTimeout
	}
	if c.LLM.MaxTokens <= 0 {
		c.LLM.MaxTokens = defaultMaxTokens
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = defaultTemperature
	}

	if c.Tutor.System == "" {
		c.Tutor.System = DefaultSystemPrompt
	}
	if c.Tutor.Subjects == nil {
		c.Tutor.Subjects = DefaultSubjects()
	}
	if c.Tutor.AgentModeSubject == "" {
		c.Tutor.AgentModeSubject = defaultAgentModeSubject
	}
	if c.Tutor.DefaultSubject == "" {
		c.Tutor.DefaultSubject = defaultSubject
	}
	if c.Tutor.NotesDir == "" {
		c.Tutor.NotesDir = defaultNotesDir
	}

	if c.Client.Server == "" {
		c.Client.Server = defaultClientServer
	}

	def := defaultLoggingConfig()
	if c.Logging == (LoggingConfig{}) {
		c.Logging = def
		return
	}
	if c.Logging.Level == "" {
		c.Logging.Level = def.Level
	}
	if c.Logging.Enabled == nil {
		c.Logging.Enabled = def.Enabled
	}
	if !c.Logging.Stdout && c.Logging.File == "" {
		c.Logging.Stdout = def.Stdout
	}
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
