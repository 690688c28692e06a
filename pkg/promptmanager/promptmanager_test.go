package promptmanager

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatPrompt(t *testing.T) {
	p := New("You are a helpful agent.", map[string]string{
		"greet": "Hello, {name}! Today is {day}.",
	})

	out, err := p.FormatPrompt("greet", map[string]string{"name": "Ada", "day": "Tuesday"})
	require.NoError(t, err)
	require.Equal(t, "Hello, Ada! Today is Tuesday.", out)
}

func TestFormatPrompt_UnknownTemplate(t *testing.T) {
	p := New("", nil)
	_, err := p.FormatPrompt("missing", nil)
	require.Error(t, err)
}

func TestRegisterAndGetTemplate(t *testing.T) {
	p := New("", nil)
	p.RegisterTemplate("search", "find {query}")

	tmpl, ok := p.Template("search")
	require.True(t, ok)
	require.Equal(t, "find {query}", tmpl)

	_, ok = p.Template("nope")
	require.False(t, ok)
}

func TestBuildReasoningPrompt(t *testing.T) {
	p := New("System role.", nil)
	prompt := p.BuildReasoningPrompt("Extract rows", map[string]any{"urls": 2}, "Be precise.")

	require.Contains(t, prompt, "System role.")
	require.Contains(t, prompt, "Task: Extract rows")
	require.Contains(t, prompt, "urls: 2")
	require.Contains(t, prompt, "Additional Instructions:\nBe precise.")
}

func TestSetSystemPrompt(t *testing.T) {
	p := New("old", nil)
	p.SetSystemPrompt("new")
	require.Equal(t, "new", p.SystemPrompt())
}
