package silence

import "sync"

// DefaultPrompts are the stock re-engagement prompts, tried in order.
var DefaultPrompts = []string{
	"Are you still there? Let me know if you'd like to keep going.",
	"Take your time! Just say the word when you're ready to continue.",
	"Want me to explain that part again, or shall we watch the next bit?",
	"I'm here whenever you're ready. Should we keep watching?",
}

// PromptCycle hands out re-engagement prompts in a fixed rotation.
// Every prompt is used once before any repeats.
type PromptCycle struct {
	mu      sync.Mutex
	prompts []string
	next    int
}

// NewPromptCycle creates a cycle over the given prompts.
// An empty list falls back to DefaultPrompts.
func NewPromptCycle(prompts ...string) *PromptCycle {
	if len(prompts) == 0 {
		prompts = DefaultPrompts
	}
	return &PromptCycle{prompts: prompts}
}

// Next returns the next prompt in rotation.
func (c *PromptCycle) Next() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := c.prompts[c.next%len(c.prompts)]
	c.next++
	return p
}

// Len returns the number of distinct prompts.
func (c *PromptCycle) Len() int {
	return len(c.prompts)
}
