// Package prompts rotates the active system prompt by interaction count.
//
// A Scheduler holds an ordered list of entries, each a prompt content and an
// activation threshold. CurrentPrompt picks the first entry whose threshold is
// above the interaction counter and saturates on the last entry. Increment
// advances the counter and, once the active entry's threshold is reached,
// moves to the next entry, wrapping to the first past the end. The two
// behaviors are intentionally asymmetric.
package prompts
