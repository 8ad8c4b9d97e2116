// Package a2a implements agent-to-agent invocation: card discovery,
// transport negotiation, and the forecast agent's serving side.
package a2a

import (
	jsoniter "github.com/json-iterator/go"
)

var jsonCodec = jsoniter.ConfigCompatibleWithStandardLibrary

// WellKnownCardPath is the path the agent card is served from.
const WellKnownCardPath = "/.well-known/agent-card.json"

// AgentCard is the capability descriptor an agent serves at the
// well-known path. Unknown fields are ignored.
type AgentCard struct {
	Name               string  `json:"name,omitempty"`
	Description        string  `json:"description,omitempty"`
	Version            string  `json:"version,omitempty"`
	URL                string  `json:"url,omitempty"`
	PreferredTransport string  `json:"preferredTransport,omitempty"`
	Skills             []Skill `json:"skills,omitempty"`
}

// Skill is one entry in a card's skill list. On the wire it is either a
// bare string or an object with optional name/id fields; both forms
// decode into the same struct so nothing downstream branches on shape.
type Skill struct {
	Name        string `json:"name,omitempty"`
	ID          string `json:"id,omitempty"`
	Description string `json:"description,omitempty"`
}

// UnmarshalJSON accepts both the string and the object form.
func (s *Skill) UnmarshalJSON(data []byte) error {
	var name string
	if err := jsonCodec.Unmarshal(data, &name); err == nil {
		*s = Skill{Name: name}
		return nil
	}

	type skillObject Skill
	var obj skillObject
	if err := jsonCodec.Unmarshal(data, &obj); err != nil {
		return err
	}
	*s = Skill(obj)
	return nil
}

// MarshalJSON always emits the object form.
func (s Skill) MarshalJSON() ([]byte, error) {
	type skillObject Skill
	return jsonCodec.Marshal(skillObject(s))
}

// MethodCandidates derives the ordered list of JSON-RPC method names to
// probe: the literal "model" first, then the card's name, then each
// skill's name and id. Empty entries are dropped and first-seen order
// wins over duplicates.
func (c *AgentCard) MethodCandidates() []string {
	candidates := []string{"model", c.Name}
	for _, skill := range c.Skills {
		candidates = append(candidates, skill.Name, skill.ID)
	}

	seen := make(map[string]bool, len(candidates))
	out := make([]string, 0, len(candidates))
	for _, cand := range candidates {
		if cand == "" || seen[cand] {
			continue
		}
		seen[cand] = true
		out = append(out, cand)
	}
	return out
}
