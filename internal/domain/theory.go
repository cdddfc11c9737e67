package domain

// Theory is the immutable axiom/premise definition a run operates in.
// The definition text is in the derivation engine's own syntax and is
// loaded once at startup; premises name the axioms proof search may use.
type Theory struct {
	Name       string   `json:"name"`
	Definition string   `json:"definition"`
	Premises   []string `json:"premises"`
}

// HardConjecturePrompt conditions the policy to propose conjectures at the
// hardest difficulty tier. The same prefix is applied to goal statements
// handed to training.
const HardConjecturePrompt = "Conj:(hard) "

// ConjectureTag returns the difficulty-labeled prefix for a curated
// conjecture statement example.
func ConjectureTag(outcome string) string {
	return "Conj:(" + outcome + ") "
}
