// Package bench runs creative-writing scenarios against each model in turn
// and writes comparison reports.
package bench

// Scenario is one creative-writing prompt with its sampling parameters.
type Scenario struct {
	Name            string  `json:"name"`
	Prompt          string  `json:"prompt"`
	MaxTokens       int     `json:"max_tokens"`
	Temperature     float64 `json:"temperature"`
	EvaluationNotes string  `json:"evaluation_notes"`
}

// DefaultScenarios returns the standard five creative-writing tests.
func DefaultScenarios() []Scenario {
	return []Scenario{
		{
			Name: "Character Development",
			Prompt: "Create a detailed character description for a protagonist in a cyberpunk noir story. " +
				"The character should be a former corporate security specialist turned private investigator. " +
				"Include physical appearance, personality, background, skills, and a distinctive quirk or flaw. " +
				"Write 300-400 words.",
			MaxTokens:       600,
			Temperature:     0.7,
			EvaluationNotes: "Tests character creation, world-building integration, psychological depth",
		},
		{
			Name: "Dialogue Writing",
			Prompt: "Write a tense dialogue scene between two old friends who now find themselves on opposite sides of a conflict. " +
				"One is a rebel leader, the other works for the authoritarian government they're fighting. " +
				"They meet secretly in an abandoned subway station. " +
				"Include subtext, emotional tension, and natural conversation flow. 200-300 words.",
			MaxTokens:       500,
			Temperature:     0.8,
			EvaluationNotes: "Tests dialogue quality, character voice, emotional depth, subtext",
		},
		{
			Name: "Scene Description",
			Prompt: "Describe a bustling alien marketplace on a distant planet. " +
				"Include unique alien species, strange foods and goods, unusual architecture, " +
				"and sensory details (sounds, smells, textures). " +
				"Make it feel alive and immersive while maintaining internal consistency. 250-350 words.",
			MaxTokens:       500,
			Temperature:     0.7,
			EvaluationNotes: "Tests descriptive writing, world-building, creativity, sensory detail",
		},
		{
			Name: "Plot Synopsis",
			Prompt: "Write a compelling synopsis for a mystery novel set in Victorian London. " +
				"The story involves a series of impossible murders where the victims are found in locked rooms " +
				"with no apparent way for the killer to enter or escape. " +
				"Include the detective, key suspects, major plot points, and resolution. 400-500 words.",
			MaxTokens:       700,
			Temperature:     0.6,
			EvaluationNotes: "Tests plot structure, mystery logic, pacing, narrative coherence",
		},
		{
			Name: "Creative Problem Solving",
			Prompt: "A spaceship crew is stranded on an ice planet with failing life support. " +
				"They have limited resources and conflicting personalities. " +
				"Describe how they work together (or fail to) to solve their predicament. " +
				"Focus on character interactions, creative solutions, and emotional stakes. 350-450 words.",
			MaxTokens:       650,
			Temperature:     0.8,
			EvaluationNotes: "Tests creative thinking, character dynamics, tension building, problem resolution",
		},
	}
}
