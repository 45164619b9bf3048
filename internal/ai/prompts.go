package ai

import (
	"fmt"

	"google.golang.org/genai"

	"github.com/nhle/community-roots/internal/model"
)

// WelcomeMessage opens every assistant transcript.
const WelcomeMessage = "Hi! I'm Rooty, your gardening assistant. Ask me about plant care, park maintenance tips, or identifying tasks!"

// CurrentLocationQuery replaces the typed query when searching near the
// user's position.
const CurrentLocationQuery = "current location"

const adviceSystemInstruction = `You are "Rooty", a helpful, knowledgeable, and enthusiastic gardening assistant for a community park app.
You help volunteers organize tasks, identify plants, and provide gardening advice.
Keep answers concise, encouraging, and practical.`

func suggestPrompt(observation string) string {
	return fmt.Sprintf(`Based on the following observation of a park area, suggest a list of concrete, actionable gardening or maintenance tasks.
Observation: "%s"

Return a JSON array of tasks.`, observation)
}

func discoveryPrompt(query string) string {
	return fmt.Sprintf(`Find parks near %s.
List them with their names, full address, coordinates (latitude/longitude), and a brief 1-sentence description.

Format the output as a list of items separated by "---".
Each item should strictly follow this format:
Name: [Park Name]
Address: [Park Address]
Description: [Description]
Lat: [Latitude]
Lng: [Longitude]`, query)
}

func suggestionSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"title": {
					Type:        genai.TypeString,
					Description: "Short title of the task",
				},
				"description": {
					Type:        genai.TypeString,
					Description: "Detailed description of what needs to be done",
				},
				"urgency": {
					Type: genai.TypeString,
					Enum: []string{
						string(model.UrgencyLow),
						string(model.UrgencyMedium),
						string(model.UrgencyHigh),
					},
				},
			},
			Required: []string{"title", "description", "urgency"},
		},
	}
}
