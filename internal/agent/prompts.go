package agent

import (
	"fmt"

	"otto/internal/jsonx"
)

// Fallbacks applied when a recommendation query omits the event context.
const (
	DefaultEventLocation = "Hyderabad"
	DefaultEventSummary  = "celebration"
)

// PublicDataPrompt asks the public-data agent for publicly known events and
// dates tied to a person. The agent is told to answer in JSON so the reply
// can be parsed into a payload.
func PublicDataPrompt(name, phone string) string {
	return fmt.Sprintf(
		"Find publicly available information for the person named %q with phone number %q: "+
			"upcoming public events, festivals and important dates relevant to them. "+
			"Respond with a JSON object only.",
		name, phone,
	)
}

// PreferenceCreatePrompt asks the preference agent to store a preference
// record, passed through as pretty-printed JSON.
func PreferenceCreatePrompt(preferences any) (string, error) {
	data, err := jsonx.MarshalIndent(preferences, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode preferences: %w", err)
	}
	return fmt.Sprintf(
		"Store the following user preference record. Reply with a short confirmation.\n\n%s",
		data,
	), nil
}

// PreferenceQueryPrompt asks the preference agent for recommendations around
// an event. Missing summary and location fall back to the defaults.
func PreferenceQueryPrompt(phone, eventSummary, eventLocation string) string {
	if eventLocation == "" {
		eventLocation = DefaultEventLocation
	}
	if eventSummary == "" {
		eventSummary = DefaultEventSummary
	}
	return fmt.Sprintf(
		"For the user with phone number %q, recommend venues, restaurants and activities "+
			"for a %s in %s, based on their stored preferences. "+
			"Format the answer as markdown with ### section headers and numbered items "+
			"with bold titles and **Key:** value detail lines.",
		phone, eventSummary, eventLocation,
	)
}

// GiftPrompt asks the gift agent for gift ideas given the user's upcoming
// events, profile and family members.
func GiftPrompt(events, userProfile, familyMembers any) (string, error) {
	eventsJSON, err := jsonx.MarshalIndent(events, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode events: %w", err)
	}
	profileJSON, err := jsonx.MarshalIndent(userProfile, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode profile: %w", err)
	}
	familyJSON, err := jsonx.MarshalIndent(familyMembers, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode family members: %w", err)
	}
	return fmt.Sprintf(
		"Suggest gift ideas for the upcoming events below, tailored to the user and "+
			"their family members. Respond with a JSON object only.\n\n"+
			"Events:\n%s\n\nUser profile:\n%s\n\nFamily members:\n%s",
		eventsJSON, profileJSON, familyJSON,
	), nil
}
