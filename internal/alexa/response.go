package alexa

import "encoding/json"

// ResponseEnvelope is the JSON document returned to the platform.
type ResponseEnvelope struct {
	Version           string                     `json:"version"`
	SessionAttributes map[string]json.RawMessage `json:"sessionAttributes,omitempty"`
	Response          Response                   `json:"response"`
}

type Response struct {
	OutputSpeech     *OutputSpeech `json:"outputSpeech,omitempty"`
	Reprompt         *Reprompt     `json:"reprompt,omitempty"`
	ShouldEndSession bool          `json:"shouldEndSession"`
}

// OutputSpeech is always emitted as SSML so pause directives such as
// <break time="0.5s"/> survive intact.
type OutputSpeech struct {
	Type string `json:"type"`
	SSML string `json:"ssml"`
}

type Reprompt struct {
	OutputSpeech OutputSpeech `json:"outputSpeech"`
}

func ssml(text string) OutputSpeech {
	return OutputSpeech{Type: "SSML", SSML: "<speak>" + text + "</speak>"}
}

// Ask builds a response that speaks, reprompts, and keeps the session open.
func Ask(speak, reprompt string, attrs map[string]json.RawMessage) ResponseEnvelope {
	out := ssml(speak)
	rep := ssml(reprompt)
	return ResponseEnvelope{
		Version:           "1.0",
		SessionAttributes: attrs,
		Response: Response{
			OutputSpeech: &out,
			Reprompt:     &Reprompt{OutputSpeech: rep},
		},
	}
}

// Tell builds a final response that speaks and ends the session.
func Tell(speak string) ResponseEnvelope {
	out := ssml(speak)
	return ResponseEnvelope{
		Version: "1.0",
		Response: Response{
			OutputSpeech:     &out,
			ShouldEndSession: true,
		},
	}
}

// Silent builds an empty acknowledgement, used for session-ended
// notifications where the platform ignores any speech.
func Silent() ResponseEnvelope {
	return ResponseEnvelope{
		Version:  "1.0",
		Response: Response{ShouldEndSession: true},
	}
}
