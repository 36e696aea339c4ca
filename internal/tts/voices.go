// Voice catalog for Gemini's prebuilt TTS voices, carried over from the
// apresai-podcaster retrieval example
// (9beb7f70_apresai-podcaster__internal-tts-gemini.go.go's
// geminiAvailableVoices) verbatim: Gemini's TTS endpoint ships exactly
// this fixed voice set and clients need it to validate/list voiceId.
package tts

// Voice describes one Gemini prebuilt TTS voice.
type Voice struct {
	ID          string
	Gender      string
	Description string
}

// AvailableVoices lists every Gemini prebuilt voice.
func AvailableVoices() []Voice {
	return []Voice{
		{ID: "Charon", Gender: "male", Description: "Informative"},
		{ID: "Leda", Gender: "female", Description: "Youthful"},
		{ID: "Fenrir", Gender: "male", Description: "Excitable"},
		{ID: "Achernar", Gender: "female", Description: "Soft"},
		{ID: "Achird", Gender: "male", Description: "Friendly"},
		{ID: "Algenib", Gender: "male", Description: "Gravelly"},
		{ID: "Algieba", Gender: "male", Description: "Smooth"},
		{ID: "Alnilam", Gender: "male", Description: "Firm"},
		{ID: "Aoede", Gender: "female", Description: "Breezy"},
		{ID: "Autonoe", Gender: "female", Description: "Bright"},
		{ID: "Callirrhoe", Gender: "female", Description: "Easy-going"},
		{ID: "Despina", Gender: "female", Description: "Smooth"},
		{ID: "Enceladus", Gender: "male", Description: "Breathy"},
		{ID: "Erinome", Gender: "female", Description: "Clear"},
		{ID: "Gacrux", Gender: "male", Description: "Mature"},
		{ID: "Iapetus", Gender: "male", Description: "Clear"},
		{ID: "Kore", Gender: "female", Description: "Firm"},
		{ID: "Laomedeia", Gender: "female", Description: "Upbeat"},
		{ID: "Orus", Gender: "male", Description: "Firm"},
		{ID: "Puck", Gender: "male", Description: "Upbeat"},
		{ID: "Pulcherrima", Gender: "female", Description: "Forward"},
		{ID: "Rasalgethi", Gender: "male", Description: "Informative"},
		{ID: "Sadachbia", Gender: "female", Description: "Lively"},
		{ID: "Sadaltager", Gender: "male", Description: "Knowledgeable"},
		{ID: "Schedar", Gender: "female", Description: "Even"},
		{ID: "Sulafat", Gender: "female", Description: "Warm"},
		{ID: "Umbriel", Gender: "male", Description: "Easy-going"},
		{ID: "Vindemiatrix", Gender: "female", Description: "Gentle"},
		{ID: "Zephyr", Gender: "female", Description: "Bright"},
		{ID: "Zubenelgenubi", Gender: "male", Description: "Casual"},
	}
}

// IsValidVoice reports whether voiceID names a known prebuilt voice.
func IsValidVoice(voiceID string) bool {
	for _, v := range AvailableVoices() {
		if v.ID == voiceID {
			return true
		}
	}
	return false
}
