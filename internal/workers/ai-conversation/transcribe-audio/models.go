// internal/workers/ai-conversation/transcribe-audio/models.go
package transcribeaudio

type Input struct {
	AudioBase64 string `json:"audioBase64"`
	MimeType    string `json:"mimeType"`
	Language    string `json:"language"`
}

type Output struct {
	Transcription string `json:"transcription"`
}
