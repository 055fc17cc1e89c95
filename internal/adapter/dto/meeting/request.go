package meeting

// AnalyzeTranscriptRequest represents a meeting submitted as text
type AnalyzeTranscriptRequest struct {
	Transcript string `json:"transcript" validate:"required"`
	Title      string `json:"title,omitempty" validate:"omitempty,max=500"`
}
