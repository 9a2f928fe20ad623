package insight

// DetectRequest for POST /detect
type DetectRequest struct {
	Img     string `json:"img"`      // base64 encoded image
	DetSize int    `json:"det_size"` // detector input size, 0 = server default
}

// DetectResponse from POST /detect
type DetectResponse struct {
	Faces []DetectedFaceResult `json:"faces"`
}

type DetectedFaceResult struct {
	Bbox     BoundingBox `json:"bbox"`
	DetScore float64     `json:"det_score"`
}

type BoundingBox struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// EmbedRequest for POST /embed
type EmbedRequest struct {
	Img  string      `json:"img"`
	Bbox BoundingBox `json:"bbox"`
}

// EmbedResponse from POST /embed. Embedding is null when the crop is
// degenerate or inference fails for the region.
type EmbedResponse struct {
	Embedding []float64 `json:"embedding"`
}
