package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
	"github.com/go-swagno/swagno/components/parameter"
)

// EnrollResponse represents a successful enrollment
type EnrollResponse struct {
	IdentityID      string    `json:"identity_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	EmbeddingsCount int       `json:"embeddings_count" example:"3"`
	Scores          []float64 `json:"confidence_scores"`
	Warnings        []string  `json:"warnings,omitempty"`
}

// RecognitionResponse represents one recognition outcome
type RecognitionResponse struct {
	Recognized bool    `json:"recognized" example:"true"`
	IdentityID string  `json:"identity_id,omitempty" example:"550e8400-e29b-41d4-a716-446655440000"`
	Score      float64 `json:"score" example:"0.87"`
	Reason     string  `json:"reason,omitempty" example:"below_threshold"`
	Location   string  `json:"location,omitempty" example:"gate-1"`
	DeviceID   string  `json:"device_id,omitempty" example:"cam-3"`
	At         string  `json:"recognition_time" example:"2024-01-01T08:30:00Z"`
}

// BulkRecognitionResponse partitions a batch of outcomes
type BulkRecognitionResponse struct {
	Recognized []RecognitionResponse `json:"recognized"`
	Unknown    []RecognitionResponse `json:"unknown"`
}

// ComparisonResponse represents a direct two-image comparison
type ComparisonResponse struct {
	Similarity   float64 `json:"similarity_score" example:"0.91"`
	IsSamePerson bool    `json:"is_same_person" example:"true"`
	Threshold    float64 `json:"threshold" example:"0.6"`
}

// EmbeddingData represents one stored gallery embedding
type EmbeddingData struct {
	ID         string  `json:"id" example:"f7f0f9a2-3d48-4f9b-8f4b-1e2d3c4b5a69"`
	IdentityID string  `json:"identity_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Quality    float64 `json:"quality" example:"0.9"`
	SourceRef  string  `json:"source_ref,omitempty" example:"kiosk-7"`
	CreatedAt  string  `json:"created_at" example:"2024-01-01T00:00:00Z"`
}

// ListEmbeddingsResponse lists an identity's gallery entries
type ListEmbeddingsResponse struct {
	IdentityID string          `json:"identity_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Embeddings []EmbeddingData `json:"embeddings"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Code    string `json:"code" example:"VALIDATION_FAILED"`
	Message string `json:"message" example:"Request validation failed"`
}

// EmptyResponse represents no content response (204)
type EmptyResponse struct{}

// HealthResponse represents service health
type HealthResponse struct {
	Status  string `json:"status" example:"ok"`
	Version string `json:"version,omitempty" example:"0.1.0"`
}

func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "Presia Identity Matching API",
		Version:     "v1.0.0",
		Description: "Face embedding enrollment and identity matching for biometric attendance",
		Host:        "localhost:3000",
		Path:        "/v1",
	})

	endpoints := []*endpoint.EndPoint{
		// POST /v1/faces/enroll - Enroll identity
		endpoint.New(
			endpoint.POST,
			"/faces/enroll",
			endpoint.WithTags("Faces"),
			endpoint.WithSummary("Enroll an identity from sample images"),
			endpoint.WithDescription("Builds the gallery template for identity_id from 3 to 5 sample images. Unusable samples are skipped with a warning; persistence is all-or-nothing."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EnrollResponse{}, "201", "Identity enrolled"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "INVALID_SAMPLE_COUNT", Message: "Between 3 and 5 samples are required"}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "ENROLLMENT_FAILED", Message: "No usable sample in the batch"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
		),

		// POST /v1/faces/recognize - Recognize one face
		endpoint.New(
			endpoint.POST,
			"/faces/recognize",
			endpoint.WithTags("Faces"),
			endpoint.WithSummary("Identify the face in one image"),
			endpoint.WithDescription("Resolves the face against the gallery. An unrecognized face is a normal 200 response with recognized=false and a reason."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(RecognitionResponse{}, "200", "Recognition outcome"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "Image file is required"}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "INVALID_IMAGE", Message: "Image could not be decoded"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
		),

		// POST /v1/faces/recognize/bulk - Recognize a batch
		endpoint.New(
			endpoint.POST,
			"/faces/recognize/bulk",
			endpoint.WithTags("Faces"),
			endpoint.WithSummary("Identify a batch of images"),
			endpoint.WithDescription("Runs recognition over every uploaded image. A failing image becomes an unknown outcome; it never fails the batch."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(BulkRecognitionResponse{}, "200", "Partitioned outcomes"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "At least one image is required"}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
		),

		// POST /v1/faces/compare - Compare two images
		endpoint.New(
			endpoint.POST,
			"/faces/compare",
			endpoint.WithTags("Faces"),
			endpoint.WithSummary("Compare two face images"),
			endpoint.WithDescription("Scores the faces in image_a and image_b against each other without touching the gallery."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(ComparisonResponse{}, "200", "Similarity score"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "NO_FACE_DETECTED", Message: "No face detected in image"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
		),

		// GET /v1/identities/{identity_id}/embeddings - List embeddings
		endpoint.New(
			endpoint.GET,
			"/identities/{identity_id}/embeddings",
			endpoint.WithTags("Identities"),
			endpoint.WithSummary("List an identity's enrolled embeddings"),
			endpoint.WithParams(
				parameter.StrParam("identity_id", parameter.Path, parameter.WithDescription("Identity UUID")),
			),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(ListEmbeddingsResponse{}, "200", "Gallery entries in insertion order"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "identity_id must be a UUID"}, "400", "Bad Request"),
			}),
		),

		// DELETE /v1/embeddings/{embedding_id} - Delete embedding
		endpoint.New(
			endpoint.DELETE,
			"/embeddings/{embedding_id}",
			endpoint.WithTags("Identities"),
			endpoint.WithSummary("Delete one embedding"),
			endpoint.WithParams(
				parameter.StrParam("embedding_id", parameter.Path, parameter.WithDescription("Embedding UUID")),
			),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EmptyResponse{}, "204", "Embedding deleted"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "EMBEDDING_NOT_FOUND", Message: "Embedding not found"}, "404", "Not Found"),
			}),
		),

		// GET /health - Liveness
		endpoint.New(
			endpoint.GET,
			"/health",
			endpoint.WithTags("Health"),
			endpoint.WithSummary("Liveness probe"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(HealthResponse{}, "200", "Service is up"),
			}),
		),

		// GET /ready - Readiness
		endpoint.New(
			endpoint.GET,
			"/ready",
			endpoint.WithTags("Health"),
			endpoint.WithSummary("Readiness probe"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(HealthResponse{}, "200", "Dependencies reachable"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(HealthResponse{Status: "database unreachable"}, "503", "Service Unavailable"),
			}),
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}
