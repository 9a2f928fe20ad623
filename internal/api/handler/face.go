package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/presia-labs/presia/internal/domain"
	"github.com/presia-labs/presia/internal/recognition"
)

const (
	maxImageSize = 10 * 1024 * 1024 // 10MB

	maxBulkImages = 20
)

var validImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/bmp":  true,
}

// EnrollmentService is the enrollment side of the pipeline.
type EnrollmentService interface {
	Enroll(ctx context.Context, identityID uuid.UUID, images [][]byte, sourceRef string) (*domain.EnrollmentResult, error)
}

// RecognitionService is the matching side of the pipeline.
type RecognitionService interface {
	Recognize(ctx context.Context, image []byte, opts recognition.RecognizeOptions) (domain.RecognitionOutcome, error)
	RecognizeBulk(ctx context.Context, images [][]byte, opts recognition.RecognizeOptions) (*domain.BulkResult, error)
	Compare(ctx context.Context, imageA, imageB []byte) (*domain.Comparison, error)
	ListEmbeddings(ctx context.Context, identityID uuid.UUID) ([]domain.Embedding, error)
	DeleteEmbedding(ctx context.Context, embeddingID uuid.UUID) error
}

// FaceHandler handles the enrollment and recognition endpoints
type FaceHandler struct {
	enrollment  EnrollmentService
	recognition RecognitionService
	logger      *slog.Logger
}

func NewFaceHandler(enrollment EnrollmentService, recognition RecognitionService, logger *slog.Logger) *FaceHandler {
	return &FaceHandler{
		enrollment:  enrollment,
		recognition: recognition,
		logger:      logger,
	}
}

// EnrollResponse response for the enroll endpoint
type EnrollResponse struct {
	IdentityID      string    `json:"identity_id"`
	EmbeddingsCount int       `json:"embeddings_count"`
	Scores          []float64 `json:"confidence_scores"`
	Warnings        []string  `json:"warnings,omitempty"`
}

// EmbeddingResponse is one gallery entry in list responses
type EmbeddingResponse struct {
	ID         string  `json:"id"`
	IdentityID string  `json:"identity_id"`
	Quality    float64 `json:"quality"`
	SourceRef  string  `json:"source_ref,omitempty"`
	CreatedAt  string  `json:"created_at"`
}

// ListEmbeddingsResponse response for the embeddings listing endpoint
type ListEmbeddingsResponse struct {
	IdentityID string              `json:"identity_id"`
	Embeddings []EmbeddingResponse `json:"embeddings"`
}

// Enroll POST /v1/faces/enroll - enroll an identity from sample images
func (h *FaceHandler) Enroll(c *fiber.Ctx) error {
	identityID, err := parseUUIDForm(c, "identity_id")
	if err != nil {
		return err
	}

	images, err := extractImageFiles(c, "images")
	if err != nil {
		return fmt.Errorf("enroll: %w", err)
	}

	sourceRef := strings.TrimSpace(c.FormValue("source_ref"))

	result, err := h.enrollment.Enroll(c.Context(), identityID, images, sourceRef)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(EnrollResponse{
		IdentityID:      result.IdentityID.String(),
		EmbeddingsCount: result.EmbeddingsCount,
		Scores:          result.Scores,
		Warnings:        result.Warnings,
	})
}

// Recognize POST /v1/faces/recognize - identify the face in one image
func (h *FaceHandler) Recognize(c *fiber.Ctx) error {
	imageBytes, err := extractImageFile(c, "image")
	if err != nil {
		return fmt.Errorf("recognize: %w", err)
	}

	outcome, err := h.recognition.Recognize(c.Context(), imageBytes, recognizeOptions(c))
	if err != nil {
		return err
	}

	return c.JSON(outcome)
}

// RecognizeBulk POST /v1/faces/recognize/bulk - identify a batch of images
func (h *FaceHandler) RecognizeBulk(c *fiber.Ctx) error {
	images, err := extractImageFiles(c, "images")
	if err != nil {
		return fmt.Errorf("recognize bulk: %w", err)
	}

	if len(images) > maxBulkImages {
		return domain.ErrValidationFailed.WithError(
			fmt.Errorf("got %d images, maximum is %d", len(images), maxBulkImages))
	}

	h.logger.Debug("bulk recognition request", slog.Int("images", len(images)))

	result, err := h.recognition.RecognizeBulk(c.Context(), images, recognizeOptions(c))
	if err != nil {
		return err
	}

	return c.JSON(result)
}

// Compare POST /v1/faces/compare - score two face images against each other
func (h *FaceHandler) Compare(c *fiber.Ctx) error {
	imageA, err := extractImageFile(c, "image_a")
	if err != nil {
		return fmt.Errorf("compare: %w", err)
	}
	imageB, err := extractImageFile(c, "image_b")
	if err != nil {
		return fmt.Errorf("compare: %w", err)
	}

	comparison, err := h.recognition.Compare(c.Context(), imageA, imageB)
	if err != nil {
		return err
	}

	return c.JSON(comparison)
}

// ListEmbeddings GET /v1/identities/:identity_id/embeddings
func (h *FaceHandler) ListEmbeddings(c *fiber.Ctx) error {
	identityID, err := parseUUIDParam(c, "identity_id")
	if err != nil {
		return err
	}

	embs, err := h.recognition.ListEmbeddings(c.Context(), identityID)
	if err != nil {
		return err
	}

	resp := ListEmbeddingsResponse{
		IdentityID: identityID.String(),
		Embeddings: make([]EmbeddingResponse, 0, len(embs)),
	}
	for _, emb := range embs {
		resp.Embeddings = append(resp.Embeddings, EmbeddingResponse{
			ID:         emb.ID.String(),
			IdentityID: emb.IdentityID.String(),
			Quality:    emb.Quality,
			SourceRef:  emb.SourceRef,
			CreatedAt:  emb.CreatedAt.Format("2006-01-02T15:04:05Z"),
		})
	}

	return c.JSON(resp)
}

// DeleteEmbedding DELETE /v1/embeddings/:embedding_id
func (h *FaceHandler) DeleteEmbedding(c *fiber.Ctx) error {
	embeddingID, err := parseUUIDParam(c, "embedding_id")
	if err != nil {
		return err
	}

	if err := h.recognition.DeleteEmbedding(c.Context(), embeddingID); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func recognizeOptions(c *fiber.Ctx) recognition.RecognizeOptions {
	return recognition.RecognizeOptions{
		Location: strings.TrimSpace(c.FormValue("location")),
		DeviceID: strings.TrimSpace(c.FormValue("device_id")),
	}
}

func parseUUIDForm(c *fiber.Ctx, field string) (uuid.UUID, error) {
	raw := strings.TrimSpace(c.FormValue(field))
	if raw == "" {
		return uuid.Nil, domain.ErrValidationFailed.WithError(fmt.Errorf("%s is required", field))
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domain.ErrValidationFailed.WithError(fmt.Errorf("%s must be a UUID: %w", field, err))
	}
	return id, nil
}

func parseUUIDParam(c *fiber.Ctx, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Params(param)))
	if err != nil {
		return uuid.Nil, domain.ErrValidationFailed.WithError(fmt.Errorf("%s must be a UUID: %w", param, err))
	}
	return id, nil
}

// extractImageFile reads and validates one uploaded image
func extractImageFile(c *fiber.Ctx, field string) ([]byte, error) {
	file, err := c.FormFile(field)
	if err != nil {
		return nil, domain.ErrValidationFailed.WithError(fmt.Errorf("%s file is required: %w", field, err))
	}

	return readImageFile(file)
}

// extractImageFiles reads and validates a multi-file upload
func extractImageFiles(c *fiber.Ctx, field string) ([][]byte, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, domain.ErrValidationFailed.WithError(err)
	}

	files := form.File[field]
	if len(files) == 0 {
		return nil, domain.ErrValidationFailed.WithError(fmt.Errorf("at least one %s file is required", field))
	}

	images := make([][]byte, 0, len(files))
	for _, file := range files {
		imageBytes, err := readImageFile(file)
		if err != nil {
			return nil, err
		}
		images = append(images, imageBytes)
	}
	return images, nil
}

func readImageFile(file *multipart.FileHeader) ([]byte, error) {
	if file.Size == 0 || file.Size > maxImageSize {
		return nil, domain.ErrInvalidImage.WithError(fmt.Errorf("file %s has size %d", file.Filename, file.Size))
	}

	contentType := file.Header.Get("Content-Type")
	if !validImageTypes[contentType] {
		return nil, domain.ErrInvalidImage.WithError(errors.New("unsupported content type " + contentType))
	}

	f, err := file.Open()
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}
	defer func() {
		_ = f.Close()
	}()

	imageBytes, err := io.ReadAll(f)
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}

	return imageBytes, nil
}
