package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/presia-labs/presia/internal/api/middleware"
	"github.com/presia-labs/presia/internal/domain"
	"github.com/presia-labs/presia/internal/recognition"
)

// MockEnrollmentService is a mock implementation of EnrollmentService
type MockEnrollmentService struct {
	mock.Mock
}

func (m *MockEnrollmentService) Enroll(ctx context.Context, identityID uuid.UUID, images [][]byte, sourceRef string) (*domain.EnrollmentResult, error) {
	args := m.Called(ctx, identityID, images, sourceRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EnrollmentResult), args.Error(1)
}

// MockRecognitionService is a mock implementation of RecognitionService
type MockRecognitionService struct {
	mock.Mock
}

func (m *MockRecognitionService) Recognize(ctx context.Context, image []byte, opts recognition.RecognizeOptions) (domain.RecognitionOutcome, error) {
	args := m.Called(ctx, image, opts)
	return args.Get(0).(domain.RecognitionOutcome), args.Error(1)
}

func (m *MockRecognitionService) RecognizeBulk(ctx context.Context, images [][]byte, opts recognition.RecognizeOptions) (*domain.BulkResult, error) {
	args := m.Called(ctx, images, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BulkResult), args.Error(1)
}

func (m *MockRecognitionService) Compare(ctx context.Context, imageA, imageB []byte) (*domain.Comparison, error) {
	args := m.Called(ctx, imageA, imageB)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Comparison), args.Error(1)
}

func (m *MockRecognitionService) ListEmbeddings(ctx context.Context, identityID uuid.UUID) ([]domain.Embedding, error) {
	args := m.Called(ctx, identityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Embedding), args.Error(1)
}

func (m *MockRecognitionService) DeleteEmbedding(ctx context.Context, embeddingID uuid.UUID) error {
	args := m.Called(ctx, embeddingID)
	return args.Error(0)
}

// testLogger returns a logger that discards all output
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func createTestApp(enrollSvc *MockEnrollmentService, recogSvc *MockRecognitionService) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(testLogger()),
	})

	h := NewFaceHandler(enrollSvc, recogSvc, testLogger())
	v1 := app.Group("/v1")
	v1.Post("/faces/enroll", h.Enroll)
	v1.Post("/faces/recognize", h.Recognize)
	v1.Post("/faces/recognize/bulk", h.RecognizeBulk)
	v1.Post("/faces/compare", h.Compare)
	v1.Get("/identities/:identity_id/embeddings", h.ListEmbeddings)
	v1.Delete("/embeddings/:embedding_id", h.DeleteEmbedding)

	return app
}

type filePart struct {
	field   string
	content []byte
}

// buildMultipart assembles a multipart body from form fields and jpeg file
// parts.
func buildMultipart(t *testing.T, fields map[string]string, files []filePart) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}

	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+f.field+`"; filename="sample.jpg"`)
		h.Set("Content-Type", "image/jpeg")
		part, err := writer.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(f.content)
		require.NoError(t, err)
	}

	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestFaceHandler_Enroll(t *testing.T) {
	identityID := uuid.New()
	sample := make([]byte, 5000)

	tests := []struct {
		name           string
		fields         map[string]string
		files          []filePart
		setupMock      func(*MockEnrollmentService)
		expectedStatus int
		checkResponse  func(t *testing.T, body []byte)
	}{
		{
			name:   "successful enrollment",
			fields: map[string]string{"identity_id": identityID.String(), "source_ref": "kiosk-7"},
			files: []filePart{
				{"images", sample}, {"images", sample}, {"images", sample},
			},
			setupMock: func(m *MockEnrollmentService) {
				m.On("Enroll", mock.Anything, identityID, mock.Anything, "kiosk-7").Return(&domain.EnrollmentResult{
					IdentityID:      identityID,
					EmbeddingsCount: 3,
					Scores:          []float64{0.9, 0.9, 0.9},
				}, nil)
			},
			expectedStatus: 201,
			checkResponse: func(t *testing.T, body []byte) {
				var resp EnrollResponse
				require.NoError(t, json.Unmarshal(body, &resp))
				assert.Equal(t, identityID.String(), resp.IdentityID)
				assert.Equal(t, 3, resp.EmbeddingsCount)
				assert.Empty(t, resp.Warnings)
			},
		},
		{
			name:           "missing identity_id",
			fields:         map[string]string{},
			files:          []filePart{{"images", sample}, {"images", sample}, {"images", sample}},
			setupMock:      func(m *MockEnrollmentService) {},
			expectedStatus: 422,
		},
		{
			name:           "identity_id not a uuid",
			fields:         map[string]string{"identity_id": "student-42"},
			files:          []filePart{{"images", sample}, {"images", sample}, {"images", sample}},
			setupMock:      func(m *MockEnrollmentService) {},
			expectedStatus: 422,
		},
		{
			name:           "no image files",
			fields:         map[string]string{"identity_id": identityID.String()},
			files:          nil,
			setupMock:      func(m *MockEnrollmentService) {},
			expectedStatus: 422,
		},
		{
			name:   "wrong sample count",
			fields: map[string]string{"identity_id": identityID.String()},
			files:  []filePart{{"images", sample}},
			setupMock: func(m *MockEnrollmentService) {
				m.On("Enroll", mock.Anything, identityID, mock.Anything, "").
					Return(nil, domain.ErrInvalidSampleCount)
			},
			expectedStatus: 400,
		},
		{
			name:   "all samples unusable",
			fields: map[string]string{"identity_id": identityID.String()},
			files:  []filePart{{"images", sample}, {"images", sample}, {"images", sample}},
			setupMock: func(m *MockEnrollmentService) {
				m.On("Enroll", mock.Anything, identityID, mock.Anything, "").
					Return(nil, domain.ErrEnrollmentFailed)
			},
			expectedStatus: 422,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enrollSvc := new(MockEnrollmentService)
			tt.setupMock(enrollSvc)
			app := createTestApp(enrollSvc, new(MockRecognitionService))

			body, contentType := buildMultipart(t, tt.fields, tt.files)
			req := httptest.NewRequest("POST", "/v1/faces/enroll", body)
			req.Header.Set("Content-Type", contentType)

			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.checkResponse != nil {
				respBody, err := io.ReadAll(resp.Body)
				require.NoError(t, err)
				tt.checkResponse(t, respBody)
			}
			enrollSvc.AssertExpectations(t)
		})
	}
}

func TestFaceHandler_Recognize(t *testing.T) {
	identityID := uuid.New()
	sample := make([]byte, 5000)

	tests := []struct {
		name           string
		setupMock      func(*MockRecognitionService)
		expectedStatus int
		checkResponse  func(t *testing.T, body []byte)
	}{
		{
			name: "recognized",
			setupMock: func(m *MockRecognitionService) {
				m.On("Recognize", mock.Anything, sample, recognition.RecognizeOptions{Location: "gate-1", DeviceID: "cam-3"}).
					Return(domain.Recognized(identityID, 0.91), nil)
			},
			expectedStatus: 200,
			checkResponse: func(t *testing.T, body []byte) {
				var resp domain.RecognitionOutcome
				require.NoError(t, json.Unmarshal(body, &resp))
				assert.True(t, resp.Recognized)
				assert.Equal(t, identityID, *resp.IdentityID)
				assert.Equal(t, 0.91, resp.Score)
			},
		},
		{
			name: "unknown below threshold",
			setupMock: func(m *MockRecognitionService) {
				m.On("Recognize", mock.Anything, sample, mock.Anything).
					Return(domain.Unknown(domain.ReasonBelowThreshold), nil)
			},
			expectedStatus: 200,
			checkResponse: func(t *testing.T, body []byte) {
				var resp domain.RecognitionOutcome
				require.NoError(t, json.Unmarshal(body, &resp))
				assert.False(t, resp.Recognized)
				assert.Equal(t, domain.ReasonBelowThreshold, resp.Reason)
			},
		},
		{
			name: "undecodable image",
			setupMock: func(m *MockRecognitionService) {
				m.On("Recognize", mock.Anything, sample, mock.Anything).
					Return(domain.RecognitionOutcome{}, domain.ErrInvalidImage)
			},
			expectedStatus: 422,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recogSvc := new(MockRecognitionService)
			tt.setupMock(recogSvc)
			app := createTestApp(new(MockEnrollmentService), recogSvc)

			body, contentType := buildMultipart(t,
				map[string]string{"location": "gate-1", "device_id": "cam-3"},
				[]filePart{{"image", sample}})
			req := httptest.NewRequest("POST", "/v1/faces/recognize", body)
			req.Header.Set("Content-Type", contentType)

			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.checkResponse != nil {
				respBody, err := io.ReadAll(resp.Body)
				require.NoError(t, err)
				tt.checkResponse(t, respBody)
			}
		})
	}
}

func TestFaceHandler_Recognize_MissingImage(t *testing.T) {
	app := createTestApp(new(MockEnrollmentService), new(MockRecognitionService))

	body, contentType := buildMultipart(t, map[string]string{}, nil)
	req := httptest.NewRequest("POST", "/v1/faces/recognize", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 422, resp.StatusCode)
}

func TestFaceHandler_RecognizeBulk(t *testing.T) {
	identityID := uuid.New()
	sample := make([]byte, 5000)

	recogSvc := new(MockRecognitionService)
	recogSvc.On("RecognizeBulk", mock.Anything, mock.MatchedBy(func(images [][]byte) bool {
		return len(images) == 3
	}), mock.Anything).Return(&domain.BulkResult{
		Recognized: []domain.RecognitionOutcome{domain.Recognized(identityID, 0.88)},
		Unknown: []domain.RecognitionOutcome{
			domain.Unknown(domain.ReasonNoFaceDetected),
			domain.Unknown(domain.ReasonExtractionFailed),
		},
	}, nil)

	app := createTestApp(new(MockEnrollmentService), recogSvc)

	body, contentType := buildMultipart(t, nil, []filePart{
		{"images", sample}, {"images", sample}, {"images", sample},
	})
	req := httptest.NewRequest("POST", "/v1/faces/recognize/bulk", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var result domain.BulkResult
	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(respBody, &result))
	assert.Len(t, result.Recognized, 1)
	assert.Len(t, result.Unknown, 2)
}

func TestFaceHandler_Compare(t *testing.T) {
	sampleA := bytes.Repeat([]byte{1}, 2000)
	sampleB := bytes.Repeat([]byte{2}, 2000)

	recogSvc := new(MockRecognitionService)
	recogSvc.On("Compare", mock.Anything, sampleA, sampleB).Return(&domain.Comparison{
		Similarity:   0.72,
		IsSamePerson: true,
		Threshold:    0.6,
	}, nil)

	app := createTestApp(new(MockEnrollmentService), recogSvc)

	body, contentType := buildMultipart(t, nil, []filePart{
		{"image_a", sampleA}, {"image_b", sampleB},
	})
	req := httptest.NewRequest("POST", "/v1/faces/compare", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var cmp domain.Comparison
	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(respBody, &cmp))
	assert.Equal(t, 0.72, cmp.Similarity)
	assert.True(t, cmp.IsSamePerson)
}

func TestFaceHandler_ListEmbeddings(t *testing.T) {
	identityID := uuid.New()

	recogSvc := new(MockRecognitionService)
	recogSvc.On("ListEmbeddings", mock.Anything, identityID).Return([]domain.Embedding{
		{ID: uuid.New(), IdentityID: identityID, Quality: 0.9, SourceRef: "kiosk-7"},
	}, nil)

	app := createTestApp(new(MockEnrollmentService), recogSvc)

	req := httptest.NewRequest("GET", "/v1/identities/"+identityID.String()+"/embeddings", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var list ListEmbeddingsResponse
	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(respBody, &list))
	assert.Equal(t, identityID.String(), list.IdentityID)
	require.Len(t, list.Embeddings, 1)
	assert.Equal(t, "kiosk-7", list.Embeddings[0].SourceRef)
}

func TestFaceHandler_ListEmbeddings_BadUUID(t *testing.T) {
	app := createTestApp(new(MockEnrollmentService), new(MockRecognitionService))

	req := httptest.NewRequest("GET", "/v1/identities/not-a-uuid/embeddings", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 422, resp.StatusCode)
}

func TestFaceHandler_DeleteEmbedding(t *testing.T) {
	embeddingID := uuid.New()

	tests := []struct {
		name           string
		setupMock      func(*MockRecognitionService)
		expectedStatus int
	}{
		{
			name: "existing embedding",
			setupMock: func(m *MockRecognitionService) {
				m.On("DeleteEmbedding", mock.Anything, embeddingID).Return(nil)
			},
			expectedStatus: 204,
		},
		{
			name: "unknown embedding",
			setupMock: func(m *MockRecognitionService) {
				m.On("DeleteEmbedding", mock.Anything, embeddingID).Return(domain.ErrEmbeddingNotFound)
			},
			expectedStatus: 404,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recogSvc := new(MockRecognitionService)
			tt.setupMock(recogSvc)
			app := createTestApp(new(MockEnrollmentService), recogSvc)

			req := httptest.NewRequest("DELETE", "/v1/embeddings/"+embeddingID.String(), nil)
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}
}
