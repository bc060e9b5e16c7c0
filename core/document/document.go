package document

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/tarajali/core"
)

var ErrNotFound = errors.New("document not found")

// Document kinds
const (
	KindCV                   = "cv"
	KindTranscript           = "transcript"
	KindRecommendationLetter = "recommendation_letter"
	KindApplicationLetter    = "application_letter"
	KindOfferLetter          = "offer_letter"
	KindInsuranceCover       = "insurance_cover"
	KindReport               = "report"
	KindOther                = "other"
)

type (
	// Document records metadata about an uploaded file. The bytes live
	// elsewhere; this is the catalogue row only.
	Document struct {
		ID            string    `json:"id"`
		OwnerID       string    `json:"owner_id"`
		ApplicationID string    `json:"application_id,omitempty"`
		Kind          string    `json:"kind"`
		Title         string    `json:"title"`
		Description   string    `json:"description,omitempty"`
		FileName      string    `json:"file_name"`
		FilePath      string    `json:"file_path"`
		ContentType   string    `json:"content_type"`
		SizeBytes     int64     `json:"size_bytes"`
		UploadedAt    time.Time `json:"uploaded_at"`
	}

	NewDocument struct {
		ApplicationID string `json:"application_id"`
		Kind          string `json:"kind" validate:"required,oneof=cv transcript recommendation_letter application_letter offer_letter insurance_cover report other"`
		Title         string `json:"title" validate:"required"`
		Description   string `json:"description"`
		FileName      string `json:"file_name" validate:"required"`
		FilePath      string `json:"file_path" validate:"required"`
		ContentType   string `json:"content_type" validate:"required"`
		SizeBytes     int64  `json:"size_bytes" validate:"required,min=1"`
	}

	Repository interface {
		CreateDocument(ctx context.Context, doc Document, exec ...core.DBExecutor) (Document, error)
		QueryDocuments(ctx context.Context, ownerID, applicationID string, exec ...core.DBExecutor) ([]Document, error)
		GetDocument(ctx context.Context, id string, exec ...core.DBExecutor) (Document, error)
		DeleteDocument(ctx context.Context, id string, exec ...core.DBExecutor) error
	}

	Service interface {
		Add(ctx context.Context, nd NewDocument, ownerID string) (Document, error)
		QueryForOwner(ctx context.Context, ownerID string) ([]Document, error)
		QueryForApplication(ctx context.Context, applicationID string) ([]Document, error)
		GetByID(ctx context.Context, id string) (Document, error)
		Delete(ctx context.Context, id string) error
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (nd *NewDocument) Validate(ctx context.Context, validate *validator.Validate) error {
	nd.Title = core.CleanString(nd.Title)
	nd.Description = core.CleanString(nd.Description)
	nd.FileName = core.CleanString(nd.FileName)
	nd.FilePath = core.CleanString(nd.FilePath)
	nd.Kind = core.CleanString(nd.Kind, true)
	return validate.StructCtx(ctx, nd)
}

func (svc *service) Add(ctx context.Context, nd NewDocument, ownerID string) (Document, error) {
	doc := Document{
		ID:            uuid.New().String(),
		OwnerID:       ownerID,
		ApplicationID: nd.ApplicationID,
		Kind:          nd.Kind,
		Title:         nd.Title,
		Description:   nd.Description,
		FileName:      nd.FileName,
		FilePath:      nd.FilePath,
		ContentType:   nd.ContentType,
		SizeBytes:     nd.SizeBytes,
		UploadedAt:    time.Now().UTC(),
	}
	return svc.repo.CreateDocument(ctx, doc)
}

func (svc *service) QueryForOwner(ctx context.Context, ownerID string) ([]Document, error) {
	return svc.repo.QueryDocuments(ctx, ownerID, "")
}

func (svc *service) QueryForApplication(ctx context.Context, applicationID string) ([]Document, error) {
	return svc.repo.QueryDocuments(ctx, "", applicationID)
}

func (svc *service) GetByID(ctx context.Context, id string) (Document, error) {
	return svc.repo.GetDocument(ctx, id)
}

func (svc *service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteDocument(ctx, id)
}
