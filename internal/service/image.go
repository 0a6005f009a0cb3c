// Package service contains business logic for the Kitasuro application.
//
// This file implements the image service for proposal hero images.
package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/kitasuro/kitasuro/internal/domain"
	"github.com/kitasuro/kitasuro/internal/repository"
	"github.com/kitasuro/kitasuro/internal/storage"
)

// =============================================================================
// Interface Definition
// =============================================================================

// ImageService defines the interface for hero image operations.
type ImageService interface {
	// UploadHero uploads a hero image for a proposal, generates a thumbnail,
	// stores both, and records the image URL on the proposal.
	// Returns domain.EPLANLIMIT if the organization's plan does not include
	// image uploads.
	// Returns domain.EINVALID for unsupported or oversized files.
	// Returns domain.ENOTFOUND if the proposal doesn't belong to the organization.
	UploadHero(ctx context.Context, file multipart.File, header *multipart.FileHeader, proposalID, orgID uuid.UUID) (*domain.HeroImage, error)

	// RemoveHero clears the hero image from a proposal and deletes the
	// stored objects if they live in this application's storage.
	RemoveHero(ctx context.Context, proposalID, orgID uuid.UUID) error
}

// =============================================================================
// Implementation
// =============================================================================

type imageService struct {
	queries            *repository.Queries
	plans              PlanService
	storage            storage.Storage
	thumbnailProcessor ThumbnailProcessor
	logger             *slog.Logger
}

var _ ImageService = (*imageService)(nil)

// NewImageService creates a new ImageService.
func NewImageService(
	queries *repository.Queries,
	plans PlanService,
	store storage.Storage,
	thumbnailProcessor ThumbnailProcessor,
	logger *slog.Logger,
) ImageService {
	return &imageService{
		queries:            queries,
		plans:              plans,
		storage:            store,
		thumbnailProcessor: thumbnailProcessor,
		logger:             logger,
	}
}

// =============================================================================
// UploadHero
// =============================================================================

func (s *imageService) UploadHero(ctx context.Context, file multipart.File, header *multipart.FileHeader, proposalID, orgID uuid.UUID) (*domain.HeroImage, error) {
	const op = "ImageService.UploadHero"

	access, err := s.plans.CheckFeatureAccess(ctx, orgID, domain.FeatureUploadImages, CheckOptions{})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to check plan access")
	}
	if !access.Allowed {
		return nil, domain.PlanLimit(op, access.Reason)
	}

	proposal, err := s.queries.GetProposalByIDAndOrg(ctx, repository.GetProposalByIDAndOrgParams{
		ID:    proposalID,
		OrgID: orgID,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "proposal", proposalID.String())
		}
		return nil, domain.Internal(err, op, "failed to fetch proposal")
	}

	if domain.ProposalStatus(proposal.Status) == domain.ProposalStatusArchived {
		return nil, domain.Forbidden(op, "Cannot change the hero image of an archived proposal")
	}

	if err := domain.ValidateImageSize(header.Size); err != nil {
		return nil, err
	}

	// Sniff the real content type rather than trusting the upload header.
	headerBytes := make([]byte, 512)
	n, err := file.Read(headerBytes)
	if err != nil && err != io.EOF {
		return nil, domain.Internal(err, op, "failed to read file header")
	}
	contentType := http.DetectContentType(headerBytes[:n])

	if !domain.IsValidImageContentType(contentType) {
		return nil, domain.Invalid(op, fmt.Sprintf("Unsupported image type: %s. Only JPEG and PNG are supported.", contentType))
	}

	if seeker, ok := file.(io.Seeker); ok {
		if _, err := seeker.Seek(0, 0); err != nil {
			return nil, domain.Internal(err, op, "failed to reset file pointer")
		}
	}

	fileData, err := io.ReadAll(file)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to read file data")
	}

	thumbnailBytes, width, height, err := s.thumbnailProcessor.GenerateThumbnail(
		bytes.NewReader(fileData),
		domain.ThumbnailMaxWidth,
		domain.ThumbnailMaxHeight,
	)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to generate thumbnail")
	}

	// Both keys share one image ID so the thumbnail can be located from the
	// hero key later without a dedicated images table.
	ext := filepath.Ext(header.Filename)
	imageID := uuid.New()
	storageKey := fmt.Sprintf("orgs/%s/proposals/%s/hero/%s%s", orgID, proposalID, imageID, ext)
	thumbnailKey := fmt.Sprintf("orgs/%s/proposals/%s/thumbnails/%s.jpg", orgID, proposalID, imageID)

	if err := s.storage.Put(ctx, storageKey, bytes.NewReader(fileData), storage.PutOptions{
		ContentType: contentType,
		MaxSize:     domain.MaxImageSize,
		Overwrite:   false,
		Public:      true,
	}); err != nil {
		return nil, domain.Internal(err, op, "failed to upload hero image")
	}

	if err := s.storage.Put(ctx, thumbnailKey, bytes.NewReader(thumbnailBytes), storage.PutOptions{
		ContentType: "image/jpeg",
		Overwrite:   false,
		Public:      true,
	}); err != nil {
		_ = s.storage.Delete(ctx, storageKey)
		return nil, domain.Internal(err, op, "failed to upload thumbnail")
	}

	url, err := s.storage.URL(ctx, storageKey, 0)
	if err != nil {
		_ = s.storage.Delete(ctx, storageKey)
		_ = s.storage.Delete(ctx, thumbnailKey)
		return nil, domain.Internal(err, op, "failed to generate image URL")
	}
	thumbnailURL, err := s.storage.URL(ctx, thumbnailKey, 0)
	if err != nil {
		_ = s.storage.Delete(ctx, storageKey)
		_ = s.storage.Delete(ctx, thumbnailKey)
		return nil, domain.Internal(err, op, "failed to generate thumbnail URL")
	}

	// Replace any prior hero image so storage doesn't accumulate orphans.
	s.deleteStoredHero(ctx, proposal.HeroImage)

	if err := s.queries.UpdateProposalHeroImage(ctx, repository.UpdateProposalHeroImageParams{
		ID:        proposalID,
		OrgID:     orgID,
		HeroImage: url,
	}); err != nil {
		_ = s.storage.Delete(ctx, storageKey)
		_ = s.storage.Delete(ctx, thumbnailKey)
		return nil, domain.Internal(err, op, "failed to record hero image")
	}

	s.logger.Info("uploaded hero image",
		"proposal_id", proposalID,
		"org_id", orgID,
		"key", storageKey,
		"size", header.Size,
	)

	return &domain.HeroImage{
		URL:          url,
		ThumbnailURL: thumbnailURL,
		StorageKey:   storageKey,
		ThumbnailKey: thumbnailKey,
		ContentType:  contentType,
		SizeBytes:    header.Size,
		Width:        int32(width),
		Height:       int32(height),
	}, nil
}

// =============================================================================
// RemoveHero
// =============================================================================

func (s *imageService) RemoveHero(ctx context.Context, proposalID, orgID uuid.UUID) error {
	const op = "ImageService.RemoveHero"

	proposal, err := s.queries.GetProposalByIDAndOrg(ctx, repository.GetProposalByIDAndOrgParams{
		ID:    proposalID,
		OrgID: orgID,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound(op, "proposal", proposalID.String())
		}
		return domain.Internal(err, op, "failed to fetch proposal")
	}

	s.deleteStoredHero(ctx, proposal.HeroImage)

	if err := s.queries.UpdateProposalHeroImage(ctx, repository.UpdateProposalHeroImageParams{
		ID:        proposalID,
		OrgID:     orgID,
		HeroImage: "",
	}); err != nil {
		return domain.Internal(err, op, "failed to clear hero image")
	}

	return nil
}

// =============================================================================
// Helpers
// =============================================================================

// deleteStoredHero removes a previously stored hero image and its thumbnail.
// External URLs (pasted by the user rather than uploaded) are left alone.
// Deletion failures are logged, not propagated; the database record is the
// source of truth.
func (s *imageService) deleteStoredHero(ctx context.Context, heroURL string) {
	key, ok := storageKeyFromURL(heroURL)
	if !ok {
		return
	}
	if err := s.storage.Delete(ctx, key); err != nil {
		s.logger.Error("failed to delete hero image from storage", "error", err, "key", key)
	}
	if thumbKey := heroToThumbnailKey(key); thumbKey != "" {
		if err := s.storage.Delete(ctx, thumbKey); err != nil {
			s.logger.Error("failed to delete thumbnail from storage", "error", err, "key", thumbKey)
		}
	}
}

// storageKeyFromURL extracts the storage key from a hero image URL produced
// by this service. Returns false for external URLs that were pasted in by
// hand instead of uploaded.
func storageKeyFromURL(url string) (string, bool) {
	idx := strings.Index(url, "/orgs/")
	if idx < 0 {
		return "", false
	}
	key := url[idx+1:]
	if !strings.Contains(key, "/hero/") {
		return "", false
	}
	return key, true
}

// heroToThumbnailKey derives the thumbnail key from a hero image key.
// The two keys share an image ID and differ only in directory and extension.
func heroToThumbnailKey(heroKey string) string {
	replaced := strings.Replace(heroKey, "/hero/", "/thumbnails/", 1)
	if replaced == heroKey {
		return ""
	}
	ext := filepath.Ext(replaced)
	return strings.TrimSuffix(replaced, ext) + ".jpg"
}
