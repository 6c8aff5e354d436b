package services

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cvforge/internal/cache"
	"cvforge/internal/models"
	"cvforge/internal/pdf"
	"cvforge/internal/repositories"
	"cvforge/internal/storage"
)

const profileLinkPrefix = "https://github.com/"

const (
	cvCacheTTL      = time.Hour
	profileCacheTTL = 5 * time.Minute

	cacheKeyAll = "cvs:all"
)

func cacheKeyUser(id uuid.UUID) string     { return "cvs:user:" + id.String() }
func cacheKeyCv(id uuid.UUID) string       { return "cvs:" + id.String() }
func cacheKeyProfile(username string) string { return "github_user_data:" + username }

// ProfileFetcher gathers profile and repository data for a username.
type ProfileFetcher interface {
	CollectProfile(ctx context.Context, username string) (map[string]any, error)
}

// ContentSynthesizer turns the fetched profile into structured CV content.
type ContentSynthesizer interface {
	Synthesize(ctx context.Context, profile map[string]any) (map[string]any, error)
}

// DocumentRenderer converts CV content into PDF bytes using a named template.
type DocumentRenderer interface {
	GeneratePDF(ctx context.Context, cvData map[string]any, templateName string) ([]byte, error)
}

// CvService orchestrates the generation pipeline and CV access.
type CvService struct {
	cvs      repositories.CvRepository
	cache    cache.Cache
	fetcher  ProfileFetcher
	synth    ContentSynthesizer
	renderer DocumentRenderer
	store    storage.Storage
	logger   *zap.SugaredLogger
}

func NewCvService(
	cvs repositories.CvRepository,
	c cache.Cache,
	fetcher ProfileFetcher,
	synth ContentSynthesizer,
	renderer DocumentRenderer,
	store storage.Storage,
	logger *zap.SugaredLogger,
) *CvService {
	return &CvService{
		cvs:      cvs,
		cache:    c,
		fetcher:  fetcher,
		synth:    synth,
		renderer: renderer,
		store:    store,
		logger:   logger,
	}
}

// Generate runs fetch -> synthesize -> render -> persist for the given
// profile link. The link must point at the expected host; the username is
// its last path segment. There is no cross-step transactionality: a PDF
// whose record fails to persist stays in storage.
func (s *CvService) Generate(ctx context.Context, profileLink, templateName string, ownerID uuid.UUID) (*models.Cv, error) {
	if !strings.HasPrefix(profileLink, profileLinkPrefix) {
		return nil, ErrInvalidProfileLink
	}
	username := path.Base(strings.TrimSuffix(profileLink, "/"))

	profile, err := s.fetchProfile(ctx, username)
	if err != nil {
		return nil, err
	}
	content, err := s.synth.Synthesize(ctx, profile)
	if err != nil {
		return nil, err
	}
	pdfBytes, err := s.renderer.GeneratePDF(ctx, content, templateName)
	if err != nil {
		return nil, err
	}

	key := pdf.OutputKey(time.Now())
	fullPath, err := s.store.Save(ctx, key, pdfBytes)
	if err != nil {
		return nil, fmt.Errorf("store pdf: %w", err)
	}

	cv := &models.Cv{
		UserUUID:          ownerID,
		GithubProfileLink: profileLink,
		Filename:          path.Base(key),
		FullPath:          fullPath,
		JSONData:          content,
	}
	if err := s.cvs.Create(ctx, cv); err != nil {
		return nil, err
	}

	// Only already-warm list caches receive the new record; cold caches
	// fill on the next read.
	s.appendToWarmCache(ctx, cacheKeyUser(ownerID), cv)
	s.appendToWarmCache(ctx, cacheKeyAll, cv)

	return cv, nil
}

func (s *CvService) fetchProfile(ctx context.Context, username string) (map[string]any, error) {
	key := cacheKeyProfile(username)
	var profile map[string]any
	if ok, err := s.cache.Get(ctx, key, &profile); err == nil && ok {
		return profile, nil
	}
	profile, err := s.fetcher.CollectProfile(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, profile, profileCacheTTL); err != nil {
		s.logger.Debugw("profile cache write failed", "key", key, "error", err)
	}
	return profile, nil
}

func (s *CvService) appendToWarmCache(ctx context.Context, key string, cv *models.Cv) {
	var cached []models.Cv
	ok, err := s.cache.Get(ctx, key, &cached)
	if err != nil || !ok || len(cached) == 0 {
		return
	}
	cached = append(cached, *cv)
	if err := s.cache.Set(ctx, key, cached, cvCacheTTL); err != nil {
		s.logger.Debugw("cv cache write failed", "key", key, "error", err)
	}
}

// GetAll returns every CV, caching the result. Superuser gating happens at
// the handler.
func (s *CvService) GetAll(ctx context.Context) ([]models.Cv, error) {
	return s.listCached(ctx, cacheKeyAll, func() ([]models.Cv, error) {
		return s.cvs.GetAll(ctx)
	})
}

// GetMy returns the requester's CVs, caching per owner.
func (s *CvService) GetMy(ctx context.Context, ownerID uuid.UUID) ([]models.Cv, error) {
	return s.listCached(ctx, cacheKeyUser(ownerID), func() ([]models.Cv, error) {
		return s.cvs.GetAllByUser(ctx, ownerID)
	})
}

func (s *CvService) listCached(ctx context.Context, key string, load func() ([]models.Cv, error)) ([]models.Cv, error) {
	var cached []models.Cv
	if ok, err := s.cache.Get(ctx, key, &cached); err == nil && ok && len(cached) > 0 {
		return cached, nil
	}
	cvs, err := load()
	if err != nil {
		return nil, err
	}
	if len(cvs) == 0 {
		return nil, ErrNotFound
	}
	if err := s.cache.Set(ctx, key, cvs, cvCacheTTL); err != nil {
		s.logger.Debugw("cv cache write failed", "key", key, "error", err)
	}
	return cvs, nil
}

// GetByID returns a single CV after the ownership check: requester must own
// the record or be a superuser.
func (s *CvService) GetByID(ctx context.Context, id uuid.UUID, requester *models.User) (*models.Cv, error) {
	key := cacheKeyCv(id)
	var cached models.Cv
	if ok, err := s.cache.Get(ctx, key, &cached); err == nil && ok {
		if err := checkOwnership(&cached, requester); err != nil {
			return nil, err
		}
		return &cached, nil
	}

	cv, err := s.loadOwned(ctx, id, requester)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, cv, cvCacheTTL); err != nil {
		s.logger.Debugw("cv cache write failed", "key", key, "error", err)
	}
	return cv, nil
}

// Download returns the CV record whose stored file should be streamed back.
func (s *CvService) Download(ctx context.Context, id uuid.UUID, requester *models.User) (*models.Cv, error) {
	return s.loadOwned(ctx, id, requester)
}

// Delete removes the record and best-effort updates the three related cache
// entries. Cache failures are not surfaced.
func (s *CvService) Delete(ctx context.Context, id uuid.UUID, requester *models.User) error {
	cv, err := s.loadOwned(ctx, id, requester)
	if err != nil {
		return err
	}
	if err := s.cvs.Delete(ctx, id); err != nil {
		return err
	}

	s.removeFromWarmCache(ctx, cacheKeyUser(cv.UserUUID), id)
	s.removeFromWarmCache(ctx, cacheKeyAll, id)
	if err := s.cache.Delete(ctx, cacheKeyCv(id)); err != nil {
		s.logger.Debugw("cv cache delete failed", "id", id, "error", err)
	}
	return nil
}

func (s *CvService) removeFromWarmCache(ctx context.Context, key string, id uuid.UUID) {
	var cached []models.Cv
	ok, err := s.cache.Get(ctx, key, &cached)
	if err != nil || !ok {
		return
	}
	updated := cached[:0]
	for _, cv := range cached {
		if cv.UUID != id {
			updated = append(updated, cv)
		}
	}
	if err := s.cache.Set(ctx, key, updated, cvCacheTTL); err != nil {
		s.logger.Debugw("cv cache write failed", "key", key, "error", err)
	}
}

func (s *CvService) loadOwned(ctx context.Context, id uuid.UUID, requester *models.User) (*models.Cv, error) {
	cv, err := s.cvs.GetByUUID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := checkOwnership(cv, requester); err != nil {
		return nil, err
	}
	return cv, nil
}

func checkOwnership(cv *models.Cv, requester *models.User) error {
	if cv.UserUUID != requester.UUID && !requester.IsSuperuser {
		return ErrPermissionDenied
	}
	return nil
}
