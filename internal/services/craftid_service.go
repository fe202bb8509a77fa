package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/charlesng35/craftid/internal/credential"
	"github.com/charlesng35/craftid/internal/database"
	"github.com/charlesng35/craftid/internal/models"
	"github.com/charlesng35/craftid/internal/store"
	"github.com/charlesng35/craftid/pkg/crypto"
	apperrors "github.com/charlesng35/craftid/pkg/errors"
	"github.com/charlesng35/craftid/pkg/logger"
	"github.com/charlesng35/craftid/pkg/metrics"
	"github.com/charlesng35/craftid/pkg/validator"
)

const (
	// DefaultStoreTimeout bounds every individual record store call.
	DefaultStoreTimeout = 4 * time.Second
	// MaxListSize caps the number of records returned by List.
	MaxListSize = 200

	operationCreate     = "create"
	operationAddProduct = "add_product"
)

// CraftIDConfig tunes a CraftIDService.
type CraftIDConfig struct {
	Timeout time.Duration
	Counter string
	Clock   func() time.Time
}

// CredentialStatus reports the outcome of verifying a credential.
type CredentialStatus struct {
	Valid     bool
	PublicID  string
	ExpiresAt time.Time
}

// CraftIDService issues, lists and verifies CraftID records.
type CraftIDService struct {
	store   store.Store
	signer  *credential.Signer
	timeout time.Duration
	counter string
	now     func() time.Time
	log     *zap.Logger
}

// NewCraftIDService constructs the issuance service once a store and signer are supplied.
func NewCraftIDService(st store.Store, signer *credential.Signer, cfg CraftIDConfig) (*CraftIDService, error) {
	if st == nil {
		return nil, errors.New("craftid service: store is required")
	}
	if signer == nil {
		return nil, errors.New("craftid service: signer is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultStoreTimeout
	}
	counter := strings.TrimSpace(cfg.Counter)
	if counter == "" {
		counter = database.DefaultCounter
	}
	now := time.Now
	if cfg.Clock != nil {
		now = cfg.Clock
	}

	return &CraftIDService{
		store:   st,
		signer:  signer,
		timeout: timeout,
		counter: counter,
		now:     now,
		log:     logger.WithModule("craftid"),
	}, nil
}

// Create issues a new CraftID. A record with the same normalized art name,
// whether found up front or racing on insert, yields ErrConflict.
func (s *CraftIDService) Create(ctx context.Context, input models.OnboardingData) (*models.CraftID, error) {
	record, _, err := s.issue(ensuredContext(ctx), operationCreate, input, false)
	return record, err
}

// AddOrFetch issues a new CraftID or returns the existing record for the same
// normalized art name. created reports which of the two happened.
func (s *CraftIDService) AddOrFetch(ctx context.Context, input models.OnboardingData) (*models.CraftID, bool, error) {
	return s.issue(ensuredContext(ctx), operationAddProduct, input, true)
}

// List returns up to limit records, newest first. Out of range limits fall back to MaxListSize.
func (s *CraftIDService) List(ctx context.Context, limit int) ([]models.CraftID, error) {
	ctx = ensuredContext(ctx)
	if limit <= 0 || limit > MaxListSize {
		limit = MaxListSize
	}

	var records []models.CraftID
	err := s.call(ctx, "list", func(ctx context.Context) error {
		var err error
		records, err = s.store.List(ctx, limit)
		return err
	})
	if err != nil {
		return nil, classifyStoreError(err, apperrors.ErrStoreRead)
	}
	if records == nil {
		records = []models.CraftID{}
	}
	return records, nil
}

// Get looks a record up by its public id.
func (s *CraftIDService) Get(ctx context.Context, publicID string) (*models.CraftID, error) {
	ctx = ensuredContext(ctx)
	publicID = strings.TrimSpace(publicID)
	if publicID == "" {
		return nil, apperrors.NewBadRequest("public id is required")
	}

	var (
		record *models.CraftID
		found  bool
	)
	err := s.call(ctx, "find_by_public_id", func(ctx context.Context) error {
		var err error
		record, found, err = s.store.FindByPublicID(ctx, publicID)
		return err
	})
	if err != nil {
		return nil, classifyStoreError(err, apperrors.ErrStoreRead)
	}
	if !found {
		return nil, apperrors.ErrNotFound.WithMessage("CraftID not found")
	}
	return record, nil
}

// VerifyCredential checks a credential's signature, that it names an existing
// record and that it is the credential issued for that record. Expired
// credentials are reported as invalid rather than rejected.
func (s *CraftIDService) VerifyCredential(ctx context.Context, token string) (*CredentialStatus, error) {
	ctx = ensuredContext(ctx)
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperrors.NewBadRequest("credential is required")
	}

	claims, err := s.signer.Parse(token)
	expired := errors.Is(err, jwt.ErrTokenExpired) && claims != nil
	if err != nil && !expired {
		return nil, apperrors.NewBadRequest("invalid credential").WithInternal(err)
	}

	record, err := s.Get(ctx, claims.PublicID)
	if err != nil {
		return nil, err
	}

	status := &CredentialStatus{
		Valid:    !expired && record.PrivateKey == token,
		PublicID: record.PublicID,
	}
	if claims.ExpiresAt != nil {
		status.ExpiresAt = claims.ExpiresAt.Time.UTC()
	}
	return status, nil
}

func (s *CraftIDService) issue(ctx context.Context, operation string, input models.OnboardingData, fetchExisting bool) (*models.CraftID, bool, error) {
	if err := validator.ValidateStruct(input); err != nil {
		metrics.IssuedCraftIDs.WithLabelValues(operation, "invalid").Inc()
		return nil, false, apperrors.NewBadRequest(validator.Describe(err)).WithInternal(err)
	}

	norm := models.NormalizeArtName(input.Art.Name)

	existing, found, err := s.findByName(ctx, norm)
	if err != nil {
		metrics.IssuedCraftIDs.WithLabelValues(operation, "error").Inc()
		return nil, false, classifyStoreError(err, apperrors.ErrStoreRead)
	}
	if found {
		if fetchExisting {
			metrics.IssuedCraftIDs.WithLabelValues(operation, "existing").Inc()
			return existing, false, nil
		}
		metrics.IssuedCraftIDs.WithLabelValues(operation, "conflict").Inc()
		return nil, false, apperrors.ErrConflict.WithInternal(fmt.Errorf("art name %q taken by %s", norm, existing.PublicID))
	}

	var seq int64
	err = s.call(ctx, "allocate", func(ctx context.Context) error {
		var err error
		seq, err = s.store.AllocateNextSequence(ctx, s.counter)
		return err
	})
	if err != nil {
		metrics.IssuedCraftIDs.WithLabelValues(operation, "error").Inc()
		return nil, false, classifyStoreError(err, apperrors.ErrAllocationFailed)
	}

	publicID := models.FormatPublicID(seq)
	token, _, err := s.signer.Issue(publicID)
	if err != nil {
		metrics.IssuedCraftIDs.WithLabelValues(operation, "error").Inc()
		return nil, false, apperrors.ErrInternalServer.WithInternal(err)
	}

	record := &models.CraftID{
		PublicID:               publicID,
		PrivateKey:             token,
		PublicHash:             crypto.ContentHash(input.Art.Name, input.Art.Description, input.Art.Photo),
		ArtName:                input.Art.Name,
		ArtNameNorm:            norm,
		OriginalOnboardingData: datatypes.NewJSONType(input),
		CreatedAt:              s.now().UTC(),
	}

	err = s.call(ctx, "insert", func(ctx context.Context) error {
		return s.store.Insert(ctx, record)
	})
	if errors.Is(err, store.ErrDuplicateKey) {
		s.log.Info("insert lost uniqueness race",
			zap.String("public_id", publicID),
			zap.String("art_name_norm", norm),
		)
		if !fetchExisting {
			metrics.IssuedCraftIDs.WithLabelValues(operation, "conflict").Inc()
			return nil, false, apperrors.ErrConflict.WithInternal(err)
		}

		winner, found, findErr := s.findByName(ctx, norm)
		if findErr != nil {
			metrics.IssuedCraftIDs.WithLabelValues(operation, "error").Inc()
			return nil, false, classifyStoreError(findErr, apperrors.ErrStoreRead)
		}
		if !found {
			metrics.IssuedCraftIDs.WithLabelValues(operation, "error").Inc()
			return nil, false, apperrors.ErrStoreWrite.WithInternal(err)
		}
		metrics.IssuedCraftIDs.WithLabelValues(operation, "existing").Inc()
		return winner, false, nil
	}
	if err != nil {
		metrics.IssuedCraftIDs.WithLabelValues(operation, "error").Inc()
		s.log.Warn("persist craftid failed", zap.String("public_id", publicID), zap.Error(err))
		return nil, false, classifyStoreError(err, apperrors.ErrStoreWrite)
	}

	metrics.IssuedCraftIDs.WithLabelValues(operation, "created").Inc()
	s.log.Info("craftid issued",
		zap.String("public_id", publicID),
		zap.String("operation", operation),
	)
	return record, true, nil
}

func (s *CraftIDService) findByName(ctx context.Context, norm string) (*models.CraftID, bool, error) {
	var (
		record *models.CraftID
		found  bool
	)
	err := s.call(ctx, "find_by_name", func(ctx context.Context) error {
		var err error
		record, found, err = s.store.FindByNormalizedName(ctx, norm)
		return err
	})
	return record, found, err
}

// call runs one store operation under the configured timeout. A failure that
// happens after the deadline passed is reported as a deadline error whatever
// the driver returned.
func (s *CraftIDService) call(ctx context.Context, op string, fn func(context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	err := fn(callCtx)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %w", context.DeadlineExceeded, err)
	}

	outcome := "ok"
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		outcome = "timeout"
	case errors.Is(err, store.ErrDuplicateKey):
		outcome = "duplicate"
	case err != nil:
		outcome = "error"
	}
	metrics.StoreLatency.WithLabelValues(op, outcome).Observe(time.Since(start).Seconds())

	if outcome == "timeout" || outcome == "error" {
		s.log.Warn("store call failed", zap.String("operation", op), zap.String("outcome", outcome), zap.Error(err))
	}
	return err
}

// classifyStoreError maps store failures onto the caller-facing error kinds.
// fallback applies when the failure is neither a timeout nor a lost connection.
func classifyStoreError(err error, fallback *apperrors.AppError) *apperrors.AppError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.ErrStoreTimeout.WithInternal(err)
	case errors.Is(err, store.ErrUnavailable):
		return apperrors.ErrStoreUnavailable.WithInternal(err)
	default:
		return fallback.WithInternal(err)
	}
}
