package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/princeprakhar/marketplace-backend/internal/events"
	"github.com/princeprakhar/marketplace-backend/internal/linkedin"
	"github.com/princeprakhar/marketplace-backend/internal/models"
	"github.com/princeprakhar/marketplace-backend/pkg/logger"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Redirect error codes sent to the frontend after a failed callback.
const (
	CallbackInvalidRequest  = "invalid_request"
	CallbackInvalidState    = "invalid_state"
	CallbackStateReplayed   = "state_replayed"
	CallbackAccountConflict = "account_conflict"
	CallbackProviderError   = "provider_error"
	CallbackServerError     = "server_error"
)

// NonceClaimer records used state nonces. Claim returns false for a nonce seen before.
type NonceClaimer interface {
	Claim(ctx context.Context, nonce string, ttl time.Duration) (bool, error)
}

// LinkedInService links local users to their LinkedIn identity and resolves whether
// that link still verifies them.
type LinkedInService struct {
	db          *gorm.DB
	provider    linkedin.Provider
	codec       *linkedin.StateCodec
	nonces      NonceClaimer
	frontendURL string
	publisher   events.Publisher
	now         func() time.Time
}

// NewLinkedInService builds the service. nonces may be nil, in which case a state token
// can be replayed until it expires.
func NewLinkedInService(db *gorm.DB, provider linkedin.Provider, codec *linkedin.StateCodec, nonces NonceClaimer, frontendURL string, publisher events.Publisher) *LinkedInService {
	return &LinkedInService{
		db:          db,
		provider:    provider,
		codec:       codec,
		nonces:      nonces,
		frontendURL: frontendURL,
		publisher:   publisher,
		now:         time.Now,
	}
}

// CallbackParams are the query parameters LinkedIn sends back to the redirect URI.
type CallbackParams struct {
	Code             string `form:"code"`
	State            string `form:"state"`
	Error            string `form:"error"`
	ErrorDescription string `form:"error_description"`
}

// CallbackError is a failed callback, reported to the frontend through the redirect.
type CallbackError struct {
	Code    string
	Message string
	Err     error
}

func (e *CallbackError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return e.Code + ": " + e.Message
}

func (e *CallbackError) Unwrap() error {
	return e.Err
}

func callbackFailure(code, message string, err error) *CallbackError {
	return &CallbackError{Code: code, Message: message, Err: err}
}

// Initiate issues a signed state for userID and returns the LinkedIn consent URL.
// A review id, when given, must belong to the user.
func (s *LinkedInService) Initiate(ctx context.Context, userID uint, reviewID *uint) (*AuthorizationDTO, error) {
	if reviewID != nil {
		var review models.Review
		if err := s.db.WithContext(ctx).Select("id", "author_id").First(&review, *reviewID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, notFound("Review")
			}
			return nil, fmt.Errorf("failed to fetch review: %w", err)
		}
		if review.AuthorID != userID {
			return nil, ErrForbidden
		}
	}

	state, claims, err := s.codec.Issue(userID, reviewID)
	if err != nil {
		return nil, err
	}

	return &AuthorizationDTO{
		AuthorizationURL: s.provider.AuthCodeURL(state),
		ExpiresAt:        claims.IssuedAtTime().Add(s.codec.TTL()),
	}, nil
}

// HandleCallback completes the authorization and returns the frontend URL to redirect to.
// It never fails: errors are carried in the redirect's query string.
func (s *LinkedInService) HandleCallback(ctx context.Context, params CallbackParams) string {
	reviewID, err := s.completeCallback(ctx, params)
	if err != nil {
		var cbErr *CallbackError
		if !errors.As(err, &cbErr) {
			cbErr = callbackFailure(CallbackServerError, "Failed to link LinkedIn account", err)
		}
		logger.WithFields(logrus.Fields{"code": cbErr.Code}).Warn("linkedin callback failed: ", cbErr)
		return s.errorRedirect(cbErr.Code, cbErr.Message)
	}
	return s.successRedirect(reviewID)
}

// completeCallback returns the id of the review it marked verified, if any.
func (s *LinkedInService) completeCallback(ctx context.Context, params CallbackParams) (*uint, error) {
	if params.Error != "" {
		message := params.ErrorDescription
		if message == "" {
			message = "Authorization was not granted"
		}
		return nil, callbackFailure(params.Error, message, nil)
	}
	if params.Code == "" || params.State == "" {
		return nil, callbackFailure(CallbackInvalidRequest, "Missing authorization code or state", nil)
	}

	claims, err := s.codec.Parse(params.State)
	if err != nil {
		return nil, callbackFailure(CallbackInvalidState, "Invalid or expired state parameter", errors.Join(ErrInvalidState, err))
	}

	// Spend neither the nonce nor the authorization code on a state whose user is gone.
	if err := s.db.WithContext(ctx).Select("id").First(&models.User{}, claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, callbackFailure(CallbackInvalidState, "Account not found for this authorization", notFound("User"))
		}
		return nil, callbackFailure(CallbackServerError, "Failed to link LinkedIn account", err)
	}

	if s.nonces != nil {
		fresh, err := s.nonces.Claim(ctx, claims.Nonce(), s.codec.TTL())
		if err != nil {
			return nil, callbackFailure(CallbackServerError, "Unable to validate state parameter", err)
		}
		if !fresh {
			return nil, callbackFailure(CallbackStateReplayed, "This authorization has already been used", ErrStateReplayed)
		}
	}

	token, err := s.provider.Exchange(ctx, params.Code)
	if err != nil {
		return nil, callbackFailure(CallbackProviderError, "Failed to exchange authorization code", &ProviderError{Op: "token exchange", Err: err})
	}

	profile, err := s.provider.FetchProfile(ctx, token.AccessToken)
	if err != nil {
		return nil, callbackFailure(CallbackProviderError, "Failed to fetch LinkedIn profile", &ProviderError{Op: "userinfo", Err: err})
	}

	verifiedAt := s.now()
	reviewVerified, err := s.linkAccount(ctx, claims, token, profile, verifiedAt)
	if err != nil {
		if errors.Is(err, ErrIdentityConflict) {
			return nil, callbackFailure(CallbackAccountConflict, "This LinkedIn account is already linked to another user", err)
		}
		return nil, err
	}

	logger.WithFields(logrus.Fields{"user_id": claims.UserID}).Info("linkedin account linked")
	publish(ctx, s.publisher, events.IdentityLinked, userKey(claims.UserID), map[string]any{
		"user_id":     claims.UserID,
		"provider":    models.ProviderLinkedIn,
		"linkedin_id": profile.Sub,
	})

	if claims.ReviewID == nil {
		return nil, nil
	}
	if !reviewVerified {
		logger.WithFields(logrus.Fields{"user_id": claims.UserID, "review_id": *claims.ReviewID}).
			Warn("state referenced a review the user does not own, skipping review verification")
		return nil, nil
	}
	s.publishReviewVerified(ctx, *claims.ReviewID, claims.UserID, verifiedAt)
	return claims.ReviewID, nil
}

// linkAccount stores the provider identity for the state's user and, when the state carries
// a review of theirs, marks it verified in the same transaction. One LinkedIn member can be
// linked to one local user only; relinking the same user refreshes its tokens.
func (s *LinkedInService) linkAccount(ctx context.Context, claims *linkedin.StateClaims, token *linkedin.Token, profile *linkedin.Profile, verifiedAt time.Time) (bool, error) {
	userID := claims.UserID
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	var user models.User
	if err := tx.First(&user, userID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, notFound("User")
		}
		return false, fmt.Errorf("failed to fetch user: %w", err)
	}

	var existing models.LinkedAccount
	err := tx.Where("provider = ? AND provider_account_id = ?", models.ProviderLinkedIn, profile.Sub).
		First(&existing).Error
	switch {
	case err == nil && existing.UserID != userID:
		tx.Rollback()
		return false, ErrIdentityConflict
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		tx.Rollback()
		return false, fmt.Errorf("failed to check linked account: %w", err)
	}

	account := models.LinkedAccount{
		UserID:            userID,
		Type:              "oauth",
		Provider:          models.ProviderLinkedIn,
		ProviderAccountID: profile.Sub,
		AccessToken:       token.AccessToken,
		RefreshToken:      token.RefreshToken,
		ExpiresAt:         token.ExpiresAt,
		TokenType:         token.TokenType,
		Scope:             token.Scope,
		IDToken:           token.IDToken,
	}
	if err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "provider"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"provider_account_id", "access_token", "refresh_token", "expires_at",
			"token_type", "scope", "id_token", "updated_at",
		}),
	}).Create(&account).Error; err != nil {
		tx.Rollback()
		// Another user linked the same member between our check and the insert.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return false, ErrIdentityConflict
		}
		return false, fmt.Errorf("failed to save linked account: %w", err)
	}

	updates := map[string]interface{}{"linkedin_url": linkedin.ProfileURL(profile.Sub)}
	if user.Name == "" && profile.Name != "" {
		updates["name"] = profile.Name
	}
	if user.Image == "" && profile.Picture != "" {
		updates["image"] = profile.Picture
	}
	if err := tx.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
		tx.Rollback()
		return false, fmt.Errorf("failed to update user profile: %w", err)
	}

	reviewVerified := false
	if claims.ReviewID != nil {
		reviewVerified, err = markReviewVerified(tx, *claims.ReviewID, userID, verifiedAt)
		if err != nil {
			tx.Rollback()
			return false, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return reviewVerified, nil
}

// markReviewVerified flags the review as identity-verified if authorID wrote it.
func markReviewVerified(db *gorm.DB, reviewID, authorID uint, at time.Time) (bool, error) {
	result := db.Model(&models.Review{}).
		Where("id = ? AND author_id = ?", reviewID, authorID).
		Updates(map[string]interface{}{"verified": true, "verified_at": at})
	if result.Error != nil {
		return false, fmt.Errorf("failed to mark review verified: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (s *LinkedInService) publishReviewVerified(ctx context.Context, reviewID, authorID uint, at time.Time) {
	publish(ctx, s.publisher, events.ReviewVerified, reviewKey(reviewID), map[string]any{
		"review_id":   reviewID,
		"author_id":   authorID,
		"verified_at": at,
	})
}

// CheckVerification resolves the user's LinkedIn link against the live provider.
func (s *LinkedInService) CheckVerification(ctx context.Context, userID uint) (*VerificationStatus, error) {
	var account models.LinkedAccount
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND provider = ?", userID, models.ProviderLinkedIn).
		First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &VerificationStatus{Verified: false, Error: "No LinkedIn account linked"}, nil
		}
		return nil, fmt.Errorf("failed to fetch linked account: %w", err)
	}

	if account.Expired(s.now()) {
		return &VerificationStatus{
			Verified:   false,
			LinkedInID: account.ProviderAccountID,
			Error:      "LinkedIn token expired, re-authentication required",
		}, nil
	}

	profile, err := s.provider.FetchProfile(ctx, account.AccessToken)
	if err != nil {
		logger.WithFields(logrus.Fields{"user_id": userID}).Warn("linkedin profile check failed: ", err)
		return &VerificationStatus{
			Verified:   false,
			LinkedInID: account.ProviderAccountID,
			Error:      "Unable to verify LinkedIn account, re-authentication may be required",
		}, nil
	}

	verifiedAt := account.UpdatedAt
	return &VerificationStatus{
		Verified:     true,
		LinkedInID:   account.ProviderAccountID,
		ProfileName:  profile.Name,
		ProfileImage: profile.Picture,
		VerifiedAt:   &verifiedAt,
	}, nil
}

// VerifyReviewIdentity verifies a review through its author's linked LinkedIn account.
// When the link is missing or stale, it returns a fresh authorization URL bound to the review.
func (s *LinkedInService) VerifyReviewIdentity(ctx context.Context, reviewID, actorID uint) (*ReviewIdentityResult, error) {
	review, err := s.review(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if review.AuthorID != actorID {
		return nil, ErrForbidden
	}

	if review.Verified {
		return &ReviewIdentityResult{
			ReviewID:   review.ID,
			Status:     ReviewIdentityAlreadyVerified,
			Verified:   true,
			VerifiedAt: review.VerifiedAt,
			Message:    "Review is already verified",
		}, nil
	}

	status, err := s.CheckVerification(ctx, actorID)
	if err != nil {
		return nil, err
	}

	if !status.Verified {
		auth, err := s.Initiate(ctx, actorID, &review.ID)
		if err != nil {
			return nil, err
		}
		return &ReviewIdentityResult{
			ReviewID:         review.ID,
			Status:           ReviewIdentityRequired,
			Verified:         false,
			AuthorizationURL: auth.AuthorizationURL,
			Reason:           status.Error,
			Message:          "LinkedIn verification required",
		}, nil
	}

	verifiedAt := s.now()
	marked, err := markReviewVerified(s.db.WithContext(ctx), review.ID, actorID, verifiedAt)
	if err != nil {
		return nil, err
	}
	if marked {
		s.publishReviewVerified(ctx, review.ID, actorID, verifiedAt)
	}
	updated, err := s.review(ctx, review.ID)
	if err != nil {
		return nil, err
	}

	return &ReviewIdentityResult{
		ReviewID:        updated.ID,
		Status:          ReviewIdentityVerified,
		Verified:        true,
		VerifiedAt:      updated.VerifiedAt,
		LinkedInProfile: &LinkedInProfileDTO{Name: status.ProfileName, Image: status.ProfileImage},
		Message:         "Review verified with LinkedIn",
	}, nil
}

// ReviewIdentityStatus reports whether a review is verified, with the author's live profile
// when their link still resolves.
func (s *LinkedInService) ReviewIdentityStatus(ctx context.Context, reviewID uint) (*ReviewIdentityResult, error) {
	review, err := s.review(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	result := &ReviewIdentityResult{
		ReviewID:   review.ID,
		Verified:   review.Verified,
		VerifiedAt: review.VerifiedAt,
	}
	if !review.Verified {
		return result, nil
	}

	status, err := s.CheckVerification(ctx, review.AuthorID)
	if err != nil {
		return nil, err
	}
	if status.Verified {
		result.LinkedInProfile = &LinkedInProfileDTO{Name: status.ProfileName, Image: status.ProfileImage}
	}
	return result, nil
}

func (s *LinkedInService) review(ctx context.Context, reviewID uint) (*models.Review, error) {
	var review models.Review
	if err := s.db.WithContext(ctx).First(&review, reviewID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("Review")
		}
		return nil, fmt.Errorf("failed to fetch review: %w", err)
	}
	return &review, nil
}

func (s *LinkedInService) successRedirect(reviewID *uint) string {
	q := url.Values{}
	q.Set("provider", linkedin.ProviderName)
	if reviewID != nil {
		q.Set("reviewId", strconv.FormatUint(uint64(*reviewID), 10))
	}
	return s.frontendURL + "/verify/success?" + q.Encode()
}

func (s *LinkedInService) errorRedirect(code, message string) string {
	q := url.Values{}
	q.Set("error", code)
	q.Set("message", message)
	return s.frontendURL + "/verify/error?" + q.Encode()
}

func userKey(id uint) string {
	return "user-" + strconv.FormatUint(uint64(id), 10)
}
