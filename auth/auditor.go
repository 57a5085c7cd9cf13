package auth

//go:generate mockgen -destination=mocks/mock_login_auditor.go -package=mocks github.com/ariebrainware/crm-backend/auth LoginAuditor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ariebrainware/crm-backend/model"
	"github.com/ariebrainware/crm-backend/util"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// FailureInvalidPassword is stored as the failure reason of a wrong password.
const FailureInvalidPassword = "invalid password"

// LoginAttemptsChannel is the Redis channel PublishingAuditor writes to.
const LoginAttemptsChannel = "crm:login_attempts"

// LoginEvent is the outcome of one authentication try against a known user.
type LoginEvent struct {
	User          *model.User
	Successful    bool
	FailureReason string
	IPAddress     string
	UserAgent     string
	RequestID     string
}

// LoginAuditor appends login attempts to the audit trail.
type LoginAuditor interface {
	Record(ctx context.Context, event LoginEvent) (*model.LoginAttempt, error)
}

// GormAuditor stores login attempts in the login_attempts table.
type GormAuditor struct {
	db  *gorm.DB
	geo *util.GeoLocator
	now func() time.Time
}

// NewGormAuditor returns an auditor writing to db. geo may be nil, in which
// case every attempt gets the unknown location placeholder.
func NewGormAuditor(db *gorm.DB, geo *util.GeoLocator) *GormAuditor {
	return &GormAuditor{db: db, geo: geo, now: time.Now}
}

func (a *GormAuditor) Record(ctx context.Context, event LoginEvent) (*model.LoginAttempt, error) {
	if event.User == nil || event.User.ID == 0 {
		return nil, errors.New("login attempt requires a stored user")
	}

	client := util.ClassifyUserAgent(event.UserAgent)
	location := a.geo.Locate(event.IPAddress)
	userID := event.User.ID

	attempt := model.LoginAttempt{
		UserID:          &userID,
		CreatedAt:       a.now().UTC(),
		IPAddress:       event.IPAddress,
		Browser:         client.Browser,
		OperatingSystem: client.OperatingSystem,
		DeviceType:      client.DeviceType,
		IsSuccessful:    event.Successful,
		Location:        &location,
		RequestID:       event.RequestID,
	}
	if event.UserAgent != "" {
		ua := event.UserAgent
		attempt.UserAgent = &ua
	}
	if !event.Successful && event.FailureReason != "" {
		reason := event.FailureReason
		attempt.FailureReason = &reason
	}

	if err := a.db.WithContext(ctx).Create(&attempt).Error; err != nil {
		return nil, fmt.Errorf("insert login attempt: %w", err)
	}
	return &attempt, nil
}

// PublishingAuditor forwards to another auditor and then publishes the stored
// record on Redis. Publishing is best-effort.
type PublishingAuditor struct {
	next    LoginAuditor
	rdb     *redis.Client
	channel string
	logger  *logrus.Logger
}

func NewPublishingAuditor(next LoginAuditor, rdb *redis.Client, logger *logrus.Logger) *PublishingAuditor {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &PublishingAuditor{
		next:    next,
		rdb:     rdb,
		channel: LoginAttemptsChannel,
		logger:  logger,
	}
}

func (p *PublishingAuditor) Record(ctx context.Context, event LoginEvent) (*model.LoginAttempt, error) {
	attempt, err := p.next.Record(ctx, event)
	if err != nil || p.rdb == nil {
		return attempt, err
	}

	payload, err := json.Marshal(attempt)
	if err != nil {
		p.logger.WithError(err).Warn("failed to encode login attempt")
		return attempt, nil
	}
	if err := p.rdb.Publish(ctx, p.channel, payload).Err(); err != nil {
		p.logger.WithError(err).WithField("channel", p.channel).Warn("failed to publish login attempt")
	}
	return attempt, nil
}
