// Package rtctoken mints privilege-scoped access tokens for real-time
// media sessions.
package rtctoken

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lumamarket/settlement_layer/internal/app/metrics"
	"github.com/lumamarket/settlement_layer/internal/config"
	"github.com/lumamarket/settlement_layer/internal/rtc"
	"github.com/lumamarket/settlement_layer/pkg/logger"
)

// ErrNotConfigured signals missing media-provider credentials.
var ErrNotConfigured = errors.New("media provider credentials not configured")

// ErrChannelRequired signals a mint request without a channel name.
var ErrChannelRequired = errors.New("channel name is required")

// Service mints channel tokens from the configured app credentials.
type Service struct {
	cfg config.AgoraConfig
	log *logger.Logger
	now func() time.Time
}

// New constructs the token service.
func New(cfg config.AgoraConfig, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("rtctoken")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = time.Hour
	}
	return &Service{cfg: cfg, log: log, now: time.Now}
}

// MintRequest describes one token mint.
type MintRequest struct {
	ChannelName string
	UID         uint32
	Role        rtc.Role
}

// MintResult echoes the identifiers the client needs to join alongside the
// token itself.
type MintResult struct {
	Token       string
	AppID       string
	ChannelName string
	UID         uint32
}

// Mint builds a signed token for the request. The role defaults to
// publisher and the privilege expiry is now plus the configured TTL.
func (s *Service) Mint(req MintRequest) (MintResult, error) {
	if s.cfg.AppID == "" || s.cfg.AppCertificate == "" {
		return MintResult{}, ErrNotConfigured
	}
	if strings.TrimSpace(req.ChannelName) == "" {
		return MintResult{}, ErrChannelRequired
	}

	role := req.Role
	if role != rtc.RoleSubscriber {
		role = rtc.RolePublisher
	}

	expireAt := uint32(s.now().Add(s.cfg.TokenTTL).Unix())
	token, err := rtc.BuildToken(s.cfg.AppID, s.cfg.AppCertificate, req.ChannelName, req.UID, role, expireAt)
	if err != nil {
		return MintResult{}, fmt.Errorf("build token: %w", err)
	}

	metrics.TokenMinted(string(role))
	s.log.WithField("channel", req.ChannelName).
		WithField("uid", req.UID).
		WithField("role", role).
		Info("rtc token minted")

	return MintResult{
		Token:       token,
		AppID:       s.cfg.AppID,
		ChannelName: req.ChannelName,
		UID:         req.UID,
	}, nil
}
