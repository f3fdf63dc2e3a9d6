package authenticating

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/adsense-sync-api/internal/config"
	"github.com/vfg2006/adsense-sync-api/internal/domain"
	"github.com/vfg2006/adsense-sync-api/pkg/apiErrors"
	"golang.org/x/crypto/bcrypt"
)

// Authenticator emite e valida os tokens dos leitores (widget, relógio) da API
type Authenticator interface {
	IssueDeviceToken(req *domain.DeviceTokenRequest) (string, error)
	ValidateToken(tokenString string) (*domain.Claims, error)
}

type Service struct {
	cfg *config.Config
	now func() time.Time
}

func NewService(cfg *config.Config) Authenticator {
	return &Service{
		cfg: cfg,
		now: time.Now,
	}
}

// IssueDeviceToken troca o segredo de pareamento por um JWT de acesso
func (s *Service) IssueDeviceToken(req *domain.DeviceTokenRequest) (string, error) {
	if req == nil || strings.TrimSpace(req.DeviceID) == "" || req.Secret == "" {
		return "", NewAuthError(ErrMissingRequiredData, apiErrors.ErrMissingRequiredData, "device_id e secret são obrigatórios")
	}

	if !domain.IsValidDeviceKind(req.DeviceKind) {
		return "", NewDeviceAuthError(ErrInvalidDeviceKind, apiErrors.ErrInvalidFormat, req.DeviceID, "device_kind deve ser app, widget ou watch")
	}

	if s.cfg.Auth.DeviceSecretHash == "" {
		return "", NewDeviceAuthError(ErrDevicesDisabled, apiErrors.ErrInvalidCredentials, req.DeviceID, "DEVICE_SECRET_HASH não configurado")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.Auth.DeviceSecretHash), []byte(req.Secret)); err != nil {
		logrus.WithField("device_id", req.DeviceID).Warn("Segredo de dispositivo incorreto")
		return "", NewDeviceAuthError(ErrInvalidCredentials, apiErrors.ErrInvalidCredentials, req.DeviceID, "Segredo incorreto")
	}

	token, err := s.generateJWT(req)
	if err != nil {
		return "", NewAuthError(err, apiErrors.ErrInternalServer, "Erro ao gerar token de autenticação")
	}

	logrus.WithFields(logrus.Fields{
		"device_id":   req.DeviceID,
		"device_kind": req.DeviceKind,
	}).Info("Token de dispositivo emitido")

	return token, nil
}

func (s *Service) generateJWT(req *domain.DeviceTokenRequest) (string, error) {
	now := s.now()
	claims := domain.Claims{
		DeviceID:   strings.TrimSpace(req.DeviceID),
		DeviceKind: req.DeviceKind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   req.DeviceID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.Auth.TokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.Auth.Secret))
}

func (s *Service) ValidateToken(tokenString string) (*domain.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &domain.Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.Auth.Secret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, NewAuthError(ErrExpiredToken, apiErrors.ErrExpiredToken, err.Error())
		}
		return nil, NewAuthError(ErrInvalidToken, apiErrors.ErrInvalidToken, err.Error())
	}

	claims, ok := token.Claims.(*domain.Claims)
	if !ok || !token.Valid || claims.DeviceID == "" {
		return nil, NewAuthError(ErrInvalidToken, apiErrors.ErrInvalidToken, "claims inválidas")
	}

	return claims, nil
}
