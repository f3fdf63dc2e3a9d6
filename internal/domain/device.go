package domain

import "github.com/golang-jwt/jwt/v5"

// Claims identifica o dispositivo leitor (widget, relógio) dono do token de acesso à API
type Claims struct {
	DeviceID   string `json:"device_id"`
	DeviceKind string `json:"device_kind"`
	jwt.RegisteredClaims
}

// DeviceTokenRequest é o corpo de POST /v1/devices/token
type DeviceTokenRequest struct {
	DeviceID   string `json:"device_id"`
	DeviceKind string `json:"device_kind"`
	Secret     string `json:"secret"`
}

// Tipos de dispositivo leitor
const (
	DeviceKindApp    = "app"
	DeviceKindWidget = "widget"
	DeviceKindWatch  = "watch"
)

// IsValidDeviceKind informa se kind é um dos leitores conhecidos
func IsValidDeviceKind(kind string) bool {
	switch kind {
	case DeviceKindApp, DeviceKindWidget, DeviceKindWatch:
		return true
	}
	return false
}
