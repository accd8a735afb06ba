package server

import (
	"net/http"
	"time"
)

const (
	// CookieName is the name of the device cookie, used when a client
	// does not send an explicit device identifier.
	CookieName = "luna_device"
	// CookieMaxAge is the duration the cookie is valid
	CookieMaxAge = 30 * 24 * time.Hour
)

// SetDeviceCookie sets an HTTP-only cookie carrying the device ID
func SetDeviceCookie(w http.ResponseWriter, deviceID string) {
	cookie := &http.Cookie{
		Name:     CookieName,
		Value:    deviceID,
		Path:     "/",
		MaxAge:   int(CookieMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   false, // Set to true in production with HTTPS
	}
	http.SetCookie(w, cookie)
}

// GetDeviceCookie reads the device ID from the cookie
func GetDeviceCookie(r *http.Request) (string, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return "", err
	}
	return cookie.Value, nil
}
