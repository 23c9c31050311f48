package utils

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Xushengqwer/starter_hub/config"
	"github.com/Xushengqwer/starter_hub/constants"
)

// ParseSameSiteString 将配置中的 SameSite 字符串转换为 http.SameSite，未知值按 Lax 处理。
func ParseSameSiteString(s string) http.SameSite {
	switch strings.ToLower(s) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// SetRefreshTokenCookie 把刷新令牌写入 HttpOnly Cookie（Web 端使用）。
func SetRefreshTokenCookie(c *gin.Context, cfg config.CookieConfig, token string) {
	c.SetSameSite(ParseSameSiteString(cfg.SameSite))
	c.SetCookie(cfg.TokenCookieName(), token, int(constants.RefreshTokenTTL.Seconds()), cfg.Path, cfg.Domain, cfg.Secure, cfg.HttpOnly)
}

// ClearRefreshTokenCookie 通过 MaxAge=-1 让浏览器删除刷新令牌 Cookie。
func ClearRefreshTokenCookie(c *gin.Context, cfg config.CookieConfig) {
	c.SetSameSite(ParseSameSiteString(cfg.SameSite))
	c.SetCookie(cfg.TokenCookieName(), "", -1, cfg.Path, cfg.Domain, cfg.Secure, cfg.HttpOnly)
}
