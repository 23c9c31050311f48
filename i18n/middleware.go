package i18n

import (
	"github.com/gin-gonic/gin"

	"github.com/Xushengqwer/starter_hub/constants"
)

// LanguageMiddleware 解析请求语言并写入 gin.Context。
// 优先级：?lang= > x-lang 请求头 > Accept-Language > 默认语言。
func LanguageMiddleware(resolver Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := resolver.Resolve(
			c.Query("lang"),
			c.GetHeader(constants.HeaderLang),
			c.GetHeader("Accept-Language"),
		)
		c.Set(constants.ContextKeyLang, lang)
		c.Next()
	}
}

// LangFrom 读取当前请求已解析的语言，未经过中间件时返回空字符串。
func LangFrom(c *gin.Context) string {
	return c.GetString(constants.ContextKeyLang)
}
