// internal/middleware/i18n.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mywinecellar/cellar-api/internal/utils"
)

func I18nMiddleware(defaultLang string) gin.HandlerFunc {
	if defaultLang == "" {
		defaultLang = "en"
	}
	return func(c *gin.Context) {
		c.Set(utils.LangKey, parseLanguage(c.GetHeader("Accept-Language"), defaultLang))
		c.Next()
	}
}

// parseLanguage picks the first language of an Accept-Language header,
// e.g. "fr-CA,fr;q=0.9,en;q=0.8".
func parseLanguage(header, defaultLang string) string {
	if header == "" {
		return defaultLang
	}

	first := strings.TrimSpace(strings.Split(strings.Split(header, ",")[0], ";")[0])
	switch strings.ToLower(first) {
	case "fr", "fr-fr", "fr-ca", "fr-be", "fr-ch", "fr_fr":
		return "fr"
	case "en", "en-us", "en-gb", "en_us":
		return "en"
	default:
		return defaultLang
	}
}
