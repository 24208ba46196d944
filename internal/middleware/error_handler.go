package middleware

import (
	"net/http"
	"time"

	"github.com/AbnerInnovation/coffee-shop-sub000/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrorHandler turns errors attached with c.Error into a generic 500 when the
// handler did not answer itself. Details go to the log only.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		errs := c.Errors.ByType(gin.ErrorTypeAny)
		if len(errs) == 0 {
			return
		}
		for _, e := range errs {
			requestLog(c, log.Error()).Err(e.Err).Msg("request error")
		}
		if !c.Writer.Written() {
			abortInternal(c)
		}
	}
}

// Recovery converts a panic in any later handler into a 500.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			requestLog(c, log.Error()).Interface("panic", r).Msg("panic recovered")
			if !c.Writer.Written() {
				abortInternal(c)
			}
		}()
		c.Next()
	}
}

func abortInternal(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, apierror.New("Internal server error"))
}

func requestLog(c *gin.Context, e *zerolog.Event) *zerolog.Event {
	return e.
		Str("request_id", c.GetString(RequestIDKey)).
		Str("method", c.Request.Method).
		Str("route", c.FullPath())
}

// Logger logs one line per request. 5xx answers log at error level and 4xx at
// warn, so rejected ledger operations stand out.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		event := log.Info()
		switch {
		case status >= http.StatusInternalServerError:
			event = log.Error()
		case status >= http.StatusBadRequest:
			event = log.Warn()
		}
		if claims := GetClaims(c); claims != nil {
			event = event.Str("user", claims.Username).Str("role", claims.Role)
		}
		requestLog(c, event).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
