package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const readinessTimeout = 5 * time.Second

// HealthChecker はサービスの健全性を確認するインターフェース。
type HealthChecker interface {
	Healthy(ctx context.Context) error
}

// DependencyCheck は readyz で確認する依存先。
type DependencyCheck struct {
	Name    string
	Checker HealthChecker
}

// HealthzHandler は GET /healthz のハンドラー。
func HealthzHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	}
}

// ReadyzHandler は GET /readyz のハンドラー。
// 依存先をすべて確認し、1 つでも失敗すれば 503 を返す。Checker が nil の依存先は "skipped" と報告する。
func ReadyzHandler(deps ...DependencyCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
		defer cancel()

		checks := make(map[string]string, len(deps))
		allReady := true
		for _, dep := range deps {
			if dep.Checker == nil {
				checks[dep.Name] = "skipped"
				continue
			}
			if err := dep.Checker.Healthy(ctx); err != nil {
				checks[dep.Name] = "error: " + err.Error()
				allReady = false
				continue
			}
			checks[dep.Name] = "ok"
		}

		status := "ready"
		statusCode := http.StatusOK
		if !allReady {
			status = "not ready"
			statusCode = http.StatusServiceUnavailable
		}

		c.JSON(statusCode, gin.H{
			"status": status,
			"checks": checks,
		})
	}
}

// RegisterHealthRoutes は healthz / readyz / metrics を登録する。
func RegisterHealthRoutes(r *gin.Engine, metrics http.Handler, deps ...DependencyCheck) {
	r.GET("/healthz", HealthzHandler())
	r.GET("/readyz", ReadyzHandler(deps...))
	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics))
	}
}
