package telemetry

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// GinMiddleware は HTTP リクエストの分散トレーシング・構造化ログ・RED メトリクスを提供する
// gin ミドルウェアである。metrics が nil の場合はメトリクスを記録しない。
func GinMiddleware(logger *slog.Logger, metrics *Metrics) gin.HandlerFunc {
	tracer := otel.Tracer("k1s0-profile-http")
	return func(c *gin.Context) {
		req := c.Request
		// 上流から traceparent が届いていれば同じトレースに繋げる
		parent := otel.GetTextMapPropagator().Extract(req.Context(), propagation.HeaderCarrier(req.Header))
		ctx, span := tracer.Start(parent, req.Method+" "+req.URL.Path,
			trace.WithAttributes(
				attribute.String("http.method", req.Method),
				attribute.String("http.url", req.URL.String()),
			),
		)
		defer span.End()
		c.Request = req.WithContext(ctx)

		start := time.Now()
		c.Next()
		duration := time.Since(start)

		status := c.Writer.Status()
		span.SetAttributes(attribute.Int("http.status_code", status))

		// パスパラメータでカーディナリティが増えないようルート定義を使う
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		if metrics != nil {
			metrics.HTTPRequestsTotal.WithLabelValues(req.Method, path, strconv.Itoa(status)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(req.Method, path).Observe(duration.Seconds())
		}

		LogWithTrace(ctx, logger).Info("Request completed",
			slog.String("method", req.Method),
			slog.String("path", req.URL.Path),
			slog.Int("status", status),
			slog.Duration("duration", duration),
		)
	}
}

// GRPCUnaryServerInterceptor は gRPC Unary RPC のトレーシング・ログ・メトリクスを提供する。
func GRPCUnaryServerInterceptor(logger *slog.Logger, metrics *Metrics) grpc.UnaryServerInterceptor {
	tracer := otel.Tracer("k1s0-profile-grpc")
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		ctx, span := tracer.Start(ctx, info.FullMethod,
			trace.WithAttributes(
				attribute.String("rpc.method", info.FullMethod),
			),
		)
		defer span.End()

		start := time.Now()
		resp, err := handler(ctx, req)
		duration := time.Since(start)

		code := status.Code(err)
		service, method := splitFullMethod(info.FullMethod)
		if metrics != nil {
			metrics.GRPCHandledTotal.WithLabelValues(service, method, code.String()).Inc()
			metrics.GRPCHandlingDuration.WithLabelValues(service, method).Observe(duration.Seconds())
		}

		l := LogWithTrace(ctx, logger)
		if err != nil {
			l.Warn("gRPC call failed",
				slog.String("method", info.FullMethod),
				slog.String("code", code.String()),
				slog.Duration("duration", duration),
				slog.String("error", err.Error()),
			)
		} else {
			l.Info("gRPC call completed",
				slog.String("method", info.FullMethod),
				slog.Duration("duration", duration),
			)
		}

		return resp, err
	}
}

// splitFullMethod は "/pkg.Service/Method" をサービス名とメソッド名に分割する。
func splitFullMethod(fullMethod string) (string, string) {
	trimmed := strings.TrimPrefix(fullMethod, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		return trimmed[:i], trimmed[i+1:]
	}
	return "unknown", trimmed
}
