package logger

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/zgoda02/LasCartasZamow/internal/logger/config"
	"go.uber.org/zap"
)

func NewZapLog(cfg config.Config) (*zap.Logger, error) {
	// текстовый уровень логирования -> zap.AtomicLevel
	lvl, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	zapcfg := zap.NewProductionConfig()
	zapcfg.Level = lvl
	return zapcfg.Build()
}

// middleware-логер для входящих HTTP-запросов.
// Тело запроса пишем в лог целиком: заказы маленькие, а разбирать
// инциденты с деньгами без исходного тела невозможно
func RequestLogMdlw(h http.HandlerFunc, zaplog *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		bodyBytes, _ := io.ReadAll(r.Body)
		r.Body.Close() //  must close
		r.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

		zaplog.Info("got incoming HTTP request",
			zap.String("path", r.URL.Path),
			zap.String("method", r.Method),
			zap.String("body", string(bodyBytes)),
		)

		ws := newStatusWriter(w)

		handlerStart := time.Now()
		h(ws, r)

		zaplog.Info("send HTTP response",
			zap.Int("code", ws.statusCode),
			zap.Int("length", ws.length),
			zap.Duration("duration", time.Since(handlerStart)),
		)
	}
}

type statusWriter struct {
	http.ResponseWriter
	statusCode int
	length     int
}

func newStatusWriter(w http.ResponseWriter) *statusWriter {
	return &statusWriter{w, http.StatusOK, 0}
}

func (ws *statusWriter) WriteHeader(code int) {
	ws.statusCode = code
	ws.ResponseWriter.WriteHeader(code)
}

func (ws *statusWriter) Write(b []byte) (n int, err error) {
	n, err = ws.ResponseWriter.Write(b)
	ws.length += n
	return
}
