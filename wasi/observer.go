package wasi

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/wippyai/wasi-common/resource"
)

// tableLogger reports handle lifecycle at debug level.
type tableLogger struct {
	logger *zap.Logger
}

func (l tableLogger) OnResourceEvent(e resource.Event) {
	if ce := l.logger.Check(zap.DebugLevel, "handle "+e.Type.String()); ce != nil {
		fields := []zap.Field{
			zap.Uint32("handle", uint32(e.Handle)),
			zap.String("type", fmt.Sprintf("%T", e.Value)),
		}
		if e.Type == resource.EventRenumbered {
			fields = append(fields, zap.Uint32("from", uint32(e.From)))
		}
		ce.Write(fields...)
	}
}
