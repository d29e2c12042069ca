package monitor

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sweeney/pir-monitor/internal/gpio"
	"github.com/sweeney/pir-monitor/internal/logger"
)

// EdgeSource forwards every transition reported by an edge line to a
// handler. It does not debounce.
type EdgeSource struct {
	line gpio.EdgeLine
	log  *zap.SugaredLogger
}

// NewEdgeSource wraps line.
func NewEdgeSource(ctx context.Context, line gpio.EdgeLine) *EdgeSource {
	return &EdgeSource{
		line: line,
		log:  logger.FromContext(ctx).Named("edge"),
	}
}

// Start registers handler with the line. The handler runs on the line's
// event goroutine, independent of the Poller.
func (e *EdgeSource) Start(handler func(gpio.Edge)) error {
	if err := e.line.OnEdge(handler); err != nil {
		return fmt.Errorf("register edge handler: %w", err)
	}
	e.log.Debug("edge handler registered")
	return nil
}
