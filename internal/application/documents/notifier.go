package documents

import (
	"context"

	"github.com/jhoicas/backoffice-api/pkg/logger"
)

// LogNotifier publica los números confirmados solo en el log; los componentes de
// mensajería y push los consumen fuera del motor.
type LogNotifier struct {
	log *logger.Logger
}

// NewLogNotifier construye el notificador.
func NewLogNotifier(log *logger.Logger) *LogNotifier {
	if log == nil {
		log = logger.Nop()
	}
	return &LogNotifier{log: log.Component("notifier")}
}

// DocumentCommitted implementa Notifier.
func (n *LogNotifier) DocumentCommitted(_ context.Context, res Result) error {
	ev := n.log.Info().Str("number", res.DocumentNumber)
	if res.CorrectionNumber != "" {
		ev = ev.Str("correction", res.CorrectionNumber)
	}
	ev.Msg("documento disponible para notificación")
	return nil
}
