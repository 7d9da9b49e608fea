package csvwriter

import (
	"github.com/AdamDotNet/recflow/pkg/common/validation"
	"github.com/AdamDotNet/recflow/pkg/metrics"
)

var _ metrics.Instrumentable = (*Writer[struct{}])(nil)

// EnableMetrics starts recording into config's registry. The open-writers
// gauge keeps tracking the registry that was active when the writer opened.
func (w *Writer[T]) EnableMetrics(config metrics.Config) error {
	if err := validation.ValidateNotEmpty("csvwriter", "name", w.config.Name); err != nil {
		return err
	}
	w.config.Metrics = config
	w.registry = config.Resolve()
	return nil
}

// DisableMetrics stops recording metrics.
func (w *Writer[T]) DisableMetrics() {
	w.config.Metrics.Enabled = false
	w.registry = nil
}

// MetricsEnabled returns true if metrics are currently recorded.
func (w *Writer[T]) MetricsEnabled() bool {
	return w.registry != nil
}
